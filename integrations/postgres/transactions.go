package postgres

import (
	"context"
	"fmt"

	"github.com/aqlanhadi/txnrecon/extractor/common"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// insertTransactions writes rows in document order; sequence starts at 1.
func insertTransactions(ctx context.Context, tx pgx.Tx, documentID string, transactions []common.Transaction) error {
	for i, t := range transactions {
		_, err := tx.Exec(ctx, `
			INSERT INTO transactions (
				id, document_id, sequence, description, amount, date_text, type, category
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`,
			uuid.NewString(), documentID, i+1, t.Description,
			decimal.NewFromFloat(t.Amount).Round(2), t.Date, string(t.Type), string(t.Category),
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction %d: %w", i+1, err)
		}
	}
	return nil
}
