package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aqlanhadi/txnrecon/extractor"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DocumentExists looks a document up by content hash.
func (db *DB) DocumentExists(ctx context.Context, contentHash string) (bool, string, error) {
	var id string
	err := db.Pool.QueryRow(ctx, `
		SELECT id FROM documents
		WHERE content_hash = $1
	`, contentHash).Scan(&id)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, "", nil
		}
		return false, "", fmt.Errorf("failed to check document: %w", err)
	}

	return true, id, nil
}

// DeleteDocument removes a document and its transactions (cascade)
func (db *DB) DeleteDocument(ctx context.Context, documentID string) error {
	return deleteDocument(ctx, db.Pool, documentID)
}

// SaveDocument stores a document and all of its transactions in one
// database transaction.
func (db *DB) SaveDocument(ctx context.Context, doc *extractor.Document) error {
	return db.ReplaceDocument(ctx, "", doc)
}

// ReplaceDocument deletes the document previousID, if set, and stores doc
// in the same database transaction. On any failure the previous document
// is left untouched.
func (db *DB) ReplaceDocument(ctx context.Context, previousID string, doc *extractor.Document) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if previousID != "" {
		if err := deleteDocument(ctx, tx, previousID); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
	}
	if err := insertDocument(ctx, tx, doc); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := insertTransactions(ctx, tx, doc.ID, doc.Transactions); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit document: %w", err)
	}
	return nil
}

// execer is satisfied by both the pool and an open pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func deleteDocument(ctx context.Context, conn execer, documentID string) error {
	_, err := conn.Exec(ctx, `DELETE FROM documents WHERE id = $1`, documentID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

func insertDocument(ctx context.Context, tx pgx.Tx, doc *extractor.Document) error {
	var (
		month      *string
		year       *int
		start, end *time.Time
	)
	if p := doc.DetectedPeriod; p != nil {
		if p.Month != "" {
			month = &p.Month
		}
		if p.Year != 0 {
			year = &p.Year
		}
		start = parseISODate(p.StartDate)
		end = parseISODate(p.EndDate)
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO documents (
			id, filename, content_hash, format, bank_name, page_count, strategy,
			period_month, period_year, period_start, period_end
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		doc.ID, doc.Filename, doc.ContentHash, doc.Format, doc.BankName, doc.PageCount, doc.Strategy,
		month, year, start, end,
	)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

func parseISODate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}
