package postgres

import (
	"context"
	"fmt"
)

const ddl = `
CREATE TABLE IF NOT EXISTS documents (
    id UUID PRIMARY KEY,
    filename VARCHAR(255) NOT NULL,
    content_hash CHAR(64) NOT NULL,
    format VARCHAR(16) NOT NULL,
    bank_name VARCHAR(100) NOT NULL DEFAULT '',
    page_count INTEGER NOT NULL DEFAULT 0,
    strategy VARCHAR(32) NOT NULL DEFAULT '',
    period_month VARCHAR(16),
    period_year INTEGER,
    period_start DATE,
    period_end DATE,
    created_at TIMESTAMPTZ DEFAULT NOW(),

    UNIQUE(content_hash)
);

CREATE TABLE IF NOT EXISTS transactions (
    id UUID PRIMARY KEY,
    document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    sequence INTEGER NOT NULL,
    description TEXT NOT NULL,
    amount NUMERIC(18,2) NOT NULL CHECK (amount > 0),
    date_text VARCHAR(64) NOT NULL DEFAULT '',
    type VARCHAR(10) NOT NULL,
    category VARCHAR(32) NOT NULL,
    created_at TIMESTAMPTZ DEFAULT NOW(),

    UNIQUE(document_id, sequence)
);

CREATE INDEX IF NOT EXISTS idx_documents_period ON documents(period_year, period_month);
CREATE INDEX IF NOT EXISTS idx_transactions_document_id ON transactions(document_id);
CREATE INDEX IF NOT EXISTS idx_transactions_category ON transactions(category);
`

// EnsureSchema creates tables if they don't exist
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
