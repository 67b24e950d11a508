package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	account_id      TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	type_code       TEXT NOT NULL,
	currency        TEXT NOT NULL DEFAULT 'EUR',
	created_at      TIMESTAMPTZ NOT NULL,
	last_updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS invoices (
	invoice_id       TEXT PRIMARY KEY,
	number           TEXT NOT NULL,
	kind             TEXT NOT NULL,
	principal_amount BIGINT NOT NULL,
	due_date         TIMESTAMPTZ NOT NULL,
	account_id       TEXT NOT NULL REFERENCES accounts(account_id),
	close_date       TIMESTAMPTZ,
	version          BIGINT NOT NULL DEFAULT 0,
	created_at       TIMESTAMPTZ NOT NULL,
	last_updated_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS entries (
	entry_id           TEXT PRIMARY KEY,
	account_id         TEXT NOT NULL REFERENCES accounts(account_id),
	type_code          TEXT NOT NULL,
	amount             BIGINT NOT NULL,
	entry_timestamp    TIMESTAMPTZ NOT NULL,
	parent_id          TEXT REFERENCES entries(entry_id),
	composite          BOOLEAN NOT NULL DEFAULT FALSE,
	open               BOOLEAN NOT NULL DEFAULT FALSE,
	source_invoice_id  TEXT REFERENCES invoices(invoice_id),
	settled_invoice_id TEXT REFERENCES invoices(invoice_id),
	settled_entry_id   TEXT REFERENCES entries(entry_id),
	description        TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMPTZ NOT NULL,
	last_updated_at    TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entries_account_ts ON entries (account_id, entry_timestamp);
CREATE INDEX IF NOT EXISTS idx_entries_parent ON entries (parent_id);
CREATE INDEX IF NOT EXISTS idx_entries_source_invoice ON entries (source_invoice_id);
CREATE INDEX IF NOT EXISTS idx_entries_settled_invoice ON entries (settled_invoice_id);
CREATE INDEX IF NOT EXISTS idx_invoices_account_due ON invoices (account_id, due_date);
`

// EnsureSchema creates the ledger tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
