package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arledger/arledger/internal/apperrors"
	"github.com/arledger/arledger/internal/core/domain"
	portsrepo "github.com/arledger/arledger/internal/core/ports/repositories"
)

// PgxEntryRepository persists ledger entries. Entries are append-only: the
// only UPDATE this repository ever issues is the composite-close flip.
type PgxEntryRepository struct {
	BaseRepository
}

func newPgxEntryRepository(pool *pgxpool.Pool) portsrepo.EntryRepository {
	return &PgxEntryRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.EntryRepository = (*PgxEntryRepository)(nil)

const entryColumns = `entry_id, account_id, type_code, amount, entry_timestamp, parent_id,
	composite, open, source_invoice_id, settled_invoice_id, settled_entry_id, description,
	created_at, last_updated_at`

const insertEntryQuery = `
	INSERT INTO entries (` + entryColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
`

// visibleEntryCond excludes open composite parents and their children, so
// readers never observe a composite mid-construction.
const visibleEntryCond = `
	NOT (e.composite AND e.open)
	AND NOT EXISTS (SELECT 1 FROM entries p WHERE p.entry_id = e.parent_id AND p.open)
`

func entryArgs(e domain.Entry) []any {
	return []any{
		e.EntryID, e.AccountID, e.TypeCode, int64(e.Amount), e.Timestamp, e.ParentID,
		e.Composite, e.Open, e.SourceInvoiceID, e.SettledInvoiceID, e.SettledEntryID,
		e.Description, e.CreatedAt, e.LastUpdatedAt,
	}
}

func scanEntry(row pgx.Row) (*domain.Entry, error) {
	var e domain.Entry
	var amount int64
	err := row.Scan(&e.EntryID, &e.AccountID, &e.TypeCode, &amount, &e.Timestamp, &e.ParentID,
		&e.Composite, &e.Open, &e.SourceInvoiceID, &e.SettledInvoiceID, &e.SettledEntryID,
		&e.Description, &e.CreatedAt, &e.LastUpdatedAt)
	if err != nil {
		return nil, err
	}
	e.Amount = domain.Amount(amount)
	return &e, nil
}

func (r *PgxEntryRepository) SaveEntry(ctx context.Context, entry domain.Entry) error {
	if _, err := r.Pool.Exec(ctx, insertEntryQuery, entryArgs(entry)...); err != nil {
		return fmt.Errorf("failed to insert entry %s: %w", entry.EntryID, err)
	}
	return nil
}

// SaveEntries inserts a batch atomically inside one database transaction.
func (r *PgxEntryRepository) SaveEntries(ctx context.Context, entries []domain.Entry) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer r.Rollback(ctx, tx)

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(insertEntryQuery, entryArgs(e)...)
	}
	br := tx.SendBatch(ctx, batch)
	for range entries {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("failed to insert entry batch: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close entry batch: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *PgxEntryRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE entry_id = $1;`
	entry, err := scanEntry(r.Pool.QueryRow(ctx, query, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("entry %s: %w", entryID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query entry %s: %w", entryID, err)
	}
	return entry, nil
}

func (r *PgxEntryRepository) FindEntriesByAccountID(ctx context.Context, accountID string, asOf *time.Time) ([]domain.Entry, error) {
	query := `
		SELECT ` + entryColumns + ` FROM entries e
		WHERE e.account_id = $1
		AND ($2::timestamptz IS NULL OR e.entry_timestamp <= $2)
		AND ` + visibleEntryCond + `
		ORDER BY e.entry_timestamp, e.entry_id;
	`
	return r.queryEntries(ctx, query, accountID, asOf)
}

func (r *PgxEntryRepository) FindEntriesByParentID(ctx context.Context, parentID string) ([]domain.Entry, error) {
	query := `
		SELECT ` + entryColumns + ` FROM entries e
		WHERE e.parent_id = $1
		ORDER BY e.entry_timestamp, e.entry_id;
	`
	return r.queryEntries(ctx, query, parentID)
}

func (r *PgxEntryRepository) FindEntriesByInvoiceID(ctx context.Context, invoiceID string) ([]domain.Entry, error) {
	query := `
		SELECT ` + entryColumns + ` FROM entries e
		WHERE (e.source_invoice_id = $1 OR e.settled_invoice_id = $1)
		AND ` + visibleEntryCond + `
		ORDER BY e.entry_timestamp, e.entry_id;
	`
	return r.queryEntries(ctx, query, invoiceID)
}

func (r *PgxEntryRepository) MarkCompositeClosed(ctx context.Context, parentID string) error {
	tag, err := r.Pool.Exec(ctx, `UPDATE entries SET open = FALSE WHERE entry_id = $1 AND composite AND open;`, parentID)
	if err != nil {
		return fmt.Errorf("failed to close composite %s: %w", parentID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewValidationError("parentID", fmt.Sprintf("composite %s not found or already closed", parentID))
	}
	return nil
}

func (r *PgxEntryRepository) queryEntries(ctx context.Context, query string, args ...any) ([]domain.Entry, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var out []domain.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry row: %w", err)
		}
		out = append(out, *entry)
	}
	return out, rows.Err()
}
