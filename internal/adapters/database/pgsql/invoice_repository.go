package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arledger/arledger/internal/apperrors"
	"github.com/arledger/arledger/internal/core/domain"
	portsrepo "github.com/arledger/arledger/internal/core/ports/repositories"
)

// PgxInvoiceRepository persists invoices with optimistic version checks.
type PgxInvoiceRepository struct {
	BaseRepository
}

func newPgxInvoiceRepository(pool *pgxpool.Pool) portsrepo.InvoiceRepository {
	return &PgxInvoiceRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.InvoiceRepository = (*PgxInvoiceRepository)(nil)

const invoiceColumns = `invoice_id, number, kind, principal_amount, due_date, account_id,
	close_date, version, created_at, last_updated_at`

func scanInvoice(row pgx.Row) (*domain.Invoice, error) {
	var inv domain.Invoice
	var principal int64
	err := row.Scan(&inv.InvoiceID, &inv.Number, &inv.Kind, &principal, &inv.DueDate,
		&inv.AccountID, &inv.CloseDate, &inv.Version, &inv.CreatedAt, &inv.LastUpdatedAt)
	if err != nil {
		return nil, err
	}
	inv.PrincipalAmount = domain.Amount(principal)
	return &inv, nil
}

func (r *PgxInvoiceRepository) SaveInvoice(ctx context.Context, invoice domain.Invoice) error {
	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.Pool.Exec(ctx, query,
		invoice.InvoiceID,
		invoice.Number,
		string(invoice.Kind),
		int64(invoice.PrincipalAmount),
		invoice.DueDate,
		invoice.AccountID,
		invoice.CloseDate,
		invoice.Version,
		invoice.CreatedAt,
		invoice.LastUpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return fmt.Errorf("invoice %s: %w", invoice.InvoiceID, apperrors.ErrDuplicate)
		}
		return fmt.Errorf("failed to insert invoice %s: %w", invoice.InvoiceID, err)
	}
	return nil
}

// UpdateInvoice writes the invoice only if the stored version still matches,
// bumping the version on success. A stale version yields a ConflictError.
func (r *PgxInvoiceRepository) UpdateInvoice(ctx context.Context, invoice domain.Invoice) error {
	query := `
		UPDATE invoices
		SET number = $2, kind = $3, principal_amount = $4, due_date = $5,
			close_date = $6, version = version + 1, last_updated_at = $7
		WHERE invoice_id = $1 AND version = $8;
	`
	tag, err := r.Pool.Exec(ctx, query,
		invoice.InvoiceID,
		invoice.Number,
		string(invoice.Kind),
		int64(invoice.PrincipalAmount),
		invoice.DueDate,
		invoice.CloseDate,
		invoice.LastUpdatedAt,
		invoice.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update invoice %s: %w", invoice.InvoiceID, err)
	}
	if tag.RowsAffected() == 0 {
		if _, ferr := r.FindInvoiceByID(ctx, invoice.InvoiceID); ferr != nil {
			return ferr
		}
		return &apperrors.ConflictError{Kind: "invoice", ID: invoice.InvoiceID}
	}
	return nil
}

func (r *PgxInvoiceRepository) FindInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE invoice_id = $1;`
	inv, err := scanInvoice(r.Pool.QueryRow(ctx, query, invoiceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("invoice %s: %w", invoiceID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query invoice %s: %w", invoiceID, err)
	}
	return inv, nil
}

func (r *PgxInvoiceRepository) ListInvoicesByAccountID(ctx context.Context, accountID string) ([]domain.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + ` FROM invoices
		WHERE account_id = $1
		ORDER BY due_date, invoice_id;
	`
	rows, err := r.Pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices for account %s: %w", accountID, err)
	}
	defer rows.Close()

	var out []domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice row: %w", err)
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

func (r *PgxInvoiceRepository) DeleteInvoice(ctx context.Context, invoiceID string) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer r.Rollback(ctx, tx)

	var hasEntries bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM entries WHERE source_invoice_id = $1 OR settled_invoice_id = $1);`,
		invoiceID).Scan(&hasEntries)
	if err != nil {
		return fmt.Errorf("failed to check entries for invoice %s: %w", invoiceID, err)
	}
	if hasEntries {
		return &apperrors.ConflictError{Kind: "invoice", ID: invoiceID}
	}
	tag, err := tx.Exec(ctx, `DELETE FROM invoices WHERE invoice_id = $1;`, invoiceID)
	if err != nil {
		return fmt.Errorf("failed to delete invoice %s: %w", invoiceID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("invoice %s: %w", invoiceID, apperrors.ErrNotFound)
	}
	return tx.Commit(ctx)
}
