package repositories

import (
	"context"

	"github.com/arledger/arledger/internal/core/domain"
)

// InvoiceReader defines read operations for invoices.
type InvoiceReader interface {
	// FindInvoiceByID retrieves an invoice by its unique identifier.
	FindInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error)

	// ListInvoicesByAccountID retrieves invoices for a receivables account
	// ordered by due date then ID (the default settlement allocation order).
	ListInvoicesByAccountID(ctx context.Context, accountID string) ([]domain.Invoice, error)
}

// InvoiceWriter defines write operations for invoices.
type InvoiceWriter interface {
	// SaveInvoice persists a new invoice. Fails with ErrDuplicate on reused IDs.
	SaveInvoice(ctx context.Context, invoice domain.Invoice) error

	// UpdateInvoice persists changes to an existing invoice using optimistic
	// concurrency: if the stored Version differs from invoice.Version the
	// call fails with a ConflictError and nothing is written. On success the
	// stored version is invoice.Version+1.
	UpdateInvoice(ctx context.Context, invoice domain.Invoice) error

	// DeleteInvoice removes an invoice. Invoices that have entries cannot be
	// deleted; the call fails with ErrConflict.
	DeleteInvoice(ctx context.Context, invoiceID string) error
}

// InvoiceRepository combines all invoice persistence operations.
type InvoiceRepository interface {
	InvoiceReader
	InvoiceWriter
}
