package services

import (
	"context"
	"time"

	"github.com/arledger/arledger/internal/core/domain"
	"github.com/arledger/arledger/internal/dto"
)

// InvoiceSvcFacade manages invoice aggregates and their derived queries.
type InvoiceSvcFacade interface {
	// CreateInvoice validates the request, stores the invoice and posts its
	// initial receivable item entries.
	CreateInvoice(ctx context.Context, req dto.CreateInvoiceRequest) (*domain.Invoice, error)

	GetInvoice(ctx context.Context, invoiceID string) (*domain.Invoice, error)

	// OutstandingAmount is principal plus materialized interest minus
	// settlements: the sum of visible entries linked to the invoice on its
	// receivables account.
	OutstandingAmount(ctx context.Context, invoiceID string) (domain.Amount, error)

	// SettledAmount is the absolute sum of settlement allocations.
	SettledAmount(ctx context.Context, invoiceID string) (domain.Amount, error)

	IsSettled(ctx context.Context, invoiceID string) (bool, error)

	// LateDays returns whole days past due as of the supplied time (clock
	// time when nil), floored at zero.
	LateDays(ctx context.Context, invoiceID string, asOf *time.Time) (int, error)

	// State derives the invoice lifecycle state (NOT_DUE_YET/DUE/LATE/PAID).
	State(ctx context.Context, invoiceID string, asOf *time.Time) (domain.InvoiceState, error)

	// UnpaidItems returns invoice items with a remaining balance, ordered by
	// payback priority then item ID; this is the settlement allocation order.
	UnpaidItems(ctx context.Context, invoiceID string) ([]dto.ItemBalance, error)
}
