package services

import (
	"context"
	"time"

	"github.com/arledger/arledger/internal/core/domain"
)

// SettlementSvcFacade allocates incoming payments to outstanding invoices.
type SettlementSvcFacade interface {
	// Settle applies a payment to a single invoice, allocating across unpaid
	// invoice items in payback-priority order. Strict: any excess over the
	// outstanding amount fails with OverSettlementError and writes nothing.
	Settle(ctx context.Context, invoiceID string, paymentAmount domain.Amount, timestamp time.Time) ([]domain.Entry, error)

	// SettleWithOverpayment behaves like Settle but books any excess as a
	// credit on the configured suspense account instead of rejecting it.
	SettleWithOverpayment(ctx context.Context, invoiceID string, paymentAmount domain.Amount, timestamp time.Time) ([]domain.Entry, error)

	// SettleAssigned allocates one payment across multiple invoices in the
	// caller-supplied order, stopping when the payment is exhausted or all
	// invoices are settled. The unallocated remainder is returned, never
	// silently discarded.
	SettleAssigned(ctx context.Context, invoiceIDs []string, paymentAmount domain.Amount, timestamp time.Time) ([]domain.Entry, domain.Amount, error)

	// SettleOpenInvoices is SettleAssigned with the default deterministic
	// order: open invoices of the account, oldest due date first, ties broken
	// by invoice ID.
	SettleOpenInvoices(ctx context.Context, accountID string, paymentAmount domain.Amount, timestamp time.Time) ([]domain.Entry, domain.Amount, error)

	// SettleCreditNote reconciles a credit note against a standard invoice
	// with a balanced pair of entries, capped at the smaller of the credit
	// available and the invoice's outstanding amount. A nil amount settles
	// as much as possible.
	SettleCreditNote(ctx context.Context, creditNoteID, invoiceID string, amount *domain.Amount, timestamp time.Time) ([]domain.Entry, error)

	// Unsettle reverses a settlement allocation (e.g. a bounced payment),
	// restoring the invoice's outstanding balance.
	Unsettle(ctx context.Context, settlementEntryID string, timestamp time.Time) (*domain.Entry, error)
}
