package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/arledger/arledger/internal/core/domain"
)

// InterestSvcFacade computes simple daily interest on overdue invoices.
type InterestSvcFacade interface {
	// AccruedInterest returns the interest accrued on the invoice's
	// outstanding balance as of the supplied time (clock time when nil).
	// Zero if the invoice is settled or not yet due. annualRate is a
	// fraction, e.g. 0.10 for 10% p.a. Read-only.
	AccruedInterest(ctx context.Context, invoiceID string, annualRate decimal.Decimal, asOf *time.Time) (domain.Amount, error)

	// MaterializeInterest computes AccruedInterest and posts it as a new
	// interest-typed invoice item, growing the invoice's obligation.
	MaterializeInterest(ctx context.Context, invoiceID string, annualRate decimal.Decimal, asOf *time.Time) (*domain.Entry, error)
}
