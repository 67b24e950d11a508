package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/arledger/arledger/internal/apperrors"
	"github.com/arledger/arledger/internal/core/domain"
	"github.com/arledger/arledger/internal/core/ports"
	portssvc "github.com/arledger/arledger/internal/core/ports/services"
)

const daysPerYear = 365

// interestService computes simple daily interest on overdue invoices.
// Reads are side-effect free and safe to call from any goroutine.
type interestService struct {
	invoiceSvc       portssvc.InvoiceSvcFacade
	ledgerSvc        portssvc.LedgerSvcFacade
	interestTypeCode string
	clock            ports.Clock
	logger           *slog.Logger
}

// NewInterestService creates the interest calculator. interestTypeCode is
// the entry type used for materialized interest items.
func NewInterestService(invoiceSvc portssvc.InvoiceSvcFacade, ledgerSvc portssvc.LedgerSvcFacade, interestTypeCode string, clock ports.Clock, logger *slog.Logger) portssvc.InterestSvcFacade {
	if logger == nil {
		logger = slog.Default()
	}
	return &interestService{
		invoiceSvc:       invoiceSvc,
		ledgerSvc:        ledgerSvc,
		interestTypeCode: interestTypeCode,
		clock:            clock,
		logger:           logger,
	}
}

var _ portssvc.InterestSvcFacade = (*interestService)(nil)

// AccruedInterest returns outstanding * rate * lateDays / 365, rounded once
// at the end with round-half-even to minor-unit precision. Rounding only the
// final result keeps repeated queries free of compounding rounding error.
func (s *interestService) AccruedInterest(ctx context.Context, invoiceID string, annualRate decimal.Decimal, asOf *time.Time) (domain.Amount, error) {
	if annualRate.IsNegative() {
		return 0, apperrors.NewValidationError("annualRate", "interest rate cannot be negative")
	}
	invoice, err := s.invoiceSvc.GetInvoice(ctx, invoiceID)
	if err != nil {
		return 0, err
	}
	// Credit notes carry a negative outstanding and never accrue interest.
	if invoice.Kind == domain.CreditNote {
		return 0, nil
	}
	outstanding, err := s.invoiceSvc.OutstandingAmount(ctx, invoiceID)
	if err != nil {
		return 0, err
	}
	if invoice.IsSettledWith(outstanding) {
		return 0, nil
	}
	t := s.clock.Now()
	if asOf != nil {
		t = *asOf
	}
	if !t.After(invoice.DueDate) {
		return 0, nil
	}
	lateDays := invoice.LateDaysAt(t)
	if lateDays == 0 {
		return 0, nil
	}
	interest := outstanding.Decimal().
		Mul(annualRate).
		Mul(decimal.NewFromInt(int64(lateDays))).
		Div(decimal.NewFromInt(daysPerYear)).
		RoundBank(2)
	return domain.AmountFromDecimal(interest)
}

// MaterializeInterest posts the accrued interest as a new invoice item so it
// joins the invoice's outstanding amount.
func (s *interestService) MaterializeInterest(ctx context.Context, invoiceID string, annualRate decimal.Decimal, asOf *time.Time) (*domain.Entry, error) {
	amount, err := s.AccruedInterest(ctx, invoiceID, annualRate, asOf)
	if err != nil {
		return nil, err
	}
	if amount.IsZero() {
		return nil, apperrors.NewValidationError("invoiceID", fmt.Sprintf("no interest accrued on invoice %s", invoiceID))
	}
	invoice, err := s.invoiceSvc.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	t := s.clock.Now()
	if asOf != nil {
		t = *asOf
	}
	entry, err := s.ledgerSvc.Post(ctx, postInterestRequest(invoice, s.interestTypeCode, amount, t))
	if err != nil {
		return nil, err
	}
	s.logger.Info("interest materialized",
		slog.String("invoice_id", invoiceID),
		slog.String("amount", amount.String()),
		slog.String("as_of", t.Format(time.RFC3339)))
	return entry, nil
}
