package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/arledger/arledger/internal/apperrors"
	"github.com/arledger/arledger/internal/core/domain"
	"github.com/arledger/arledger/internal/core/ports"
	portsrepo "github.com/arledger/arledger/internal/core/ports/repositories"
	portssvc "github.com/arledger/arledger/internal/core/ports/services"
	"github.com/arledger/arledger/internal/core/registry"
	"github.com/arledger/arledger/internal/dto"
)

// invoiceService is a thin aggregate over the entry ledger: all monetary
// state (settled, outstanding, paid) is derived from entries, never stored.
type invoiceService struct {
	registry      *registry.Registry
	accountRepo   portsrepo.AccountRepository
	entryRepo     portsrepo.EntryRepository
	invoiceRepo   portsrepo.InvoiceRepository
	clock         ports.Clock
	lateLimitDays int
	logger        *slog.Logger
}

// NewInvoiceService creates the invoice aggregate service. lateLimitDays is
// how many days past due an invoice must be before its state turns LATE.
func NewInvoiceService(reg *registry.Registry, accountRepo portsrepo.AccountRepository, entryRepo portsrepo.EntryRepository, invoiceRepo portsrepo.InvoiceRepository, clock ports.Clock, lateLimitDays int, logger *slog.Logger) portssvc.InvoiceSvcFacade {
	if logger == nil {
		logger = slog.Default()
	}
	return &invoiceService{
		registry:      reg,
		accountRepo:   accountRepo,
		entryRepo:     entryRepo,
		invoiceRepo:   invoiceRepo,
		clock:         clock,
		lateLimitDays: lateLimitDays,
		logger:        logger,
	}
}

var _ portssvc.InvoiceSvcFacade = (*invoiceService)(nil)

// CreateInvoice validates the request, stores the invoice and posts its
// initial receivable items in one atomic batch.
func (s *invoiceService) CreateInvoice(ctx context.Context, req dto.CreateInvoiceRequest) (*domain.Invoice, error) {
	if req.Number == "" {
		return nil, apperrors.NewValidationError("number", "invoice number is required")
	}
	if req.DueDate.IsZero() {
		return nil, apperrors.NewValidationError("dueDate", "due date is required")
	}
	if len(req.Lines) == 0 {
		return nil, apperrors.NewValidationError("lines", "an invoice needs at least one line")
	}
	kind := req.Kind
	if kind == "" {
		kind = domain.StandardInvoice
	}
	if kind != domain.StandardInvoice && kind != domain.CreditNote {
		return nil, apperrors.NewValidationError("kind", fmt.Sprintf("unknown invoice kind %q", kind))
	}
	if _, err := s.accountRepo.FindAccountByID(ctx, req.AccountID); err != nil {
		return nil, apperrors.NewValidationError("accountID", fmt.Sprintf("unknown account %q", req.AccountID))
	}

	var principal domain.Amount
	for i, line := range req.Lines {
		if _, err := s.registry.EntryType(line.TypeCode); err != nil {
			return nil, err
		}
		if kind == domain.StandardInvoice && !line.Amount.IsPositive() {
			return nil, apperrors.NewValidationError("lines", fmt.Sprintf("line %d: invoice line amounts must be positive", i))
		}
		if kind == domain.CreditNote && !line.Amount.IsNegative() {
			return nil, apperrors.NewValidationError("lines", fmt.Sprintf("line %d: credit note line amounts must be negative", i))
		}
		principal += line.Amount
	}
	if principal.Abs().IsZero() {
		return nil, apperrors.NewValidationError("lines", "invoice principal must be non-zero")
	}

	now := s.clock.Now()
	invoice := domain.Invoice{
		InvoiceID:       uuid.NewString(),
		Number:          req.Number,
		Kind:            kind,
		PrincipalAmount: principal.Abs(),
		DueDate:         req.DueDate,
		AccountID:       req.AccountID,
		AuditFields:     domain.AuditFields{CreatedAt: now, LastUpdatedAt: now},
	}
	if err := s.invoiceRepo.SaveInvoice(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to save invoice: %w", err)
	}

	entries := make([]domain.Entry, len(req.Lines))
	for i, line := range req.Lines {
		invoiceID := invoice.InvoiceID
		entries[i] = domain.Entry{
			EntryID:         uuid.NewString(),
			AccountID:       req.AccountID,
			TypeCode:        line.TypeCode,
			Amount:          line.Amount,
			Timestamp:       now,
			SourceInvoiceID: &invoiceID,
			Description:     line.Description,
			AuditFields:     domain.AuditFields{CreatedAt: now, LastUpdatedAt: now},
		}
	}
	if err := s.entryRepo.SaveEntries(ctx, entries); err != nil {
		// Remove the invoice row so a failed item batch never leaves a
		// zero-item invoice that would read as settled.
		if delErr := s.invoiceRepo.DeleteInvoice(ctx, invoice.InvoiceID); delErr != nil {
			s.logger.Error("failed to remove invoice after item save failure",
				slog.String("invoice_id", invoice.InvoiceID),
				slog.String("error", delErr.Error()))
		}
		return nil, fmt.Errorf("failed to save invoice items: %w", err)
	}
	s.logger.Info("invoice created",
		slog.String("invoice_id", invoice.InvoiceID),
		slog.String("number", invoice.Number),
		slog.String("principal", invoice.PrincipalAmount.String()),
		slog.Int("lines", len(entries)))
	return &invoice, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	inv, err := s.invoiceRepo.FindInvoiceByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to find invoice %s: %w", invoiceID, err)
	}
	return inv, nil
}

// OutstandingAmount sums the visible entries linked to the invoice on its
// receivables account: items (principal plus materialized interest) minus
// settlement allocations. Entries on other accounts that reference the
// invoice (the payment debit, overpayment credits) do not belong to the
// receivable balance.
func (s *invoiceService) OutstandingAmount(ctx context.Context, invoiceID string) (domain.Amount, error) {
	inv, err := s.invoiceRepo.FindInvoiceByID(ctx, invoiceID)
	if err != nil {
		return 0, fmt.Errorf("failed to find invoice %s: %w", invoiceID, err)
	}
	entries, err := s.entryRepo.FindEntriesByInvoiceID(ctx, invoiceID)
	if err != nil {
		return 0, fmt.Errorf("failed to load entries for invoice %s: %w", invoiceID, err)
	}
	var sum domain.Amount
	for _, e := range entries {
		if e.AccountID != inv.AccountID {
			continue
		}
		sum += e.Amount
	}
	return sum, nil
}

// SettledAmount is the absolute sum of settlement-classified allocations.
func (s *invoiceService) SettledAmount(ctx context.Context, invoiceID string) (domain.Amount, error) {
	entries, err := s.entryRepo.FindEntriesByInvoiceID(ctx, invoiceID)
	if err != nil {
		return 0, fmt.Errorf("failed to load entries for invoice %s: %w", invoiceID, err)
	}
	var sum domain.Amount
	for _, e := range entries {
		et, err := s.registry.EntryType(e.TypeCode)
		if err != nil {
			return 0, err
		}
		if e.SettledInvoiceID != nil && et.Classification == domain.Settlement {
			sum += e.Amount
		}
	}
	return sum.Abs(), nil
}

func (s *invoiceService) IsSettled(ctx context.Context, invoiceID string) (bool, error) {
	inv, err := s.GetInvoice(ctx, invoiceID)
	if err != nil {
		return false, err
	}
	outstanding, err := s.OutstandingAmount(ctx, invoiceID)
	if err != nil {
		return false, err
	}
	return inv.IsSettledWith(outstanding), nil
}

func (s *invoiceService) LateDays(ctx context.Context, invoiceID string, asOf *time.Time) (int, error) {
	inv, err := s.GetInvoice(ctx, invoiceID)
	if err != nil {
		return 0, err
	}
	t := s.clock.Now()
	if asOf != nil {
		t = *asOf
	}
	return inv.LateDaysAt(t), nil
}

func (s *invoiceService) State(ctx context.Context, invoiceID string, asOf *time.Time) (domain.InvoiceState, error) {
	inv, err := s.GetInvoice(ctx, invoiceID)
	if err != nil {
		return "", err
	}
	outstanding, err := s.OutstandingAmount(ctx, invoiceID)
	if err != nil {
		return "", err
	}
	t := s.clock.Now()
	if asOf != nil {
		t = *asOf
	}
	return inv.StateAt(outstanding, t, s.lateLimitDays), nil
}

// UnpaidItems returns items with a remaining balance in allocation order:
// payback priority ascending, ties broken by item ID.
func (s *invoiceService) UnpaidItems(ctx context.Context, invoiceID string) ([]dto.ItemBalance, error) {
	inv, err := s.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	entries, err := s.entryRepo.FindEntriesByInvoiceID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries for invoice %s: %w", invoiceID, err)
	}

	settledByItem := make(map[string]domain.Amount)
	for _, e := range entries {
		if e.SettledEntryID != nil {
			settledByItem[*e.SettledEntryID] += e.Amount
		}
	}

	type prioritized struct {
		priority int
		item     dto.ItemBalance
	}
	var unpaid []prioritized
	for _, e := range entries {
		if !e.IsInvoiceItem() {
			continue
		}
		et, err := s.registry.EntryType(e.TypeCode)
		if err != nil {
			return nil, err
		}
		bal := e.Amount + settledByItem[e.EntryID]
		open := bal.IsPositive()
		if inv.Kind == domain.CreditNote {
			open = bal.IsNegative()
		}
		if open {
			unpaid = append(unpaid, prioritized{priority: et.PaybackPriority, item: dto.ItemBalance{Item: e, Balance: bal}})
		}
	}
	sort.SliceStable(unpaid, func(i, j int) bool {
		if unpaid[i].priority != unpaid[j].priority {
			return unpaid[i].priority < unpaid[j].priority
		}
		return unpaid[i].item.Item.EntryID < unpaid[j].item.Item.EntryID
	})
	out := make([]dto.ItemBalance, len(unpaid))
	for i, p := range unpaid {
		out[i] = p.item
	}
	return out, nil
}
