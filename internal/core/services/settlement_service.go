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

// SettlementConfig names the accounts and entry types the engine posts with.
type SettlementConfig struct {
	// SettlementsAccountID receives the incoming payment debit.
	SettlementsAccountID string
	// SuspenseAccountID holds overpayment excess as a credit.
	SuspenseAccountID string

	PaymentTypeCode         string // classification PAYMENT
	SettlementTypeCode      string // classification SETTLEMENT
	OverpaymentTypeCode     string
	CreditNoteReconTypeCode string // classification SETTLEMENT
}

// settlementService allocates payments to invoices. Every mutation runs
// under a per-invoice exclusive section so two concurrent settlements can
// never both observe a stale outstanding amount.
type settlementService struct {
	cfg         SettlementConfig
	registry    *registry.Registry
	accountRepo portsrepo.AccountRepository
	entryRepo   portsrepo.EntryRepository
	invoiceRepo portsrepo.InvoiceRepository
	invoiceSvc  portssvc.InvoiceSvcFacade
	ledgerSvc   portssvc.LedgerSvcFacade
	clock       ports.Clock
	locks       *keyedMutex
	logger      *slog.Logger
}

// NewSettlementService creates the settlement engine.
func NewSettlementService(cfg SettlementConfig, reg *registry.Registry, accountRepo portsrepo.AccountRepository, entryRepo portsrepo.EntryRepository, invoiceRepo portsrepo.InvoiceRepository, invoiceSvc portssvc.InvoiceSvcFacade, ledgerSvc portssvc.LedgerSvcFacade, clock ports.Clock, logger *slog.Logger) portssvc.SettlementSvcFacade {
	if logger == nil {
		logger = slog.Default()
	}
	return &settlementService{
		cfg:         cfg,
		registry:    reg,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		invoiceRepo: invoiceRepo,
		invoiceSvc:  invoiceSvc,
		ledgerSvc:   ledgerSvc,
		clock:       clock,
		locks:       newKeyedMutex(),
		logger:      logger,
	}
}

var _ portssvc.SettlementSvcFacade = (*settlementService)(nil)

// Settle applies a payment to one invoice, strictly rejecting any excess.
func (s *settlementService) Settle(ctx context.Context, invoiceID string, paymentAmount domain.Amount, timestamp time.Time) ([]domain.Entry, error) {
	return s.settle(ctx, invoiceID, paymentAmount, timestamp, false)
}

// SettleWithOverpayment books any excess to the suspense account.
func (s *settlementService) SettleWithOverpayment(ctx context.Context, invoiceID string, paymentAmount domain.Amount, timestamp time.Time) ([]domain.Entry, error) {
	return s.settle(ctx, invoiceID, paymentAmount, timestamp, true)
}

func (s *settlementService) settle(ctx context.Context, invoiceID string, paymentAmount domain.Amount, timestamp time.Time, allowOverpayment bool) ([]domain.Entry, error) {
	if !paymentAmount.IsPositive() {
		return nil, apperrors.NewValidationError("paymentAmount", "settlement amount must be positive")
	}
	if timestamp.IsZero() {
		timestamp = s.clock.Now()
	}

	if _, err := s.accountRepo.FindAccountByID(ctx, s.cfg.SettlementsAccountID); err != nil {
		return nil, apperrors.NewValidationError("settlementsAccountID", fmt.Sprintf("unknown settlements account %q", s.cfg.SettlementsAccountID))
	}
	if allowOverpayment {
		if _, err := s.accountRepo.FindAccountByID(ctx, s.cfg.SuspenseAccountID); err != nil {
			return nil, apperrors.NewValidationError("suspenseAccountID", fmt.Sprintf("unknown suspense account %q", s.cfg.SuspenseAccountID))
		}
	}

	unlock := s.locks.Lock("invoice:" + invoiceID)
	defer unlock()

	invoice, err := s.invoiceSvc.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Kind == domain.CreditNote {
		return nil, apperrors.NewValidationError("invoiceID", "credit notes are settled via SettleCreditNote")
	}
	outstanding, err := s.invoiceSvc.OutstandingAmount(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if !allowOverpayment && paymentAmount > outstanding {
		return nil, &apperrors.OverSettlementError{
			InvoiceID:   invoiceID,
			Attempted:   int64(paymentAmount),
			Outstanding: int64(outstanding),
		}
	}

	items, err := s.invoiceSvc.UnpaidItems(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	entries := []domain.Entry{s.paymentEntry(invoice, paymentAmount, timestamp, now)}

	allocations, remaining := s.allocateToItems(invoice, items, paymentAmount, s.cfg.SettlementTypeCode, timestamp, now)
	entries = append(entries, allocations...)

	if remaining.IsPositive() {
		if !allowOverpayment {
			// outstanding equals the sum of unpaid item balances, so a
			// strict settlement always allocates fully
			return nil, fmt.Errorf("settlement allocation underflow on invoice %s: %s unallocated", invoiceID, remaining.String())
		}
		invID := invoice.InvoiceID
		entries = append(entries, domain.Entry{
			EntryID:          uuid.NewString(),
			AccountID:        s.cfg.SuspenseAccountID,
			TypeCode:         s.cfg.OverpaymentTypeCode,
			Amount:           remaining.Neg(),
			Timestamp:        timestamp,
			SettledInvoiceID: &invID,
			Description:      fmt.Sprintf("overpayment on invoice %s", invoice.Number),
			AuditFields:      domain.AuditFields{CreatedAt: now, LastUpdatedAt: now},
		})
	}

	if err := s.entryRepo.SaveEntries(ctx, entries); err != nil {
		return nil, fmt.Errorf("failed to save settlement entries: %w", err)
	}
	if err := s.refreshCloseDate(ctx, invoice, timestamp); err != nil {
		return nil, err
	}
	s.logger.Info("invoice settled",
		slog.String("invoice_id", invoiceID),
		slog.String("amount", paymentAmount.String()),
		slog.Int("allocations", len(allocations)),
		slog.Bool("overpayment", remaining.IsPositive()))
	return entries, nil
}

// SettleAssigned allocates one payment across invoices in the given order.
func (s *settlementService) SettleAssigned(ctx context.Context, invoiceIDs []string, paymentAmount domain.Amount, timestamp time.Time) ([]domain.Entry, domain.Amount, error) {
	if !paymentAmount.IsPositive() {
		return nil, 0, apperrors.NewValidationError("paymentAmount", "settlement amount must be positive")
	}
	remaining := paymentAmount
	var entries []domain.Entry
	for _, invoiceID := range invoiceIDs {
		if remaining.IsZero() {
			break
		}
		outstanding, err := s.invoiceSvc.OutstandingAmount(ctx, invoiceID)
		if err != nil {
			return entries, remaining, err
		}
		if !outstanding.IsPositive() {
			continue
		}
		alloc := remaining.Min(outstanding)
		created, err := s.settle(ctx, invoiceID, alloc, timestamp, false)
		if err != nil {
			return entries, remaining, err
		}
		entries = append(entries, created...)
		remaining -= alloc
	}
	return entries, remaining, nil
}

// SettleOpenInvoices applies the default deterministic allocation order:
// oldest due date first, ties broken by invoice ID.
func (s *settlementService) SettleOpenInvoices(ctx context.Context, accountID string, paymentAmount domain.Amount, timestamp time.Time) ([]domain.Entry, domain.Amount, error) {
	invoices, err := s.invoiceRepo.ListInvoicesByAccountID(ctx, accountID)
	if err != nil {
		return nil, paymentAmount, fmt.Errorf("failed to list invoices for account %s: %w", accountID, err)
	}
	sort.SliceStable(invoices, func(i, j int) bool {
		if !invoices[i].DueDate.Equal(invoices[j].DueDate) {
			return invoices[i].DueDate.Before(invoices[j].DueDate)
		}
		return invoices[i].InvoiceID < invoices[j].InvoiceID
	})
	ids := make([]string, 0, len(invoices))
	for _, inv := range invoices {
		if inv.Kind != domain.StandardInvoice {
			continue
		}
		ids = append(ids, inv.InvoiceID)
	}
	return s.SettleAssigned(ctx, ids, paymentAmount, timestamp)
}

// SettleCreditNote reconciles a credit note against a standard invoice with
// a balanced pair of allocations: credits against the invoice items, debits
// against the credit note items. The pair sums to zero.
func (s *settlementService) SettleCreditNote(ctx context.Context, creditNoteID, invoiceID string, amount *domain.Amount, timestamp time.Time) ([]domain.Entry, error) {
	if timestamp.IsZero() {
		timestamp = s.clock.Now()
	}

	// lock both aggregates in a fixed order to avoid deadlock
	first, second := creditNoteID, invoiceID
	if second < first {
		first, second = second, first
	}
	unlockFirst := s.locks.Lock("invoice:" + first)
	defer unlockFirst()
	unlockSecond := s.locks.Lock("invoice:" + second)
	defer unlockSecond()

	creditNote, err := s.invoiceSvc.GetInvoice(ctx, creditNoteID)
	if err != nil {
		return nil, err
	}
	invoice, err := s.invoiceSvc.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if creditNote.Kind != domain.CreditNote {
		return nil, apperrors.NewValidationError("creditNoteID", fmt.Sprintf("invoice %s is not a credit note", creditNoteID))
	}
	if invoice.Kind != domain.StandardInvoice {
		return nil, apperrors.NewValidationError("invoiceID", fmt.Sprintf("invoice %s is not a standard invoice", invoiceID))
	}

	creditOutstanding, err := s.invoiceSvc.OutstandingAmount(ctx, creditNoteID)
	if err != nil {
		return nil, err
	}
	invoiceOutstanding, err := s.invoiceSvc.OutstandingAmount(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	available := creditOutstanding.Neg().Min(invoiceOutstanding)
	if amount != nil {
		if !amount.IsPositive() {
			return nil, apperrors.NewValidationError("amount", "reconciliation amount must be positive")
		}
		if *amount > available {
			return nil, apperrors.NewValidationError("amount", "cannot settle credit note amount larger than remaining unpaid balance")
		}
		available = *amount
	}
	if !available.IsPositive() {
		return nil, nil
	}

	now := s.clock.Now()
	invoiceItems, err := s.invoiceSvc.UnpaidItems(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	creditItems, err := s.invoiceSvc.UnpaidItems(ctx, creditNoteID)
	if err != nil {
		return nil, err
	}

	entries, rem := s.allocateToItems(invoice, invoiceItems, available, s.cfg.CreditNoteReconTypeCode, timestamp, now)
	if rem.IsPositive() {
		return nil, fmt.Errorf("credit note reconciliation underflow on invoice %s: %s unallocated", invoiceID, rem.String())
	}
	creditEntries, remCredit := s.allocateToItems(creditNote, creditItems, available, s.cfg.CreditNoteReconTypeCode, timestamp, now)
	if remCredit.IsPositive() {
		return nil, fmt.Errorf("credit note reconciliation underflow on credit note %s: %s unallocated", creditNoteID, remCredit.String())
	}
	entries = append(entries, creditEntries...)

	if err := s.entryRepo.SaveEntries(ctx, entries); err != nil {
		return nil, fmt.Errorf("failed to save reconciliation entries: %w", err)
	}
	if err := s.refreshCloseDate(ctx, invoice, timestamp); err != nil {
		return nil, err
	}
	if err := s.refreshCloseDate(ctx, creditNote, timestamp); err != nil {
		return nil, err
	}
	s.logger.Info("credit note reconciled",
		slog.String("credit_note_id", creditNoteID),
		slog.String("invoice_id", invoiceID),
		slog.String("amount", available.String()))
	return entries, nil
}

// Unsettle reverses a settlement allocation, restoring the invoice balance.
func (s *settlementService) Unsettle(ctx context.Context, settlementEntryID string, timestamp time.Time) (*domain.Entry, error) {
	entry, err := s.entryRepo.FindEntryByID(ctx, settlementEntryID)
	if err != nil {
		return nil, fmt.Errorf("failed to find entry %s: %w", settlementEntryID, err)
	}
	et, err := s.registry.EntryType(entry.TypeCode)
	if err != nil {
		return nil, err
	}
	if entry.SettledInvoiceID == nil || et.Classification != domain.Settlement {
		return nil, apperrors.NewValidationError("entryID", fmt.Sprintf("entry %s is not a settlement allocation", settlementEntryID))
	}

	invoiceID := *entry.SettledInvoiceID
	unlock := s.locks.Lock("invoice:" + invoiceID)
	defer unlock()

	reversal, err := s.ledgerSvc.Reverse(ctx, settlementEntryID, timestamp)
	if err != nil {
		return nil, err
	}
	invoice, err := s.invoiceSvc.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := s.refreshCloseDate(ctx, invoice, timestamp); err != nil {
		return nil, err
	}
	s.logger.Info("settlement reversed",
		slog.String("entry_id", settlementEntryID),
		slog.String("invoice_id", invoiceID),
		slog.String("amount", reversal.Amount.String()))
	return reversal, nil
}

func (s *settlementService) paymentEntry(invoice *domain.Invoice, amount domain.Amount, timestamp, now time.Time) domain.Entry {
	invID := invoice.InvoiceID
	return domain.Entry{
		EntryID:          uuid.NewString(),
		AccountID:        s.cfg.SettlementsAccountID,
		TypeCode:         s.cfg.PaymentTypeCode,
		Amount:           amount,
		Timestamp:        timestamp,
		SettledInvoiceID: &invID,
		Description:      fmt.Sprintf("payment for invoice %s", invoice.Number),
		AuditFields:      domain.AuditFields{CreatedAt: now, LastUpdatedAt: now},
	}
}

// allocateToItems walks unpaid items in payback-priority order and produces
// offsetting allocations until the amount is exhausted. For standard
// invoices items carry positive balances and allocations are credits; for
// credit notes the signs flip. Returns the unallocated remainder.
func (s *settlementService) allocateToItems(invoice *domain.Invoice, items []dto.ItemBalance, amount domain.Amount, typeCode string, timestamp, now time.Time) ([]domain.Entry, domain.Amount) {
	remaining := amount
	if invoice.Kind == domain.CreditNote {
		remaining = amount.Neg()
	}
	var entries []domain.Entry
	for _, ib := range items {
		if remaining.IsZero() {
			break
		}
		var alloc domain.Amount
		if invoice.Kind == domain.CreditNote {
			// both remaining and balances are negative here
			alloc = ib.Balance
			if remaining > alloc {
				alloc = remaining
			}
		} else {
			alloc = remaining.Min(ib.Balance)
		}
		invID := invoice.InvoiceID
		itemID := ib.Item.EntryID
		entries = append(entries, domain.Entry{
			EntryID:          uuid.NewString(),
			AccountID:        invoice.AccountID,
			TypeCode:         typeCode,
			Amount:           alloc.Neg(),
			Timestamp:        timestamp,
			SettledInvoiceID: &invID,
			SettledEntryID:   &itemID,
			Description:      fmt.Sprintf("settlement of invoice %s", invoice.Number),
			AuditFields:      domain.AuditFields{CreatedAt: now, LastUpdatedAt: now},
		})
		remaining -= alloc
	}
	if invoice.Kind == domain.CreditNote {
		remaining = remaining.Neg()
	}
	return entries, remaining
}

// refreshCloseDate keeps Invoice.CloseDate consistent with the derived
// settlement state: set when the invoice becomes settled, cleared when a
// reversal reopens it. Stale versions surface as ConflictError.
func (s *settlementService) refreshCloseDate(ctx context.Context, invoice *domain.Invoice, timestamp time.Time) error {
	outstanding, err := s.invoiceSvc.OutstandingAmount(ctx, invoice.InvoiceID)
	if err != nil {
		return err
	}
	settled := invoice.IsSettledWith(outstanding)
	switch {
	case settled && invoice.CloseDate == nil:
		invoice.CloseDate = &timestamp
	case !settled && invoice.CloseDate != nil:
		invoice.CloseDate = nil
	default:
		return nil
	}
	invoice.LastUpdatedAt = s.clock.Now()
	if err := s.invoiceRepo.UpdateInvoice(ctx, *invoice); err != nil {
		return fmt.Errorf("failed to update invoice %s: %w", invoice.InvoiceID, err)
	}
	invoice.Version++
	return nil
}
