package services

import (
	"context"
	"fmt"
	"log/slog"
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

// ledgerService records entries and guarantees the composite balance
// invariant. All mutations run under a per-account exclusive section.
type ledgerService struct {
	registry    *registry.Registry
	accountRepo portsrepo.AccountRepository
	entryRepo   portsrepo.EntryRepository
	clock       ports.Clock
	locks       *keyedMutex
	logger      *slog.Logger
}

// NewLedgerService creates the entry ledger service.
func NewLedgerService(reg *registry.Registry, accountRepo portsrepo.AccountRepository, entryRepo portsrepo.EntryRepository, clock ports.Clock, logger *slog.Logger) portssvc.LedgerSvcFacade {
	if logger == nil {
		logger = slog.Default()
	}
	return &ledgerService{
		registry:    reg,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		clock:       clock,
		locks:       newKeyedMutex(),
		logger:      logger,
	}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// CreateAccount persists a new account with a registry-validated type code.
func (s *ledgerService) CreateAccount(ctx context.Context, account domain.Account) error {
	if account.AccountID == "" {
		return apperrors.NewValidationError("accountID", "account ID cannot be empty")
	}
	if account.Name == "" {
		return apperrors.NewValidationError("name", "account name cannot be empty")
	}
	if _, err := s.registry.AccountType(account.TypeCode); err != nil {
		return err
	}
	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	s.logger.Info("account created",
		slog.String("account_id", account.AccountID),
		slog.String("name", account.Name),
		slog.String("type", account.TypeCode))
	return nil
}

// Post records a new immutable entry after validating its references.
func (s *ledgerService) Post(ctx context.Context, req dto.PostEntryRequest) (*domain.Entry, error) {
	if req.Amount.IsZero() {
		return nil, apperrors.NewValidationError("amount", "amount cannot be zero")
	}
	if req.Composite && req.ParentID != nil {
		return nil, apperrors.NewValidationError("parentID", "a composite parent cannot itself have a parent")
	}
	if _, err := s.registry.EntryType(req.TypeCode); err != nil {
		return nil, err
	}
	if _, err := s.accountRepo.FindAccountByID(ctx, req.AccountID); err != nil {
		return nil, apperrors.NewValidationError("accountID", fmt.Sprintf("unknown account %q", req.AccountID))
	}
	if req.ParentID != nil {
		parent, err := s.entryRepo.FindEntryByID(ctx, *req.ParentID)
		if err != nil {
			return nil, apperrors.NewValidationError("parentID", fmt.Sprintf("unknown parent entry %q", *req.ParentID))
		}
		if !parent.Composite {
			return nil, apperrors.NewValidationError("parentID", fmt.Sprintf("entry %s is not a composite parent", parent.EntryID))
		}
		if !parent.Open {
			return nil, apperrors.NewValidationError("parentID", fmt.Sprintf("composite %s is already closed", parent.EntryID))
		}
	}

	timestamp := req.Timestamp
	if timestamp.IsZero() {
		timestamp = s.clock.Now()
	}
	now := s.clock.Now()
	entry := domain.Entry{
		EntryID:          uuid.NewString(),
		AccountID:        req.AccountID,
		TypeCode:         req.TypeCode,
		Amount:           req.Amount,
		Timestamp:        timestamp,
		ParentID:         req.ParentID,
		Composite:        req.Composite,
		Open:             req.Composite,
		SourceInvoiceID:  req.SourceInvoiceID,
		SettledInvoiceID: req.SettledInvoiceID,
		SettledEntryID:   req.SettledEntryID,
		Description:      req.Description,
		AuditFields:      domain.AuditFields{CreatedAt: now, LastUpdatedAt: now},
	}

	unlock := s.locks.Lock("account:" + req.AccountID)
	defer unlock()

	if err := s.entryRepo.SaveEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to save entry: %w", err)
	}
	s.logger.Info("entry posted",
		slog.String("entry_id", entry.EntryID),
		slog.String("account_id", entry.AccountID),
		slog.String("type", entry.TypeCode),
		slog.String("amount", entry.Amount.String()))
	return &entry, nil
}

// CloseComposite validates the children sum and makes the composite visible.
// On imbalance the composite is left open for the caller to discard or fix.
func (s *ledgerService) CloseComposite(ctx context.Context, parentID string) error {
	parent, err := s.entryRepo.FindEntryByID(ctx, parentID)
	if err != nil {
		return fmt.Errorf("failed to find composite parent %s: %w", parentID, err)
	}
	if !parent.Composite {
		return apperrors.NewValidationError("parentID", fmt.Sprintf("entry %s is not a composite parent", parentID))
	}
	if !parent.Open {
		return apperrors.NewValidationError("parentID", fmt.Sprintf("composite %s is already closed", parentID))
	}

	unlock := s.locks.Lock("account:" + parent.AccountID)
	defer unlock()

	children, err := s.entryRepo.FindEntriesByParentID(ctx, parentID)
	if err != nil {
		return fmt.Errorf("failed to load children of composite %s: %w", parentID, err)
	}
	var sum domain.Amount
	for _, c := range children {
		sum += c.Amount
	}
	if sum != parent.Amount {
		return &apperrors.ImbalancedEntryError{
			ParentID: parentID,
			Declared: int64(parent.Amount),
			ChildSum: int64(sum),
		}
	}
	if err := s.entryRepo.MarkCompositeClosed(ctx, parentID); err != nil {
		return fmt.Errorf("failed to close composite %s: %w", parentID, err)
	}
	s.logger.Info("composite closed",
		slog.String("parent_id", parentID),
		slog.Int("children", len(children)),
		slog.String("amount", parent.Amount.String()))
	return nil
}

// Balance sums visible entries for the account up to asOf. Pure read.
func (s *ledgerService) Balance(ctx context.Context, accountID string, asOf *time.Time) (domain.Amount, error) {
	if _, err := s.accountRepo.FindAccountByID(ctx, accountID); err != nil {
		return 0, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}
	entries, err := s.entryRepo.FindEntriesByAccountID(ctx, accountID, asOf)
	if err != nil {
		return 0, fmt.Errorf("failed to load entries for account %s: %w", accountID, err)
	}
	var sum domain.Amount
	for _, e := range entries {
		sum += e.Amount
	}
	return sum, nil
}

// Reverse posts an offsetting entry for an existing one. Invoice links are
// carried over so derived invoice balances rebalance with the reversal.
func (s *ledgerService) Reverse(ctx context.Context, entryID string, timestamp time.Time) (*domain.Entry, error) {
	original, err := s.entryRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to find entry %s: %w", entryID, err)
	}
	if original.Composite {
		return nil, apperrors.NewValidationError("entryID", "composite parents cannot be reversed; reverse the children individually")
	}
	if original.ParentID != nil {
		parent, err := s.entryRepo.FindEntryByID(ctx, *original.ParentID)
		if err == nil && parent.Open {
			return nil, apperrors.NewValidationError("entryID", "cannot reverse a child of an open composite")
		}
	}
	if timestamp.IsZero() {
		timestamp = s.clock.Now()
	}
	now := s.clock.Now()
	reversal := domain.Entry{
		EntryID:          uuid.NewString(),
		AccountID:        original.AccountID,
		TypeCode:         original.TypeCode,
		Amount:           original.Amount.Neg(),
		Timestamp:        timestamp,
		SourceInvoiceID:  original.SourceInvoiceID,
		SettledInvoiceID: original.SettledInvoiceID,
		SettledEntryID:   original.SettledEntryID,
		Description:      fmt.Sprintf("reversal of entry %s", original.EntryID),
		AuditFields:      domain.AuditFields{CreatedAt: now, LastUpdatedAt: now},
	}

	unlock := s.locks.Lock("account:" + original.AccountID)
	defer unlock()

	if err := s.entryRepo.SaveEntry(ctx, reversal); err != nil {
		return nil, fmt.Errorf("failed to save reversal entry: %w", err)
	}
	s.logger.Info("entry reversed",
		slog.String("original_id", original.EntryID),
		slog.String("reversal_id", reversal.EntryID),
		slog.String("amount", reversal.Amount.String()))
	return &reversal, nil
}
