// Package services declares the facade interfaces implemented by the core
// services, so callers and tests can depend on behavior rather than types.
package services

import (
	"context"
	"time"

	"github.com/arledger/arledger/internal/core/domain"
	"github.com/arledger/arledger/internal/dto"
)

// LedgerSvcFacade is the entry ledger: it records immutable entries and
// answers balance queries while guaranteeing the composite balance invariant.
type LedgerSvcFacade interface {
	// CreateAccount persists a new account after validating its type code
	// against the registry.
	CreateAccount(ctx context.Context, account domain.Account) error

	// Post records a new entry. Account and entry type codes are validated
	// against the registry; a supplied ParentID must reference an existing
	// open composite parent.
	Post(ctx context.Context, req dto.PostEntryRequest) (*domain.Entry, error)

	// CloseComposite validates that the children of parentID sum exactly to
	// the parent's declared amount and makes the composite visible. Fails
	// with ImbalancedEntryError, leaving the composite open.
	CloseComposite(ctx context.Context, parentID string) error

	// Balance returns the sum of visible entries for an account with
	// Timestamp <= asOf (all visible entries when asOf is nil).
	Balance(ctx context.Context, accountID string, asOf *time.Time) (domain.Amount, error)

	// Reverse posts an offsetting entry with the negated amount and the same
	// account and type. The original entry is never touched.
	Reverse(ctx context.Context, entryID string, timestamp time.Time) (*domain.Entry, error)
}
