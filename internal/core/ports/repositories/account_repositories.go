// Package repositories declares the persistence collaborator interfaces the
// core depends on. Implementations must make each write atomic: a failed
// operation leaves no partial entries behind.
package repositories

import (
	"context"

	"github.com/arledger/arledger/internal/core/domain"
)

// AccountReader defines read operations for account data.
type AccountReader interface {
	// FindAccountByID retrieves an account by its unique identifier.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// ListAccounts retrieves all accounts ordered by name then ID.
	ListAccounts(ctx context.Context) ([]domain.Account, error)
}

// AccountWriter defines write operations for account data.
type AccountWriter interface {
	// SaveAccount persists a new account. Fails with ErrDuplicate on reused IDs.
	SaveAccount(ctx context.Context, account domain.Account) error

	// DeleteAccount removes an account. Accounts that are referenced by
	// entries cannot be deleted; the call fails with ErrConflict.
	DeleteAccount(ctx context.Context, accountID string) error
}

// AccountRepository combines all account persistence operations.
type AccountRepository interface {
	AccountReader
	AccountWriter
}
