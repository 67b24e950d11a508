// Package registry holds the ledger's reference data: account types and
// entry types keyed by code. A Registry is built once at startup and handed
// to the services that need it; there is no process-wide mutable state.
package registry

import (
	"fmt"

	"github.com/arledger/arledger/internal/apperrors"
	"github.com/arledger/arledger/internal/core/domain"
)

// Registry is a lookup table for account and entry types. Register everything
// before sharing it between services; lookups are then read-only.
type Registry struct {
	accountTypes map[string]domain.AccountType
	entryTypes   map[string]domain.EntryType
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		accountTypes: make(map[string]domain.AccountType),
		entryTypes:   make(map[string]domain.EntryType),
	}
}

// RegisterAccountType adds an account type. Duplicate codes are rejected.
func (r *Registry) RegisterAccountType(at domain.AccountType) error {
	if at.Code == "" {
		return apperrors.NewValidationError("code", "account type code is required")
	}
	if !at.Category.Valid() {
		return apperrors.NewValidationError("category", fmt.Sprintf("unknown account category %q", at.Category))
	}
	if _, exists := r.accountTypes[at.Code]; exists {
		return fmt.Errorf("account type %s: %w", at.Code, apperrors.ErrDuplicate)
	}
	r.accountTypes[at.Code] = at
	return nil
}

// RegisterEntryType adds an entry type. Duplicate codes are rejected.
func (r *Registry) RegisterEntryType(et domain.EntryType) error {
	if et.Code == "" {
		return apperrors.NewValidationError("code", "entry type code is required")
	}
	if !et.Classification.Valid() {
		return apperrors.NewValidationError("classification", fmt.Sprintf("unknown entry classification %q", et.Classification))
	}
	if _, exists := r.entryTypes[et.Code]; exists {
		return fmt.Errorf("entry type %s: %w", et.Code, apperrors.ErrDuplicate)
	}
	r.entryTypes[et.Code] = et
	return nil
}

// AccountType looks up an account type by code.
func (r *Registry) AccountType(code string) (domain.AccountType, error) {
	at, ok := r.accountTypes[code]
	if !ok {
		return domain.AccountType{}, apperrors.NewValidationError("accountType", fmt.Sprintf("unknown account type %q", code))
	}
	return at, nil
}

// EntryType looks up an entry type by code.
func (r *Registry) EntryType(code string) (domain.EntryType, error) {
	et, ok := r.entryTypes[code]
	if !ok {
		return domain.EntryType{}, apperrors.NewValidationError("entryType", fmt.Sprintf("unknown entry type %q", code))
	}
	return et, nil
}
