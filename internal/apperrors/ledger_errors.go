package apperrors

import "fmt"

// Amounts in the typed errors below are integer minor currency units,
// matching the ledger's internal representation.

// ValidationError carries the offending field and reason for a rejected input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Reason)
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError builds a ValidationError for a specific field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// ImbalancedEntryError is returned when a composite entry is closed while the
// sum of its children differs from the parent's declared amount.
type ImbalancedEntryError struct {
	ParentID string
	Declared int64
	ChildSum int64
}

func (e *ImbalancedEntryError) Error() string {
	return fmt.Sprintf("composite entry %s does not balance: declared %d, children sum to %d",
		e.ParentID, e.Declared, e.ChildSum)
}

func (e *ImbalancedEntryError) Unwrap() error { return ErrValidation }

// OverSettlementError is returned when a settlement would push an invoice's
// settled amount past its outstanding balance.
type OverSettlementError struct {
	InvoiceID   string
	Attempted   int64
	Outstanding int64
}

func (e *OverSettlementError) Error() string {
	return fmt.Sprintf("settlement of %d exceeds outstanding %d on invoice %s",
		e.Attempted, e.Outstanding, e.InvoiceID)
}

func (e *OverSettlementError) Unwrap() error { return ErrValidation }

// ConflictError is returned by persistence when a save was based on a stale
// read. The core never retries it; callers must reload and decide.
type ConflictError struct {
	Kind string
	ID   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("stale write on %s %s", e.Kind, e.ID)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }
