package domain

import (
	"math"
	"time"
)

// InvoiceKind distinguishes ordinary (debit) invoices from credit notes.
type InvoiceKind string

const (
	StandardInvoice InvoiceKind = "INVOICE"
	CreditNote      InvoiceKind = "CREDIT_NOTE"
)

// InvoiceState is the derived lifecycle state of an invoice.
type InvoiceState string

const (
	NotDueYet InvoiceState = "NOT_DUE_YET"
	Due       InvoiceState = "DUE"
	Late      InvoiceState = "LATE"
	Paid      InvoiceState = "PAID"
)

// Invoice is an aggregate root: a principal obligation with a due date,
// settled over time by entries on its receivables account. Settled and
// outstanding amounts are always derived from the entry ledger, never stored.
//
// Version implements optimistic concurrency at the persistence boundary:
// saving an invoice whose Version is stale fails with a ConflictError.
type Invoice struct {
	InvoiceID       string      `json:"invoiceID"` // Primary key (UUID)
	Number          string      `json:"number"`    // Invoice number, non-numeric allowed
	Kind            InvoiceKind `json:"kind"`
	PrincipalAmount Amount      `json:"principalAmount"` // Unsigned (positive) principal
	DueDate         time.Time   `json:"dueDate"`
	AccountID       string      `json:"accountID"` // Receivables account
	CloseDate       *time.Time  `json:"closeDate,omitempty"`
	Version         int64       `json:"version"`
	AuditFields
}

// IsSettledWith reports whether the invoice is settled given its current
// outstanding amount. Credit notes carry a negative obligation, so they are
// settled once the outstanding amount has risen back to zero.
func (i *Invoice) IsSettledWith(outstanding Amount) bool {
	if i.Kind == CreditNote {
		return outstanding >= 0
	}
	return outstanding <= 0
}

// LateDaysAt returns whole days elapsed between the due date and asOf,
// floored at zero. For closed invoices the close date caps the range.
func (i *Invoice) LateDaysAt(asOf time.Time) int {
	t := asOf
	if i.CloseDate != nil && i.CloseDate.Before(asOf) {
		t = *i.CloseDate
	}
	days := int(math.Floor(t.Sub(i.DueDate).Seconds() / 86400.0))
	if days < 0 {
		return 0
	}
	return days
}

// StateAt derives the invoice state from its outstanding amount and the
// supplied reference time. lateLimitDays is how many days past due an
// invoice must be before it counts as late.
func (i *Invoice) StateAt(outstanding Amount, asOf time.Time, lateLimitDays int) InvoiceState {
	if i.IsSettledWith(outstanding) {
		return Paid
	}
	if asOf.Sub(i.DueDate) >= time.Duration(lateLimitDays)*24*time.Hour {
		return Late
	}
	if !asOf.Before(i.DueDate) {
		return Due
	}
	return NotDueYet
}
