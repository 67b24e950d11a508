package domain

import "time"

// EntryClassification tags what role an entry type plays in settlement.
type EntryClassification string

const (
	// Payment marks entry types recording incoming money on a payments account.
	Payment EntryClassification = "PAYMENT"
	// Settlement marks entry types that reduce an invoice's receivable balance.
	Settlement EntryClassification = "SETTLEMENT"
	// Other covers everything else (invoice items, interest, corrections).
	Other EntryClassification = "OTHER"
)

// Valid reports whether c is one of the known classifications.
func (c EntryClassification) Valid() bool {
	switch c {
	case Payment, Settlement, Other:
		return true
	}
	return false
}

// EntryType is reference data classifying entries. PaybackPriority orders
// invoice items during settlement allocation: lower values are settled first.
type EntryType struct {
	Code            string              `json:"code"`
	Name            string              `json:"name"`
	Classification  EntryClassification `json:"classification"`
	PaybackPriority int                 `json:"paybackPriority"`
}

// Entry is a single immutable mutation of an account's balance. Positive
// amounts are debits, negative amounts are credits. Corrections are made by
// posting offsetting entries, never by changing an existing one.
//
// A composite entry is a parent whose declared amount must equal the sum of
// its direct children once the composite is closed. Children reference the
// parent via ParentID; while the composite is open neither the parent nor its
// children are visible to balance queries.
type Entry struct {
	EntryID   string    `json:"entryID"`   // Primary key (UUID)
	AccountID string    `json:"accountID"` // Ref -> Account.AccountID
	TypeCode  string    `json:"typeCode"`  // Ref -> EntryType.Code in the registry
	Amount    Amount    `json:"amount"`    // Signed minor units; positive = debit
	Timestamp time.Time `json:"timestamp"`

	// ParentID links a child of a composite entry to its parent.
	ParentID *string `json:"parentID,omitempty"`
	// Composite marks a parent entry whose amount is a denormalized total of
	// its children. Open is true from posting until CloseComposite succeeds.
	Composite bool `json:"composite,omitempty"`
	Open      bool `json:"open,omitempty"`

	// SourceInvoiceID marks invoice items: the receivable rows (principal,
	// fees, materialized interest) that make up an invoice's obligation.
	SourceInvoiceID *string `json:"sourceInvoiceID,omitempty"`
	// SettledInvoiceID marks settlement allocations against an invoice.
	SettledInvoiceID *string `json:"settledInvoiceID,omitempty"`
	// SettledEntryID points a settlement allocation at the invoice item it pays.
	SettledEntryID *string `json:"settledEntryID,omitempty"`

	Description string `json:"description"`
	AuditFields
}

// IsInvoiceItem reports whether the entry is a receivable row of an invoice.
func (e *Entry) IsInvoiceItem() bool { return e.SourceInvoiceID != nil }
