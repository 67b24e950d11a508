// Package dto defines the request/response shapes exchanged between callers
// and the core services.
package dto

import (
	"time"

	"github.com/arledger/arledger/internal/core/domain"
)

// PostEntryRequest describes a new ledger entry to record.
type PostEntryRequest struct {
	AccountID   string        `json:"accountID"`
	TypeCode    string        `json:"typeCode"`
	Amount      domain.Amount `json:"amount"` // Signed minor units
	Timestamp   time.Time     `json:"timestamp"`
	Description string        `json:"description"`

	// ParentID attaches the entry as a child of an open composite parent.
	ParentID *string `json:"parentID,omitempty"`
	// Composite declares the entry as a composite parent whose amount is the
	// total its children must sum to at close time.
	Composite bool `json:"composite,omitempty"`

	SourceInvoiceID  *string `json:"sourceInvoiceID,omitempty"`
	SettledInvoiceID *string `json:"settledInvoiceID,omitempty"`
	SettledEntryID   *string `json:"settledEntryID,omitempty"`
}

// ItemBalance pairs an invoice item entry with its remaining balance after
// settlements matched against it.
type ItemBalance struct {
	Item    domain.Entry  `json:"item"`
	Balance domain.Amount `json:"balance"`
}
