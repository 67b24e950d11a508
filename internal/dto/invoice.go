package dto

import (
	"time"

	"github.com/arledger/arledger/internal/core/domain"
)

// InvoiceLine is one receivable row of a new invoice (capital, fee, rent...).
type InvoiceLine struct {
	TypeCode    string        `json:"typeCode"`
	Amount      domain.Amount `json:"amount"` // Positive for invoices, negative for credit notes
	Description string        `json:"description"`
}

// CreateInvoiceRequest describes a new invoice and its initial items.
type CreateInvoiceRequest struct {
	Number    string             `json:"number"`
	Kind      domain.InvoiceKind `json:"kind"`
	AccountID string             `json:"accountID"` // Receivables account
	DueDate   time.Time          `json:"dueDate"`
	Lines     []InvoiceLine      `json:"lines"`
}
