package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/arledger/arledger/internal/core/domain"
)

var due = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func TestInvoiceIsSettledWith(t *testing.T) {
	invoice := &domain.Invoice{Kind: domain.StandardInvoice}
	assert.False(t, invoice.IsSettledWith(1))
	assert.True(t, invoice.IsSettledWith(0))
	assert.True(t, invoice.IsSettledWith(-50))

	creditNote := &domain.Invoice{Kind: domain.CreditNote}
	assert.False(t, creditNote.IsSettledWith(-1))
	assert.True(t, creditNote.IsSettledWith(0))
	assert.True(t, creditNote.IsSettledWith(10))
}

func TestInvoiceLateDaysAt(t *testing.T) {
	invoice := &domain.Invoice{DueDate: due}

	assert.Equal(t, 0, invoice.LateDaysAt(due.AddDate(0, 0, -3)))
	assert.Equal(t, 0, invoice.LateDaysAt(due))
	assert.Equal(t, 0, invoice.LateDaysAt(due.Add(12*time.Hour)))
	assert.Equal(t, 1, invoice.LateDaysAt(due.AddDate(0, 0, 1)))
	assert.Equal(t, 30, invoice.LateDaysAt(due.AddDate(0, 0, 30)))
}

func TestInvoiceLateDaysAt_CloseDateCapsAccrual(t *testing.T) {
	closed := due.AddDate(0, 0, 10)
	invoice := &domain.Invoice{DueDate: due, CloseDate: &closed}

	assert.Equal(t, 10, invoice.LateDaysAt(due.AddDate(0, 0, 40)))
	assert.Equal(t, 5, invoice.LateDaysAt(due.AddDate(0, 0, 5)))
}

func TestInvoiceStateAt(t *testing.T) {
	const lateLimit = 7
	invoice := &domain.Invoice{Kind: domain.StandardInvoice, DueDate: due}

	tests := []struct {
		name        string
		outstanding domain.Amount
		asOf        time.Time
		want        domain.InvoiceState
	}{
		{name: "before due", outstanding: 100, asOf: due.AddDate(0, 0, -1), want: domain.NotDueYet},
		{name: "on due date", outstanding: 100, asOf: due, want: domain.Due},
		{name: "past due within limit", outstanding: 100, asOf: due.AddDate(0, 0, 6), want: domain.Due},
		{name: "late", outstanding: 100, asOf: due.AddDate(0, 0, 7), want: domain.Late},
		{name: "paid", outstanding: 0, asOf: due.AddDate(0, 0, 30), want: domain.Paid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, invoice.StateAt(tt.outstanding, tt.asOf, lateLimit))
		})
	}
}

func TestAccountCategoryIsDebitNormal(t *testing.T) {
	assert.True(t, domain.Asset.IsDebitNormal())
	assert.True(t, domain.Expense.IsDebitNormal())
	assert.False(t, domain.Liability.IsDebitNormal())
	assert.False(t, domain.Equity.IsDebitNormal())
	assert.False(t, domain.Income.IsDebitNormal())
}

func TestEntryIsInvoiceItem(t *testing.T) {
	id := "inv-1"
	item := &domain.Entry{SourceInvoiceID: &id}
	allocation := &domain.Entry{SettledInvoiceID: &id}
	assert.True(t, item.IsInvoiceItem())
	assert.False(t, allocation.IsInvoiceItem())
}
