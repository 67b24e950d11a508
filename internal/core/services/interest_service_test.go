package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/arledger/arledger/internal/adapters/database/memory"
	"github.com/arledger/arledger/internal/apperrors"
	"github.com/arledger/arledger/internal/core/domain"
	"github.com/arledger/arledger/internal/core/ports"
	"github.com/arledger/arledger/internal/core/registry"
	"github.com/arledger/arledger/internal/core/services"
	"github.com/arledger/arledger/internal/dto"
)

var tenPercent = decimal.RequireFromString("0.10")

type InterestServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	store     *memory.Store
	clock     ports.FixedClock
	svcs      *services.Services
	accountID string
	invoiceID string
}

func (s *InterestServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewStore()
	s.clock = ports.FixedClock{T: time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)}
	s.accountID = uuid.NewString()
	settlementsID := uuid.NewString()

	cfg := services.Config{
		Settlement: services.SettlementConfig{
			SettlementsAccountID:    settlementsID,
			SuspenseAccountID:       settlementsID,
			PaymentTypeCode:         registry.EntryPayment,
			SettlementTypeCode:      registry.EntrySettlement,
			OverpaymentTypeCode:     registry.EntryOverpayment,
			CreditNoteReconTypeCode: registry.EntryCreditNoteRecon,
		},
		InterestType:  registry.EntryInterest,
		LateLimitDays: 7,
	}
	repos := services.Repositories{Accounts: s.store, Entries: s.store, Invoices: s.store}
	s.svcs = services.NewServices(registry.Default(), repos, s.clock, cfg, nil)

	err := s.store.SaveAccount(s.ctx, domain.Account{AccountID: s.accountID, Name: "Receivables", TypeCode: registry.AccountReceivables, Currency: "EUR"})
	s.Require().NoError(err)
	err = s.store.SaveAccount(s.ctx, domain.Account{AccountID: settlementsID, Name: "Settlements", TypeCode: registry.AccountSettlements, Currency: "EUR"})
	s.Require().NoError(err)

	// 600.00 outstanding, due 2026-03-01
	invoice, err := s.svcs.Invoice.CreateInvoice(s.ctx, dto.CreateInvoiceRequest{
		Number:    "A-2001",
		Kind:      domain.StandardInvoice,
		AccountID: s.accountID,
		DueDate:   dueDate,
		Lines:     []dto.InvoiceLine{{TypeCode: registry.EntryCapital, Amount: 60000, Description: "principal"}},
	})
	s.Require().NoError(err)
	s.invoiceID = invoice.InvoiceID
}

func (s *InterestServiceTestSuite) TestAccruedInterest_ThirtyDaysLate() {
	asOf := dueDate.AddDate(0, 0, 30)

	// 600.00 * 10% * 30/365 = 4.9315..., rounded half-even to 4.93
	accrued, err := s.svcs.Interest.AccruedInterest(s.ctx, s.invoiceID, tenPercent, &asOf)
	s.Require().NoError(err)
	s.Equal(domain.Amount(493), accrued)
}

func (s *InterestServiceTestSuite) TestAccruedInterest_ZeroUntilPastDue() {
	for _, asOf := range []time.Time{dueDate.AddDate(0, 0, -10), dueDate} {
		accrued, err := s.svcs.Interest.AccruedInterest(s.ctx, s.invoiceID, tenPercent, &asOf)
		s.Require().NoError(err)
		s.Equal(domain.Amount(0), accrued)
	}
}

func (s *InterestServiceTestSuite) TestAccruedInterest_ZeroWhenSettled() {
	_, err := s.svcs.Settlement.Settle(s.ctx, s.invoiceID, 60000, dueDate)
	s.Require().NoError(err)

	asOf := dueDate.AddDate(0, 0, 30)
	accrued, err := s.svcs.Interest.AccruedInterest(s.ctx, s.invoiceID, tenPercent, &asOf)
	s.Require().NoError(err)
	s.Equal(domain.Amount(0), accrued)
}

func (s *InterestServiceTestSuite) TestAccruedInterest_MonotonicOverTime() {
	var prev domain.Amount
	for days := 1; days <= 90; days += 7 {
		asOf := dueDate.AddDate(0, 0, days)
		accrued, err := s.svcs.Interest.AccruedInterest(s.ctx, s.invoiceID, tenPercent, &asOf)
		s.Require().NoError(err)
		s.GreaterOrEqual(accrued, prev)
		prev = accrued
	}
}

func (s *InterestServiceTestSuite) TestAccruedInterest_CreditNote() {
	creditNote, err := s.svcs.Invoice.CreateInvoice(s.ctx, dto.CreateInvoiceRequest{
		Number:    "CN-2001",
		Kind:      domain.CreditNote,
		AccountID: s.accountID,
		DueDate:   dueDate,
		Lines:     []dto.InvoiceLine{{TypeCode: registry.EntryCapital, Amount: -30000, Description: "refund"}},
	})
	s.Require().NoError(err)

	// a credit note's negative outstanding must never yield negative interest
	asOf := dueDate.AddDate(0, 0, 30)
	accrued, err := s.svcs.Interest.AccruedInterest(s.ctx, creditNote.InvoiceID, tenPercent, &asOf)
	s.Require().NoError(err)
	s.Equal(domain.Amount(0), accrued)

	_, err = s.svcs.Interest.MaterializeInterest(s.ctx, creditNote.InvoiceID, tenPercent, &asOf)
	s.Require().ErrorIs(err, apperrors.ErrValidation)
}

func (s *InterestServiceTestSuite) TestAccruedInterest_NegativeRate() {
	asOf := dueDate.AddDate(0, 0, 30)
	_, err := s.svcs.Interest.AccruedInterest(s.ctx, s.invoiceID, decimal.RequireFromString("-0.10"), &asOf)
	s.Require().ErrorIs(err, apperrors.ErrValidation)
}

func (s *InterestServiceTestSuite) TestMaterializeInterest_GrowsObligation() {
	asOf := dueDate.AddDate(0, 0, 30)

	entry, err := s.svcs.Interest.MaterializeInterest(s.ctx, s.invoiceID, tenPercent, &asOf)
	s.Require().NoError(err)
	s.Equal(domain.Amount(493), entry.Amount)
	s.Equal(registry.EntryInterest, entry.TypeCode)
	s.Require().NotNil(entry.SourceInvoiceID)
	s.Equal(s.invoiceID, *entry.SourceInvoiceID)

	outstanding, err := s.svcs.Invoice.OutstandingAmount(s.ctx, s.invoiceID)
	s.Require().NoError(err)
	s.Equal(domain.Amount(60493), outstanding)

	// interest is paid back first
	items, err := s.svcs.Invoice.UnpaidItems(s.ctx, s.invoiceID)
	s.Require().NoError(err)
	s.Require().Len(items, 2)
	s.Equal(registry.EntryInterest, items[0].Item.TypeCode)
}

func (s *InterestServiceTestSuite) TestMaterializeInterest_NothingAccrued() {
	asOf := dueDate.AddDate(0, 0, -1)
	_, err := s.svcs.Interest.MaterializeInterest(s.ctx, s.invoiceID, tenPercent, &asOf)
	s.Require().ErrorIs(err, apperrors.ErrValidation)
}

func TestInterestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(InterestServiceTestSuite))
}

// --- SimpleInterest over an entry stream ---

func entryAt(amount domain.Amount, y int, m time.Month, d int) domain.Entry {
	return domain.Entry{Amount: amount, Timestamp: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func TestSimpleInterest_DecliningBalance(t *testing.T) {
	apr := decimal.RequireFromString("48.74")
	entries := []domain.Entry{
		entryAt(50000, 2017, time.January, 1),
		entryAt(-5000, 2017, time.March, 1),
		entryAt(-5000, 2017, time.May, 1),
		entryAt(-5000, 2017, time.July, 1),
		entryAt(-5000, 2017, time.September, 1),
		entryAt(-5000, 2017, time.November, 1),
		entryAt(-43750, 2018, time.January, 1),
	}

	interest := services.SimpleInterest(entries, apr, time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC), nil)
	assert.Equal(t, "182.41", interest.StringFixed(2))
}

func TestSimpleInterest_AccruesPastLastEntry(t *testing.T) {
	apr := decimal.RequireFromString("48.74")
	entries := []domain.Entry{
		entryAt(50000, 2017, time.January, 1),
		entryAt(-5000, 2017, time.March, 1),
		entryAt(-5000, 2017, time.May, 1),
		entryAt(-5000, 2017, time.July, 1),
		entryAt(-5000, 2017, time.September, 1),
		entryAt(-5000, 2017, time.November, 1),
	}

	interest := services.SimpleInterest(entries, apr, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), nil)
	assert.Equal(t, "426.11", interest.StringFixed(2))
}

func TestSimpleInterest_BeginNarrowsPeriod(t *testing.T) {
	apr := decimal.RequireFromString("3.00")
	entries := []domain.Entry{
		entryAt(50000, 2018, time.January, 10),
	}
	begin := time.Date(2018, 2, 10, 0, 0, 0, 0, time.UTC)

	interest := services.SimpleInterest(entries, apr, time.Date(2018, 3, 1, 0, 0, 0, 0, time.UTC), &begin)
	assert.Equal(t, "0.78", interest.StringFixed(2))
}

func TestSimpleInterest_Empty(t *testing.T) {
	interest := services.SimpleInterest(nil, decimal.RequireFromString("8.00"), time.Now(), nil)
	assert.True(t, interest.IsZero())
}
