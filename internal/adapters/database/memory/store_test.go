package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arledger/arledger/internal/adapters/database/memory"
	"github.com/arledger/arledger/internal/apperrors"
	"github.com/arledger/arledger/internal/core/domain"
)

var baseTime = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

func newAccount(store *memory.Store, t *testing.T) domain.Account {
	t.Helper()
	account := domain.Account{AccountID: uuid.NewString(), Name: "Receivables", TypeCode: "RE", Currency: "EUR"}
	require.NoError(t, store.SaveAccount(context.Background(), account))
	return account
}

func newEntry(accountID string, amount domain.Amount, at time.Time) domain.Entry {
	return domain.Entry{
		EntryID:   uuid.NewString(),
		AccountID: accountID,
		TypeCode:  "CA",
		Amount:    amount,
		Timestamp: at,
	}
}

func TestAccountRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	account := newAccount(store, t)

	found, err := store.FindAccountByID(ctx, account.AccountID)
	require.NoError(t, err)
	assert.Equal(t, account, *found)

	err = store.SaveAccount(ctx, account)
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)

	_, err = store.FindAccountByID(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeleteAccount_RestrictedByEntries(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	account := newAccount(store, t)

	require.NoError(t, store.SaveEntry(ctx, newEntry(account.AccountID, 100, baseTime)))

	err := store.DeleteAccount(ctx, account.AccountID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	empty := newAccount(store, t)
	assert.NoError(t, store.DeleteAccount(ctx, empty.AccountID))
}

func TestFindEntriesByAccountID_AsOfAndOrder(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	account := newAccount(store, t)

	first := newEntry(account.AccountID, 100, baseTime)
	second := newEntry(account.AccountID, 200, baseTime.AddDate(0, 0, 1))
	third := newEntry(account.AccountID, 300, baseTime.AddDate(0, 0, 2))
	require.NoError(t, store.SaveEntries(ctx, []domain.Entry{third, first, second}))

	entries, err := store.FindEntriesByAccountID(ctx, account.AccountID, nil)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, first.EntryID, entries[0].EntryID)
	assert.Equal(t, second.EntryID, entries[1].EntryID)
	assert.Equal(t, third.EntryID, entries[2].EntryID)

	asOf := baseTime.AddDate(0, 0, 1)
	entries, err = store.FindEntriesByAccountID(ctx, account.AccountID, &asOf)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestOpenCompositeIsInvisible(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	account := newAccount(store, t)

	parent := newEntry(account.AccountID, 300, baseTime)
	parent.Composite = true
	parent.Open = true
	require.NoError(t, store.SaveEntry(ctx, parent))

	child := newEntry(account.AccountID, 300, baseTime)
	child.ParentID = &parent.EntryID
	require.NoError(t, store.SaveEntry(ctx, child))

	entries, err := store.FindEntriesByAccountID(ctx, account.AccountID, nil)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// children are reachable through the parent regardless of visibility
	children, err := store.FindEntriesByParentID(ctx, parent.EntryID)
	require.NoError(t, err)
	assert.Len(t, children, 1)

	require.NoError(t, store.MarkCompositeClosed(ctx, parent.EntryID))

	entries, err = store.FindEntriesByAccountID(ctx, account.AccountID, nil)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	err = store.MarkCompositeClosed(ctx, parent.EntryID)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestSaveEntries_AtomicOnDuplicate(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	account := newAccount(store, t)

	existing := newEntry(account.AccountID, 100, baseTime)
	require.NoError(t, store.SaveEntry(ctx, existing))

	fresh := newEntry(account.AccountID, 200, baseTime)
	err := store.SaveEntries(ctx, []domain.Entry{fresh, existing})
	require.ErrorIs(t, err, apperrors.ErrDuplicate)

	// the fresh entry must not have been stored
	_, err = store.FindEntryByID(ctx, fresh.EntryID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestFindEntriesByInvoiceID(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	account := newAccount(store, t)
	invoiceID := uuid.NewString()

	item := newEntry(account.AccountID, 10000, baseTime)
	item.SourceInvoiceID = &invoiceID
	allocation := newEntry(account.AccountID, -4000, baseTime.AddDate(0, 0, 5))
	allocation.SettledInvoiceID = &invoiceID
	allocation.SettledEntryID = &item.EntryID
	unrelated := newEntry(account.AccountID, 500, baseTime)
	require.NoError(t, store.SaveEntries(ctx, []domain.Entry{item, allocation, unrelated}))

	entries, err := store.FindEntriesByInvoiceID(ctx, invoiceID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var sum domain.Amount
	for _, e := range entries {
		sum += e.Amount
	}
	assert.Equal(t, domain.Amount(6000), sum)
}

func TestInvoiceVersionConflict(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	account := newAccount(store, t)

	invoice := domain.Invoice{
		InvoiceID:       uuid.NewString(),
		Number:          "A-1",
		Kind:            domain.StandardInvoice,
		PrincipalAmount: 10000,
		DueDate:         baseTime,
		AccountID:       account.AccountID,
	}
	require.NoError(t, store.SaveInvoice(ctx, invoice))

	require.NoError(t, store.UpdateInvoice(ctx, invoice))

	// the first writer bumped the stored version; a stale save must fail
	err := store.UpdateInvoice(ctx, invoice)
	require.ErrorIs(t, err, apperrors.ErrConflict)

	stored, err := store.FindInvoiceByID(ctx, invoice.InvoiceID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Version)

	invoice.Version = stored.Version
	assert.NoError(t, store.UpdateInvoice(ctx, invoice))
}

func TestListInvoicesByAccountID_DueDateOrder(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	account := newAccount(store, t)

	later := domain.Invoice{InvoiceID: uuid.NewString(), Number: "A-2", AccountID: account.AccountID, DueDate: baseTime.AddDate(0, 1, 0)}
	earlier := domain.Invoice{InvoiceID: uuid.NewString(), Number: "A-1", AccountID: account.AccountID, DueDate: baseTime}
	require.NoError(t, store.SaveInvoice(ctx, later))
	require.NoError(t, store.SaveInvoice(ctx, earlier))

	invoices, err := store.ListInvoicesByAccountID(ctx, account.AccountID)
	require.NoError(t, err)
	require.Len(t, invoices, 2)
	assert.Equal(t, earlier.InvoiceID, invoices[0].InvoiceID)
	assert.Equal(t, later.InvoiceID, invoices[1].InvoiceID)
}

func TestDeleteInvoice_RestrictedByEntries(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	account := newAccount(store, t)

	invoice := domain.Invoice{InvoiceID: uuid.NewString(), Number: "A-3", AccountID: account.AccountID, DueDate: baseTime}
	require.NoError(t, store.SaveInvoice(ctx, invoice))

	item := newEntry(account.AccountID, 100, baseTime)
	item.SourceInvoiceID = &invoice.InvoiceID
	require.NoError(t, store.SaveEntry(ctx, item))

	err := store.DeleteInvoice(ctx, invoice.InvoiceID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestDerivedBalancesSurviveRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	account := newAccount(store, t)

	invoice := domain.Invoice{InvoiceID: uuid.NewString(), Number: "A-4", Kind: domain.StandardInvoice, PrincipalAmount: 10000, AccountID: account.AccountID, DueDate: baseTime}
	require.NoError(t, store.SaveInvoice(ctx, invoice))

	item := newEntry(account.AccountID, 10000, baseTime)
	item.SourceInvoiceID = &invoice.InvoiceID
	allocation := newEntry(account.AccountID, -4000, baseTime.AddDate(0, 0, 3))
	allocation.SettledInvoiceID = &invoice.InvoiceID
	allocation.SettledEntryID = &item.EntryID
	require.NoError(t, store.SaveEntries(ctx, []domain.Entry{item, allocation}))

	sumByAccount := func() domain.Amount {
		entries, err := store.FindEntriesByAccountID(ctx, account.AccountID, nil)
		require.NoError(t, err)
		var sum domain.Amount
		for _, e := range entries {
			sum += e.Amount
		}
		return sum
	}
	sumByInvoice := func() domain.Amount {
		entries, err := store.FindEntriesByInvoiceID(ctx, invoice.InvoiceID)
		require.NoError(t, err)
		var sum domain.Amount
		for _, e := range entries {
			sum += e.Amount
		}
		return sum
	}

	assert.Equal(t, domain.Amount(6000), sumByAccount())
	assert.Equal(t, domain.Amount(6000), sumByInvoice())

	// reloading the same rows must derive the same balances
	assert.Equal(t, sumByAccount(), sumByAccount())
	assert.Equal(t, sumByInvoice(), sumByInvoice())

	stored, err := store.FindInvoiceByID(ctx, invoice.InvoiceID)
	require.NoError(t, err)
	assert.Equal(t, invoice.PrincipalAmount, stored.PrincipalAmount)
	assert.Equal(t, invoice.DueDate, stored.DueDate)
}

func TestReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	account := newAccount(store, t)
	invoiceID := uuid.NewString()

	entry := newEntry(account.AccountID, 100, baseTime)
	entry.SourceInvoiceID = &invoiceID
	require.NoError(t, store.SaveEntry(ctx, entry))

	found, err := store.FindEntryByID(ctx, entry.EntryID)
	require.NoError(t, err)
	*found.SourceInvoiceID = "mutated"
	found.Amount = 999

	again, err := store.FindEntryByID(ctx, entry.EntryID)
	require.NoError(t, err)
	assert.Equal(t, invoiceID, *again.SourceInvoiceID)
	assert.Equal(t, domain.Amount(100), again.Amount)
}
