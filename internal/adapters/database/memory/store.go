// Package memory provides an in-memory implementation of the persistence
// ports. Reads return deep copies taken under the store lock, so callers
// always observe a consistent snapshot: never an open composite flip or a
// partially applied batch.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/arledger/arledger/internal/apperrors"
	"github.com/arledger/arledger/internal/core/domain"
	portsrepo "github.com/arledger/arledger/internal/core/ports/repositories"
)

// Store holds accounts, entries and invoices behind a single RWMutex.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]domain.Account
	entries  map[string]domain.Entry
	invoices map[string]domain.Invoice
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		accounts: make(map[string]domain.Account),
		entries:  make(map[string]domain.Entry),
		invoices: make(map[string]domain.Invoice),
	}
}

var (
	_ portsrepo.AccountRepository = (*Store)(nil)
	_ portsrepo.EntryRepository   = (*Store)(nil)
	_ portsrepo.InvoiceRepository = (*Store)(nil)
)

// --- accounts ---

func (s *Store) SaveAccount(_ context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[account.AccountID]; exists {
		return fmt.Errorf("account %s: %w", account.AccountID, apperrors.ErrDuplicate)
	}
	s.accounts[account.AccountID] = account
	return nil
}

func (s *Store) FindAccountByID(_ context.Context, accountID string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", accountID, apperrors.ErrNotFound)
	}
	return &acc, nil
}

func (s *Store) ListAccounts(_ context.Context) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		out = append(out, acc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].AccountID < out[j].AccountID
	})
	return out, nil
}

func (s *Store) DeleteAccount(_ context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[accountID]; !ok {
		return fmt.Errorf("account %s: %w", accountID, apperrors.ErrNotFound)
	}
	for _, e := range s.entries {
		if e.AccountID == accountID {
			return &apperrors.ConflictError{Kind: "account", ID: accountID}
		}
	}
	delete(s.accounts, accountID)
	return nil
}

// --- entries ---

func (s *Store) SaveEntry(_ context.Context, entry domain.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(entry)
}

func (s *Store) SaveEntries(_ context.Context, entries []domain.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		if _, exists := s.entries[e.EntryID]; exists {
			return fmt.Errorf("entry %s: %w", e.EntryID, apperrors.ErrDuplicate)
		}
	}
	for _, e := range entries {
		if err := s.insertLocked(e); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) insertLocked(entry domain.Entry) error {
	if _, exists := s.entries[entry.EntryID]; exists {
		return fmt.Errorf("entry %s: %w", entry.EntryID, apperrors.ErrDuplicate)
	}
	s.entries[entry.EntryID] = copyEntry(entry)
	return nil
}

func (s *Store) FindEntryByID(_ context.Context, entryID string) (*domain.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[entryID]
	if !ok {
		return nil, fmt.Errorf("entry %s: %w", entryID, apperrors.ErrNotFound)
	}
	out := copyEntry(e)
	return &out, nil
}

func (s *Store) FindEntriesByAccountID(_ context.Context, accountID string, asOf *time.Time) ([]domain.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Entry
	for _, e := range s.entries {
		if e.AccountID != accountID || !s.visibleLocked(e) {
			continue
		}
		if asOf != nil && e.Timestamp.After(*asOf) {
			continue
		}
		out = append(out, copyEntry(e))
	}
	sortEntries(out)
	return out, nil
}

func (s *Store) FindEntriesByParentID(_ context.Context, parentID string) ([]domain.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Entry
	for _, e := range s.entries {
		if e.ParentID != nil && *e.ParentID == parentID {
			out = append(out, copyEntry(e))
		}
	}
	sortEntries(out)
	return out, nil
}

func (s *Store) FindEntriesByInvoiceID(_ context.Context, invoiceID string) ([]domain.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Entry
	for _, e := range s.entries {
		if !s.visibleLocked(e) {
			continue
		}
		linked := (e.SourceInvoiceID != nil && *e.SourceInvoiceID == invoiceID) ||
			(e.SettledInvoiceID != nil && *e.SettledInvoiceID == invoiceID)
		if linked {
			out = append(out, copyEntry(e))
		}
	}
	sortEntries(out)
	return out, nil
}

func (s *Store) MarkCompositeClosed(_ context.Context, parentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[parentID]
	if !ok {
		return fmt.Errorf("entry %s: %w", parentID, apperrors.ErrNotFound)
	}
	if !e.Composite {
		return apperrors.NewValidationError("parentID", fmt.Sprintf("entry %s is not a composite parent", parentID))
	}
	if !e.Open {
		return apperrors.NewValidationError("parentID", fmt.Sprintf("composite %s is already closed", parentID))
	}
	e.Open = false
	s.entries[parentID] = e
	return nil
}

// visibleLocked reports whether an entry participates in balance queries.
// Open composite parents and their children are hidden until close.
func (s *Store) visibleLocked(e domain.Entry) bool {
	if e.Composite && e.Open {
		return false
	}
	if e.ParentID != nil {
		if parent, ok := s.entries[*e.ParentID]; ok && parent.Open {
			return false
		}
	}
	return true
}

// --- invoices ---

func (s *Store) SaveInvoice(_ context.Context, invoice domain.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.invoices[invoice.InvoiceID]; exists {
		return fmt.Errorf("invoice %s: %w", invoice.InvoiceID, apperrors.ErrDuplicate)
	}
	s.invoices[invoice.InvoiceID] = copyInvoice(invoice)
	return nil
}

func (s *Store) UpdateInvoice(_ context.Context, invoice domain.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.invoices[invoice.InvoiceID]
	if !ok {
		return fmt.Errorf("invoice %s: %w", invoice.InvoiceID, apperrors.ErrNotFound)
	}
	if stored.Version != invoice.Version {
		return &apperrors.ConflictError{Kind: "invoice", ID: invoice.InvoiceID}
	}
	updated := copyInvoice(invoice)
	updated.Version = invoice.Version + 1
	s.invoices[invoice.InvoiceID] = updated
	return nil
}

func (s *Store) FindInvoiceByID(_ context.Context, invoiceID string) (*domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invoices[invoiceID]
	if !ok {
		return nil, fmt.Errorf("invoice %s: %w", invoiceID, apperrors.ErrNotFound)
	}
	out := copyInvoice(inv)
	return &out, nil
}

func (s *Store) ListInvoicesByAccountID(_ context.Context, accountID string) ([]domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Invoice
	for _, inv := range s.invoices {
		if inv.AccountID == accountID {
			out = append(out, copyInvoice(inv))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].InvoiceID < out[j].InvoiceID
	})
	return out, nil
}

func (s *Store) DeleteInvoice(_ context.Context, invoiceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.invoices[invoiceID]; !ok {
		return fmt.Errorf("invoice %s: %w", invoiceID, apperrors.ErrNotFound)
	}
	for _, e := range s.entries {
		if (e.SourceInvoiceID != nil && *e.SourceInvoiceID == invoiceID) ||
			(e.SettledInvoiceID != nil && *e.SettledInvoiceID == invoiceID) {
			return &apperrors.ConflictError{Kind: "invoice", ID: invoiceID}
		}
	}
	delete(s.invoices, invoiceID)
	return nil
}

// --- copies ---

func sortEntries(entries []domain.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].Timestamp.Before(entries[j].Timestamp)
		}
		return entries[i].EntryID < entries[j].EntryID
	})
}

func copyEntry(e domain.Entry) domain.Entry {
	out := e
	out.ParentID = copyStringPtr(e.ParentID)
	out.SourceInvoiceID = copyStringPtr(e.SourceInvoiceID)
	out.SettledInvoiceID = copyStringPtr(e.SettledInvoiceID)
	out.SettledEntryID = copyStringPtr(e.SettledEntryID)
	return out
}

func copyInvoice(inv domain.Invoice) domain.Invoice {
	out := inv
	if inv.CloseDate != nil {
		t := *inv.CloseDate
		out.CloseDate = &t
	}
	return out
}

func copyStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
