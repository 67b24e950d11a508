package repositories

import (
	"context"
	"time"

	"github.com/arledger/arledger/internal/core/domain"
)

// EntryReader defines read operations for ledger entries.
//
// "Visible" entries are those that participate in balance queries: everything
// except open composite parents and their children. A reader must never
// observe a composite mid-construction.
type EntryReader interface {
	// FindEntryByID retrieves a single entry regardless of visibility.
	FindEntryByID(ctx context.Context, entryID string) (*domain.Entry, error)

	// FindEntriesByAccountID retrieves visible entries for an account with
	// Timestamp <= asOf (all visible entries when asOf is nil), ordered by
	// timestamp then ID.
	FindEntriesByAccountID(ctx context.Context, accountID string, asOf *time.Time) ([]domain.Entry, error)

	// FindEntriesByParentID retrieves the direct children of a composite
	// parent, open or not, ordered by timestamp then ID.
	FindEntriesByParentID(ctx context.Context, parentID string) ([]domain.Entry, error)

	// FindEntriesByInvoiceID retrieves visible entries linked to an invoice,
	// either as invoice items (SourceInvoiceID) or as settlement allocations
	// (SettledInvoiceID), ordered by timestamp then ID.
	FindEntriesByInvoiceID(ctx context.Context, invoiceID string) ([]domain.Entry, error)
}

// EntryWriter defines write operations for ledger entries. Entries are
// append-only: there is no update or delete, only the composite-close flip.
type EntryWriter interface {
	// SaveEntry persists a single new entry.
	SaveEntry(ctx context.Context, entry domain.Entry) error

	// SaveEntries persists a batch of new entries atomically: either all are
	// stored or none.
	SaveEntries(ctx context.Context, entries []domain.Entry) error

	// MarkCompositeClosed flips an open composite parent to closed, making
	// the parent and its children visible to balance queries.
	MarkCompositeClosed(ctx context.Context, parentID string) error
}

// EntryRepository combines all entry persistence operations.
type EntryRepository interface {
	EntryReader
	EntryWriter
}
