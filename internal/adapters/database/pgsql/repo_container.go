package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arledger/arledger/internal/core/services"
)

// NewRepositories builds the pgx-backed repository set for the services.
func NewRepositories(pool *pgxpool.Pool) services.Repositories {
	return services.Repositories{
		Accounts: newPgxAccountRepository(pool),
		Entries:  newPgxEntryRepository(pool),
		Invoices: newPgxInvoiceRepository(pool),
	}
}
