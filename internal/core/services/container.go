package services

import (
	"log/slog"

	"github.com/arledger/arledger/internal/core/ports"
	portsrepo "github.com/arledger/arledger/internal/core/ports/repositories"
	portssvc "github.com/arledger/arledger/internal/core/ports/services"
	"github.com/arledger/arledger/internal/core/registry"
)

// Config gathers the reference data codes and limits the services run with.
type Config struct {
	Settlement    SettlementConfig
	InterestType  string
	LateLimitDays int
}

// Repositories gathers the persistence collaborators the services consume.
type Repositories struct {
	Accounts portsrepo.AccountRepository
	Entries  portsrepo.EntryRepository
	Invoices portsrepo.InvoiceRepository
}

// Services bundles the constructed core services for callers.
type Services struct {
	Ledger     portssvc.LedgerSvcFacade
	Invoice    portssvc.InvoiceSvcFacade
	Settlement portssvc.SettlementSvcFacade
	Interest   portssvc.InterestSvcFacade
}

// NewServices wires the core services together against the supplied
// registry, repositories and clock.
func NewServices(reg *registry.Registry, repos Repositories, clock ports.Clock, cfg Config, logger *slog.Logger) *Services {
	ledger := NewLedgerService(reg, repos.Accounts, repos.Entries, clock, logger)
	invoice := NewInvoiceService(reg, repos.Accounts, repos.Entries, repos.Invoices, clock, cfg.LateLimitDays, logger)
	settlement := NewSettlementService(cfg.Settlement, reg, repos.Accounts, repos.Entries, repos.Invoices, invoice, ledger, clock, logger)
	interest := NewInterestService(invoice, ledger, cfg.InterestType, clock, logger)
	return &Services{
		Ledger:     ledger,
		Invoice:    invoice,
		Settlement: settlement,
		Interest:   interest,
	}
}
