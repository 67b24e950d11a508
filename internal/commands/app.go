package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arledger/arledger/internal/adapters/database/pgsql"
	"github.com/arledger/arledger/internal/core/ports"
	"github.com/arledger/arledger/internal/core/registry"
	"github.com/arledger/arledger/internal/core/services"
	"github.com/arledger/arledger/internal/platform/config"
	"github.com/arledger/arledger/pkg/database"
)

// app bundles everything a command needs: config, the connection pool and
// the wired core services. Close releases the pool.
type app struct {
	cfg      *config.Config
	pool     *pgxpool.Pool
	services *services.Services
}

func (a *app) Close() {
	database.ClosePgxPool(a.pool)
}

// openApp loads configuration, connects to the database, ensures the schema
// and wires the core services against the pgsql repositories.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pgsql.EnsureSchema(ctx, pool); err != nil {
		database.ClosePgxPool(pool)
		return nil, err
	}

	svcCfg := services.Config{
		Settlement: services.SettlementConfig{
			SettlementsAccountID:    cfg.SettlementsAccountID,
			SuspenseAccountID:       cfg.SuspenseAccountID,
			PaymentTypeCode:         registry.EntryPayment,
			SettlementTypeCode:      registry.EntrySettlement,
			OverpaymentTypeCode:     registry.EntryOverpayment,
			CreditNoteReconTypeCode: registry.EntryCreditNoteRecon,
		},
		InterestType:  registry.EntryInterest,
		LateLimitDays: cfg.LateLimitDays,
	}

	svcs := services.NewServices(registry.Default(), pgsql.NewRepositories(pool), ports.SystemClock{}, svcCfg, slog.Default())
	return &app{cfg: cfg, pool: pool, services: svcs}, nil
}
