package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arledger/arledger/internal/platform/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("PGSQL_URL", "postgres://localhost:5432/arledger")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost:5432/arledger", cfg.DatabaseURL)
	assert.False(t, cfg.IsProduction)
	assert.Equal(t, 14, cfg.DefaultDueDateDays)
	assert.Equal(t, 7, cfg.LateLimitDays)
	assert.Equal(t, "8", cfg.AnnualInterestRatePct.String())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PGSQL_URL", "postgres://db:5432/arledger")
	t.Setenv("IS_PRODUCTION", "true")
	t.Setenv("DEFAULT_DUE_DATE_DAYS", "30")
	t.Setenv("LATE_LIMIT_DAYS", "10")
	t.Setenv("ANNUAL_INTEREST_RATE_PCT", "12.50")
	t.Setenv("SUSPENSE_ACCOUNT_ID", "sus-1")
	t.Setenv("SETTLEMENTS_ACCOUNT_ID", "set-1")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction)
	assert.Equal(t, 30, cfg.DefaultDueDateDays)
	assert.Equal(t, 10, cfg.LateLimitDays)
	assert.Equal(t, "12.5", cfg.AnnualInterestRatePct.String())
	assert.Equal(t, "sus-1", cfg.SuspenseAccountID)
	assert.Equal(t, "set-1", cfg.SettlementsAccountID)
}

func TestLoadConfig_InvalidRateFallsBack(t *testing.T) {
	t.Setenv("PGSQL_URL", "postgres://localhost:5432/arledger")
	t.Setenv("ANNUAL_INTEREST_RATE_PCT", "not-a-number")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8", cfg.AnnualInterestRatePct.String())
}
