package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	IsProduction bool

	// DefaultDueDateDays is added to the current date when an invoice is
	// created without an explicit due date.
	DefaultDueDateDays int
	// LateLimitDays is how many days past due an invoice must be before its
	// derived state turns LATE.
	LateLimitDays int
	// AnnualInterestRatePct is the default penalty interest rate, e.g. 8.00
	// for 8% p.a.
	AnnualInterestRatePct decimal.Decimal
	// SuspenseAccountID receives overpayment excess.
	SuspenseAccountID string
	// SettlementsAccountID receives incoming payment debits.
	SettlementsAccountID string
}

// LoadConfig loads configuration from environment variables and a .env file
// if present. Environment variables override .env values.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("DEFAULT_DUE_DATE_DAYS", 14)
	viper.SetDefault("LATE_LIMIT_DAYS", 7)
	viper.SetDefault("ANNUAL_INTEREST_RATE_PCT", "8.00")
	viper.SetDefault("SUSPENSE_ACCOUNT_ID", "")
	viper.SetDefault("SETTLEMENTS_ACCOUNT_ID", "")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.DefaultDueDateDays = viper.GetInt("DEFAULT_DUE_DATE_DAYS")
	cfg.LateLimitDays = viper.GetInt("LATE_LIMIT_DAYS")

	rateStr := viper.GetString("ANNUAL_INTEREST_RATE_PCT")
	rate, err := decimal.NewFromString(rateStr)
	if err != nil {
		log.Printf("Warning: Invalid value for ANNUAL_INTEREST_RATE_PCT (%q). Defaulting to 8.00.\n", rateStr)
		rate = decimal.RequireFromString("8.00")
	}
	cfg.AnnualInterestRatePct = rate

	cfg.SuspenseAccountID = viper.GetString("SUSPENSE_ACCOUNT_ID")
	cfg.SettlementsAccountID = viper.GetString("SETTLEMENTS_ACCOUNT_ID")

	return cfg, nil
}
