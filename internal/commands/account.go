package commands

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/arledger/arledger/internal/core/domain"
	"github.com/arledger/arledger/internal/core/registry"
)

func newAccountCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage ledger accounts",
	}
	cmd.AddCommand(newAccountCreateCommand())
	cmd.AddCommand(newAccountBalanceCommand())
	return cmd
}

func newAccountCreateCommand() *cobra.Command {
	var name string
	var typeCode string
	var currency string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new ledger account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			now := time.Now().UTC()
			account := domain.Account{
				AccountID:   uuid.NewString(),
				Name:        name,
				TypeCode:    typeCode,
				Currency:    currency,
				AuditFields: domain.AuditFields{CreatedAt: now, LastUpdatedAt: now},
			}
			if err := a.services.Ledger.CreateAccount(ctx, account); err != nil {
				return err
			}
			fmt.Printf("Created account %s (%s)\n", account.AccountID, account.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "account name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&typeCode, "type", registry.AccountReceivables, "account type code")
	cmd.Flags().StringVar(&currency, "currency", "EUR", "account currency")

	return cmd
}

func newAccountBalanceCommand() *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "balance <account-id>",
		Short: "Show an account's balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			var asOfTime *time.Time
			if asOf != "" {
				t, err := time.Parse(time.RFC3339, asOf)
				if err != nil {
					return fmt.Errorf("parsing --as-of: %w", err)
				}
				asOfTime = &t
			}

			balance, err := a.services.Ledger.Balance(ctx, args[0], asOfTime)
			if err != nil {
				return err
			}
			fmt.Println(balance.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "balance as of this RFC3339 instant (default: now)")

	return cmd
}
