package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/arledger/arledger/internal/core/domain"
)

func newSettleCommand() *cobra.Command {
	var amountStr string
	var timestampStr string
	var allowOverpayment bool
	var accountID string

	cmd := &cobra.Command{
		Use:   "settle [invoice-id...]",
		Short: "Apply a payment to one or more invoices",
		Long: `Apply a payment to invoices. With explicit invoice IDs the payment is
allocated in the given order; with --account it is spread over the account's
open invoices, oldest due date first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && accountID == "" {
				return fmt.Errorf("either invoice IDs or --account is required")
			}
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			amount, err := domain.ParseAmount(amountStr)
			if err != nil {
				return err
			}
			var timestamp time.Time
			if timestampStr != "" {
				timestamp, err = time.Parse(time.RFC3339, timestampStr)
				if err != nil {
					return fmt.Errorf("parsing --timestamp: %w", err)
				}
			}

			switch {
			case accountID != "":
				entries, remainder, err := a.services.Settlement.SettleOpenInvoices(ctx, accountID, amount, timestamp)
				if err != nil {
					return err
				}
				fmt.Printf("Posted %d entries, remainder %s\n", len(entries), remainder.String())
			case len(args) == 1 && !allowOverpayment:
				entries, err := a.services.Settlement.Settle(ctx, args[0], amount, timestamp)
				if err != nil {
					return err
				}
				fmt.Printf("Posted %d entries\n", len(entries))
			case len(args) == 1:
				entries, err := a.services.Settlement.SettleWithOverpayment(ctx, args[0], amount, timestamp)
				if err != nil {
					return err
				}
				fmt.Printf("Posted %d entries\n", len(entries))
			default:
				entries, remainder, err := a.services.Settlement.SettleAssigned(ctx, args, amount, timestamp)
				if err != nil {
					return err
				}
				fmt.Printf("Posted %d entries, remainder %s\n", len(entries), remainder.String())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&amountStr, "amount", "", "payment amount, e.g. 120.50 (required)")
	_ = cmd.MarkFlagRequired("amount")
	cmd.Flags().StringVar(&timestampStr, "timestamp", "", "payment timestamp RFC3339 (default: now)")
	cmd.Flags().BoolVar(&allowOverpayment, "allow-overpayment", false, "book excess to the suspense account instead of failing")
	cmd.Flags().StringVar(&accountID, "account", "", "settle the account's open invoices, oldest first")

	return cmd
}
