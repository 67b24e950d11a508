package commands

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var pctDivisor = decimal.NewFromInt(100)

func newInterestCommand() *cobra.Command {
	var ratePctStr string
	var materialize bool

	cmd := &cobra.Command{
		Use:   "interest <invoice-id>",
		Short: "Compute penalty interest accrued on an overdue invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			ratePct := a.cfg.AnnualInterestRatePct
			if ratePctStr != "" {
				ratePct, err = decimal.NewFromString(ratePctStr)
				if err != nil {
					return fmt.Errorf("parsing --rate: %w", err)
				}
			}
			rate := ratePct.Div(pctDivisor)

			if materialize {
				entry, err := a.services.Interest.MaterializeInterest(ctx, args[0], rate, nil)
				if err != nil {
					return err
				}
				fmt.Printf("Posted interest entry %s for %s\n", entry.EntryID, entry.Amount.String())
				return nil
			}

			accrued, err := a.services.Interest.AccruedInterest(ctx, args[0], rate, nil)
			if err != nil {
				return err
			}
			fmt.Println(accrued.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&ratePctStr, "rate", "", "annual rate in percent, e.g. 8.00 (default: ANNUAL_INTEREST_RATE_PCT)")
	cmd.Flags().BoolVar(&materialize, "materialize", false, "post the accrued interest as a new invoice item")

	return cmd
}
