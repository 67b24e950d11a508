package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/arledger/arledger/internal/core/domain"
	"github.com/arledger/arledger/internal/core/registry"
	"github.com/arledger/arledger/internal/dto"
)

func newInvoiceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoice",
		Short: "Manage invoices",
	}
	cmd.AddCommand(newInvoiceCreateCommand())
	cmd.AddCommand(newInvoiceShowCommand())
	return cmd
}

func newInvoiceCreateCommand() *cobra.Command {
	var number string
	var accountID string
	var amountStr string
	var dueDateStr string
	var typeCode string
	var creditNote bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an invoice with a single principal line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			dueDate := time.Now().UTC().AddDate(0, 0, a.cfg.DefaultDueDateDays)
			if dueDateStr != "" {
				dueDate, err = time.Parse("2006-01-02", dueDateStr)
				if err != nil {
					return fmt.Errorf("parsing --due: %w", err)
				}
			}

			kind := domain.StandardInvoice
			if creditNote {
				kind = domain.CreditNote
				amount = amount.Abs().Neg()
			}

			invoice, err := a.services.Invoice.CreateInvoice(ctx, dto.CreateInvoiceRequest{
				Number:    number,
				Kind:      kind,
				AccountID: accountID,
				DueDate:   dueDate,
				Lines: []dto.InvoiceLine{
					{TypeCode: typeCode, Amount: amount, Description: "invoice " + number},
				},
			})
			if err != nil {
				return err
			}
			fmt.Printf("Created invoice %s (%s, %s due %s)\n",
				invoice.InvoiceID, invoice.Number, invoice.PrincipalAmount.String(),
				invoice.DueDate.Format("2006-01-02"))
			return nil
		},
	}

	cmd.Flags().StringVar(&number, "number", "", "invoice number (required)")
	_ = cmd.MarkFlagRequired("number")
	cmd.Flags().StringVar(&accountID, "account", "", "receivables account ID (required)")
	_ = cmd.MarkFlagRequired("account")
	cmd.Flags().StringVar(&amountStr, "amount", "", "principal amount, e.g. 120.50 (required)")
	_ = cmd.MarkFlagRequired("amount")
	cmd.Flags().StringVar(&dueDateStr, "due", "", "due date YYYY-MM-DD (default: today + DEFAULT_DUE_DATE_DAYS)")
	cmd.Flags().StringVar(&typeCode, "type", registry.EntryCapital, "entry type of the principal line")
	cmd.Flags().BoolVar(&creditNote, "credit-note", false, "create a credit note instead of a standard invoice")

	return cmd
}

func newInvoiceShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <invoice-id>",
		Short: "Show an invoice with its derived amounts and state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			invoiceID := args[0]
			invoice, err := a.services.Invoice.GetInvoice(ctx, invoiceID)
			if err != nil {
				return err
			}
			outstanding, err := a.services.Invoice.OutstandingAmount(ctx, invoiceID)
			if err != nil {
				return err
			}
			settled, err := a.services.Invoice.SettledAmount(ctx, invoiceID)
			if err != nil {
				return err
			}
			state, err := a.services.Invoice.State(ctx, invoiceID, nil)
			if err != nil {
				return err
			}
			lateDays, err := a.services.Invoice.LateDays(ctx, invoiceID, nil)
			if err != nil {
				return err
			}

			fmt.Printf("Invoice:     %s (%s)\n", invoice.Number, invoice.InvoiceID)
			fmt.Printf("Kind:        %s\n", invoice.Kind)
			fmt.Printf("Account:     %s\n", invoice.AccountID)
			fmt.Printf("Principal:   %s\n", invoice.PrincipalAmount.String())
			fmt.Printf("Due:         %s\n", invoice.DueDate.Format("2006-01-02"))
			fmt.Printf("Settled:     %s\n", settled.String())
			fmt.Printf("Outstanding: %s\n", outstanding.String())
			fmt.Printf("State:       %s\n", state)
			if lateDays > 0 {
				fmt.Printf("Late days:   %d\n", lateDays)
			}
			if invoice.CloseDate != nil {
				fmt.Printf("Closed:      %s\n", invoice.CloseDate.Format("2006-01-02"))
			}
			return nil
		},
	}
	return cmd
}
