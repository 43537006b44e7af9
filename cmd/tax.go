package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"gitlab.com/lfmsh/bank/cmd/backend"
	"gitlab.com/lfmsh/bank/models"
)

func NewStatsCmd(newClient ClientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show balance statistics of active pioneers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			stats, err := c.Statistics(cmd.Context())
			if err != nil {
				return fmt.Errorf("could not fetch statistics: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "average balance: %s\n", models.FormatBucks(stats.AvgBalance))
			fmt.Fprintf(cmd.OutOrStdout(), "total balance: %s\n", models.FormatBucks(stats.TotalBalance))
			return nil
		},
	}
}

type chargeFunc func(context.Context, backend.BankClient) (models.TaxResult, error)

// NewTaxCmd groups the charges applied to every active pioneer at once.
func NewTaxCmd(newClient ClientFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tax",
		Short: "Charge the daily tax and the penalties",
	}

	cmd.AddCommand(newChargeCmd(newClient, "charge", "Charge the daily tax to every active pioneer",
		func(ctx context.Context, c backend.BankClient) (models.TaxResult, error) {
			return c.ChargeTax(ctx)
		}))
	cmd.AddCommand(newChargeCmd(newClient, "equator-fine", "Fine pioneers behind on attendance at the equator",
		func(ctx context.Context, c backend.BankClient) (models.TaxResult, error) {
			return c.ChargeEquatorFine(ctx)
		}))
	cmd.AddCommand(newChargeCmd(newClient, "final-fine", "Fine pioneers for attendance missing at the end of the school",
		func(ctx context.Context, c backend.BankClient) (models.TaxResult, error) {
			return c.ChargeFinalFine(ctx)
		}))

	return cmd
}

func newChargeCmd(newClient ClientFactory, use, short string, charge chargeFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			if err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), yes, short+"?"); err != nil {
				return err
			}

			c, err := newClient()
			if err != nil {
				return err
			}
			result, err := charge(cmd.Context(), c)
			if err != nil {
				return fmt.Errorf("%s failed: %w", use, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Message)
			if result.TransactionID != 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Transaction %d\n", result.TransactionID)
			}
			return nil
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	return cmd
}
