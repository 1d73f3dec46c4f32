package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/microerp/internal/app"
	"github.com/cleared-dev/microerp/internal/report"
)

func newReportCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Bookkeeping reports",
	}
	cmd.AddCommand(newTrialBalanceCommand(opts))
	return cmd
}

func newTrialBalanceCommand(opts *rootOptions) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "trial-balance",
		Short: "Debit, credit and balance per account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				accts, err := a.Accounts.List(ctx)
				if err != nil {
					return err
				}
				entries, err := a.Journal.List(ctx)
				if err != nil {
					return err
				}
				tb := report.NewTrialBalance(accts, entries)
				md := tb.Markdown("Trial balance: "+a.Config.Business.Name, a.Config.Currency)
				styled := !plain && isTerminal(cmd.OutOrStdout())
				return report.Render(cmd.OutOrStdout(), md, styled)
			})
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "write raw markdown even on a terminal")
	return cmd
}
