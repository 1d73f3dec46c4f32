package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/microerp/internal/accounts"
	"github.com/cleared-dev/microerp/internal/app"
	"github.com/cleared-dev/microerp/internal/id"
	"github.com/cleared-dev/microerp/internal/journal"
)

func newJournalCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Post and list journal entries",
	}
	cmd.AddCommand(
		newJournalPostCommand(opts),
		newJournalBalanceCommand(opts),
		newJournalListCommand(opts),
	)
	return cmd
}

const lineFlagUsage = `journal line as CODE:AMOUNT[:memo], e.g. 5700-0001:100.00:Venta (repeatable; negative amounts are credits)`

func newJournalPostCommand(opts *rootOptions) *cobra.Command {
	var specs []string

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Validate and post a journal entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				draft, err := buildDraft(ctx, a, specs)
				if err != nil {
					return err
				}
				entry, err := a.Journal.Post(ctx, draft.Lines())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Posted entry #%d (debit %s, credit %s)\n",
					entry.ID, entry.TotalDebit.StringFixed(2), entry.TotalCredit.StringFixed(2))
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVarP(&specs, "line", "l", nil, lineFlagUsage)
	return cmd
}

func newJournalBalanceCommand(opts *rootOptions) *cobra.Command {
	var specs []string

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show the running balance of draft lines without posting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				draft, err := buildDraft(ctx, a, specs)
				if err != nil {
					return err
				}
				idx, err := a.Accounts.Index(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Balance: %s\n", draft.Balance())
				if err := journal.Validate(draft.Lines(), idx); err != nil {
					fmt.Fprintf(out, "Not ready: %v\n", err)
					return nil
				}
				fmt.Fprintln(out, "Ready to post")
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVarP(&specs, "line", "l", nil, lineFlagUsage)
	return cmd
}

func newJournalListCommand(opts *rootOptions) *cobra.Command {
	var asCSV bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journal entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				entries, err := a.Journal.List(ctx)
				if err != nil {
					return err
				}
				if asCSV {
					return journal.WriteLines(cmd.OutOrStdout(), entries)
				}
				t := newTable(cmd.OutOrStdout(), "ENTRY", "DATE", "ACCOUNT", "MEMO", "DEBIT", "CREDIT")
				for _, e := range entries {
					for _, l := range e.Lines {
						debit, credit := "", ""
						if l.Amount.IsPositive() {
							debit = l.Amount.StringFixed(2)
						} else {
							credit = l.Amount.Neg().StringFixed(2)
						}
						t.row(fmt.Sprint(e.ID), e.Timestamp.Format("2006-01-02"), l.AccountLabel, l.Description, debit, credit)
					}
				}
				return t.flush()
			})
		},
	}
	cmd.Flags().BoolVar(&asCSV, "csv", false, "write CSV, one row per line")
	return cmd
}

// buildDraft turns --line specs into a draft, resolving account codes
// against the current plan.
func buildDraft(ctx context.Context, a *app.App, specs []string) (*journal.Draft, error) {
	idx, err := a.Accounts.Index(ctx)
	if err != nil {
		return nil, err
	}
	draft := journal.NewDraft()
	for i, spec := range specs {
		if i >= len(draft.Lines()) {
			draft.AddLine()
		}
		accountID, amount, memo, err := parseLineSpec(spec, idx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		if _, err := draft.SetAccount(i, accountID); err != nil {
			return nil, err
		}
		if amount.Valid {
			if _, err := draft.SetAmount(i, amount.Decimal); err != nil {
				return nil, err
			}
		}
		if _, err := draft.SetMemo(i, memo); err != nil {
			return nil, err
		}
	}
	// Drop the blank lines a short draft started with.
	for len(draft.Lines()) > len(specs) {
		if _, err := draft.RemoveLine(len(draft.Lines()) - 1); err != nil {
			return nil, err
		}
	}
	return draft, nil
}

// parseLineSpec parses CODE:AMOUNT[:memo]. An empty amount leaves it unset.
func parseLineSpec(spec string, idx *accounts.Index) (int64, decimal.NullDecimal, string, error) {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) < 2 {
		return 0, decimal.NullDecimal{}, "", fmt.Errorf("expected CODE:AMOUNT[:memo], got %q", spec)
	}

	var accountID int64
	if ref := strings.TrimSpace(parts[0]); ref != "" {
		number, sub, err := id.ParseAccountCode(ref)
		if err != nil {
			return 0, decimal.NullDecimal{}, "", err
		}
		acct, ok := idx.ByCode(id.FormatAccountCode(number, sub))
		if !ok {
			return 0, decimal.NullDecimal{}, "", fmt.Errorf("%w: %s", journal.ErrUnknownAccount, ref)
		}
		accountID = acct.ID
	}

	var amount decimal.NullDecimal
	if raw := strings.TrimSpace(parts[1]); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return 0, decimal.NullDecimal{}, "", fmt.Errorf("invalid amount %q", raw)
		}
		amount = decimal.NewNullDecimal(d)
	}

	memo := ""
	if len(parts) == 3 {
		memo = strings.TrimSpace(parts[2])
	}
	return accountID, amount, memo, nil
}
