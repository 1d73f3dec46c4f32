package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/microerp/internal/app"
	"github.com/cleared-dev/microerp/internal/auditlog"
	"github.com/cleared-dev/microerp/internal/store"
)

func newDBCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Inspect, switch or reset the record store",
	}
	cmd.AddCommand(newDBInfoCommand(opts), newDBUseCommand(opts), newDBResetCommand(opts), newDBLogCommand(opts))
	return cmd
}

func newDBInfoCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the store name, schema version and record counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				info, err := a.Info(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Store:   %s\n", info.Name)
				fmt.Fprintf(out, "Path:    %s\n", info.Path)
				fmt.Fprintf(out, "Schema:  %d\n\n", info.SchemaVersion)
				t := newTable(out, "COLLECTION", "RECORDS")
				for _, c := range store.Collections {
					t.row(string(c), fmt.Sprint(info.Counts[c]))
				}
				return t.flush()
			})
		},
	}
}

func newDBUseCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "use <name>",
		Short: "Switch to another store, creating it if needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Switch(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Using store %s\n", args[0])
				return nil
			})
		},
	}
}

func newDBResetCommand(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every record of the current store and reseed it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("reset deletes every record; pass --yes to confirm")
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Reset(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Store %s reset\n", a.Config.Store.Name)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

func newDBLogCommand(opts *rootOptions) *cobra.Command {
	var (
		limit int
		runID string
	)

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the audit trail of committed writes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				entries, err := auditlog.Read(a.Root)
				if err != nil {
					return err
				}
				if runID != "" {
					var kept []auditlog.Entry
					for _, e := range entries {
						if e.RunID == runID {
							kept = append(kept, e)
						}
					}
					entries = kept
				}
				if limit > 0 && len(entries) > limit {
					entries = entries[len(entries)-limit:]
				}
				t := newTable(cmd.OutOrStdout(), "TIME", "RUN", "COLLECTION", "OP", "RECORD")
				for _, e := range entries {
					t.row(e.Timestamp.Format(time.RFC3339), e.RunID, string(e.Collection), string(e.Op), fmt.Sprint(e.RecordID))
				}
				return t.flush()
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show only the last N entries")
	cmd.Flags().StringVar(&runID, "run", "", "only show entries of this run id")
	return cmd
}
