// Package commands implements the microerp command line.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/microerp/internal/app"
	"github.com/cleared-dev/microerp/internal/buildinfo"
	"github.com/cleared-dev/microerp/internal/config"
	"github.com/cleared-dev/microerp/internal/logger"
)

type rootOptions struct {
	dir string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:     "microerp",
		Short:   "Local bookkeeping for small businesses",
		Version: buildinfo.Summary(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.dir, "dir", "C", ".", "workspace directory")

	rootCmd.AddCommand(
		newInitCommand(),
		newAccountsCommand(opts),
		newJournalCommand(opts),
		newCentersCommand(opts),
		newSuppliersCommand(opts),
		newInvoicesCommand(opts),
		newUsersCommand(opts),
		newRolesCommand(opts),
		newBackupCommand(opts),
		newDBCommand(opts),
		newReportCommand(opts),
	)

	return rootCmd
}

// withApp opens the workspace, runs fn and closes it, flushing the audit log.
func (o *rootOptions) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) (err error) {
	root, err := filepath.Abs(o.dir)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	cfg, err := app.LoadConfig(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("no %s in %s (run \"microerp init\" first)", config.FileName, root)
		}
		return err
	}

	log := logger.NewTo(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.Open(ctx, root, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.Close())
	}()

	return fn(logger.WithContext(ctx, a.Log), a)
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
