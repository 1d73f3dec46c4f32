package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/microerp/internal/app"
	"github.com/cleared-dev/microerp/internal/backup"
	"github.com/cleared-dev/microerp/internal/gitops"
	"github.com/cleared-dev/microerp/internal/store"
)

func newBackupCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export or import every collection as JSON",
	}
	cmd.AddCommand(newBackupExportCommand(opts), newBackupImportCommand(opts))
	return cmd
}

func newBackupExportCommand(opts *rootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a backup file (backups/MicroERP_Backup_<date>.json by default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				path := out
				if path == "" {
					path = filepath.Join(a.Root, "backups", backup.DefaultFileName(time.Now()))
				}
				if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
					return fmt.Errorf("creating backup dir: %w", err)
				}
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("creating %s: %w", path, err)
				}
				counts, err := backup.Export(ctx, a.Store, f)
				if closeErr := f.Close(); err == nil {
					err = closeErr
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records to %s\n", counts.Total(), path)

				hash, err := commitBackup(ctx, a, path)
				if err != nil {
					return err
				}
				if hash != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Committed %s\n", hash)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file")
	return cmd
}

// commitBackup commits the backup file when auto-commit is on and the file
// lives inside the workspace repository.
func commitBackup(ctx context.Context, a *app.App, path string) (string, error) {
	if !a.Config.Git.AutoCommit || !gitops.IsRepo(a.Root) {
		return "", nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(a.Root, abs)
	if err != nil || !filepath.IsLocal(rel) {
		return "", nil
	}
	author := gitops.Author{Name: a.Config.Git.AuthorName, Email: a.Config.Git.AuthorEmail}
	return gitops.CommitPaths(ctx, a.Root, "backup: "+filepath.Base(rel), author, rel)
}

func newBackupImportCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Upsert every record of a backup file, all or nothing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()

			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				counts, err := backup.Import(ctx, a.Store, f)
				if err != nil {
					return err
				}
				t := newTable(cmd.OutOrStdout(), "COLLECTION", "RECORDS")
				for _, c := range store.Collections {
					if n, ok := counts[c]; ok {
						t.row(string(c), fmt.Sprint(n))
					}
				}
				if err := t.flush(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records\n", counts.Total())
				return nil
			})
		},
	}
}
