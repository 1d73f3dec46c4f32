package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/microerp/internal/accounts"
	"github.com/cleared-dev/microerp/internal/app"
	"github.com/cleared-dev/microerp/internal/id"
	"github.com/cleared-dev/microerp/internal/model"
)

func newAccountsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage the accounting plan",
	}
	cmd.AddCommand(
		newAccountsListCommand(opts),
		newAccountSaveCommand(opts, false),
		newAccountSaveCommand(opts, true),
		newAccountsDeleteCommand(opts),
		newAccountsImportCommand(opts),
		newAccountsExportCommand(opts),
	)
	return cmd
}

func newAccountsListCommand(opts *rootOptions) *cobra.Command {
	var classification string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := model.Classification(classification)
			if filter != "" && !filter.Valid() {
				return fmt.Errorf("unknown classification %q (want one of %v)", classification, model.Classifications)
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				idx, err := a.Accounts.Index(ctx)
				if err != nil {
					return err
				}
				accts := idx.All()
				if filter != "" {
					accts = idx.ByClassification(filter)
				}
				t := newTable(cmd.OutOrStdout(), "ID", "CODE", "DESCRIPTION", "CLASSIFICATION", "EXTERNAL")
				for _, acct := range accts {
					t.row(fmt.Sprint(acct.ID), acct.Code(), acct.Description, string(acct.Classification), acct.ExternalCode)
				}
				return t.flush()
			})
		},
	}
	cmd.Flags().StringVar(&classification, "clasificacion", "", "only list accounts of this classification")
	return cmd
}

// newAccountSaveCommand builds "add" or, with edit set, "edit <id>". Edit
// only changes the fields whose flags were given.
func newAccountSaveCommand(opts *rootOptions, edit bool) *cobra.Command {
	var acct model.Account
	var classification string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				target := acct
				if edit {
					accountID, err := id.ParseRecordID(args[0])
					if err != nil {
						return err
					}
					if target, err = a.Accounts.Get(ctx, accountID); err != nil {
						return err
					}
					flags := cmd.Flags()
					if flags.Changed("cuenta") {
						target.Number = acct.Number
					}
					if flags.Changed("subcuenta") {
						target.Subaccount = acct.Subaccount
					}
					if flags.Changed("descripcion") {
						target.Description = acct.Description
					}
					if flags.Changed("codigo-externo") {
						target.ExternalCode = acct.ExternalCode
					}
				}
				if !edit || cmd.Flags().Changed("clasificacion") {
					target.Classification = model.Classification(classification)
				}

				saved, err := a.Accounts.Save(ctx, target)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved account #%d %s\n", saved.ID, saved.Label())
				return nil
			})
		},
	}
	if edit {
		cmd.Use = "edit <id>"
		cmd.Short = "Edit an account"
		cmd.Args = cobra.ExactArgs(1)
	}

	f := cmd.Flags()
	f.StringVar(&acct.Number, "cuenta", "", "account number (4 digits)")
	f.StringVar(&acct.Subaccount, "subcuenta", id.DefaultSubaccount, "subaccount (4 digits)")
	f.StringVar(&acct.Description, "descripcion", "", "description")
	f.StringVar(&classification, "clasificacion", string(model.ClassificationAsset), "Activo, Pasivo, Capital, Ingresos or Costes")
	f.StringVar(&acct.ExternalCode, "codigo-externo", "", "external code")
	if !edit {
		_ = cmd.MarkFlagRequired("cuenta")
		_ = cmd.MarkFlagRequired("descripcion")
	}
	return cmd
}

func newAccountsDeleteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			accountID, err := id.ParseRecordID(args[0])
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Accounts.Delete(ctx, accountID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted account #%d\n", accountID)
				return nil
			})
		},
	}
}

func newAccountsImportCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import-csv <file>",
		Short: "Import accounts from CSV, updating existing codes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()

			accts, err := accounts.ReadAccounts(f)
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				inserted, updated, err := a.Accounts.Merge(ctx, accts)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d accounts (%d new, %d updated)\n", inserted+updated, inserted, updated)
				return nil
			})
		},
	}
}

func newAccountsExportCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export-csv [file]",
		Short: "Export the accounting plan as CSV (stdout by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				accts, err := a.Accounts.List(ctx)
				if err != nil {
					return err
				}
				var w io.Writer = cmd.OutOrStdout()
				if len(args) == 1 {
					f, err := os.Create(args[0])
					if err != nil {
						return fmt.Errorf("creating %s: %w", args[0], err)
					}
					defer f.Close()
					w = f
				}
				return accounts.WriteAccounts(w, accts)
			})
		},
	}
}
