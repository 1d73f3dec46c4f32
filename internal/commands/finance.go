package commands

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/microerp/internal/app"
	"github.com/cleared-dev/microerp/internal/id"
	"github.com/cleared-dev/microerp/internal/model"
	"github.com/cleared-dev/microerp/internal/report"
)

func newSuppliersCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suppliers",
		Short: "Manage suppliers",
	}
	cmd.AddCommand(
		newSuppliersListCommand(opts),
		newSupplierSaveCommand(opts, false),
		newSupplierSaveCommand(opts, true),
		newSuppliersDeleteCommand(opts),
	)
	return cmd
}

func newSuppliersListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List suppliers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				sups, err := a.Finance.Suppliers(ctx)
				if err != nil {
					return err
				}
				t := newTable(cmd.OutOrStdout(), "ID", "NUMBER", "NAME", "CLASSIFICATION", "ADDRESS")
				for _, s := range sups {
					t.row(fmt.Sprint(s.ID), s.Number, s.Name, string(s.Classification), s.Address)
				}
				return t.flush()
			})
		},
	}
}

func newSupplierSaveCommand(opts *rootOptions, edit bool) *cobra.Command {
	var sup model.Supplier
	var classification string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a supplier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				target := sup
				target.Classification = model.SupplierClassification(classification)
				if edit {
					supplierID, err := id.ParseRecordID(args[0])
					if err != nil {
						return err
					}
					if target, err = a.Finance.Supplier(ctx, supplierID); err != nil {
						return err
					}
					flags := cmd.Flags()
					if flags.Changed("numero") {
						target.Number = sup.Number
					}
					if flags.Changed("nombre") {
						target.Name = sup.Name
					}
					if flags.Changed("direccion") {
						target.Address = sup.Address
					}
					if flags.Changed("codigo-externo") {
						target.ExternalCode = sup.ExternalCode
					}
					if flags.Changed("clasificacion") {
						target.Classification = model.SupplierClassification(classification)
					}
				}

				saved, err := a.Finance.SaveSupplier(ctx, target)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved supplier #%d %s %s\n", saved.ID, saved.Number, saved.Name)
				return nil
			})
		},
	}
	if edit {
		cmd.Use = "edit <id>"
		cmd.Short = "Edit a supplier"
		cmd.Args = cobra.ExactArgs(1)
	}

	f := cmd.Flags()
	f.StringVar(&sup.Number, "numero", "", "supplier number (4 digits)")
	f.StringVar(&sup.Name, "nombre", "", "supplier name")
	f.StringVar(&sup.Address, "direccion", "", "address")
	f.StringVar(&sup.ExternalCode, "codigo-externo", "", "external code")
	f.StringVar(&classification, "clasificacion", string(model.SupplierOther), "Subcontratista, Materiales, Servicios Generales, Ingenieria or Otro")
	if !edit {
		_ = cmd.MarkFlagRequired("numero")
		_ = cmd.MarkFlagRequired("nombre")
	}
	return cmd
}

func newSuppliersDeleteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a supplier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			supplierID, err := id.ParseRecordID(args[0])
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Finance.DeleteSupplier(ctx, supplierID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted supplier #%d\n", supplierID)
				return nil
			})
		},
	}
}

func newInvoicesCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoices",
		Short: "Record and list supplier invoices",
	}
	cmd.AddCommand(newInvoicesListCommand(opts), newInvoicesAddCommand(opts))
	return cmd
}

func newInvoicesListCommand(opts *rootOptions) *cobra.Command {
	var supplierID int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List invoices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				var invoices []model.Invoice
				var err error
				if supplierID != 0 {
					invoices, err = a.Finance.InvoicesFor(ctx, supplierID)
				} else {
					invoices, err = a.Finance.Invoices(ctx)
				}
				if err != nil {
					return err
				}
				t := newTable(cmd.OutOrStdout(), "ID", "DATE", "NUMBER", "SUPPLIER", "AMOUNT", "DESCRIPTION")
				for _, inv := range invoices {
					t.row(fmt.Sprint(inv.ID), inv.Date, inv.Number, inv.SupplierName,
						report.FormatMoney(inv.Amount, a.Config.Currency), inv.Description)
				}
				return t.flush()
			})
		},
	}
	cmd.Flags().Int64Var(&supplierID, "supplier", 0, "only invoices of this supplier id")
	return cmd
}

func newInvoicesAddCommand(opts *rootOptions) *cobra.Command {
	var inv model.Invoice
	var amount string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a supplier invoice",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q", amount)
			}
			inv.Amount = value
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				saved, err := a.Finance.RecordInvoice(ctx, inv)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded invoice #%d %s from %s\n", saved.ID, saved.Number, saved.SupplierName)
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.Int64Var(&inv.SupplierID, "supplier", 0, "supplier id")
	f.StringVar(&inv.Number, "numero", "", "invoice number")
	f.StringVar(&inv.Date, "fecha", "", "invoice date (YYYY-MM-DD)")
	f.StringVar(&inv.Description, "descripcion", "", "description")
	f.StringVar(&amount, "valor", "0", "amount")
	_ = cmd.MarkFlagRequired("supplier")
	return cmd
}
