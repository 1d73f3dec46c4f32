package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/microerp/internal/app"
	"github.com/cleared-dev/microerp/internal/id"
	"github.com/cleared-dev/microerp/internal/model"
	"github.com/cleared-dev/microerp/internal/report"
)

func newCentersCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "centers",
		Short: "Manage the company structure",
	}
	cmd.AddCommand(
		newCenterSaveCommand(opts, false),
		newCenterSaveCommand(opts, true),
		newCentersDeleteCommand(opts),
		newCentersTreeCommand(opts),
		newCentersOptionsCommand(opts),
	)
	return cmd
}

func newCenterSaveCommand(opts *rootOptions, edit bool) *cobra.Command {
	var c model.Center
	var centerType string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a center",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				target := c
				target.Type = model.CenterType(centerType)
				if edit {
					centerID, err := id.ParseRecordID(args[0])
					if err != nil {
						return err
					}
					if target, err = a.Structure.Get(ctx, centerID); err != nil {
						return err
					}
					flags := cmd.Flags()
					if flags.Changed("name") {
						target.Name = c.Name
					}
					if flags.Changed("type") {
						target.Type = model.CenterType(centerType)
					}
					if flags.Changed("parent") {
						target.ParentID = c.ParentID
					}
				}

				saved, err := a.Structure.Save(ctx, target)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved center #%d %s (%s)\n", saved.ID, saved.Name, saved.Type)
				return nil
			})
		},
	}
	if edit {
		cmd.Use = "edit <id>"
		cmd.Short = "Edit a center"
		cmd.Args = cobra.ExactArgs(1)
	}

	f := cmd.Flags()
	f.StringVar(&c.Name, "name", "", "center name")
	f.StringVar(&centerType, "type", "", "Central, Delegacion, Centro_Asociado or Otro_centro")
	f.Int64Var(&c.ParentID, "parent", 0, "parent center id (0 for none)")
	if !edit {
		_ = cmd.MarkFlagRequired("name")
		_ = cmd.MarkFlagRequired("type")
	}
	return cmd
}

func newCentersDeleteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a center without children",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			centerID, err := id.ParseRecordID(args[0])
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Structure.Delete(ctx, centerID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted center #%d\n", centerID)
				return nil
			})
		},
	}
}

func newCentersTreeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Show the company structure",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				roots, err := a.Structure.Tree(ctx)
				if err != nil {
					return err
				}
				md := report.CenterTree(a.Config.Business.Name, roots)
				return report.Render(cmd.OutOrStdout(), md, isTerminal(cmd.OutOrStdout()))
			})
		},
	}
}

func newCentersOptionsCommand(opts *rootOptions) *cobra.Command {
	var centerType string

	cmd := &cobra.Command{
		Use:   "options",
		Short: "List the centers a new center of --type may hang from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				options, err := a.Structure.Options(ctx, model.CenterType(centerType))
				if err != nil {
					return err
				}
				t := newTable(cmd.OutOrStdout(), "ID", "NAME", "TYPE")
				for _, c := range options {
					t.row(fmt.Sprint(c.ID), c.Name, string(c.Type))
				}
				return t.flush()
			})
		},
	}
	cmd.Flags().StringVar(&centerType, "type", "", "type of the new center")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}
