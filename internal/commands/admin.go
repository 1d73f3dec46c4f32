package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/microerp/internal/app"
	"github.com/cleared-dev/microerp/internal/id"
	"github.com/cleared-dev/microerp/internal/model"
)

func newUsersCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List users",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
					users, err := a.Admin.Users(ctx)
					if err != nil {
						return err
					}
					t := newTable(cmd.OutOrStdout(), "ID", "USERNAME", "EMAIL", "ROLE")
					for _, u := range users {
						t.row(fmt.Sprint(u.ID), u.Username, u.Email, optionalID(u.RoleID))
					}
					return t.flush()
				})
			},
		},
		newUserSaveCommand(opts, false),
		newUserSaveCommand(opts, true),
		newDeleteCommand(opts, "user", func(ctx context.Context, a *app.App, recordID int64) error {
			return a.Admin.DeleteUser(ctx, recordID)
		}),
	)
	return cmd
}

func newUserSaveCommand(opts *rootOptions, edit bool) *cobra.Command {
	var u model.User

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				target := u
				if edit {
					userID, err := id.ParseRecordID(args[0])
					if err != nil {
						return err
					}
					if target, err = a.Admin.User(ctx, userID); err != nil {
						return err
					}
					flags := cmd.Flags()
					if flags.Changed("username") {
						target.Username = u.Username
					}
					if flags.Changed("email") {
						target.Email = u.Email
					}
					if flags.Changed("role") {
						target.RoleID = u.RoleID
					}
				}
				saved, err := a.Admin.SaveUser(ctx, target)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved user #%d %s\n", saved.ID, saved.Username)
				return nil
			})
		},
	}
	if edit {
		cmd.Use = "edit <id>"
		cmd.Short = "Edit a user"
		cmd.Args = cobra.ExactArgs(1)
	}

	f := cmd.Flags()
	f.StringVar(&u.Username, "username", "", "user name")
	f.StringVar(&u.Email, "email", "", "email address")
	f.Int64Var(&u.RoleID, "role", 0, "role id (0 for none)")
	if !edit {
		_ = cmd.MarkFlagRequired("username")
		_ = cmd.MarkFlagRequired("email")
	}
	return cmd
}

func newRolesCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Manage roles",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List roles",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
					roles, err := a.Admin.Roles(ctx)
					if err != nil {
						return err
					}
					t := newTable(cmd.OutOrStdout(), "ID", "NAME", "PERMISSIONS")
					for _, r := range roles {
						t.row(fmt.Sprint(r.ID), r.Name, strings.Join(r.Permissions, ","))
					}
					return t.flush()
				})
			},
		},
		newRoleSaveCommand(opts, false),
		newRoleSaveCommand(opts, true),
		newDeleteCommand(opts, "role", func(ctx context.Context, a *app.App, recordID int64) error {
			return a.Admin.DeleteRole(ctx, recordID)
		}),
	)
	return cmd
}

func newRoleSaveCommand(opts *rootOptions, edit bool) *cobra.Command {
	var r model.Role

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				target := r
				if edit {
					roleID, err := id.ParseRecordID(args[0])
					if err != nil {
						return err
					}
					if target, err = a.Admin.Role(ctx, roleID); err != nil {
						return err
					}
					if cmd.Flags().Changed("name") {
						target.Name = r.Name
					}
					if cmd.Flags().Changed("permissions") {
						target.Permissions = r.Permissions
					}
				}
				saved, err := a.Admin.SaveRole(ctx, target)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved role #%d %s\n", saved.ID, saved.Name)
				return nil
			})
		},
	}
	if edit {
		cmd.Use = "edit <id>"
		cmd.Short = "Edit a role"
		cmd.Args = cobra.ExactArgs(1)
	}

	f := cmd.Flags()
	f.StringVar(&r.Name, "name", "", "role name")
	f.StringSliceVar(&r.Permissions, "permissions", nil, `modules the role grants, or "*" for all`)
	if !edit {
		_ = cmd.MarkFlagRequired("name")
	}
	return cmd
}

// newDeleteCommand builds a "delete <id>" subcommand for kind.
func newDeleteCommand(opts *rootOptions, kind string, del func(ctx context.Context, a *app.App, recordID int64) error) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a " + kind,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recordID, err := id.ParseRecordID(args[0])
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := del(ctx, a, recordID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s #%d\n", kind, recordID)
				return nil
			})
		},
	}
}
