package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/classbook/internal/engine"
	"github.com/roach88/classbook/internal/record"
)

// NewAccountsCommand creates the accounts command group.
func NewAccountsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage login accounts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List accounts (passwords are not shown)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				accounts := a.state.Accounts()
				public := make([]record.Account, len(accounts))
				var b strings.Builder
				for i, acc := range accounts {
					public[i] = acc.Session()
					fmt.Fprintf(&b, "%-14s %-16s %-9s %-8s %s\n", acc.ID, acc.Username, acc.Role, public[i].Status, acc.FullName)
				}
				fmt.Fprintf(&b, "%d accounts", len(accounts))
				return a.out.Result(b.String(), public)
			})
		},
	})

	var add accountFlags
	addCmd := &cobra.Command{
		Use:   "add <username> <password>",
		Short: "Create an active account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			acc, err := add.account(args[0], args[1])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				return a.finish(ctx, "added account", acc.Username, a.disp.AddAccount(ctx, acc))
			})
		},
	}
	add.register(addCmd, true)
	cmd.AddCommand(addCmd)

	var reg accountFlags
	registerCmd := &cobra.Command{
		Use:   "register <username> <password>",
		Short: "Self-register an account; it stays pending until approved",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			acc, err := reg.account(args[0], args[1])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				return a.finish(ctx, "registered account", acc.Username, a.disp.RegisterAccount(ctx, acc))
			})
		},
	}
	reg.register(registerCmd, false)
	cmd.AddCommand(registerCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "approve <id>",
		Short: "Activate a pending account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				return a.finish(ctx, "approved account", args[0], a.disp.ApproveAccount(ctx, args[0]))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				return a.finish(ctx, "deleted account", args[0], a.disp.DeleteAccount(ctx, args[0]))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Create the accounts listed in a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			accounts, err := LoadAccounts(args[0])
			if err != nil {
				_ = formatterFor(cmd, opts).Error(ErrCodeImport, err.Error(), nil)
				return WrapExitError(ExitCommandError, "failed to read import file", err)
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				return importAccounts(ctx, a, accounts)
			})
		},
	})
	return cmd
}

// importAccounts adds each account in turn. Usernames already present are
// skipped; any other refusal stops the import.
func importAccounts(ctx context.Context, a *app, accounts []record.Account) error {
	type outcome struct {
		Added   []string `json:"added"`
		Skipped []string `json:"skipped,omitempty"`
		Remote  []string `json:"remote,omitempty"`
	}
	var out outcome
	var results []engine.Result
	for _, acc := range accounts {
		r := a.disp.AddAccount(ctx, acc)
		switch {
		case engine.IsDuplicate(r.Local):
			out.Skipped = append(out.Skipped, acc.Username)
			continue
		case r.Local != nil:
			return a.fail(r.Local)
		}
		out.Added = append(out.Added, acc.Username)
		results = append(results, r)
	}
	for _, r := range results {
		if err := r.Wait(ctx); err != nil && !errors.Is(err, engine.ErrLocalOnly) {
			out.Remote = append(out.Remote, err.Error())
		}
	}
	text := fmt.Sprintf("imported %d accounts, skipped %d existing", len(out.Added), len(out.Skipped))
	if len(out.Remote) > 0 {
		text += fmt.Sprintf(", %d not synced", len(out.Remote))
	}
	return a.out.Result(text, out)
}

type accountFlags struct {
	role, name, studentID, department string
}

func (f *accountFlags) register(cmd *cobra.Command, withRole bool) {
	if withRole {
		cmd.Flags().StringVar(&f.role, "role", string(record.RoleParent), "role (HOMEROOM|SUBJECT|PARENT|STUDENT)")
		cmd.Flags().StringVar(&f.department, "department", "", "department, for subject teachers")
	}
	cmd.Flags().StringVar(&f.name, "name", "", "full name")
	cmd.Flags().StringVar(&f.studentID, "student", "", "linked student id, for parents and students")
}

func (f *accountFlags) account(username, password string) (record.Account, error) {
	role := record.Role(strings.ToUpper(f.role))
	switch role {
	case "", record.RoleHomeroom, record.RoleSubject, record.RoleParent, record.RoleStudent:
	default:
		return record.Account{}, usageError("unknown role %q", f.role)
	}
	return record.Account{
		Username:   username,
		Password:   password,
		FullName:   f.name,
		Role:       role,
		StudentID:  f.studentID,
		Department: f.department,
	}, nil
}
