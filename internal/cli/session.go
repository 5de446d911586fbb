package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/classbook/internal/record"
)

// NewLoginCommand creates the login command.
func NewLoginCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login <username> <password>",
		Short: "Sign in and remember the session",
		Long: `Sign in against the local accounts. Usernames are case-insensitive.

The built-in administrator, teacher and parent accounts always work with
their default password, and are restored if they were deleted locally.
Accounts created with "accounts register" must be approved first.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				session, err := a.disp.Login(ctx, args[0], args[1])
				if err != nil {
					return a.fail(err)
				}
				return a.out.Result(fmt.Sprintf("signed in as %s (%s)", session.Username, session.Role), session)
			})
		},
	}
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the signed-in session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.disp.Logout(ctx); err != nil {
					return a.fail(err)
				}
				return a.out.Result("signed out", map[string]bool{"signedIn": false})
			})
		},
	}
}

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				user := a.state.CurrentUser()
				if user == nil {
					return a.out.Result("not signed in", (*record.Account)(nil))
				}
				return a.out.Result(fmt.Sprintf("%s (%s, %s)", user.Username, user.FullName, user.Role), user)
			})
		},
	}
}
