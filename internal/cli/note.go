package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewNoteCommand creates the note command group for the dashboard note.
// The note lives only in the local database.
func NewNoteCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Show or replace the dashboard note (never synced)",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the dashboard note",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				note := a.state.DashboardNote()
				return a.out.Result(note, map[string]string{"note": note})
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <text>",
		Short: "Replace the dashboard note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				return a.finish(ctx, "saved note", "", a.disp.UpdateDashboardNote(ctx, args[0]))
			})
		},
	})
	return cmd
}
