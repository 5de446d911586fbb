package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/classbook/internal/remote"
)

// NewEndpointCommand creates the endpoint command group.
func NewEndpointCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "endpoint",
		Short: "Show, set or check the remote endpoint URL",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the stored endpoint URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				url := a.state.Endpoint()
				text := url
				if url == "" {
					text = "(none, local-only mode)"
				}
				return a.out.Result(text, map[string]string{"endpoint": url})
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <url>",
		Short: "Store the endpoint URL; an empty URL switches to local-only mode",
		Long: `Store the endpoint URL. Pass "" to switch to local-only mode.

Setting the URL does not sync by itself; run "classbook sync" afterwards.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				url := strings.TrimSpace(args[0])
				if r := a.disp.UpdateEndpoint(ctx, url); r.Local != nil {
					return a.fail(r.Local)
				}
				text := "endpoint set to " + url
				if url == "" {
					text = "endpoint cleared; local-only mode"
				}
				return a.out.Result(text, map[string]string{"endpoint": url})
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "check [url]",
		Short: "Probe an endpoint URL (default: the stored one)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				url := a.state.Endpoint()
				if len(args) == 1 {
					url = args[0]
				}
				if err := a.client.Probe(ctx, url); err != nil {
					code, exit := classify(err)
					_ = a.out.Error(code, remote.UserMessage(err), map[string]string{"endpoint": url})
					return WrapExitError(exit, "endpoint check failed", err)
				}
				return a.out.Result(remote.UserMessage(nil), map[string]any{"endpoint": url, "reachable": true})
			})
		},
	})
	return cmd
}
