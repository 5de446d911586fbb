package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/classbook/internal/devserver"
)

// NewServeCommand creates the serve command, which runs the in-memory
// stand-in for the remote endpoint.
func NewServeCommand(opts *RootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local in-memory endpoint for development",
		Long: `Run a local endpoint that speaks the same action protocol as the
deployed spreadsheet script. Data is kept in memory and lost on exit.

Point a database at it with:
  classbook endpoint set http://localhost:8089/exec`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = opts.Config.Serve.Addr
			}
			out := formatterFor(cmd, opts)
			srv := devserver.New(devserver.Options{
				Address: addr,
				Logger:  opts.logger(),
			})
			out.VerboseLog("serving on %s", addr)
			if err := srv.Start(commandContext(cmd)); err != nil {
				_ = out.Error(ErrCodeGeneric, err.Error(), nil)
				return WrapExitError(ExitFailure, fmt.Sprintf("server on %s failed", addr), err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8089)")
	return cmd
}
