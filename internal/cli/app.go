package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/roach88/classbook/internal/account"
	"github.com/roach88/classbook/internal/engine"
	"github.com/roach88/classbook/internal/remote"
	"github.com/roach88/classbook/internal/store"
)

// app is one command's view of the system: the Local Store loaded into
// State, and the engine halves wired to the remote endpoint.
type app struct {
	opts   *RootOptions
	out    *OutputFormatter
	store  *store.Store
	state  *engine.State
	client *remote.Client
	api    *remote.API
	disp   *engine.Dispatcher
	coord  *engine.Coordinator
}

// stateEndpoint resolves the endpoint from State, so a URL saved by the
// running command takes effect on the next call. A configured override
// wins over the stored URL.
type stateEndpoint struct {
	state    *engine.State
	override string
}

func (s stateEndpoint) Endpoint(context.Context) (string, error) {
	if s.override != "" {
		return s.override, nil
	}
	return s.state.Endpoint(), nil
}

func formatterFor(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// openApp opens and bootstraps the store and loads State. It does not run
// a reconciliation pass; commands that want one call Resync.
func openApp(cmd *cobra.Command, opts *RootOptions) (*app, error) {
	ctx := commandContext(cmd)
	cfg := opts.Config
	logger := opts.logger()

	st, err := store.Open(cfg.DB, store.WithLogger(logger))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	seeded, err := st.Bootstrap(ctx)
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to initialize database", err)
	}
	if seeded {
		logger.Info("local store initialized with defaults", "db", cfg.DB)
	}

	state := engine.NewState()
	if err := state.Load(ctx, st); err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to load local data", err)
	}

	client := remote.NewClient(
		stateEndpoint{state: state, override: cfg.Endpoint},
		remote.WithHTTPClient(&http.Client{Timeout: cfg.Remote.Timeout}),
		remote.WithLogger(logger),
	)
	api := remote.NewAPI(client, logger)
	engineOpts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithBatches(cfg.Batch),
	}
	if opts.ids != nil {
		engineOpts = append(engineOpts, engine.WithIDGenerator(opts.ids))
	}

	return &app{
		opts:   opts,
		out:    formatterFor(cmd, opts),
		store:  st,
		state:  state,
		client: client,
		api:    api,
		disp:   engine.NewDispatcher(st, api, state, engineOpts...),
		coord:  engine.NewCoordinator(st, api, state, engineOpts...),
	}, nil
}

// Close waits for pending remote pushes, then releases everything.
func (a *app) Close() {
	a.disp.Wait()
	_ = a.coord.Close()
	if err := a.store.Close(); err != nil {
		a.opts.logger().Error("error closing database", "error", err)
	}
}

// withApp runs fn against an opened app and always closes it.
func withApp(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, a *app) error) error {
	a, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(commandContext(cmd), a)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// MutationOutput reports both outcomes of a change.
type MutationOutput struct {
	Change     string `json:"change"`
	ID         string `json:"id,omitempty"`
	Replicated bool   `json:"replicated"`
	Remote     string `json:"remote,omitempty"`
}

// finish waits for the remote outcome of r and prints the result. A
// refused change is returned as an ExitError; a failed push is not, since
// the change is kept locally either way.
func (a *app) finish(ctx context.Context, change, id string, r engine.Result) error {
	if r.Local != nil {
		return a.fail(r.Local)
	}
	out := MutationOutput{Change: change, ID: id}
	switch err := r.Wait(ctx); {
	case err == nil:
		out.Replicated = true
	case errors.Is(err, engine.ErrLocalOnly):
		out.Remote = "kept locally"
	default:
		out.Remote = remote.UserMessage(err)
	}

	text := change
	if id != "" {
		text += " " + id
	}
	if out.Replicated {
		text += " (synced)"
	} else {
		text += " (" + out.Remote + ")"
	}
	return a.out.Result(text, out)
}

// fail reports err through the formatter and turns it into an ExitError.
func (a *app) fail(err error) error {
	code, exit := classify(err)
	_ = a.out.Error(code, err.Error(), nil)
	return WrapExitError(exit, "command failed", err)
}

// classify maps an error to an output code and exit code.
func classify(err error) (string, int) {
	var exitErr *ExitError
	switch {
	case errors.As(err, &exitErr):
		return ErrCodeGeneric, exitErr.Code
	case engine.IsInvalid(err):
		return ErrCodeInvalid, ExitFailure
	case engine.IsNotFound(err):
		return ErrCodeNotFound, ExitFailure
	case engine.IsDuplicate(err):
		return ErrCodeDuplicate, ExitFailure
	case errors.Is(err, account.ErrInvalidCredentials):
		return ErrCodeCredentials, ExitFailure
	case errors.Is(err, account.ErrPending):
		return ErrCodePending, ExitFailure
	case remote.IsUnreachable(err):
		return ErrCodeUnreachable, ExitFailure
	case remote.IsMisconfigured(err):
		return ErrCodeMisconfigured, ExitFailure
	case remote.IsRejected(err):
		return ErrCodeRejected, ExitFailure
	}
	return ErrCodeGeneric, ExitFailure
}

func usageError(format string, args ...any) error {
	return NewExitError(ExitCommandError, fmt.Sprintf(format, args...))
}
