package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/classbook/internal/engine"
	"github.com/roach88/classbook/internal/store"
)

// NewSyncCommand creates the sync command.
func NewSyncCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reconcile local data with the remote endpoint",
		Long: `Run one reconciliation pass: read every collection from the endpoint,
merge it into the local data and save the result.

Reads that fail or come back empty keep the local copy. Without an endpoint
nothing is contacted.

Example:
  classbook sync
  classbook sync --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, runSync)
		},
	}
}

func runSync(ctx context.Context, a *app) error {
	report, err := a.coord.Resync(ctx)
	if err != nil {
		return a.fail(err)
	}
	if report.LocalOnly {
		return a.out.Result("no endpoint configured; local-only mode, nothing synced", report)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "sync %s finished in %s\n", report.RunID, report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	for _, c := range report.Collections {
		state := "kept local"
		switch {
		case c.Changed:
			state = "updated"
		case c.Fetched:
			state = "unchanged"
		}
		fmt.Fprintf(&b, "  %-14s %s\n", c.Collection, state)
	}
	return a.out.Result(strings.TrimRight(b.String(), "\n"), report)
}

// StatusOutput describes the local store and the sync mode.
type StatusOutput struct {
	Database    string            `json:"database"`
	Endpoint    string            `json:"endpoint,omitempty"`
	LocalOnly   bool              `json:"localOnly"`
	CurrentUser string            `json:"currentUser,omitempty"`
	Counts      map[string]int    `json:"counts"`
	Entries     []store.Entry     `json:"entries"`
	Sync        engine.SyncStatus `json:"sync"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show endpoint, mode and local collection sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, runStatus)
		},
	}
}

func runStatus(ctx context.Context, a *app) error {
	snap := a.state.Snapshot()
	entries, err := a.store.Entries(ctx)
	if err != nil {
		return a.fail(err)
	}
	out := StatusOutput{
		Database:  a.opts.Config.DB,
		LocalOnly: !a.api.Configured(ctx),
		Counts: map[string]int{
			string(engine.CollStudents):      len(snap.Students),
			string(engine.CollAttendance):    len(snap.Attendance),
			string(engine.CollAccounts):      len(snap.Accounts),
			string(engine.CollNotifications): len(snap.Notifications),
			string(engine.CollReviews):       len(snap.Reviews),
		},
		Entries: entries,
		Sync:    snap.Sync,
	}
	if ep, _ := (stateEndpoint{state: a.state, override: a.opts.Config.Endpoint}).Endpoint(ctx); ep != "" {
		out.Endpoint = ep
	}
	if snap.CurrentUser != nil {
		out.CurrentUser = snap.CurrentUser.Username
	}

	var b strings.Builder
	fmt.Fprintf(&b, "database:  %s\n", out.Database)
	if out.LocalOnly {
		fmt.Fprintf(&b, "endpoint:  (none, local-only mode)\n")
	} else {
		fmt.Fprintf(&b, "endpoint:  %s\n", out.Endpoint)
	}
	if out.CurrentUser != "" {
		fmt.Fprintf(&b, "signed in: %s\n", out.CurrentUser)
	}
	fmt.Fprintf(&b, "students %d, attendance days %d, accounts %d, notices %d, reviews %d\n",
		len(snap.Students), len(snap.Attendance), len(snap.Accounts), len(snap.Notifications), len(snap.Reviews))
	for _, e := range entries {
		fmt.Fprintf(&b, "  %-22s rev %-4d %6d bytes  %s\n", e.Key, e.Revision, e.Size, e.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return a.out.Result(strings.TrimRight(b.String(), "\n"), out)
}
