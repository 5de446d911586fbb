package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/classbook/internal/record"
	"github.com/roach88/classbook/internal/remote"
	"github.com/roach88/classbook/internal/store"
)

// CollectionReport describes what one pass did to one collection.
type CollectionReport struct {
	Collection Collection `json:"collection"`

	// Fetched is set when the remote read produced data.
	Fetched bool `json:"fetched"`

	// Changed is set when the merged value differs from what State held.
	Changed bool `json:"changed"`
}

// Report summarizes a reconciliation pass.
type Report struct {
	RunID       string             `json:"runId"`
	LocalOnly   bool               `json:"localOnly"`
	StartedAt   time.Time          `json:"startedAt"`
	FinishedAt  time.Time          `json:"finishedAt"`
	Collections []CollectionReport `json:"collections,omitempty"`
}

// Changed lists the collections whose local value was replaced.
func (r Report) Changed() []Collection {
	var out []Collection
	for _, c := range r.Collections {
		if c.Changed {
			out = append(out, c.Collection)
		}
	}
	return out
}

// Coordinator reconciles State and the Local Store with the remote store.
//
// Thread-safety model:
//   - Start, Resync, Close: safe from any goroutine
//   - at most one pass runs at a time; a Resync that arrives while a pass
//     is running waits for that pass and shares its Report
type Coordinator struct {
	store *store.Store
	api   *remote.API
	state *State
	opts  options

	mu      sync.Mutex
	running *pass
	wg      sync.WaitGroup
	closed  atomic.Bool

	life context.Context
	kill context.CancelFunc
}

type pass struct {
	done   chan struct{}
	report Report
	err    error
}

// NewCoordinator wires a coordinator. State is not loaded until Start.
func NewCoordinator(st *store.Store, api *remote.API, state *State, opts ...Option) *Coordinator {
	life, kill := context.WithCancel(context.Background())
	return &Coordinator{
		store: st,
		api:   api,
		state: state,
		opts:  buildOptions(opts),
		life:  life,
		kill:  kill,
	}
}

// Start loads State from the Local Store, then launches one background
// pass and returns without waiting for it. Load errors are returned; the
// pass reports through State.Sync.
func (c *Coordinator) Start(ctx context.Context) error {
	if err := c.state.Load(ctx, c.store); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Load() {
		return ErrClosed
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		_, _ = c.Resync(context.WithoutCancel(ctx))
	}()
	return nil
}

// Resync runs a pass and waits for it. Calling it while a pass is running
// joins that pass instead of starting another.
func (c *Coordinator) Resync(ctx context.Context) (Report, error) {
	c.mu.Lock()
	if c.closed.Load() {
		c.mu.Unlock()
		return Report{}, ErrClosed
	}
	if p := c.running; p != nil {
		c.mu.Unlock()
		select {
		case <-p.done:
			return p.report, p.err
		case <-ctx.Done():
			return Report{}, ctx.Err()
		}
	}
	p := &pass{done: make(chan struct{})}
	c.running = p
	c.wg.Add(1)
	c.mu.Unlock()

	p.report, p.err = c.run(ctx)

	c.mu.Lock()
	c.running = nil
	c.mu.Unlock()
	close(p.done)
	c.wg.Done()
	return p.report, p.err
}

// Close tears the coordinator down. A pass in flight is cancelled and its
// results are discarded. Close waits for background work to stop.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	c.closed.Store(true)
	c.mu.Unlock()

	c.kill()
	c.wg.Wait()
	return nil
}

func (c *Coordinator) run(ctx context.Context) (report Report, err error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.life, cancel)
	defer stop()

	report = Report{RunID: c.opts.ids.Generate(), StartedAt: c.opts.now()}
	logger := c.opts.logger.With("run_id", report.RunID)

	if !c.api.Configured(ctx) {
		report.LocalOnly = true
		report.FinishedAt = c.opts.now()
		logger.Debug("no endpoint configured, skipping reconciliation")
		return report, nil
	}

	previous := c.state.Sync()
	c.setSync(SyncStatus{State: SyncSyncing, LastSync: previous.LastSync})

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reconcile: panic: %v", r)
		}
		if err != nil && !errors.Is(err, ErrClosed) && !c.closed.Load() {
			logger.Error("reconciliation failed", "error", err)
			c.setSync(SyncStatus{State: SyncError, LastSync: previous.LastSync, Error: err.Error()})
		}
	}()

	fetched := c.fetch(ctx)

	if c.closed.Load() {
		logger.Debug("coordinator closed, discarding remote data")
		return report, ErrClosed
	}
	// Reads all fail once ctx is done. That is not a successful pass.
	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("reconcile: %w", err)
	}

	report.Collections, err = c.apply(ctx, fetched)
	report.FinishedAt = c.opts.now()
	if c.closed.Load() {
		logger.Debug("coordinator closed during apply, discarding the rest")
		return report, ErrClosed
	}
	if err != nil {
		return report, err
	}

	c.setSync(SyncStatus{State: SyncSuccess, LastSync: report.FinishedAt})
	logger.Info("reconciliation finished",
		"changed", len(report.Changed()),
		"duration", report.FinishedAt.Sub(report.StartedAt))
	return report, nil
}

// remoteData holds one pass's reads. An ok flag is false when that read
// failed or returned nothing usable.
type remoteData struct {
	students        []record.Student
	studentsOK      bool
	attendance      []record.AttendanceDay
	attendanceOK    bool
	accounts        []record.Account
	accountsOK      bool
	classConfig     record.ClassConfig
	classConfigOK   bool
	notifications   []record.Notification
	notificationsOK bool
	reviews         []record.Review
	reviewsOK       bool
}

// fetch issues every collection read at once and waits for all of them.
// Reads report failure through their ok flag, so no goroutine returns an
// error and none cancels another. A read that panics counts as failed.
func (c *Coordinator) fetch(ctx context.Context) remoteData {
	var d remoteData
	var g errgroup.Group
	read := func(coll Collection, fn func()) {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					c.opts.logger.Error("remote read panicked", "collection", string(coll), "panic", r)
				}
			}()
			fn()
			return nil
		})
	}
	read(CollStudents, func() { d.students, d.studentsOK = c.api.ListStudents(ctx) })
	read(CollAttendance, func() { d.attendance, d.attendanceOK = c.api.ListAttendance(ctx) })
	read(CollAccounts, func() { d.accounts, d.accountsOK = c.api.ListAccounts(ctx) })
	read(CollClassConfig, func() { d.classConfig, d.classConfigOK = c.api.FetchClassConfig(ctx) })
	read(CollNotifications, func() { d.notifications, d.notificationsOK = c.api.ListNotifications(ctx) })
	read(CollReviews, func() { d.reviews, d.reviewsOK = c.api.ListReviews(ctx) })
	_ = g.Wait()
	return d
}

// apply merges each collection into State and the store. A store failure
// on one collection does not prevent the others. Once the coordinator is
// closed no further collection is touched.
func (c *Coordinator) apply(ctx context.Context, d remoteData) ([]CollectionReport, error) {
	var reports []CollectionReport
	var errs []error
	add := func(coll Collection, fn func() (CollectionReport, error)) {
		if c.closed.Load() {
			errs = append(errs, fmt.Errorf("reconcile %s: %w", coll, ErrClosed))
			return
		}
		r, err := fn()
		reports = append(reports, r)
		errs = append(errs, err)
	}

	add(CollStudents, func() (CollectionReport, error) {
		return reconcile(c.state, CollStudents, d.studentsOK,
			func(s *Snapshot) *[]record.Student { return &s.Students },
			func(local []record.Student) []record.Student {
				merged := MergeReplace(local, d.students, d.studentsOK)
				for i := range merged {
					merged[i] = merged[i].SplitName()
				}
				return merged
			},
			func(v []record.Student) error { return c.store.SaveStudents(ctx, v) })
	})

	add(CollAttendance, func() (CollectionReport, error) {
		return reconcile(c.state, CollAttendance, d.attendanceOK,
			func(s *Snapshot) *[]record.AttendanceDay { return &s.Attendance },
			func(local []record.AttendanceDay) []record.AttendanceDay {
				return MergeReplace(local, d.attendance, d.attendanceOK)
			},
			func(v []record.AttendanceDay) error { return c.store.SaveAttendance(ctx, v) })
	})

	add(CollAccounts, func() (CollectionReport, error) {
		return reconcile(c.state, CollAccounts, d.accountsOK,
			func(s *Snapshot) *[]record.Account { return &s.Accounts },
			func(local []record.Account) []record.Account {
				return MergeAccounts(local, d.accounts, d.accountsOK)
			},
			func(v []record.Account) error { return c.store.SaveAccounts(ctx, v) })
	})

	add(CollClassConfig, func() (CollectionReport, error) {
		return reconcile(c.state, CollClassConfig, d.classConfigOK,
			func(s *Snapshot) *record.ClassConfig { return &s.ClassConfig },
			func(local record.ClassConfig) record.ClassConfig {
				return MergeClassConfig(local, d.classConfig, d.classConfigOK)
			},
			func(v record.ClassConfig) error { return c.store.SaveClassConfig(ctx, v) })
	})

	add(CollNotifications, func() (CollectionReport, error) {
		return reconcile(c.state, CollNotifications, d.notificationsOK,
			func(s *Snapshot) *[]record.Notification { return &s.Notifications },
			func(local []record.Notification) []record.Notification {
				merged := MergeReplace(local, d.notifications, d.notificationsOK)
				record.SortNotifications(merged)
				return merged
			},
			func(v []record.Notification) error { return c.store.SaveNotifications(ctx, v) })
	})

	add(CollReviews, func() (CollectionReport, error) {
		return reconcile(c.state, CollReviews, d.reviewsOK,
			func(s *Snapshot) *[]record.Review { return &s.Reviews },
			func(local []record.Review) []record.Review {
				merged := MergeReplace(local, d.reviews, d.reviewsOK)
				record.SortReviews(merged)
				return merged
			},
			func(v []record.Review) error { return c.store.SaveReviews(ctx, v) })
	})

	return reports, errors.Join(errs...)
}

// reconcile merges one collection inside State.Update so the local side of
// the merge is the state as it is at write time.
func reconcile[T any](
	state *State,
	coll Collection,
	fetched bool,
	field func(*Snapshot) *T,
	merge func(local T) T,
	save func(T) error,
) (CollectionReport, error) {
	rep := CollectionReport{Collection: coll, Fetched: fetched}
	err := state.Update(coll, func(s *Snapshot) error {
		slot := field(s)
		before, err := record.Digest(*slot)
		if err != nil {
			return err
		}
		merged := merge(*slot)
		after, err := record.Digest(merged)
		if err != nil {
			return err
		}
		if err := save(merged); err != nil {
			return err
		}
		*slot = merged
		rep.Changed = before != after
		return nil
	})
	if err != nil {
		return rep, fmt.Errorf("reconcile %s: %w", coll, err)
	}
	return rep, nil
}

func (c *Coordinator) setSync(st SyncStatus) {
	_ = c.state.Update(CollSync, func(s *Snapshot) error {
		s.Sync = st
		return nil
	})
}
