package engine

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/roach88/classbook/internal/account"
	"github.com/roach88/classbook/internal/record"
	"github.com/roach88/classbook/internal/remote"
	"github.com/roach88/classbook/internal/store"
)

// Dispatcher applies user mutations local-first: State and the Local Store
// are updated before the method returns, and the matching remote call is
// fired afterwards on its own goroutine.
//
// Thread-safety: all methods are safe for concurrent use. Local commits are
// serialized by State.
type Dispatcher struct {
	store *store.Store
	api   *remote.API
	state *State
	opts  options

	inflight sync.WaitGroup
}

// NewDispatcher wires a dispatcher.
func NewDispatcher(st *store.Store, api *remote.API, state *State, opts ...Option) *Dispatcher {
	return &Dispatcher{
		store: st,
		api:   api,
		state: state,
		opts:  buildOptions(opts),
	}
}

// Wait blocks until every remote push started so far has settled.
func (d *Dispatcher) Wait() {
	d.inflight.Wait()
}

// push fires fn in the background unless no endpoint is configured. fn
// runs detached from ctx's cancellation: the local write already happened
// and the push runs to completion or fails on its own.
func (d *Dispatcher) push(ctx context.Context, op string, fn func(context.Context) error) Result {
	if !d.api.Configured(ctx) {
		return localOnly()
	}
	ch := make(chan error, 1)
	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		defer close(ch)
		err := fn(context.WithoutCancel(ctx))
		if err != nil {
			d.opts.logger.Warn("remote push failed, local change kept",
				"op", op,
				"error", err)
		}
		ch <- err
	}()
	return Result{Remote: ch}
}

func (d *Dispatcher) newStudentID(s record.Student) string {
	if id := record.StudentID(s.NationalID); id != "" {
		return id
	}
	return record.StudentIDPrefix + d.opts.ids.Generate()
}

func (d *Dispatcher) prepareStudent(s record.Student) record.Student {
	s.ID = strings.TrimSpace(s.ID)
	s.FullName = strings.TrimSpace(s.FullName)
	if s.ID == "" {
		s.ID = d.newStudentID(s)
	}
	if s.Status == "" {
		s.Status = record.StatusStudying
	}
	return s.SplitName()
}

func studentIndex(students []record.Student, id string) int {
	return slices.IndexFunc(students, func(s record.Student) bool { return s.ID == id })
}

// AddStudent appends a student. An empty id is derived from the national
// id when there is one.
func (d *Dispatcher) AddStudent(ctx context.Context, s record.Student) Result {
	const op = "add student"
	s = d.prepareStudent(s)
	if err := record.Validate(s); err != nil {
		return refused(invalid(op, err))
	}
	err := d.state.Update(CollStudents, func(snap *Snapshot) error {
		if studentIndex(snap.Students, s.ID) >= 0 {
			return duplicate(op, s.ID)
		}
		next := append(snap.Students, s)
		if err := d.store.SaveStudents(ctx, next); err != nil {
			return err
		}
		snap.Students = next
		return nil
	})
	if err != nil {
		return refused(err)
	}
	return d.push(ctx, op, func(ctx context.Context) error {
		return d.api.CreateStudent(ctx, s)
	})
}

// UpdateStudent replaces the student with the same id.
func (d *Dispatcher) UpdateStudent(ctx context.Context, s record.Student) Result {
	const op = "update student"
	s = s.SplitName()
	if err := record.Validate(s); err != nil {
		return refused(invalid(op, err))
	}
	err := d.state.Update(CollStudents, func(snap *Snapshot) error {
		i := studentIndex(snap.Students, s.ID)
		if i < 0 {
			return notFound(op, s.ID)
		}
		snap.Students[i] = s
		return d.store.SaveStudents(ctx, snap.Students)
	})
	if err != nil {
		return refused(err)
	}
	return d.push(ctx, op, func(ctx context.Context) error {
		return d.api.UpdateStudent(ctx, s)
	})
}

// DeleteStudent removes a student.
func (d *Dispatcher) DeleteStudent(ctx context.Context, id string) Result {
	const op = "delete student"
	err := d.state.Update(CollStudents, func(snap *Snapshot) error {
		i := studentIndex(snap.Students, id)
		if i < 0 {
			return notFound(op, id)
		}
		snap.Students = slices.Delete(snap.Students, i, i+1)
		return d.store.SaveStudents(ctx, snap.Students)
	})
	if err != nil {
		return refused(err)
	}
	return d.push(ctx, op, func(ctx context.Context) error {
		return d.api.DeleteStudent(ctx, id)
	})
}

// AddStudents appends many students at once, e.g. from an import. The
// remote pushes are chunked per the create batch settings.
func (d *Dispatcher) AddStudents(ctx context.Context, students []record.Student) Result {
	const op = "add students"
	prepared := make([]record.Student, 0, len(students))
	seen := make(map[string]bool, len(students))
	for _, s := range students {
		s = d.prepareStudent(s)
		if err := record.Validate(s); err != nil {
			return refused(invalid(op, fmt.Errorf("student %s: %w", s.ID, err)))
		}
		if seen[s.ID] {
			return refused(duplicate(op, s.ID))
		}
		seen[s.ID] = true
		prepared = append(prepared, s)
	}
	if len(prepared) == 0 {
		return localOnly()
	}

	err := d.state.Update(CollStudents, func(snap *Snapshot) error {
		for _, s := range prepared {
			if studentIndex(snap.Students, s.ID) >= 0 {
				return duplicate(op, s.ID)
			}
		}
		next := append(snap.Students, prepared...)
		if err := d.store.SaveStudents(ctx, next); err != nil {
			return err
		}
		snap.Students = next
		return nil
	})
	if err != nil {
		return refused(err)
	}
	return d.push(ctx, op, func(ctx context.Context) error {
		return pushChunked(ctx, d.opts.sleeper, d.opts.batches.Create, prepared, d.api.CreateStudent)
	})
}

// UpdateStudents replaces every listed student that exists locally, e.g.
// after entering a class's scores. Unknown ids are skipped. The remote
// pushes are chunked per the update batch settings.
func (d *Dispatcher) UpdateStudents(ctx context.Context, students []record.Student) Result {
	const op = "update students"
	byID := make(map[string]record.Student, len(students))
	for _, s := range students {
		s = s.SplitName()
		if err := record.Validate(s); err != nil {
			return refused(invalid(op, fmt.Errorf("student %s: %w", s.ID, err)))
		}
		byID[s.ID] = s
	}

	var applied []record.Student
	err := d.state.Update(CollStudents, func(snap *Snapshot) error {
		applied = applied[:0]
		for i, existing := range snap.Students {
			if s, ok := byID[existing.ID]; ok {
				snap.Students[i] = s
				applied = append(applied, s)
			}
		}
		if len(applied) == 0 {
			return notFound(op, "")
		}
		return d.store.SaveStudents(ctx, snap.Students)
	})
	if err != nil {
		return refused(err)
	}
	return d.push(ctx, op, func(ctx context.Context) error {
		return pushChunked(ctx, d.opts.sleeper, d.opts.batches.Update, applied, d.api.UpdateStudent)
	})
}

// ClearStudents removes every student. Remote deletes are issued one at a
// time, each awaited before the next.
func (d *Dispatcher) ClearStudents(ctx context.Context) Result {
	const op = "clear students"
	var ids []string
	err := d.state.Update(CollStudents, func(snap *Snapshot) error {
		ids = ids[:0]
		for _, s := range snap.Students {
			ids = append(ids, s.ID)
		}
		if err := d.store.SaveStudents(ctx, []record.Student{}); err != nil {
			return err
		}
		snap.Students = []record.Student{}
		return nil
	})
	if err != nil {
		return refused(err)
	}
	if len(ids) == 0 {
		return localOnly()
	}
	return d.push(ctx, op, func(ctx context.Context) error {
		return pushSequential(ctx, d.opts.sleeper, d.opts.batches.Delete, ids, d.api.DeleteStudent)
	})
}

// SaveAttendanceDay stores a day, replacing an existing day with the same
// date in place.
func (d *Dispatcher) SaveAttendanceDay(ctx context.Context, day record.AttendanceDay) Result {
	const op = "save attendance"
	if err := record.Validate(day); err != nil {
		return refused(invalid(op, err))
	}
	err := d.state.Update(CollAttendance, func(snap *Snapshot) error {
		i := slices.IndexFunc(snap.Attendance, func(a record.AttendanceDay) bool { return a.Date == day.Date })
		if i >= 0 {
			snap.Attendance[i] = day
		} else {
			snap.Attendance = append(snap.Attendance, day)
		}
		return d.store.SaveAttendance(ctx, snap.Attendance)
	})
	if err != nil {
		return refused(err)
	}
	return d.push(ctx, op, func(ctx context.Context) error {
		return d.api.CreateAttendance(ctx, day)
	})
}

func (d *Dispatcher) today() string {
	return d.opts.now().UTC().Format(time.RFC3339)
}

// AddNotification puts a notification first. Missing id, date and type
// are filled in.
func (d *Dispatcher) AddNotification(ctx context.Context, n record.Notification) Result {
	const op = "add notification"
	if n.ID == "" {
		n.ID = d.opts.ids.Generate()
	}
	if n.Date == "" {
		n.Date = d.today()
	}
	if n.Type == "" {
		n.Type = record.NotifyInfo
	}
	if err := record.Validate(n); err != nil {
		return refused(invalid(op, err))
	}
	err := d.state.Update(CollNotifications, func(snap *Snapshot) error {
		if slices.ContainsFunc(snap.Notifications, func(x record.Notification) bool { return x.ID == n.ID }) {
			return duplicate(op, n.ID)
		}
		snap.Notifications = slices.Insert(snap.Notifications, 0, n)
		return d.store.SaveNotifications(ctx, snap.Notifications)
	})
	if err != nil {
		return refused(err)
	}
	return d.push(ctx, op, func(ctx context.Context) error {
		return d.api.CreateNotification(ctx, n)
	})
}

// DeleteNotification removes a notification.
func (d *Dispatcher) DeleteNotification(ctx context.Context, id string) Result {
	const op = "delete notification"
	err := d.state.Update(CollNotifications, func(snap *Snapshot) error {
		i := slices.IndexFunc(snap.Notifications, func(x record.Notification) bool { return x.ID == id })
		if i < 0 {
			return notFound(op, id)
		}
		snap.Notifications = slices.Delete(snap.Notifications, i, i+1)
		return d.store.SaveNotifications(ctx, snap.Notifications)
	})
	if err != nil {
		return refused(err)
	}
	return d.push(ctx, op, func(ctx context.Context) error {
		return d.api.DeleteNotification(ctx, id)
	})
}

// AddReview records a review. A review for the same student and period
// is updated in place, keeping its id; anything else goes first.
func (d *Dispatcher) AddReview(ctx context.Context, r record.Review) Result {
	const op = "add review"
	if r.ID == "" {
		r.ID = d.opts.ids.Generate()
	}
	if r.Date == "" {
		r.Date = d.today()
	}
	if err := record.Validate(r); err != nil {
		return refused(invalid(op, err))
	}
	err := d.state.Update(CollReviews, func(snap *Snapshot) error {
		if i := slices.IndexFunc(snap.Reviews, r.SamePeriod); i >= 0 {
			r.ID = snap.Reviews[i].ID
			snap.Reviews[i] = r
		} else {
			snap.Reviews = slices.Insert(snap.Reviews, 0, r)
		}
		return d.store.SaveReviews(ctx, snap.Reviews)
	})
	if err != nil {
		return refused(err)
	}
	return d.push(ctx, op, func(ctx context.Context) error {
		return d.api.CreateReview(ctx, r)
	})
}

// DeleteReview removes a review.
func (d *Dispatcher) DeleteReview(ctx context.Context, id string) Result {
	const op = "delete review"
	err := d.state.Update(CollReviews, func(snap *Snapshot) error {
		i := slices.IndexFunc(snap.Reviews, func(x record.Review) bool { return x.ID == id })
		if i < 0 {
			return notFound(op, id)
		}
		snap.Reviews = slices.Delete(snap.Reviews, i, i+1)
		return d.store.SaveReviews(ctx, snap.Reviews)
	})
	if err != nil {
		return refused(err)
	}
	return d.push(ctx, op, func(ctx context.Context) error {
		return d.api.DeleteReview(ctx, id)
	})
}

// AddAccount creates an account, active unless a status is given.
func (d *Dispatcher) AddAccount(ctx context.Context, a record.Account) Result {
	if a.Status == "" {
		a.Status = record.AccountActive
	}
	return d.addAccount(ctx, "add account", a)
}

// RegisterAccount creates a self-registered account. It stays pending
// until approved, and defaults to the parent role.
func (d *Dispatcher) RegisterAccount(ctx context.Context, a record.Account) Result {
	a.Status = record.AccountPending
	if a.Role == "" {
		a.Role = record.RoleParent
	}
	return d.addAccount(ctx, "register account", a)
}

func (d *Dispatcher) addAccount(ctx context.Context, op string, a record.Account) Result {
	a.Username = strings.TrimSpace(a.Username)
	if a.ID == "" {
		a.ID = d.opts.ids.Generate()
	}
	if err := record.Validate(a); err != nil {
		return refused(invalid(op, err))
	}
	err := d.state.Update(CollAccounts, func(snap *Snapshot) error {
		if account.Contains(snap.Accounts, a) {
			return duplicate(op, account.Key(a))
		}
		next := append(snap.Accounts, a)
		if err := d.store.SaveAccounts(ctx, next); err != nil {
			return err
		}
		snap.Accounts = next
		return nil
	})
	if err != nil {
		return refused(err)
	}
	return d.push(ctx, op, func(ctx context.Context) error {
		return d.api.CreateAccount(ctx, a)
	})
}

// UpdateAccount replaces the account with the same id. When it is the
// signed-in account the session copy is refreshed too.
func (d *Dispatcher) UpdateAccount(ctx context.Context, a record.Account) Result {
	a.Username = strings.TrimSpace(a.Username)
	return d.updateAccount(ctx, "update account", a.ID, func(*record.Account) record.Account { return a })
}

// ApproveAccount activates a pending account.
func (d *Dispatcher) ApproveAccount(ctx context.Context, id string) Result {
	return d.updateAccount(ctx, "approve account", id, func(cur *record.Account) record.Account {
		next := *cur
		next.Status = record.AccountActive
		return next
	})
}

func (d *Dispatcher) updateAccount(ctx context.Context, op, id string, change func(*record.Account) record.Account) Result {
	var updated record.Account
	err := d.state.Update(CollAccounts, func(snap *Snapshot) error {
		i := slices.IndexFunc(snap.Accounts, func(x record.Account) bool { return x.ID == id })
		if i < 0 {
			return notFound(op, id)
		}
		updated = change(&snap.Accounts[i])
		if err := record.Validate(updated); err != nil {
			return invalid(op, err)
		}
		for j, other := range snap.Accounts {
			if j != i && account.Key(other) == account.Key(updated) {
				return duplicate(op, account.Key(updated))
			}
		}
		snap.Accounts[i] = updated
		if err := d.store.SaveAccounts(ctx, snap.Accounts); err != nil {
			return err
		}
		if snap.CurrentUser != nil && snap.CurrentUser.ID == id {
			session := updated.Session()
			if err := d.store.SaveCurrentUser(ctx, &session); err != nil {
				return err
			}
			snap.CurrentUser = &session
		}
		return nil
	})
	if err != nil {
		return refused(err)
	}
	return d.push(ctx, op, func(ctx context.Context) error {
		return d.api.UpdateAccount(ctx, updated)
	})
}

// DeleteAccount removes an account. The privileged defaults come back on
// the next reconciliation pass.
func (d *Dispatcher) DeleteAccount(ctx context.Context, id string) Result {
	const op = "delete account"
	err := d.state.Update(CollAccounts, func(snap *Snapshot) error {
		i := slices.IndexFunc(snap.Accounts, func(x record.Account) bool { return x.ID == id })
		if i < 0 {
			return notFound(op, id)
		}
		snap.Accounts = slices.Delete(snap.Accounts, i, i+1)
		return d.store.SaveAccounts(ctx, snap.Accounts)
	})
	if err != nil {
		return refused(err)
	}
	return d.push(ctx, op, func(ctx context.Context) error {
		return d.api.DeleteAccount(ctx, id)
	})
}

// UpdateClassConfig replaces the class configuration.
func (d *Dispatcher) UpdateClassConfig(ctx context.Context, cfg record.ClassConfig) Result {
	const op = "update class config"
	err := d.state.Update(CollClassConfig, func(snap *Snapshot) error {
		if err := d.store.SaveClassConfig(ctx, cfg); err != nil {
			return err
		}
		snap.ClassConfig = cfg
		return nil
	})
	if err != nil {
		return refused(err)
	}
	return d.push(ctx, op, func(ctx context.Context) error {
		return d.api.UpdateClassConfig(ctx, cfg)
	})
}

// UpdateDashboardNote replaces the dashboard note. It is never replicated.
func (d *Dispatcher) UpdateDashboardNote(ctx context.Context, note string) Result {
	err := d.state.Update(CollDashboardNote, func(snap *Snapshot) error {
		if err := d.store.SaveDashboardNote(ctx, note); err != nil {
			return err
		}
		snap.DashboardNote = note
		return nil
	})
	if err != nil {
		return refused(err)
	}
	return localOnly()
}

// UpdateEndpoint replaces the endpoint URL. An empty URL switches to
// local-only mode. It triggers no reconciliation by itself.
func (d *Dispatcher) UpdateEndpoint(ctx context.Context, url string) Result {
	url = strings.TrimSpace(url)
	err := d.state.Update(CollEndpoint, func(snap *Snapshot) error {
		if err := d.store.SaveEndpoint(ctx, url); err != nil {
			return err
		}
		snap.Endpoint = url
		return nil
	})
	if err != nil {
		return refused(err)
	}
	return localOnly()
}

// Login resolves credentials against the accounts in State and persists
// the session. A default account missing from State is re-inserted and
// persisted, and accounts subscribers are told. Pending accounts yield
// account.ErrPending.
func (d *Dispatcher) Login(ctx context.Context, username, password string) (record.Account, error) {
	var session record.Account
	var healed bool
	err := d.state.Update(CollCurrentUser, func(snap *Snapshot) error {
		res, err := account.Resolve(snap.Accounts, username, password)
		if err != nil {
			return err
		}
		if res.Healed {
			d.opts.logger.Warn("default account missing locally, restoring it",
				"username", res.Account.Username)
			if err := d.store.SaveAccounts(ctx, res.Accounts); err != nil {
				return err
			}
			snap.Accounts = res.Accounts
			healed = true
		}
		session = res.Account.Session()
		if err := d.store.SaveCurrentUser(ctx, &session); err != nil {
			return err
		}
		snap.CurrentUser = &session
		return nil
	})
	if err != nil {
		return record.Account{}, err
	}
	if healed {
		d.state.notify(CollAccounts)
	}
	return session, nil
}

// Logout clears the session.
func (d *Dispatcher) Logout(ctx context.Context) error {
	return d.state.Update(CollCurrentUser, func(snap *Snapshot) error {
		if err := d.store.SaveCurrentUser(ctx, nil); err != nil {
			return err
		}
		snap.CurrentUser = nil
		return nil
	})
}
