package engine

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/roach88/classbook/internal/record"
	"github.com/roach88/classbook/internal/store"
)

// Collection names one slot of State. The values match the store keys.
type Collection string

const (
	CollStudents      Collection = store.KeyStudents
	CollAttendance    Collection = store.KeyAttendance
	CollAccounts      Collection = store.KeyAccounts
	CollClassConfig   Collection = store.KeyClassConfig
	CollNotifications Collection = store.KeyNotifications
	CollReviews       Collection = store.KeyReviews
	CollDashboardNote Collection = store.KeyDashboardNote
	CollCurrentUser   Collection = store.KeyCurrentUser
	CollEndpoint      Collection = store.KeyEndpoint
	CollSync          Collection = "sync"
)

// SyncState is the status of the most recent reconciliation pass.
type SyncState string

const (
	SyncIdle    SyncState = "idle"
	SyncSyncing SyncState = "syncing"
	SyncSuccess SyncState = "success"
	SyncError   SyncState = "error"
)

// SyncStatus is published on State by the Coordinator.
type SyncStatus struct {
	State    SyncState `json:"state"`
	LastSync time.Time `json:"lastSync,omitzero"`
	Error    string    `json:"error,omitempty"`
}

// Snapshot is a point-in-time copy of every collection.
type Snapshot struct {
	Students      []record.Student       `json:"students"`
	Attendance    []record.AttendanceDay `json:"attendance"`
	Accounts      []record.Account       `json:"accounts"`
	ClassConfig   record.ClassConfig     `json:"classConfig"`
	Notifications []record.Notification  `json:"notifications"`
	Reviews       []record.Review        `json:"reviews"`
	DashboardNote string                 `json:"dashboardNote"`
	CurrentUser   *record.Account        `json:"currentUser,omitempty"`
	Endpoint      string                 `json:"endpoint"`
	Sync          SyncStatus             `json:"sync"`
}

// clone copies the collections so a Snapshot handed out never aliases the
// one held by State. Records are copied shallowly except for the maps and
// slices the engine itself replaces.
func (s Snapshot) clone() Snapshot {
	out := s
	out.Students = slices.Clone(s.Students)
	out.Attendance = slices.Clone(s.Attendance)
	for i := range out.Attendance {
		out.Attendance[i].Records = slices.Clone(out.Attendance[i].Records)
	}
	out.Accounts = slices.Clone(s.Accounts)
	out.ClassConfig.AwardTitles = slices.Clone(s.ClassConfig.AwardTitles)
	out.ClassConfig.ScoreComments = slices.Clone(s.ClassConfig.ScoreComments)
	out.Notifications = slices.Clone(s.Notifications)
	out.Reviews = slices.Clone(s.Reviews)
	if s.CurrentUser != nil {
		u := *s.CurrentUser
		out.CurrentUser = &u
	}
	for i, st := range out.Students {
		if st.Transcript != nil {
			out.Students[i].Transcript = maps.Clone(st.Transcript)
		}
	}
	return out
}

// Event is delivered to subscribers after a collection changed.
type Event struct {
	Collection Collection
	Snapshot   Snapshot
}

// State is the in-memory copy of every collection that readers use. All
// mutation goes through Update, which serializes writers.
//
// Thread-safety: all methods are safe for concurrent use.
type State struct {
	mu   sync.RWMutex
	snap Snapshot

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(Event)
}

// NewState returns an empty State with sync status idle.
func NewState() *State {
	return &State{
		snap: Snapshot{Sync: SyncStatus{State: SyncIdle}},
		subs: make(map[int]func(Event)),
	}
}

// Load replaces every collection with the store's copy. It is the first
// step of a session and never touches the network.
func (s *State) Load(ctx context.Context, st *store.Store) error {
	var next Snapshot
	var err error
	if next.Students, err = st.Students(ctx); err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if next.Attendance, err = st.Attendance(ctx); err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if next.Accounts, err = st.Accounts(ctx); err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if next.ClassConfig, err = st.ClassConfig(ctx); err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if next.Notifications, err = st.Notifications(ctx); err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if next.Reviews, err = st.Reviews(ctx); err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if next.DashboardNote, err = st.DashboardNote(ctx); err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if next.CurrentUser, err = st.CurrentUser(ctx); err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if next.Endpoint, err = st.Endpoint(ctx); err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	record.SortNotifications(next.Notifications)
	record.SortReviews(next.Reviews)

	s.mu.Lock()
	next.Sync = s.snap.Sync
	s.snap = next
	out := s.snap.clone()
	s.mu.Unlock()

	for _, c := range []Collection{
		CollStudents, CollAttendance, CollAccounts, CollClassConfig,
		CollNotifications, CollReviews, CollDashboardNote, CollCurrentUser, CollEndpoint,
	} {
		s.publish(Event{Collection: c, Snapshot: out})
	}
	return nil
}

// Snapshot returns a copy of every collection.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.clone()
}

// Students returns a copy of the students.
func (s *State) Students() []record.Student { return s.Snapshot().Students }

// Attendance returns a copy of the attendance history.
func (s *State) Attendance() []record.AttendanceDay { return s.Snapshot().Attendance }

// Accounts returns a copy of the accounts.
func (s *State) Accounts() []record.Account { return s.Snapshot().Accounts }

// ClassConfig returns the class configuration.
func (s *State) ClassConfig() record.ClassConfig { return s.Snapshot().ClassConfig }

// Notifications returns the notifications, newest first.
func (s *State) Notifications() []record.Notification { return s.Snapshot().Notifications }

// Reviews returns the reviews, newest first.
func (s *State) Reviews() []record.Review { return s.Snapshot().Reviews }

// DashboardNote returns the dashboard note.
func (s *State) DashboardNote() string { return s.Snapshot().DashboardNote }

// CurrentUser returns the signed-in account, or nil.
func (s *State) CurrentUser() *record.Account { return s.Snapshot().CurrentUser }

// Endpoint returns the configured endpoint URL.
func (s *State) Endpoint() string { return s.Snapshot().Endpoint }

// Sync returns the reconciliation status.
func (s *State) Sync() SyncStatus { return s.Snapshot().Sync }

// Update applies fn to a working copy of the state while holding the write
// lock. If fn returns nil the copy becomes the new state and subscribers are
// notified of c; otherwise the state is left untouched and the error is
// returned. fn is where store writes belong, so the value persisted is
// always derived from the state as it is now.
func (s *State) Update(c Collection, fn func(*Snapshot) error) error {
	s.mu.Lock()
	next := s.snap.clone()
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.snap = next
	out := next.clone()
	s.mu.Unlock()

	s.publish(Event{Collection: c, Snapshot: out})
	return nil
}

// Subscribe registers fn for every later Event. Events are delivered on the
// goroutine that made the change, after the state lock is released. The
// returned function unregisters fn.
func (s *State) Subscribe(fn func(Event)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

// notify publishes the current state under c, for a change committed
// through an Update keyed by another collection.
func (s *State) notify(c Collection) {
	s.publish(Event{Collection: c, Snapshot: s.Snapshot()})
}

func (s *State) publish(ev Event) {
	s.subMu.Lock()
	ids := slices.Sorted(maps.Keys(s.subs))
	fns := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
