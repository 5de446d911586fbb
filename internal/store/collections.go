package store

import (
	"context"

	"github.com/roach88/classbook/internal/account"
	"github.com/roach88/classbook/internal/record"
)

// Keys of the persisted layout. One entry per collection.
const (
	KeyInitialized   = "system_initialized_v2"
	KeyStudents      = "students"
	KeyAttendance    = "attendance"
	KeyAccounts      = "accounts"
	KeyClassConfig   = "class_config"
	KeyNotifications = "notifications"
	KeyReviews       = "reviews"
	KeyDashboardNote = "dashboard_note"
	KeyCurrentUser   = "current_user"
	KeyEndpoint      = "endpoint_url"
)

// Students returns the stored students with names split into first and
// last name where either part is missing.
func (s *Store) Students(ctx context.Context) ([]record.Student, error) {
	students, err := Get(ctx, s, KeyStudents, []record.Student{})
	if err != nil {
		return nil, err
	}
	for i := range students {
		students[i] = students[i].SplitName()
	}
	return students, nil
}

// SaveStudents replaces the stored students.
func (s *Store) SaveStudents(ctx context.Context, students []record.Student) error {
	return Set(ctx, s, KeyStudents, nonNil(students))
}

// Attendance returns the stored attendance history.
func (s *Store) Attendance(ctx context.Context) ([]record.AttendanceDay, error) {
	return Get(ctx, s, KeyAttendance, []record.AttendanceDay{})
}

// SaveAttendance replaces the stored attendance history.
func (s *Store) SaveAttendance(ctx context.Context, days []record.AttendanceDay) error {
	return Set(ctx, s, KeyAttendance, nonNil(days))
}

// Accounts returns the stored accounts. The built-in defaults stand in for
// a missing, corrupt or empty entry.
func (s *Store) Accounts(ctx context.Context) ([]record.Account, error) {
	return Get(ctx, s, KeyAccounts, account.Defaults())
}

// SaveAccounts replaces the stored accounts.
func (s *Store) SaveAccounts(ctx context.Context, accounts []record.Account) error {
	return Set(ctx, s, KeyAccounts, nonNil(accounts))
}

// ClassConfig returns the stored class configuration or the built-in one.
func (s *Store) ClassConfig(ctx context.Context) (record.ClassConfig, error) {
	return Get(ctx, s, KeyClassConfig, DefaultClassConfig())
}

// SaveClassConfig replaces the stored class configuration.
func (s *Store) SaveClassConfig(ctx context.Context, cfg record.ClassConfig) error {
	return Set(ctx, s, KeyClassConfig, cfg)
}

// Notifications returns the stored notifications.
func (s *Store) Notifications(ctx context.Context) ([]record.Notification, error) {
	return Get(ctx, s, KeyNotifications, []record.Notification{})
}

// SaveNotifications replaces the stored notifications.
func (s *Store) SaveNotifications(ctx context.Context, notes []record.Notification) error {
	return Set(ctx, s, KeyNotifications, nonNil(notes))
}

// Reviews returns the stored reviews.
func (s *Store) Reviews(ctx context.Context) ([]record.Review, error) {
	return Get(ctx, s, KeyReviews, []record.Review{})
}

// SaveReviews replaces the stored reviews.
func (s *Store) SaveReviews(ctx context.Context, reviews []record.Review) error {
	return Set(ctx, s, KeyReviews, nonNil(reviews))
}

// DashboardNote returns the free-form dashboard note.
func (s *Store) DashboardNote(ctx context.Context) (string, error) {
	return Get(ctx, s, KeyDashboardNote, "")
}

// SaveDashboardNote replaces the dashboard note.
func (s *Store) SaveDashboardNote(ctx context.Context, note string) error {
	return Set(ctx, s, KeyDashboardNote, note)
}

// CurrentUser returns the signed-in account, or nil.
func (s *Store) CurrentUser(ctx context.Context) (*record.Account, error) {
	return Get[*record.Account](ctx, s, KeyCurrentUser, nil)
}

// SaveCurrentUser persists the signed-in account; nil signs out.
func (s *Store) SaveCurrentUser(ctx context.Context, user *record.Account) error {
	if user == nil {
		return s.Delete(ctx, KeyCurrentUser)
	}
	return Set(ctx, s, KeyCurrentUser, user)
}

// Endpoint returns the remote endpoint URL. Empty means local-only mode.
func (s *Store) Endpoint(ctx context.Context) (string, error) {
	return Get(ctx, s, KeyEndpoint, s.defaultEndpoint)
}

// SaveEndpoint replaces the remote endpoint URL.
func (s *Store) SaveEndpoint(ctx context.Context, url string) error {
	return Set(ctx, s, KeyEndpoint, url)
}

func nonNil[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}
