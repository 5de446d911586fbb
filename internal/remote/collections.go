package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/classbook/internal/record"
)

// API is the per-collection view of the endpoint. List methods report
// false when the read failed or returned no usable data, so callers can
// tell "failed" apart from "empty". Write methods return the classified
// error from Do.
type API struct {
	caller Caller
	logger *slog.Logger
}

// NewAPI wraps caller. A nil logger discards decode warnings.
func NewAPI(caller Caller, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &API{caller: caller, logger: logger}
}

// Configured reports whether the underlying caller has an endpoint.
func (a *API) Configured(ctx context.Context) bool {
	return a.caller.Configured(ctx)
}

// list runs a read action. A nil or null result counts as a failed read.
func (a *API) list(ctx context.Context, action string) (json.RawMessage, bool) {
	data := a.caller.Call(ctx, action, nil)
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, false
	}
	return trimmed, true
}

func (a *API) decodeFailed(action string, err error) {
	a.logger.Warn("remote data not decodable, ignoring",
		"action", action,
		"error", err)
}

func (a *API) write(ctx context.Context, action string, payload any) error {
	_, err := a.caller.Do(ctx, action, payload)
	return err
}

// ListStudents reads students.list.
func (a *API) ListStudents(ctx context.Context) ([]record.Student, bool) {
	data, ok := a.list(ctx, ActionStudentsList)
	if !ok {
		return nil, false
	}
	rows, err := decodeRows(data)
	if err != nil {
		a.decodeFailed(ActionStudentsList, err)
		return nil, false
	}
	students := make([]record.Student, 0, len(rows))
	for _, row := range rows {
		s, err := decodeStudent(row)
		if err != nil {
			a.decodeFailed(ActionStudentsList, err)
			return nil, false
		}
		students = append(students, s)
	}
	return students, true
}

// CreateStudent pushes a new student.
func (a *API) CreateStudent(ctx context.Context, s record.Student) error {
	payload, err := encodeStudent(s)
	if err != nil {
		return fmt.Errorf("%s: %w", ActionStudentsCreate, err)
	}
	return a.write(ctx, ActionStudentsCreate, payload)
}

// UpdateStudent pushes a changed student.
func (a *API) UpdateStudent(ctx context.Context, s record.Student) error {
	payload, err := encodeStudent(s)
	if err != nil {
		return fmt.Errorf("%s: %w", ActionStudentsUpdate, err)
	}
	return a.write(ctx, ActionStudentsUpdate, payload)
}

// DeleteStudent removes a student by id.
func (a *API) DeleteStudent(ctx context.Context, id string) error {
	return a.write(ctx, ActionStudentsDelete, idPayload{ID: id})
}

// ListAttendance reads attendance.list and groups its flat rows into days.
func (a *API) ListAttendance(ctx context.Context) ([]record.AttendanceDay, bool) {
	data, ok := a.list(ctx, ActionAttendanceList)
	if !ok {
		return nil, false
	}
	raw, err := decodeRows(data)
	if err != nil {
		a.decodeFailed(ActionAttendanceList, err)
		return nil, false
	}
	rows := make([]attendanceRow, 0, len(raw))
	for _, r := range raw {
		var row attendanceRow
		if err := rowInto(r, &row); err != nil {
			a.decodeFailed(ActionAttendanceList, err)
			return nil, false
		}
		rows = append(rows, row)
	}
	return groupAttendance(rows), true
}

// CreateAttendance pushes one day as flat rows.
func (a *API) CreateAttendance(ctx context.Context, day record.AttendanceDay) error {
	return a.write(ctx, ActionAttendanceCreate, flattenAttendance(day))
}

// ListAccounts reads parents.list, which covers accounts of every role.
func (a *API) ListAccounts(ctx context.Context) ([]record.Account, bool) {
	return listRecords[record.Account](ctx, a, ActionAccountsList)
}

// CreateAccount pushes a new account.
func (a *API) CreateAccount(ctx context.Context, acc record.Account) error {
	return a.write(ctx, ActionAccountsCreate, acc)
}

// UpdateAccount pushes a changed account.
func (a *API) UpdateAccount(ctx context.Context, acc record.Account) error {
	return a.write(ctx, ActionAccountsUpdate, acc)
}

// DeleteAccount removes an account by id.
func (a *API) DeleteAccount(ctx context.Context, id string) error {
	return a.write(ctx, ActionAccountsDelete, idPayload{ID: id})
}

// ListNotifications reads announcements.list.
func (a *API) ListNotifications(ctx context.Context) ([]record.Notification, bool) {
	return listRecords[record.Notification](ctx, a, ActionNotificationsList)
}

// CreateNotification pushes a new notification.
func (a *API) CreateNotification(ctx context.Context, n record.Notification) error {
	return a.write(ctx, ActionNotificationsCreate, n)
}

// DeleteNotification removes a notification by id.
func (a *API) DeleteNotification(ctx context.Context, id string) error {
	return a.write(ctx, ActionNotificationsDelete, idPayload{ID: id})
}

// ListReviews reads behavior.list.
func (a *API) ListReviews(ctx context.Context) ([]record.Review, bool) {
	return listRecords[record.Review](ctx, a, ActionReviewsList)
}

// CreateReview pushes a review.
func (a *API) CreateReview(ctx context.Context, r record.Review) error {
	return a.write(ctx, ActionReviewsCreate, r)
}

// DeleteReview removes a review by id.
func (a *API) DeleteReview(ctx context.Context, id string) error {
	return a.write(ctx, ActionReviewsDelete, idPayload{ID: id})
}

// FetchClassConfig reads classes.list. It reports false when the read
// failed or no row carries a class name.
func (a *API) FetchClassConfig(ctx context.Context) (record.ClassConfig, bool) {
	data, ok := a.list(ctx, ActionClassesList)
	if !ok {
		return record.ClassConfig{}, false
	}
	cfg, ok, err := decodeClassConfig(data)
	if err != nil {
		a.decodeFailed(ActionClassesList, err)
		return record.ClassConfig{}, false
	}
	return cfg, ok
}

// UpdateClassConfig pushes the class configuration.
func (a *API) UpdateClassConfig(ctx context.Context, cfg record.ClassConfig) error {
	payload, err := encodeClassConfig(cfg)
	if err != nil {
		return fmt.Errorf("%s: %w", ActionClassesUpdate, err)
	}
	return a.write(ctx, ActionClassesUpdate, payload)
}

func listRecords[T any](ctx context.Context, a *API, action string) ([]T, bool) {
	data, ok := a.list(ctx, action)
	if !ok {
		return nil, false
	}
	rows, err := decodeRows(data)
	if err != nil {
		a.decodeFailed(action, err)
		return nil, false
	}
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		var v T
		if err := rowInto(row, &v); err != nil {
			a.decodeFailed(action, err)
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}
