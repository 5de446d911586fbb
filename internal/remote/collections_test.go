package remote

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/classbook/internal/devserver"
	"github.com/roach88/classbook/internal/record"
)

func newDevAPI(t *testing.T) (*API, *devserver.Backend) {
	t.Helper()
	backend := devserver.NewBackend()
	srv := httptest.NewServer(devserver.New(devserver.Options{Backend: backend}))
	t.Cleanup(srv.Close)
	return NewAPI(NewClient(StaticEndpoint(srv.URL)), nil), backend
}

// assertGoldenRequest canonicalizes the last captured request body and
// compares it with testdata/<name>.golden.
func assertGoldenRequest(t *testing.T, h *capture, name string) {
	t.Helper()
	h.mu.Lock()
	require.NotEmpty(t, h.bodies)
	body := h.bodies[len(h.bodies)-1]
	h.mu.Unlock()

	var generic any
	require.NoError(t, json.Unmarshal(body, &generic))
	canonical, err := record.MarshalCanonical(generic)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, canonical)
}

func TestAPI_StudentCreatePayload(t *testing.T) {
	h := &capture{reply: `{"ok":true}`}
	api := NewAPI(newCaptureClient(t, h), nil)

	s := record.Student{
		ID:          "HS079201000001",
		FullName:    "Nguyen Van An",
		FirstName:   "An",
		LastName:    "Nguyen Van",
		Gender:      "Nam",
		DateOfBirth: "2010-05-12",
		Address:     "12 Le Loi",
		Status:      record.StatusStudying,
		NationalID:  "079201000001",
		Transcript: record.Transcript{
			record.TermHK1: {
				Scores:       map[string]any{"Toan": 8.5, "GDTC": "Đ"},
				AcademicRank: "Tot",
			},
		},
	}
	require.NoError(t, api.CreateStudent(context.Background(), s))
	assertGoldenRequest(t, h, "students_create")
}

func TestAPI_AttendanceCreatePayload(t *testing.T) {
	h := &capture{reply: `{"ok":true}`}
	api := NewAPI(newCaptureClient(t, h), nil)

	day := record.AttendanceDay{
		Date: "2024-03-04",
		Records: []record.AttendanceRecord{
			{StudentID: "HS1", Status: record.Present},
			{StudentID: "HS2", Status: record.Unexcused, Note: "sick"},
		},
	}
	require.NoError(t, api.CreateAttendance(context.Background(), day))
	assertGoldenRequest(t, h, "attendance_create")
}

func TestAPI_ClassConfigUpdatePayload(t *testing.T) {
	h := &capture{reply: `{"ok":true}`}
	api := NewAPI(newCaptureClient(t, h), nil)

	cfg := record.ClassConfig{
		ClassName:   "9A1",
		TeacherName: "Kien",
		SchoolYear:  "2024-2025",
		SchoolName:  "THCS Tan Lap",
		AwardTitles: []string{"Gioi"},
		ScoreComments: []record.ScoreComment{
			{ID: "c1", Rank: "Tot", Content: "Good", Term: record.TermHK1},
		},
	}
	require.NoError(t, api.UpdateClassConfig(context.Background(), cfg))
	assertGoldenRequest(t, h, "classes_update")
}

func TestAPI_StudentsRoundTripThroughDevserver(t *testing.T) {
	api, _ := newDevAPI(t)
	ctx := context.Background()

	want := record.Student{
		ID:          "HS1",
		FullName:    "Tran Thi Binh",
		FirstName:   "Binh",
		LastName:    "Tran Thi",
		Gender:      "Nữ",
		DateOfBirth: "2010-01-02",
		Address:     "Dong Phu",
		Status:      record.StatusStudying,
		FatherPhone: "0901",
		ParentPhone: "0901",
		Transcript: record.Transcript{
			record.TermHK2: {Scores: map[string]any{"Toan": 9.0}, Conduct: "Tot"},
		},
	}
	require.NoError(t, api.CreateStudent(ctx, want))

	got, ok := api.ListStudents(ctx)
	require.True(t, ok)
	require.Len(t, got, 1)
	if diff := cmp.Diff(want, got[0]); diff != "" {
		t.Errorf("student mismatch (-want +got):\n%s", diff)
	}

	want.Address = "Tan Lap"
	require.NoError(t, api.UpdateStudent(ctx, want))
	got, ok = api.ListStudents(ctx)
	require.True(t, ok)
	assert.Equal(t, "Tan Lap", got[0].Address)

	require.NoError(t, api.DeleteStudent(ctx, "HS1"))
	got, ok = api.ListStudents(ctx)
	require.True(t, ok)
	assert.Empty(t, got)
}

func TestAPI_ListStudentsLenientRows(t *testing.T) {
	api, backend := newDevAPI(t)
	backend.Seed("students",
		devserver.Row{
			"id":          "HS2",
			"fullName":    "Le Van C",
			"birthday":    "2011-02-03T00:00:00.000Z",
			"fatherPhone": float64(912345678),
			"transcript_json": map[string]any{
				"HK1": map[string]any{"scores": map[string]any{"Toan": 7}},
			},
		},
		devserver.Row{
			"id":       "HS3",
			"fullName": "D",
			"metadata": `{"CN":{"scores":{},"award":"Gioi"}}`,
			"transcript": map[string]any{
				"HK1": map[string]any{"scores": map[string]any{}},
			},
		},
	)

	got, ok := api.ListStudents(context.Background())
	require.True(t, ok)
	require.Len(t, got, 2)

	assert.Equal(t, "2011-02-03T00:00:00.000Z", got[0].DateOfBirth)
	assert.Equal(t, "912345678", got[0].FatherPhone)
	assert.Equal(t, "912345678", got[0].ParentPhone)
	assert.Equal(t, float64(7), got[0].Transcript[record.TermHK1].Scores["Toan"])

	// metadata wins over transcript.
	require.Contains(t, got[1].Transcript, record.TermCN)
	assert.NotContains(t, got[1].Transcript, record.TermHK1)
	assert.Equal(t, "Gioi", got[1].Transcript[record.TermCN].Award)
}

func TestAPI_AttendanceGroupsByDate(t *testing.T) {
	api, backend := newDevAPI(t)
	backend.Seed("attendance",
		devserver.Row{"date": "2024-03-05T00:00:00.000Z", "studentId": "HS1", "status": "present"},
		devserver.Row{"date": "2024-03-04", "studentId": "HS1", "status": "excused", "note": "flu"},
		devserver.Row{"date": "2024-03-05", "studentId": "HS2", "status": "unexcused"},
		devserver.Row{"date": "", "studentId": "HS3", "status": "present"},
	)

	days, ok := api.ListAttendance(context.Background())
	require.True(t, ok)

	want := []record.AttendanceDay{
		{Date: "2024-03-05", Records: []record.AttendanceRecord{
			{StudentID: "HS1", Status: record.Present},
			{StudentID: "HS2", Status: record.Unexcused},
		}},
		{Date: "2024-03-04", Records: []record.AttendanceRecord{
			{StudentID: "HS1", Status: record.Excused, Note: "flu"},
		}},
	}
	if diff := cmp.Diff(want, days); diff != "" {
		t.Errorf("attendance mismatch (-want +got):\n%s", diff)
	}
}

func TestAPI_AccountsStringifyScalars(t *testing.T) {
	api, backend := newDevAPI(t)
	backend.Seed("parents", devserver.Row{
		"id":       float64(17),
		"username": "p1",
		"password": float64(123),
		"role":     "PARENT",
	})

	accounts, ok := api.ListAccounts(context.Background())
	require.True(t, ok)
	require.Len(t, accounts, 1)
	assert.Equal(t, "17", accounts[0].ID)
	assert.Equal(t, "123", accounts[0].Password)
	assert.Equal(t, record.RoleParent, accounts[0].Role)
}

func TestAPI_ClassConfigDecoding(t *testing.T) {
	api, backend := newDevAPI(t)
	ctx := context.Background()

	_, ok := api.FetchClassConfig(ctx)
	assert.False(t, ok, "no rows")

	backend.Seed("classes",
		devserver.Row{"className": "old"},
		devserver.Row{
			"className":     "9A1",
			"schoolYear":    "2024-2025",
			"description":   "THCS Tan Lap",
			"awardTitles":   `["Gioi","Kha"]`,
			"scoreComments": []any{map[string]any{"id": "c1", "content": "Good", "min": 8}},
		},
	)
	cfg, ok := api.FetchClassConfig(ctx)
	require.True(t, ok)
	assert.Equal(t, "9A1", cfg.ClassName)
	assert.Equal(t, "2024-2025", cfg.SchoolYear)
	assert.Equal(t, "THCS Tan Lap", cfg.SchoolName)
	assert.Equal(t, []string{"Gioi", "Kha"}, cfg.AwardTitles)
	require.Len(t, cfg.ScoreComments, 1)
	require.NotNil(t, cfg.ScoreComments[0].Min)
	assert.Equal(t, 8.0, *cfg.ScoreComments[0].Min)

	backend.Seed("classes", devserver.Row{"year": "2025"})
	_, ok = api.FetchClassConfig(ctx)
	assert.False(t, ok, "row without className")
}

func TestAPI_ClassConfigRoundTrip(t *testing.T) {
	api, _ := newDevAPI(t)
	ctx := context.Background()

	cfg := record.ClassConfig{
		ClassName:   "9A1",
		TeacherName: "Kien",
		SchoolYear:  "2024-2025",
		AwardTitles: []string{"Gioi"},
	}
	require.NoError(t, api.UpdateClassConfig(ctx, cfg))

	got, ok := api.FetchClassConfig(ctx)
	require.True(t, ok)
	cfg.ScoreComments = []record.ScoreComment{}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestAPI_NotificationsAndReviews(t *testing.T) {
	api, backend := newDevAPI(t)
	ctx := context.Background()

	n := record.Notification{ID: "n1", Title: "Trip", Content: "Friday", Date: "2024-03-01", Type: record.NotifyInfo}
	require.NoError(t, api.CreateNotification(ctx, n))
	notes, ok := api.ListNotifications(ctx)
	require.True(t, ok)
	assert.Equal(t, []record.Notification{n}, notes)
	require.NoError(t, api.DeleteNotification(ctx, "n1"))
	assert.Empty(t, backend.Rows("announcements"))

	r := record.Review{ID: "r1", StudentID: "HS1", Type: record.ReviewWeekly, PeriodName: "W1", Content: "ok", Date: "2024-03-02"}
	require.NoError(t, api.CreateReview(ctx, r))
	reviews, ok := api.ListReviews(ctx)
	require.True(t, ok)
	assert.Equal(t, []record.Review{r}, reviews)

	err := api.DeleteReview(ctx, "missing")
	assert.True(t, IsRejected(err))
}

func TestAPI_FailedReadsReportFalse(t *testing.T) {
	ctx := context.Background()

	local := NewAPI(NewClient(StaticEndpoint("")), nil)
	_, ok := local.ListStudents(ctx)
	assert.False(t, ok)
	assert.False(t, local.Configured(ctx))

	api, backend := newDevAPI(t)
	backend.Reject(ActionReviewsList, "quota")
	_, ok = api.ListReviews(ctx)
	assert.False(t, ok)

	h := &capture{reply: `{"ok":true,"data":null}`}
	nullAPI := NewAPI(newCaptureClient(t, h), nil)
	_, ok = nullAPI.ListAccounts(ctx)
	assert.False(t, ok, "null data is a failed read")

	h = &capture{reply: `{"ok":true,"data":{"not":"a list"}}`}
	objAPI := NewAPI(newCaptureClient(t, h), nil)
	_, ok = objAPI.ListNotifications(ctx)
	assert.False(t, ok)
}

func TestAPI_EmptyListIsNotFailure(t *testing.T) {
	api, _ := newDevAPI(t)
	students, ok := api.ListStudents(context.Background())
	assert.True(t, ok)
	assert.Empty(t, students)
}
