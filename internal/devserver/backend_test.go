package devserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackend_AttendanceCreateAcceptsArrays(t *testing.T) {
	b := NewBackend()
	n, err := b.Exec("attendance.create", []any{
		map[string]any{"date": "2024-01-02", "studentId": "HS1", "status": "present"},
		map[string]any{"date": "2024-01-02", "studentId": "HS2", "status": "excused"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, b.Rows("attendance"), 2)
}

func TestBackend_UpdateMergesFields(t *testing.T) {
	b := NewBackend()
	b.Seed("parents", Row{"id": "u1", "username": "p1", "role": "PARENT"})

	_, err := b.Exec("parents.update", map[string]any{"id": "u1", "fullName": "P One"})
	require.NoError(t, err)

	rows := b.Rows("parents")
	require.Len(t, rows, 1)
	assert.Equal(t, "PARENT", rows[0]["role"])
	assert.Equal(t, "P One", rows[0]["fullName"])
}

func TestBackend_UpdateAndDeleteMissing(t *testing.T) {
	b := NewBackend()

	_, err := b.Exec("students.update", map[string]any{"id": "nope"})
	assert.ErrorIs(t, err, errNotFound)

	_, err = b.Exec("students.delete", map[string]any{"id": "nope"})
	assert.ErrorIs(t, err, errNotFound)
}

func TestBackend_ClassesUpdateIsSingleton(t *testing.T) {
	b := NewBackend()

	_, err := b.Exec("classes.update", map[string]any{"className": "9A1"})
	require.NoError(t, err)
	_, err = b.Exec("classes.update", map[string]any{"className": "9A2", "year": "2024-2025"})
	require.NoError(t, err)

	rows := b.Rows("classes")
	require.Len(t, rows, 1)
	assert.Equal(t, "9A2", rows[0]["className"])
	assert.Equal(t, "2024-2025", rows[0]["year"])
}

func TestBackend_RowsAreCopies(t *testing.T) {
	b := NewBackend()
	b.Seed("students", Row{"id": "HS1"})

	rows := b.Rows("students")
	rows[0]["id"] = "changed"

	assert.Equal(t, "HS1", b.Rows("students")[0]["id"])
}

func TestBackend_BadPayload(t *testing.T) {
	b := NewBackend()
	_, err := b.Exec("students.create", "text")
	assert.ErrorIs(t, err, errBadPayload)
}
