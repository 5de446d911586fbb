package engine

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/roach88/classbook/internal/account"
	"github.com/roach88/classbook/internal/record"
)

func TestMergeReplace(t *testing.T) {
	local := []string{"a", "b"}

	assert.Equal(t, []string{"x"}, MergeReplace(local, []string{"x"}, true))
	assert.Equal(t, local, MergeReplace(local, []string{}, true), "empty read keeps local")
	assert.Equal(t, local, MergeReplace(local, nil, false), "failed read keeps local")
	assert.Equal(t, local, MergeReplace(local, []string{"x"}, false))
}

func TestMergeAccounts_RemoteOverlaysByKey(t *testing.T) {
	remote := []record.Account{
		{Username: "Admin", FullName: "Updated Name"},
		{ID: "p1", Username: "p1", Password: "x", FullName: "Parent One", Role: record.RoleParent},
	}

	got := MergeAccounts(account.Defaults(), remote, true)

	defaults := account.Defaults()
	admin := defaults[0]
	admin.FullName = "Updated Name"
	want := []record.Account{
		admin,
		defaults[1],
		{ID: "p1", Username: "p1", Password: "x", FullName: "Parent One", Role: record.RoleParent},
		defaults[2],
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MergeAccounts() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, record.RoleHomeroom, got[0].Role)
}

func TestMergeAccounts_FailedReadKeepsLocalParents(t *testing.T) {
	local := append(account.Defaults(), record.Account{
		ID: "p9", Username: "ph_lan", Password: "1", Role: record.RoleParent,
	})

	got := MergeAccounts(local, []record.Account{{Username: "ignored"}}, false)

	if diff := cmp.Diff(local, got); diff != "" {
		t.Errorf("MergeAccounts() mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeAccounts_RestoresDefaults(t *testing.T) {
	got := MergeAccounts([]record.Account{}, nil, false)
	assert.Equal(t, account.Defaults(), got)
}

func TestMergeAccounts_Deterministic(t *testing.T) {
	remote := []record.Account{
		{ID: "r1", Username: " Teacher_2 ", Role: record.RoleSubject},
		{ID: "r2", Username: "teacher_2", FullName: "Second"},
	}
	first := MergeAccounts(account.Defaults(), remote, true)
	second := MergeAccounts(account.Defaults(), remote, true)
	assert.Equal(t, first, second)
	assert.Equal(t, first, MergeAccounts(first, nil, false), "merging the result again changes nothing")
}

func TestMergeClassConfig(t *testing.T) {
	local := record.ClassConfig{ClassName: "9A1", TeacherName: "Kiên", SchoolYear: "2023-2024"}

	assert.Equal(t, local, MergeClassConfig(local, record.ClassConfig{ClassName: "9A2"}, false))

	got := MergeClassConfig(local, record.ClassConfig{ClassName: "9A2", SchoolYear: "2024-2025"}, true)
	assert.Equal(t, "9A2", got.ClassName)
	assert.Equal(t, "Kiên", got.TeacherName)
	assert.Equal(t, "2024-2025", got.SchoolYear)
}
