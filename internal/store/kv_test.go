package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/classbook/internal/record"
)

func writeRaw(t *testing.T, s *Store, key, value string) {
	t.Helper()
	require.NoError(t, s.setRaw(context.Background(), key, value, "raw-"+value))
}

func TestGet_MissingReturnsDefault(t *testing.T) {
	s := createTestStore(t)
	got, err := Get(context.Background(), s, "nope", []string{"d"})
	require.NoError(t, err)
	assert.Equal(t, []string{"d"}, got)
}

func TestGet_NullAndBlankReturnDefault(t *testing.T) {
	s := createTestStore(t)
	for _, raw := range []string{"null", "", "   "} {
		writeRaw(t, s, "k", raw)
		got, err := Get(context.Background(), s, "k", "fallback")
		require.NoError(t, err)
		assert.Equal(t, "fallback", got, "raw %q", raw)
	}
}

func TestGet_InvalidJSONReturnsDefault(t *testing.T) {
	s := createTestStore(t)
	writeRaw(t, s, "k", "{not json")
	got, err := Get(context.Background(), s, "k", []int{1})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, got)
}

func TestGet_EmptyArrayYieldsNonEmptyDefault(t *testing.T) {
	s := createTestStore(t)
	writeRaw(t, s, "k", "[]")

	got, err := Get(context.Background(), s, "k", []string{"admin"})
	require.NoError(t, err)
	assert.Equal(t, []string{"admin"}, got)

	empty, err := Get(context.Background(), s, "k", []string{})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSetGet_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	in := []record.Review{{ID: "r1", StudentID: "HS1", Type: record.ReviewWeekly, Content: "Tốt"}}

	require.NoError(t, Set(ctx, s, "reviews", in))
	got, err := Get(ctx, s, "reviews", []record.Review{})
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestSet_UnchangedValueKeepsRevision(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, Set(ctx, s, "note", "hello"))
	rev, err := s.Revision(ctx, "note")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rev)

	require.NoError(t, Set(ctx, s, "note", "hello"))
	rev, err = s.Revision(ctx, "note")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rev)

	require.NoError(t, Set(ctx, s, "note", "changed"))
	rev, err = s.Revision(ctx, "note")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rev)
}

func TestDelete_MissingKey(t *testing.T) {
	s := createTestStore(t)
	require.NoError(t, s.Delete(context.Background(), "ghost"))
}

func TestEntries_SortedByKey(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, Set(ctx, s, "b", 1))
	require.NoError(t, Set(ctx, s, "a", 2))

	entries, err := s.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Key)
	assert.Equal(t, "b", entries[1].Key)
	assert.False(t, entries[0].UpdatedAt.IsZero())
}

func TestDigest_TracksValue(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	digest, err := s.Digest(ctx, "note")
	require.NoError(t, err)
	assert.Empty(t, digest)

	require.NoError(t, Set(ctx, s, "note", "hello"))
	want, err := record.Digest("hello")
	require.NoError(t, err)
	digest, err = s.Digest(ctx, "note")
	require.NoError(t, err)
	assert.Equal(t, want, digest)
}
