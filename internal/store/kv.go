package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/roach88/classbook/internal/record"
)

// Entry describes one stored row without its value.
type Entry struct {
	Key       string    `json:"key"`
	Revision  int64     `json:"revision"`
	Size      int       `json:"size"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Get reads key and decodes it into a T, substituting def when the entry is
// missing, null, blank, not valid JSON, or an empty array while def is a
// non-empty slice. Only database failures are returned as errors.
func Get[T any](ctx context.Context, s *Store, key string, def T) (T, error) {
	raw, ok, err := s.getRaw(ctx, key)
	if err != nil {
		return def, fmt.Errorf("get %s: %w", key, err)
	}
	if !ok {
		return def, nil
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return def, nil
	}

	var v T
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		s.logger.Warn("unreadable local entry, using default",
			"key", key,
			"error", err)
		return def, nil
	}
	if emptyOverNonEmpty(v, def) {
		return def, nil
	}
	if isNil(v) {
		return def, nil
	}
	return v, nil
}

// Set stores v under key. Writing a value whose digest matches the stored
// one is a no-op and does not bump the revision.
func Set[T any](ctx context.Context, s *Store, key string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("set %s: marshal: %w", key, err)
	}
	digest, err := record.Digest(v)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	if err := s.setRaw(ctx, key, string(data), digest); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Has reports whether key has a row.
func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	_, ok, err := s.getRaw(ctx, key)
	return ok, err
}

// Revision returns the write counter of key, or 0 when it is missing.
func (s *Store) Revision(ctx context.Context, key string) (int64, error) {
	var rev int64
	err := s.db.QueryRowContext(ctx, `SELECT revision FROM entries WHERE key = ?`, key).Scan(&rev)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("revision %s: %w", key, err)
	}
	return rev, nil
}

// Digest returns the stored digest of key, or "" when it is missing.
func (s *Store) Digest(ctx context.Context, key string) (string, error) {
	var digest string
	err := s.db.QueryRowContext(ctx, `SELECT digest FROM entries WHERE key = ?`, key).Scan(&digest)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("digest %s: %w", key, err)
	}
	return digest, nil
}

// Entries lists every stored key ordered by key.
func (s *Store) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, revision, length(value), updated_at
		FROM entries
		ORDER BY key ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var updated string
		if err := rows.Scan(&e.Key, &e.Revision, &e.Size, &updated); err != nil {
			return nil, fmt.Errorf("list entries: scan: %w", err)
		}
		e.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return out, nil
}

func (s *Store) getRaw(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM entries WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// setRaw upserts a row. The WHERE clause on the update arm leaves the row
// untouched when the digest is unchanged.
func (s *Store) setRaw(ctx context.Context, key, value, digest string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entries (key, value, digest, revision, updated_at)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			digest = excluded.digest,
			revision = entries.revision + 1,
			updated_at = excluded.updated_at
		WHERE entries.digest != excluded.digest
	`, key, value, digest, s.now().UTC().Format(time.RFC3339Nano))
	return err
}

// emptyOverNonEmpty reports whether v is an empty slice while def is a
// non-empty one.
func emptyOverNonEmpty(v, def any) bool {
	rv, rd := reflect.ValueOf(v), reflect.ValueOf(def)
	if rv.Kind() != reflect.Slice || rd.Kind() != reflect.Slice {
		return false
	}
	return rv.Len() == 0 && rd.Len() > 0
}

func isNil(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	case reflect.Invalid:
		return true
	}
	return false
}
