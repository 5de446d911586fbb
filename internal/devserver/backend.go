package devserver

import (
	"errors"
	"fmt"
	"maps"
	"strings"
	"sync"
)

// Row is one stored record, kept in the endpoint's own field layout.
type Row = map[string]any

var (
	errUnknownAction = errors.New("unknown action")
	errNotFound      = errors.New("record not found")
	errBadPayload    = errors.New("payload must be an object or an array of objects")
)

// Backend is the in-memory table set behind the server. Each action family
// owns one table named after its prefix (students, attendance, parents,
// announcements, behavior, classes).
type Backend struct {
	mu      sync.Mutex
	tables  map[string][]Row
	rejects map[string]string
	calls   map[string]int
}

// NewBackend returns an empty backend.
func NewBackend() *Backend {
	return &Backend{
		tables:  make(map[string][]Row),
		rejects: make(map[string]string),
		calls:   make(map[string]int),
	}
}

// Seed replaces the rows of table.
func (b *Backend) Seed(table string, rows ...Row) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tables[table] = cloneRows(rows)
}

// Rows returns a copy of the rows of table.
func (b *Backend) Rows(table string) []Row {
	b.mu.Lock()
	defer b.mu.Unlock()
	return cloneRows(b.tables[table])
}

// Reject makes every later request for action fail with message. An empty
// message clears the rejection.
func (b *Backend) Reject(action, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if message == "" {
		delete(b.rejects, action)
		return
	}
	b.rejects[action] = message
}

// Calls returns how many requests named action were received.
func (b *Backend) Calls(action string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[action]
}

// Exec runs one action against the tables.
func (b *Backend) Exec(action string, payload any) (any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls[action]++
	if msg, ok := b.rejects[action]; ok {
		return nil, errors.New(msg)
	}

	table, verb, ok := strings.Cut(action, ".")
	if !ok || !knownTable(table) {
		return nil, fmt.Errorf("%w: %q", errUnknownAction, action)
	}

	switch verb {
	case "list":
		return cloneRows(b.tables[table]), nil
	case "create":
		rows, err := payloadRows(payload)
		if err != nil {
			return nil, err
		}
		b.tables[table] = append(b.tables[table], rows...)
		return len(rows), nil
	case "update":
		if table == "classes" {
			return b.updateSingleton(table, payload)
		}
		return b.update(table, payload)
	case "delete":
		return b.delete(table, payload)
	}
	return nil, fmt.Errorf("%w: %q", errUnknownAction, action)
}

func (b *Backend) update(table string, payload any) (any, error) {
	row, ok := payload.(map[string]any)
	if !ok {
		return nil, errBadPayload
	}
	id := fmt.Sprint(row["id"])
	for i, existing := range b.tables[table] {
		if fmt.Sprint(existing["id"]) == id {
			maps.Copy(existing, row)
			b.tables[table][i] = existing
			return id, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", errNotFound, id)
}

// updateSingleton overwrites the newest row, or adds the first one.
func (b *Backend) updateSingleton(table string, payload any) (any, error) {
	row, ok := payload.(map[string]any)
	if !ok {
		return nil, errBadPayload
	}
	rows := b.tables[table]
	if len(rows) == 0 {
		b.tables[table] = []Row{maps.Clone(row)}
		return 1, nil
	}
	maps.Copy(rows[len(rows)-1], row)
	return 1, nil
}

func (b *Backend) delete(table string, payload any) (any, error) {
	row, ok := payload.(map[string]any)
	if !ok {
		return nil, errBadPayload
	}
	id := fmt.Sprint(row["id"])
	rows := b.tables[table]
	for i, existing := range rows {
		if fmt.Sprint(existing["id"]) == id {
			b.tables[table] = append(rows[:i:i], rows[i+1:]...)
			return id, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", errNotFound, id)
}

func knownTable(name string) bool {
	switch name {
	case "students", "attendance", "parents", "announcements", "behavior", "classes":
		return true
	}
	return false
}

func payloadRows(payload any) ([]Row, error) {
	switch p := payload.(type) {
	case map[string]any:
		return []Row{maps.Clone(p)}, nil
	case []any:
		rows := make([]Row, 0, len(p))
		for _, item := range p {
			row, ok := item.(map[string]any)
			if !ok {
				return nil, errBadPayload
			}
			rows = append(rows, maps.Clone(row))
		}
		return rows, nil
	}
	return nil, errBadPayload
}

func cloneRows(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, maps.Clone(r))
	}
	return out
}
