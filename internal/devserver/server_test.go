package devserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(t *testing.T, s *Server, path, body string) response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestServer_GETServesBanner(t *testing.T) {
	s := New(Options{})
	for _, path := range []string{"/", "/exec"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, Banner, rec.Body.String(), path)
	}
}

func TestServer_CreateListDelete(t *testing.T) {
	s := New(Options{})

	resp := post(t, s, "/exec", `{"action":"students.create","payload":{"id":"HS1","fullName":"A"}}`)
	require.True(t, resp.OK, resp.Error)

	resp = post(t, s, "/", `{"action":"students.list","payload":{}}`)
	require.True(t, resp.OK)
	rows, ok := resp.Data.([]any)
	require.True(t, ok)
	require.Len(t, rows, 1)
	assert.Equal(t, "HS1", rows[0].(map[string]any)["id"])

	resp = post(t, s, "/", `{"action":"students.delete","payload":{"id":"HS1"}}`)
	require.True(t, resp.OK)
	assert.Empty(t, s.Backend().Rows("students"))
}

func TestServer_EmptyListIsArray(t *testing.T) {
	s := New(Options{})
	resp := post(t, s, "/", `{"action":"behavior.list"}`)
	require.True(t, resp.OK)
	assert.Equal(t, []any{}, resp.Data)
}

func TestServer_RejectsUnknownAndBadBodies(t *testing.T) {
	s := New(Options{})

	resp := post(t, s, "/", `{"action":"grades.list"}`)
	assert.False(t, resp.OK)
	assert.Contains(t, resp.Error, "unknown action")

	resp = post(t, s, "/", `not json`)
	assert.False(t, resp.OK)
	assert.Equal(t, "invalid request body", resp.Error)
}

func TestServer_InjectedRejection(t *testing.T) {
	s := New(Options{})
	s.Backend().Reject("parents.list", "quota exceeded")

	resp := post(t, s, "/", `{"action":"parents.list"}`)
	assert.False(t, resp.OK)
	assert.Equal(t, "quota exceeded", resp.Error)
	assert.Equal(t, 1, s.Backend().Calls("parents.list"))

	s.Backend().Reject("parents.list", "")
	resp = post(t, s, "/", `{"action":"parents.list"}`)
	assert.True(t, resp.OK)
}
