package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capture is a handler that records request bodies and answers with a
// fixed status and body.
type capture struct {
	mu          sync.Mutex
	bodies      [][]byte
	contentType string
	status      int
	reply       string
}

func (c *capture) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	c.mu.Lock()
	c.bodies = append(c.bodies, body)
	c.contentType = r.Header.Get("Content-Type")
	c.mu.Unlock()

	status := c.status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, c.reply)
}

func (c *capture) requests(t *testing.T) []request {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]request, 0, len(c.bodies))
	for _, b := range c.bodies {
		var req request
		require.NoError(t, json.Unmarshal(b, &req))
		out = append(out, req)
	}
	return out
}

func newCaptureClient(t *testing.T, h *capture) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(StaticEndpoint(srv.URL))
}

func TestClient_NotConfigured(t *testing.T) {
	ctx := context.Background()
	for _, url := range []string{"", "  ", "undefined", "null"} {
		c := NewClient(StaticEndpoint(url))

		assert.False(t, c.Configured(ctx), "url %q", url)
		_, err := c.Do(ctx, ActionStudentsList, nil)
		assert.ErrorIs(t, err, ErrNotConfigured, "url %q", url)
		assert.Nil(t, c.Call(ctx, ActionStudentsList, nil), "url %q", url)
	}

	assert.False(t, NewClient(nil).Configured(ctx))
}

func TestClient_DoReturnsData(t *testing.T) {
	h := &capture{reply: `{"ok":true,"data":[{"id":"HS1"}]}`}
	c := newCaptureClient(t, h)

	data, err := c.Do(context.Background(), ActionStudentsList, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"HS1"}]`, string(data))

	reqs := h.requests(t)
	require.Len(t, reqs, 1)
	assert.Equal(t, ActionStudentsList, reqs[0].Action)
	assert.Equal(t, map[string]any{}, reqs[0].Payload)
	assert.Equal(t, "text/plain;charset=utf-8", h.contentType)
}

func TestClient_Rejected(t *testing.T) {
	h := &capture{reply: `{"ok":false,"error":"sheet locked"}`}
	c := newCaptureClient(t, h)

	_, err := c.Do(context.Background(), ActionStudentsCreate, map[string]any{"id": "HS1"})
	require.Error(t, err)
	assert.True(t, IsRejected(err))

	var ce *CallError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "sheet locked", ce.Message)
	assert.Equal(t, ActionStudentsCreate, ce.Action)
	assert.Contains(t, UserMessage(err), "sheet locked")
}

func TestClient_ClassifiesBodies(t *testing.T) {
	tests := []struct {
		name   string
		status int
		reply  string
		want   Kind
	}{
		{"banner", http.StatusOK, "Class Records API is running", KindMisconfigured},
		{"login page", http.StatusOK, "<!DOCTYPE html><html><body>Sign in</body></html>", KindMisconfigured},
		{"not found page", http.StatusNotFound, "<html>404</html>", KindMisconfigured},
		{"gateway page", http.StatusBadGateway, "<!doctype html><title>502</title>", KindUnreachable},
		{"plain 503", http.StatusServiceUnavailable, "try later", KindUnreachable},
		{"garbage", http.StatusOK, "{not json", KindMisconfigured},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCaptureClient(t, &capture{status: tt.status, reply: tt.reply})

			_, err := c.Do(context.Background(), ActionClassesList, nil)
			require.Error(t, err)
			assert.Equal(t, tt.want, kindOf(err))
		})
	}
}

func TestClient_UnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(StaticEndpoint(url))
	_, err := c.Do(context.Background(), ActionStudentsList, nil)
	require.Error(t, err)
	assert.True(t, IsUnreachable(err))
	assert.Contains(t, UserMessage(err), "network error")
}

func TestClient_CallSwallowsFailures(t *testing.T) {
	c := newCaptureClient(t, &capture{reply: "<html>oops</html>"})
	assert.Nil(t, c.Call(context.Background(), ActionStudentsList, nil))

	c = newCaptureClient(t, &capture{reply: `{"ok":false,"error":"denied"}`})
	assert.Nil(t, c.Call(context.Background(), ActionStudentsList, nil))
}

func TestClient_ReadsEndpointOnEveryCall(t *testing.T) {
	first := &capture{reply: `{"ok":true,"data":1}`}
	second := &capture{reply: `{"ok":true,"data":2}`}
	srv1 := httptest.NewServer(first)
	defer srv1.Close()
	srv2 := httptest.NewServer(second)
	defer srv2.Close()

	src := &switchable{url: srv1.URL}
	c := NewClient(src)

	data, err := c.Do(context.Background(), ActionClassesList, nil)
	require.NoError(t, err)
	assert.Equal(t, "1", string(data))

	src.set(srv2.URL)
	data, err = c.Do(context.Background(), ActionClassesList, nil)
	require.NoError(t, err)
	assert.Equal(t, "2", string(data))
}

type switchable struct {
	mu  sync.Mutex
	url string
}

func (s *switchable) Endpoint(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url, nil
}

func (s *switchable) set(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.url = url
}

func TestClient_Probe(t *testing.T) {
	c := NewClient(StaticEndpoint(""))

	assert.ErrorIs(t, c.Probe(context.Background(), ""), ErrNotConfigured)

	h := &capture{reply: `{"ok":true,"data":[]}`}
	srv := httptest.NewServer(h)
	defer srv.Close()
	require.NoError(t, c.Probe(context.Background(), srv.URL))
	reqs := h.requests(t)
	require.Len(t, reqs, 1)
	assert.Equal(t, ActionClassesList, reqs[0].Action)

	banner := httptest.NewServer(&capture{reply: "Class Records API is running"})
	defer banner.Close()
	err := c.Probe(context.Background(), banner.URL)
	assert.True(t, IsMisconfigured(err))
	assert.Contains(t, UserMessage(err), "URL or deployment is wrong")
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "Endpoint is reachable.", UserMessage(nil))
	assert.Contains(t, UserMessage(ErrNotConfigured), "local-only")
	assert.Equal(t, "boom", UserMessage(errors.New("boom")))
}
