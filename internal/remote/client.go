package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// BannerMarker is the fragment of the plain-text banner a deployment serves
// on GET. Receiving it in answer to a POST means the URL points at the
// deployment but requests are not reaching the handler.
const BannerMarker = "API is running"

// EndpointSource yields the current endpoint URL. The store implements it,
// so a URL changed in settings takes effect on the next call.
type EndpointSource interface {
	Endpoint(ctx context.Context) (string, error)
}

// StaticEndpoint is a fixed endpoint URL.
type StaticEndpoint string

// Endpoint implements EndpointSource.
func (s StaticEndpoint) Endpoint(context.Context) (string, error) {
	return string(s), nil
}

// Caller is the contract the engine depends on. *Client implements it.
type Caller interface {
	Configured(ctx context.Context) bool
	Call(ctx context.Context, action string, payload any) json.RawMessage
	Do(ctx context.Context, action string, payload any) (json.RawMessage, error)
}

// Client talks to the remote endpoint.
type Client struct {
	endpoint EndpointSource
	http     *http.Client
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. The default has no timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger for soft failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a client reading its URL from endpoint.
func NewClient(endpoint EndpointSource, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// usable reports whether url can be called at all. Values leaked from
// unset settings ("undefined", "null") count as unset.
func usable(url string) bool {
	switch strings.TrimSpace(url) {
	case "", "undefined", "null":
		return false
	}
	return true
}

func (c *Client) resolve(ctx context.Context) (string, error) {
	if c.endpoint == nil {
		return "", ErrNotConfigured
	}
	url, err := c.endpoint.Endpoint(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve endpoint: %w", err)
	}
	if !usable(url) {
		return "", ErrNotConfigured
	}
	return strings.TrimSpace(url), nil
}

// Configured reports whether an endpoint is set. Without one every call
// returns immediately and the program runs in local-only mode.
func (c *Client) Configured(ctx context.Context) bool {
	_, err := c.resolve(ctx)
	return err == nil
}

// Do performs action and returns the envelope's data, or a classified
// error. It never retries.
func (c *Client) Do(ctx context.Context, action string, payload any) (json.RawMessage, error) {
	url, err := c.resolve(ctx)
	if err != nil {
		return nil, err
	}
	return c.post(ctx, url, action, payload)
}

// Call performs action on the read path: any failure is logged and yields
// nil. A missing endpoint yields nil without logging.
func (c *Client) Call(ctx context.Context, action string, payload any) json.RawMessage {
	data, err := c.Do(ctx, action, payload)
	if err != nil {
		if !errors.Is(err, ErrNotConfigured) {
			c.logger.Warn("remote call failed, using local data",
				"action", action,
				"kind", string(kindOf(err)),
				"error", err)
		}
		return nil
	}
	return data
}

// Probe checks a candidate endpoint URL before it is saved, by listing the
// class configuration. The returned error is meant for the user; see
// UserMessage.
func (c *Client) Probe(ctx context.Context, url string) error {
	if !usable(url) {
		return ErrNotConfigured
	}
	_, err := c.post(ctx, strings.TrimSpace(url), ActionClassesList, nil)
	return err
}

type request struct {
	Action  string `json:"action"`
	Payload any    `json:"payload"`
}

type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

func (c *Client) post(ctx context.Context, url, action string, payload any) (json.RawMessage, error) {
	if payload == nil {
		payload = struct{}{}
	}
	body, err := json.Marshal(request{Action: action, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("%s: marshal payload: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &CallError{Kind: KindMisconfigured, Action: action, Message: "invalid endpoint URL", Err: err}
	}
	// text/plain keeps the request "simple" so script hosts skip the CORS
	// preflight they cannot answer.
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &CallError{Kind: KindUnreachable, Action: action, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &CallError{Kind: KindUnreachable, Action: action, Message: "reading response failed", Err: err}
	}

	var env envelope
	if err := json.Unmarshal(text, &env); err != nil {
		return nil, classifyBody(action, resp.StatusCode, string(text), err)
	}
	if !env.OK {
		msg := env.Error
		if msg == "" {
			msg = "request rejected"
		}
		return nil, &CallError{Kind: KindRejected, Action: action, Message: msg}
	}
	return env.Data, nil
}

// classifyBody explains a response that is not the JSON envelope.
func classifyBody(action string, status int, text string, err error) *CallError {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(text, BannerMarker):
		return &CallError{Kind: KindMisconfigured, Action: action,
			Message: "endpoint answered with its banner instead of JSON (deployment access or URL is wrong)"}
	case strings.Contains(lower, "<!doctype html") || strings.Contains(lower, "<html"):
		if status >= http.StatusInternalServerError {
			return &CallError{Kind: KindUnreachable, Action: action,
				Message: fmt.Sprintf("gateway error page (HTTP %d)", status)}
		}
		return &CallError{Kind: KindMisconfigured, Action: action,
			Message: fmt.Sprintf("endpoint answered with an HTML page (HTTP %d)", status)}
	case status >= http.StatusInternalServerError:
		return &CallError{Kind: KindUnreachable, Action: action,
			Message: fmt.Sprintf("server error (HTTP %d)", status), Err: err}
	}
	return &CallError{Kind: KindMisconfigured, Action: action, Message: "response is not valid JSON", Err: err}
}
