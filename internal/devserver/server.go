// Package devserver is a local stand-in for the remote record store. It
// speaks the same action envelope as the deployed endpoint and keeps every
// table in memory, which makes it usable both from `classbook serve` and
// from client tests.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Banner is the plain-text answer to GET, matching the deployed endpoint.
const Banner = "Class Records API is running"

// Options configures a Server.
type Options struct {
	Address string
	Backend *Backend
	Logger  *slog.Logger
}

// Server serves the action envelope over HTTP.
type Server struct {
	opts Options
	app  *echo.Echo
}

var _ http.Handler = (*Server)(nil)

type request struct {
	Action  string `json:"action"`
	Payload any    `json:"payload"`
}

type response struct {
	OK    bool   `json:"ok"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// New builds a server. A nil Backend gets an empty one.
func New(opts Options) *Server {
	if opts.Backend == nil {
		opts.Backend = NewBackend()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{opts: opts, app: echo.New()}
	s.setup()
	return s
}

func (s *Server) setup() {
	s.app.HideBanner = true
	s.app.HidePort = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.Recover())

	s.app.GET("/", s.banner)
	s.app.GET("/exec", s.banner)
	s.app.POST("/", s.exec)
	s.app.POST("/exec", s.exec)
}

// Backend returns the tables the server operates on.
func (s *Server) Backend() *Backend {
	return s.opts.Backend
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		errc <- s.app.Start(s.opts.Address)
	}()
	s.opts.Logger.Info("devserver listening", "addr", s.opts.Address)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		return s.Stop(context.WithoutCancel(ctx))
	}
}

// Stop shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

// ServeHTTP makes the server usable with httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.app.ServeHTTP(w, r)
}

func (s *Server) banner(c echo.Context) error {
	return c.String(http.StatusOK, Banner)
}

// exec decodes the body itself: clients send JSON as text/plain, which
// echo's binder would reject.
func (s *Server) exec(c echo.Context) error {
	var req request
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return c.JSON(http.StatusOK, response{OK: false, Error: "invalid request body"})
	}
	data, err := s.opts.Backend.Exec(req.Action, req.Payload)
	if err != nil {
		s.opts.Logger.Debug("action rejected", "action", req.Action, "error", err)
		return c.JSON(http.StatusOK, response{OK: false, Error: err.Error()})
	}
	return c.JSON(http.StatusOK, response{OK: true, Data: data})
}
