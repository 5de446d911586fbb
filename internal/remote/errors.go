package remote

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned when no usable endpoint is set. It marks
// local-only mode and is never logged as a failure.
var ErrNotConfigured = errors.New("remote endpoint not configured")

// Kind classifies a failed call.
type Kind string

const (
	// KindUnreachable is a transport failure: DNS, refused connection,
	// reset, or a gateway error page. Usually transient.
	KindUnreachable Kind = "UNREACHABLE"

	// KindMisconfigured means the endpoint answered with something other
	// than the JSON envelope, typically an HTML page or the deployment's
	// plain-text banner. The URL or the deployment is wrong.
	KindMisconfigured Kind = "MISCONFIGURED"

	// KindRejected is an envelope with ok=false.
	KindRejected Kind = "REJECTED"
)

// CallError describes a failed remote action.
type CallError struct {
	Kind    Kind
	Action  string
	Message string
	Err     error
}

func (e *CallError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s [%s]: %s: %v", e.Action, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Action, e.Kind, e.Message)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

func kindOf(err error) Kind {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// IsUnreachable reports whether err is a transport failure.
func IsUnreachable(err error) bool { return kindOf(err) == KindUnreachable }

// IsMisconfigured reports whether err means the endpoint is not a working
// deployment.
func IsMisconfigured(err error) bool { return kindOf(err) == KindMisconfigured }

// IsRejected reports whether the endpoint answered ok=false.
func IsRejected(err error) bool { return kindOf(err) == KindRejected }

// UserMessage turns a call error into a message a user can act on. It
// separates a wrong URL or deployment from a transient network problem.
func UserMessage(err error) string {
	var ce *CallError
	switch {
	case err == nil:
		return "Endpoint is reachable."
	case errors.Is(err, ErrNotConfigured):
		return "No endpoint configured; running in local-only mode."
	case !errors.As(err, &ce):
		return err.Error()
	}
	switch ce.Kind {
	case KindMisconfigured:
		return "The endpoint URL or deployment is wrong: " + ce.Message +
			". Check that the URL is the deployed /exec address and that the deployment allows access by anyone."
	case KindUnreachable:
		return "Could not reach the endpoint (network error). Check the connection and try again."
	case KindRejected:
		return "The endpoint rejected the request: " + ce.Message
	}
	return ce.Error()
}
