package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrLocalOnly is delivered on Result.Remote when a change was committed
	// locally but not sent anywhere: no endpoint is configured, or the
	// operation only exists locally.
	ErrLocalOnly = errors.New("change kept locally, not replicated")

	// ErrClosed is returned by a reconciliation pass whose results were
	// dropped because the Coordinator was closed while it ran.
	ErrClosed = errors.New("coordinator closed")
)

// MutationError is returned as Result.Local when a mutation is refused
// before anything was written.
type MutationError struct {
	// Code identifies the error category.
	Code MutationErrorCode

	// Op is the dispatcher operation, e.g. "update student".
	Op string

	// ID identifies the affected record when there is one.
	ID string

	// Err is the underlying cause, such as a *record.ValidationError.
	Err error
}

// MutationErrorCode categorizes refused mutations.
type MutationErrorCode string

const (
	// ErrCodeInvalid means the record failed validation.
	ErrCodeInvalid MutationErrorCode = "INVALID"

	// ErrCodeNotFound means no record has the given id.
	ErrCodeNotFound MutationErrorCode = "NOT_FOUND"

	// ErrCodeDuplicate means a record with the same identity exists.
	ErrCodeDuplicate MutationErrorCode = "DUPLICATE"
)

// Error implements the error interface.
func (e *MutationError) Error() string {
	switch {
	case e.ID != "" && e.Err != nil:
		return fmt.Sprintf("%s %s: %s: %v", e.Op, e.ID, e.Code, e.Err)
	case e.ID != "":
		return fmt.Sprintf("%s %s: %s", e.Op, e.ID, e.Code)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Code)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

func isCode(err error, code MutationErrorCode) bool {
	var me *MutationError
	if errors.As(err, &me) {
		return me.Code == code
	}
	return false
}

// IsInvalid reports whether err is a validation refusal.
// Uses errors.As to handle wrapped errors.
func IsInvalid(err error) bool { return isCode(err, ErrCodeInvalid) }

// IsNotFound reports whether err is a missing-record refusal.
func IsNotFound(err error) bool { return isCode(err, ErrCodeNotFound) }

// IsDuplicate reports whether err is a duplicate-identity refusal.
func IsDuplicate(err error) bool { return isCode(err, ErrCodeDuplicate) }

func invalid(op string, err error) *MutationError {
	return &MutationError{Code: ErrCodeInvalid, Op: op, Err: err}
}

func notFound(op, id string) *MutationError {
	return &MutationError{Code: ErrCodeNotFound, Op: op, ID: id}
}

func duplicate(op, id string) *MutationError {
	return &MutationError{Code: ErrCodeDuplicate, Op: op, ID: id}
}
