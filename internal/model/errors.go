package model

import (
	"errors"
	"fmt"
	"time"
)

// The error kinds the pipeline distinguishes form a closed set. Callers that
// convert failures into structured results use Kind to tag them.

// AuthenticationError indicates the backend rejected or could not resolve
// credentials. It is raised at first use of the backend, never at
// configuration time.
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

// TimeoutError indicates a model call exceeded its configured deadline.
type TimeoutError struct {
	Op      string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Op, e.Timeout)
}

// TransientError wraps a connection-level failure that may succeed on retry.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// ValidationError indicates a required input field is missing or malformed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input %q: %s", e.Field, e.Reason)
}

// ParseError indicates a model response could not be parsed into the expected
// structure. The raw response is preserved by the caller, not here.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Kind classifies an error into one of the known kinds, or "internal" for
// anything outside the closed set.
func Kind(err error) string {
	var (
		authErr    *AuthenticationError
		timeoutErr *TimeoutError
		transErr   *TransientError
		valErr     *ValidationError
		parseErr   *ParseError
	)
	switch {
	case errors.As(err, &authErr):
		return "authentication"
	case errors.As(err, &timeoutErr):
		return "timeout"
	case errors.As(err, &transErr):
		return "connection"
	case errors.As(err, &valErr):
		return "validation"
	case errors.As(err, &parseErr):
		return "parse"
	default:
		return "internal"
	}
}

// Retryable reports whether a failed call may be retried. Only timeouts and
// connection failures qualify; authentication and validation failures will not
// resolve themselves.
func Retryable(err error) bool {
	k := Kind(err)
	return k == "timeout" || k == "connection"
}
