// ABOUTME: Typed error taxonomy shared by the session manager, access layer, and tools.
// ABOUTME: Each category maps to a distinct agent-facing failure; messages never carry credentials.

package vwerr

import (
	"errors"
	"fmt"
)

// Category identifies the class of a failure. The tool dispatch layer uses
// it to pick the agent-facing failure representation.
type Category string

const (
	CategoryAuth         Category = "auth"
	CategoryNotFound     Category = "not-found"
	CategoryInvalidInput Category = "invalid-input"
	CategoryRemote       Category = "remote"
	CategoryTimeout      Category = "timeout"
	CategoryUnavailable  Category = "unavailable"
)

// AuthError indicates invalid credentials, or that reauthentication itself
// failed after the single authorization retry. Never retried further.
type AuthError struct {
	Msg string
	Err error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Msg, e.Err)
	}
	return "authentication failed: " + e.Msg
}

func (e *AuthError) Unwrap() error { return e.Err }

// NotFoundError indicates the remote resource does not exist (HTTP 404).
// Never retried and never triggers reauthentication.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return "resource not found: " + e.Path
}

// ValidationError indicates a rejected request shape: either the remote API
// returned a 4xx other than 401/403/404, or a tool handler rejected its
// arguments locally (Status 0) before any network call. Never retried.
type ValidationError struct {
	Status int
	Msg    string
}

func (e *ValidationError) Error() string {
	if e.Status == 0 {
		return "invalid argument: " + e.Msg
	}
	return fmt.Sprintf("remote rejected request (HTTP %d): %s", e.Status, e.Msg)
}

// RemoteError indicates a server-side failure surfaced to the caller:
// either a non-idempotent call that failed with a 5xx (no retry), or an
// idempotent call whose retries are exhausted. Carries the last status
// and cause observed.
type RemoteError struct {
	Status   int // 0 when the failure was network-level
	Attempts int
	Err      error
}

func (e *RemoteError) Error() string {
	switch {
	case e.Status > 0 && e.Err != nil:
		return fmt.Sprintf("remote error (HTTP %d after %d attempt(s)): %v", e.Status, e.Attempts, e.Err)
	case e.Status > 0:
		return fmt.Sprintf("remote error (HTTP %d after %d attempt(s))", e.Status, e.Attempts)
	default:
		return fmt.Sprintf("remote error after %d attempt(s): %v", e.Attempts, e.Err)
	}
}

func (e *RemoteError) Unwrap() error { return e.Err }

// TimeoutError indicates the overall call deadline elapsed, including any
// retries and backoff waits that were still pending.
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("deadline exceeded during %s", e.Op)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// UnavailableError indicates the identity/authentication endpoint could not
// be reached at all.
type UnavailableError struct {
	Endpoint string
	Err      error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("endpoint unavailable: %s: %v", e.Endpoint, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// CategoryOf classifies err into one of the taxonomy categories.
// Errors outside the taxonomy default to CategoryRemote.
func CategoryOf(err error) Category {
	var (
		authErr        *AuthError
		notFoundErr    *NotFoundError
		validationErr  *ValidationError
		timeoutErr     *TimeoutError
		unavailableErr *UnavailableError
	)
	switch {
	case errors.As(err, &authErr):
		return CategoryAuth
	case errors.As(err, &notFoundErr):
		return CategoryNotFound
	case errors.As(err, &validationErr):
		return CategoryInvalidInput
	case errors.As(err, &timeoutErr):
		return CategoryTimeout
	case errors.As(err, &unavailableErr):
		return CategoryUnavailable
	default:
		return CategoryRemote
	}
}

// IsAuth reports whether err is an AuthError.
func IsAuth(err error) bool {
	var target *AuthError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsTimeout reports whether err is a TimeoutError.
func IsTimeout(err error) bool {
	var target *TimeoutError
	return errors.As(err, &target)
}
