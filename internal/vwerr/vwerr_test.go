// ABOUTME: Tests for error taxonomy classification and unwrapping.
// ABOUTME: Verifies CategoryOf mapping and that wrapped errors still match.

package vwerr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Category
	}{
		{
			name: "auth error",
			err:  &AuthError{Msg: "invalid email or password"},
			want: CategoryAuth,
		},
		{
			name: "not found",
			err:  &NotFoundError{Path: "/api/projects/42"},
			want: CategoryNotFound,
		},
		{
			name: "validation",
			err:  &ValidationError{Status: 422, Msg: "missing field"},
			want: CategoryInvalidInput,
		},
		{
			name: "remote",
			err:  &RemoteError{Status: 503, Attempts: 3},
			want: CategoryRemote,
		},
		{
			name: "timeout",
			err:  &TimeoutError{Op: "GET /api/projects", Err: context.DeadlineExceeded},
			want: CategoryTimeout,
		},
		{
			name: "unavailable",
			err:  &UnavailableError{Endpoint: "/api/users/login", Err: errors.New("connection refused")},
			want: CategoryUnavailable,
		},
		{
			name: "unknown error defaults to remote",
			err:  errors.New("something else"),
			want: CategoryRemote,
		},
		{
			name: "wrapped auth error",
			err:  fmt.Errorf("calling tool: %w", &AuthError{Msg: "session revoked"}),
			want: CategoryAuth,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CategoryOf(tt.err); got != tt.want {
				t.Errorf("CategoryOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsHelpers(t *testing.T) {
	authErr := fmt.Errorf("wrapped: %w", &AuthError{Msg: "nope"})
	if !IsAuth(authErr) {
		t.Error("IsAuth() should match wrapped AuthError")
	}
	if IsAuth(errors.New("plain")) {
		t.Error("IsAuth() should not match plain error")
	}

	if !IsNotFound(&NotFoundError{Path: "/x"}) {
		t.Error("IsNotFound() should match NotFoundError")
	}

	timeoutErr := &TimeoutError{Op: "request", Err: context.DeadlineExceeded}
	if !IsTimeout(timeoutErr) {
		t.Error("IsTimeout() should match TimeoutError")
	}
	if !errors.Is(timeoutErr, context.DeadlineExceeded) {
		t.Error("TimeoutError should unwrap to context.DeadlineExceeded")
	}
}

func TestMessagesCarryNoSecrets(t *testing.T) {
	// The constructors only accept status codes, paths, and operation names.
	// Spot-check that typical messages stay descriptive without token text.
	errs := []error{
		&AuthError{Msg: "invalid email or password"},
		&RemoteError{Status: 500, Attempts: 1, Err: errors.New("internal")},
		&UnavailableError{Endpoint: "/api/users/login", Err: errors.New("dial tcp: refused")},
	}
	for _, err := range errs {
		if strings.Contains(err.Error(), "Bearer") {
			t.Errorf("error message leaks header material: %s", err.Error())
		}
	}
}
