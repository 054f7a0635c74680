// ABOUTME: Tests for the access layer: retry/backoff, reauth-on-401, error taxonomy.
// ABOUTME: Uses httptest backends and a fake session manager with call counters.

package client

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/verifywise-oss/verifywise-mcp/internal/session"
	"github.com/verifywise-oss/verifywise-mcp/internal/vwerr"
)

// fakeSessions implements Sessions with counters instead of real exchanges.
type fakeSessions struct {
	credentialCalls atomic.Int64
	invalidations   atomic.Int64
	token           atomic.Value // string
	err             error
}

func newFakeSessions(token string) *fakeSessions {
	f := &fakeSessions{}
	f.token.Store(token)
	return f
}

func (f *fakeSessions) ValidCredential(_ context.Context) (session.Credential, error) {
	f.credentialCalls.Add(1)
	if f.err != nil {
		return session.Credential{}, f.err
	}
	return session.Credential{
		AccessToken: f.token.Load().(string),
		ExpiresAt:   time.Now().Add(15 * time.Minute),
	}, nil
}

func (f *fakeSessions) Invalidate() {
	f.invalidations.Add(1)
	f.token.Store("token-after-reauth")
}

func newTestClient(t *testing.T, handler http.Handler, mutate func(*Config)) (*Client, *fakeSessions) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	sessions := newFakeSessions("token-1")
	cfg := Config{
		BaseURL:        srv.URL,
		Sessions:       sessions,
		Timeout:        5 * time.Second,
		MaxAttempts:    3,
		RetryBaseDelay: 10 * time.Millisecond,
		RetryMaxDelay:  100 * time.Millisecond,
		Logger:         slog.New(slog.DiscardHandler),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	c, err := New(cfg)
	require.NoError(t, err)
	return c, sessions
}

func TestRequest_Success(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]string{"hello": "world"})
	})

	c, sessions := newTestClient(t, handler, nil)

	resp, err := c.Get(context.Background(), "/api/projects")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, resp.Decode(&body))
	require.Equal(t, "world", body["hello"])
	require.Equal(t, int64(1), sessions.credentialCalls.Load())
	require.Equal(t, int64(0), sessions.invalidations.Load())
}

func TestRequest_GETRetriesServerErrorsWithBackoff(t *testing.T) {
	var calls atomic.Int64
	var gaps []time.Duration
	var last atomic.Value // time.Time

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		now := time.Now()
		if prev, ok := last.Load().(time.Time); ok {
			gaps = append(gaps, now.Sub(prev))
		}
		last.Store(now)

		if calls.Add(1) <= 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	})

	base := 20 * time.Millisecond
	c, _ := newTestClient(t, handler, func(cfg *Config) {
		cfg.MaxAttempts = 5
		cfg.RetryBaseDelay = base
		cfg.RetryMaxDelay = time.Second
	})

	resp, err := c.Get(context.Background(), "/api/projects")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, int64(4), calls.Load(), "3 failures then success")

	// Exactly 3 delays following the schedule base * 2^(k-2): base, 2base, 4base.
	require.Len(t, gaps, 3)
	for i, want := range []time.Duration{base, 2 * base, 4 * base} {
		require.GreaterOrEqual(t, gaps[i], want, "gap %d too short", i)
		require.Less(t, gaps[i], want+15*base/10, "gap %d too long", i)
	}
}

func TestRequest_ExhaustedRetriesSurfaceRemoteError(t *testing.T) {
	var calls atomic.Int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	c, _ := newTestClient(t, handler, nil)

	_, err := c.Get(context.Background(), "/api/projects")
	require.Error(t, err)
	var remote *vwerr.RemoteError
	require.ErrorAs(t, err, &remote)
	require.Equal(t, http.StatusBadGateway, remote.Status)
	require.Equal(t, 3, remote.Attempts)
	require.Equal(t, int64(3), calls.Load())
}

func TestRequest_NonIdempotentServerErrorIsImmediate(t *testing.T) {
	var calls atomic.Int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	c, _ := newTestClient(t, handler, nil)

	_, err := c.Post(context.Background(), "/api/projects", map[string]string{"projectName": "x"})
	require.Error(t, err)
	var remote *vwerr.RemoteError
	require.ErrorAs(t, err, &remote)
	require.Equal(t, 1, remote.Attempts, "non-idempotent call must not be retried")
	require.Equal(t, int64(1), calls.Load())
}

func TestRequest_ReauthenticatesOnceOn401(t *testing.T) {
	var calls atomic.Int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		require.Equal(t, "Bearer token-after-reauth", r.Header.Get("Authorization"))
		w.Write([]byte(`{"ok":true}`))
	})

	c, sessions := newTestClient(t, handler, nil)

	resp, err := c.Post(context.Background(), "/api/projects", map[string]string{"projectName": "x"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, int64(1), sessions.invalidations.Load(), "exactly one invalidate")
	require.Equal(t, int64(2), calls.Load(), "one immediate retry after reauth")
}

func TestRequest_SecondConsecutive401IsTerminal(t *testing.T) {
	var calls atomic.Int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	c, sessions := newTestClient(t, handler, nil)

	_, err := c.Get(context.Background(), "/api/projects")
	require.Error(t, err)
	require.True(t, vwerr.IsAuth(err), "expected AuthError, got %v", err)
	require.Equal(t, int64(2), calls.Load(), "no third attempt after a second 401")
	require.Equal(t, int64(1), sessions.invalidations.Load())
}

func TestRequest_NotFoundIsTerminal(t *testing.T) {
	var calls atomic.Int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	c, sessions := newTestClient(t, handler, nil)

	_, err := c.Get(context.Background(), "/api/projects/9999")
	require.Error(t, err)
	require.True(t, vwerr.IsNotFound(err), "expected NotFoundError, got %v", err)
	require.Equal(t, int64(1), calls.Load(), "404 must not be retried")
	require.Equal(t, int64(0), sessions.invalidations.Load(), "404 must not trigger reauth")
}

func TestRequest_ClientErrorIsValidationError(t *testing.T) {
	var calls atomic.Int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"projectName is required"}`))
	})

	c, _ := newTestClient(t, handler, nil)

	_, err := c.Post(context.Background(), "/api/projects", map[string]string{})
	require.Error(t, err)
	var validation *vwerr.ValidationError
	require.ErrorAs(t, err, &validation)
	require.Equal(t, http.StatusUnprocessableEntity, validation.Status)
	require.Contains(t, validation.Msg, "projectName")
	require.Equal(t, int64(1), calls.Load())
}

func TestRequest_TimeoutBoundsWholeCall(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Never respond within the test window.
		select {
		case <-r.Context().Done():
		case <-time.After(10 * time.Second):
		}
	})

	timeout := 100 * time.Millisecond
	c, _ := newTestClient(t, handler, func(cfg *Config) {
		cfg.Timeout = timeout
		// A full retry schedule would take far longer than the timeout.
		cfg.MaxAttempts = 10
		cfg.RetryBaseDelay = time.Second
	})

	start := time.Now()
	_, err := c.Get(context.Background(), "/api/projects")
	elapsed := time.Since(start)

	require.Error(t, err)
	require.True(t, vwerr.IsTimeout(err), "expected TimeoutError, got %v", err)
	require.Less(t, elapsed, 10*timeout, "deadline must cut the retry schedule short")
}

func TestRequest_NetworkErrorRetriedOnlyWhenIdempotent(t *testing.T) {
	// A server that closes connections immediately produces network errors.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hj, ok := w.(http.Hijacker)
		require.True(t, ok)
		conn, _, err := hj.Hijack()
		require.NoError(t, err)
		conn.Close()
	}))
	t.Cleanup(srv.Close)

	sessions := newFakeSessions("token-1")
	c, err := New(Config{
		BaseURL:        srv.URL,
		Sessions:       sessions,
		Timeout:        5 * time.Second,
		MaxAttempts:    2,
		RetryBaseDelay: 5 * time.Millisecond,
		Logger:         slog.New(slog.DiscardHandler),
	})
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "/api/projects")
	var remote *vwerr.RemoteError
	require.ErrorAs(t, err, &remote)
	require.Equal(t, 2, remote.Attempts, "idempotent call retries network errors")

	_, err = c.Post(context.Background(), "/api/projects", map[string]string{"projectName": "x"})
	require.ErrorAs(t, err, &remote)
	require.Equal(t, 1, remote.Attempts, "non-idempotent call does not retry network errors")
}

func TestRequest_SessionErrorsPassThrough(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`))
	})

	c, sessions := newTestClient(t, handler, nil)
	sessions.err = &vwerr.AuthError{Msg: "invalid email or password"}

	_, err := c.Get(context.Background(), "/api/projects")
	require.True(t, vwerr.IsAuth(err), "expected AuthError, got %v", err)
}

func TestRequest_RejectsBadInput(t *testing.T) {
	c, _ := newTestClient(t, http.NewServeMux(), nil)

	_, err := c.Request(context.Background(), "TRACE", "/api/projects", nil, false)
	require.Error(t, err)

	_, err = c.Request(context.Background(), http.MethodGet, "api/projects", nil, true)
	require.Error(t, err, "relative paths are rejected")
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Sessions: newFakeSessions("t")})
	require.Error(t, err, "missing base URL")

	_, err = New(Config{BaseURL: "http://x"})
	require.Error(t, err, "missing session manager")
}

func TestPutPatchDeleteIdempotencyFlag(t *testing.T) {
	var calls atomic.Int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	c, _ := newTestClient(t, handler, func(cfg *Config) {
		cfg.MaxAttempts = 2
		cfg.RetryBaseDelay = 5 * time.Millisecond
	})

	tests := []struct {
		name      string
		invoke    func() error
		wantCalls int64
	}{
		{
			name: "PUT idempotent retries",
			invoke: func() error {
				_, err := c.Put(context.Background(), "/api/projects/1", map[string]string{}, true)
				return err
			},
			wantCalls: 2,
		},
		{
			name: "PUT non-idempotent does not retry",
			invoke: func() error {
				_, err := c.Put(context.Background(), "/api/projects/1", map[string]string{}, false)
				return err
			},
			wantCalls: 1,
		},
		{
			name: "DELETE idempotent retries",
			invoke: func() error {
				_, err := c.Delete(context.Background(), "/api/projects/1", true)
				return err
			},
			wantCalls: 2,
		},
		{
			name: "PATCH non-idempotent does not retry",
			invoke: func() error {
				_, err := c.Patch(context.Background(), "/api/vendors/1", map[string]string{}, false)
				return err
			},
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls.Store(0)
			err := tt.invoke()
			var remote *vwerr.RemoteError
			require.ErrorAs(t, err, &remote)
			require.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}
