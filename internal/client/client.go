// ABOUTME: Resilient authenticated HTTP access layer for the VerifyWise REST API.
// ABOUTME: Applies timeout, retry-with-backoff, and reauthentication-on-expiry uniformly.

package client

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
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/verifywise-oss/verifywise-mcp/internal/session"
	"github.com/verifywise-oss/verifywise-mcp/internal/vwerr"
)

// maxResponseSize caps response bodies read into memory (4 MB).
const maxResponseSize = 4 << 20

// maxErrorBodyPreview limits how much of an error response body is carried
// into error messages.
const maxErrorBodyPreview = 200

// Sessions is the slice of the session manager the access layer depends on.
type Sessions interface {
	ValidCredential(ctx context.Context) (session.Credential, error)
	Invalidate()
}

// Config holds construction parameters for a Client.
type Config struct {
	BaseURL  string
	Sessions Sessions

	// Timeout bounds one logical Request call including all retries and
	// backoff waits.
	Timeout time.Duration

	// MaxAttempts bounds total attempts on the transient-failure path
	// (5xx / network errors on idempotent calls). Minimum 1.
	MaxAttempts int

	// RetryBaseDelay and RetryMaxDelay shape the backoff schedule:
	// attempt k (k>1) waits base * 2^(k-2), capped at RetryMaxDelay.
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client executes logical requests against the VerifyWise API with the
// resilience policy applied uniformly, independent of request semantics.
// It never interprets the domain meaning of response bodies and performs
// no caching.
type Client struct {
	baseURL     string
	sessions    Sessions
	timeout     time.Duration
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	http        *http.Client
	logger      *slog.Logger
}

// Response is the outcome of a successful call: the decoded-ready body and
// the original status code.
type Response struct {
	StatusCode int
	Body       []byte
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("empty response body")
	}
	return json.Unmarshal(r.Body, v)
}

// New creates an access-layer client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("session manager is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	baseDelay := cfg.RetryBaseDelay
	if baseDelay == 0 {
		baseDelay = time.Second
	}
	maxDelay := cfg.RetryMaxDelay
	if maxDelay == 0 {
		maxDelay = 30 * time.Second
	}

	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		sessions:    cfg.Sessions,
		timeout:     timeout,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		maxDelay:    maxDelay,
		http:        httpClient,
		logger:      logger,
	}, nil
}

// Get issues an authenticated GET. GET is inherently safe and always
// eligible for transient-failure retries.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Request(ctx, http.MethodGet, path, nil, true)
}

// Post issues an authenticated POST. POSTs mutate and are never retried on
// server errors.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Request(ctx, http.MethodPost, path, body, false)
}

// Put issues an authenticated PUT. Idempotency is caller-declared: the
// platform does not document per-endpoint guarantees.
func (c *Client) Put(ctx context.Context, path string, body any, idempotent bool) (*Response, error) {
	return c.Request(ctx, http.MethodPut, path, body, idempotent)
}

// Patch issues an authenticated PATCH with caller-declared idempotency.
func (c *Client) Patch(ctx context.Context, path string, body any, idempotent bool) (*Response, error) {
	return c.Request(ctx, http.MethodPatch, path, body, idempotent)
}

// Delete issues an authenticated DELETE with caller-declared idempotency.
func (c *Client) Delete(ctx context.Context, path string, idempotent bool) (*Response, error) {
	return c.Request(ctx, http.MethodDelete, path, nil, idempotent)
}

// Request executes one logical request with the full resilience policy:
//
//   - obtains a credential from the session manager and attaches it as a
//     bearer token;
//   - on 401/403, invalidates the session and retries exactly once more,
//     immediately and regardless of idempotency; a second authorization
//     failure is terminal;
//   - on 5xx or network failure, retries with exponential backoff up to
//     MaxAttempts when the call is idempotent (GET always is), and surfaces
//     a RemoteError immediately otherwise;
//   - 404 and other 4xx are terminal immediately.
//
// The configured timeout bounds the whole call including backoff waits.
// path must be an already-validated resource path; Request never builds
// paths from unsanitized input.
func (c *Client) Request(ctx context.Context, method, path string, body any, idempotent bool) (*Response, error) {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return nil, fmt.Errorf("unsupported method %q", method)
	}
	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("path must be absolute, got %q", path)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
	}

	// GET is inherently safe; everything else relies on the caller's flag.
	retriable := idempotent || method == http.MethodGet

	schedule := backoff.NewExponentialBackOff()
	schedule.InitialInterval = c.baseDelay
	schedule.MaxInterval = c.maxDelay
	schedule.Multiplier = 2
	schedule.RandomizationFactor = 0
	schedule.Reset()

	op := method + " " + path

	var (
		attempts int  // transient-path attempts, bounded by maxAttempts
		reauthed bool // the single authorization retry has been spent
	)

	for {
		attempts++

		resp, err := c.attempt(ctx, method, path, payload)
		if err == nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		if err != nil {
			// Authorization failures during credential acquisition and
			// taxonomy errors pass straight through; only network-level
			// transport failures are retriable.
			var transient *transientError
			if !errors.As(err, &transient) {
				return nil, err
			}
			if ctx.Err() != nil {
				return nil, &vwerr.TimeoutError{Op: op, Err: ctx.Err()}
			}
			if !retriable {
				return nil, &vwerr.RemoteError{Attempts: attempts, Err: transient.err}
			}
			if attempts >= c.maxAttempts {
				return nil, &vwerr.RemoteError{Attempts: attempts, Err: transient.err}
			}
			if err := c.wait(ctx, schedule.NextBackOff(), op, attempts); err != nil {
				return nil, err
			}
			continue
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			if reauthed {
				return nil, &vwerr.AuthError{Msg: "authorization failed after reauthentication"}
			}
			reauthed = true
			attempts-- // the auth retry does not consume a transient attempt
			c.logger.Debug("authorization failed, reauthenticating", "op", op, "status", resp.StatusCode)
			c.sessions.Invalidate()
			// Immediate retry: an authorization failure is not a
			// transient-load condition, so no backoff applies.
			continue

		case resp.StatusCode == http.StatusNotFound:
			return nil, &vwerr.NotFoundError{Path: path}

		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return nil, &vwerr.ValidationError{
				Status: resp.StatusCode,
				Msg:    bodyPreview(resp.Body),
			}

		default: // 5xx
			if !retriable {
				return nil, &vwerr.RemoteError{Status: resp.StatusCode, Attempts: attempts}
			}
			if attempts >= c.maxAttempts {
				return nil, &vwerr.RemoteError{Status: resp.StatusCode, Attempts: attempts}
			}
			if err := c.wait(ctx, schedule.NextBackOff(), op, attempts); err != nil {
				return nil, err
			}
		}
	}
}

// attempt issues a single HTTP attempt: credential, headers, call, body.
// Transport-level failures come back as *transientError; everything else
// is already classified.
func (c *Client) attempt(ctx context.Context, method, path string, payload []byte) (*Response, error) {
	cred, err := c.sessions.ValidCredential(ctx)
	if err != nil {
		if ctx.Err() != nil && !vwerr.IsTimeout(err) {
			return nil, &vwerr.TimeoutError{Op: method + " " + path, Err: ctx.Err()}
		}
		return nil, err
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &vwerr.TimeoutError{Op: method + " " + path, Err: ctx.Err()}
		}
		return nil, &transientError{err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &transientError{err: fmt.Errorf("reading response body: %w", err)}
	}

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

// wait sleeps for the backoff delay or fails with TimeoutError when the
// overall deadline elapses first.
func (c *Client) wait(ctx context.Context, delay time.Duration, op string, attempt int) error {
	c.logger.Debug("retrying after backoff", "op", op, "attempt", attempt, "delay", delay)

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return &vwerr.TimeoutError{Op: op, Err: ctx.Err()}
	}
}

// transientError marks a network-level failure eligible for the
// retry-with-backoff path. Internal only: it is always resolved into a
// taxonomy error before Request returns.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// bodyPreview trims an error response body for inclusion in messages.
func bodyPreview(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBodyPreview {
		s = s[:maxErrorBodyPreview] + "..."
	}
	if s == "" {
		s = "(empty body)"
	}
	return s
}
