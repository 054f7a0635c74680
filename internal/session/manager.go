// ABOUTME: Session manager owning the credential lifecycle against VerifyWise.
// ABOUTME: Performs login, coalesced proactive refresh, and invalidation-triggered reauth.

package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/verifywise-oss/verifywise-mcp/internal/vwerr"
)

// VerifyWise authentication endpoints.
const (
	loginPath   = "/api/users/login"
	refreshPath = "/api/users/refresh-token"
)

// maxAuthResponseSize caps auth response bodies (they carry one token).
const maxAuthResponseSize = 1 << 20

// Config holds construction parameters for a Manager.
type Config struct {
	BaseURL  string
	Email    string
	Password string

	// ExpiryMargin is the safety margin: a credential expiring within this
	// window is refreshed before being handed out.
	ExpiryMargin time.Duration

	// AuthTimeout bounds a single login or refresh exchange. A coalesced
	// refresh runs on a detached context with this timeout so that one
	// canceled caller cannot abort it for the others.
	AuthTimeout time.Duration

	// RefreshFallbackLogin makes a rejected refresh fall back to a full
	// login instead of surfacing the authentication error.
	RefreshFallbackLogin bool

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Manager guarantees that any caller can obtain a non-expired credential
// while performing at most one concurrent login/refresh. The credential is
// the only mutable state; it is guarded by a mutex that is never held
// across a network call. The decision to refresh is serialized through a
// singleflight group, so concurrent callers observing an expired credential
// share exactly one network round-trip.
type Manager struct {
	baseURL       string
	email         string
	password      string
	margin        time.Duration
	authTimeout   time.Duration
	fallbackLogin bool
	http          *http.Client
	logger        *slog.Logger

	mu   sync.Mutex
	cred Credential

	group singleflight.Group
}

// NewManager creates a session manager. The identity and secret are fixed
// at construction; credentials live only in process memory.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Email == "" || cfg.Password == "" {
		return nil, fmt.Errorf("email and password are required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	authTimeout := cfg.AuthTimeout
	if authTimeout == 0 {
		authTimeout = 30 * time.Second
	}

	return &Manager{
		baseURL:       cfg.BaseURL,
		email:         cfg.Email,
		password:      cfg.Password,
		margin:        cfg.ExpiryMargin,
		authTimeout:   authTimeout,
		fallbackLogin: cfg.RefreshFallbackLogin,
		http:          httpClient,
		logger:        logger,
	}, nil
}

// ValidCredential returns the current credential if its remaining lifetime
// exceeds the safety margin, and otherwise performs one coalesced refresh
// (or a fresh login when no refresh handle exists) before returning.
//
// Cancellation of ctx abandons the wait but never the shared exchange: an
// in-flight refresh continues to completion and its result is cached for
// subsequent callers.
func (m *Manager) ValidCredential(ctx context.Context) (Credential, error) {
	m.mu.Lock()
	cred := m.cred
	m.mu.Unlock()

	if cred.Present() && !cred.ExpiresWithin(m.margin) {
		return cred.snapshot(), nil
	}

	ch := m.group.DoChan("reauth", func() (any, error) {
		return m.reauthenticate()
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Credential{}, res.Err
		}
		return res.Val.(Credential).snapshot(), nil
	case <-ctx.Done():
		return Credential{}, &vwerr.TimeoutError{Op: "acquiring credential", Err: ctx.Err()}
	}
}

// Invalidate clears the current credential, forcing the next
// ValidCredential call to reauthenticate. The access layer invokes this
// when a request fails authorization despite a nominally valid credential
// (clock skew, revoked session).
func (m *Manager) Invalidate() {
	m.mu.Lock()
	m.cred = Credential{}
	m.mu.Unlock()
	m.logger.Debug("credential invalidated")
}

// Login performs an explicit login exchange, stores the resulting
// credential, and returns a snapshot of it. Used at startup and by health
// checks; routine acquisition goes through ValidCredential.
func (m *Manager) Login(ctx context.Context) (Credential, error) {
	cred, err := m.login(ctx)
	if err != nil {
		return Credential{}, err
	}
	m.mu.Lock()
	m.cred = cred
	m.mu.Unlock()
	return cred.snapshot(), nil
}

// reauthenticate is the single entry into the refreshing state, shared by
// the proactive (expiry margin) and reactive (Invalidate) triggers. Runs
// inside the singleflight group on a detached context.
func (m *Manager) reauthenticate() (Credential, error) {
	ctx, cancel := context.WithTimeout(context.Background(), m.authTimeout)
	defer cancel()

	m.mu.Lock()
	cur := m.cred
	m.mu.Unlock()

	// A caller that lost the race may arrive after the previous flight
	// already replaced the credential.
	if cur.Present() && !cur.ExpiresWithin(m.margin) {
		return cur, nil
	}

	var (
		cred Credential
		err  error
	)
	if cur.RefreshCookie != nil {
		cred, err = m.refresh(ctx, cur.RefreshCookie)
		if err != nil && m.fallbackLogin && vwerr.IsAuth(err) {
			m.logger.Debug("refresh rejected, falling back to login")
			cred, err = m.login(ctx)
		}
	} else {
		cred, err = m.login(ctx)
	}
	if err != nil {
		return Credential{}, err
	}

	// The margin guarantee assumes the platform issues tokens that outlive
	// it; a shorter-lived token is stored anyway so calls keep working, at
	// the cost of reauthenticating on every acquisition.
	if cred.ExpiresWithin(m.margin) {
		m.logger.Warn("issued token lifetime is below the expiry margin, every call will reauthenticate",
			"margin", m.margin,
			"expires_at", cred.ExpiresAt)
	}

	m.mu.Lock()
	m.cred = cred
	m.mu.Unlock()

	return cred, nil
}

// login exchanges the configured email/password for a credential.
func (m *Manager) login(ctx context.Context) (Credential, error) {
	m.logger.Debug("logging in to VerifyWise", "email", m.email)

	payload, err := json.Marshal(map[string]string{
		"email":    m.email,
		"password": m.password,
	})
	if err != nil {
		return Credential{}, fmt.Errorf("encoding login payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+loginPath, bytes.NewReader(payload))
	if err != nil {
		return Credential{}, fmt.Errorf("building login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.http.Do(req)
	if err != nil {
		return Credential{}, &vwerr.UnavailableError{Endpoint: loginPath, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Credential{}, &vwerr.AuthError{Msg: "invalid email or password"}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return Credential{}, &vwerr.UnavailableError{
			Endpoint: loginPath,
			Err:      fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}

	cred, err := m.credentialFromResponse(resp, nil)
	if err != nil {
		return Credential{}, err
	}

	m.logger.Debug("login successful")
	return cred, nil
}

// refresh consumes the refresh cookie and yields a new credential. The
// platform may rotate the refresh cookie; if it does not, the previous one
// is carried forward.
func (m *Manager) refresh(ctx context.Context, cookie *http.Cookie) (Credential, error) {
	m.logger.Debug("refreshing access token")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+refreshPath, nil)
	if err != nil {
		return Credential{}, fmt.Errorf("building refresh request: %w", err)
	}
	req.AddCookie(cookie)

	resp, err := m.http.Do(req)
	if err != nil {
		return Credential{}, &vwerr.UnavailableError{Endpoint: refreshPath, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Credential{}, &vwerr.AuthError{Msg: "refresh token rejected"}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return Credential{}, &vwerr.UnavailableError{
			Endpoint: refreshPath,
			Err:      fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}

	cred, err := m.credentialFromResponse(resp, cookie)
	if err != nil {
		return Credential{}, err
	}

	m.logger.Debug("token refreshed")
	return cred, nil
}

// credentialFromResponse builds a Credential from an auth exchange response.
// fallbackCookie is carried forward when the response does not rotate the
// refresh cookie.
func (m *Manager) credentialFromResponse(resp *http.Response, fallbackCookie *http.Cookie) (Credential, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAuthResponseSize))
	if err != nil {
		return Credential{}, &vwerr.UnavailableError{Endpoint: resp.Request.URL.Path, Err: err}
	}

	token, err := extractToken(body)
	if err != nil {
		return Credential{}, &vwerr.UnavailableError{Endpoint: resp.Request.URL.Path, Err: err}
	}

	expiry, ok := tokenExpiry(token)
	if !ok {
		// Unparseable token: treat as already expired so every use forces
		// reauthentication, matching how an opaque token would behave.
		m.logger.Warn("access token is not a parseable JWT, treating as expired")
		expiry = time.Now()
	}

	cookie := refreshCookieFrom(resp.Cookies())
	if cookie == nil {
		cookie = fallbackCookie
	}

	return Credential{
		AccessToken:   token,
		ExpiresAt:     expiry,
		RefreshCookie: cookie,
	}, nil
}

// extractToken pulls the access token out of a login/refresh response body.
// VerifyWise has used different field names across versions.
func extractToken(body []byte) (string, error) {
	var data map[string]json.RawMessage
	if err := json.Unmarshal(body, &data); err != nil {
		return "", fmt.Errorf("decoding auth response: %w", err)
	}
	for _, field := range []string{"token", "accessToken", "access_token"} {
		raw, present := data[field]
		if !present {
			continue
		}
		var token string
		if err := json.Unmarshal(raw, &token); err == nil && token != "" {
			return token, nil
		}
	}
	return "", fmt.Errorf("no token field in auth response")
}

// refreshCookieFrom finds the refresh cookie among response cookies.
// Prefers the documented name, then any HTTP-only cookie.
func refreshCookieFrom(cookies []*http.Cookie) *http.Cookie {
	for _, c := range cookies {
		if c.Name == "refresh_token" {
			return c
		}
	}
	for _, c := range cookies {
		if c.HttpOnly {
			return c
		}
	}
	return nil
}
