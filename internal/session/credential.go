// ABOUTME: Credential value type holding the short-lived access token, its expiry,
// ABOUTME: and the refresh cookie VerifyWise issues alongside it.

package session

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credential is the bearer token obtained from a login or refresh exchange,
// together with its expiry and the opaque refresh handle (an HTTP-only
// cookie on VerifyWise). A Credential is a value: callers receive snapshots
// and cannot mutate the manager's copy. The zero value means "absent".
type Credential struct {
	// AccessToken is the short-lived JWT presented as a bearer token.
	AccessToken string

	// ExpiresAt is the absolute expiry taken from the token's exp claim.
	// Zero means the token carries no expiry claim and never goes stale.
	ExpiresAt time.Time

	// RefreshCookie is the refresh-token cookie returned by the platform,
	// consumed by the refresh exchange. Nil when the platform returned none.
	RefreshCookie *http.Cookie
}

// snapshot returns a copy safe to hand to callers: the refresh cookie is
// duplicated so the manager's stored handle cannot be mutated through it.
func (c Credential) snapshot() Credential {
	if c.RefreshCookie != nil {
		cookie := *c.RefreshCookie
		c.RefreshCookie = &cookie
	}
	return c
}

// Present reports whether the credential holds an access token.
// An access token is never stored without its expiry having been resolved.
func (c Credential) Present() bool {
	return c.AccessToken != ""
}

// ExpiresWithin reports whether the credential is absent, already expired,
// or will expire within margin. The margin absorbs clock skew and the
// latency of requests already in flight.
func (c Credential) ExpiresWithin(margin time.Duration) bool {
	if !c.Present() {
		return true
	}
	if c.ExpiresAt.IsZero() {
		return false
	}
	return !time.Now().Add(margin).Before(c.ExpiresAt)
}

// tokenExpiry extracts the expiry from a JWT access token's exp claim.
// The token signature is not verified here: the platform signed it and we
// only need the schedule, never the authority.
//
// Returns a zero time with ok=true when the token has no exp claim
// (treated as non-expiring), and ok=false when the token cannot be parsed
// (treated by callers as already expired to force reauthentication).
func tokenExpiry(token string) (expiry time.Time, ok bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, true
	}
	return claims.ExpiresAt.Time, true
}
