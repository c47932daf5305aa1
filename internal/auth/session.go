// Package auth handles the session cookie that identifies a user.
//
// SESSION MODEL:
// A session is a bare, random token minted at registration and stored next
// to the user row. The sessionId cookie carries it back on every request and
// the server resolves it with a plain equality lookup. There is no server-side
// expiry and no revocation: the session lives as long as the cookie does.
package auth

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// CookieName is the cookie that carries the session token.
const CookieName = "sessionId"

// DefaultMaxAge is how long the browser keeps the cookie.
const DefaultMaxAge = 7 * 24 * time.Hour

// NewSessionID returns a fresh random token (UUIDv4, 122 bits of entropy).
func NewSessionID() string {
	return uuid.NewString()
}

// CookieOptions controls the attributes of the session cookie.
type CookieOptions struct {
	MaxAge time.Duration
	Secure bool
}

// SetSessionCookie writes the session cookie.
//
// HttpOnly keeps the token out of reach of page scripts and SameSite=Lax
// stops it riding along on cross-site POSTs.
func SetSessionCookie(w http.ResponseWriter, sessionID string, opts CookieOptions) {
	maxAge := opts.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionIDFromRequest returns the session token presented by the client,
// or "" when there is none.
func SessionIDFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
