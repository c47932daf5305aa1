package auth

import (
	"context"
	"encoding/json"
	"net/http"
)

// contextKey is unexported so no other package can read or shadow our
// context values.
type contextKey string

const userIDKey contextKey = "userID"

// SessionLookup resolves a session token to the owning user's ID. It returns
// an error when the token is unknown.
type SessionLookup interface {
	Authenticate(ctx context.Context, sessionID string) (string, error)
}

// RequireSession rejects requests that do not carry a known session cookie
// with 401 Unauthorized. On success the user ID is stored in the request
// context for handlers to read with UserIDFromContext.
func RequireSession(sessions SessionLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := SessionIDFromRequest(r)
			if sessionID == "" {
				unauthorized(w, "session cookie is missing")
				return
			}

			userID, err := sessions.Authenticate(r.Context(), sessionID)
			if err != nil || userID == "" {
				unauthorized(w, "session is not valid")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// WithUserID returns a copy of ctx carrying userID. Exposed so handler tests
// can fake an authenticated request without going through the middleware.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext retrieves the authenticated user's ID from the request
// context. Returns ("", false) outside RequireSession.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthorized",
		"message": message,
	})
}
