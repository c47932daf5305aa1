// Package model defines the data structures used throughout the application.
package model

import "time"

// User is a registered account.
//
// SessionID is the opaque token handed out in the sessionId cookie at
// registration. It is unique per user and deliberately excluded from JSON so
// it never leaks in a response body.
type User struct {
	ID        string    `json:"id"        db:"id"`
	Name      string    `json:"name"      db:"name"`
	Email     string    `json:"email"     db:"email"`
	SessionID string    `json:"-"         db:"session_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
