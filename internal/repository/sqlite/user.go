package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/daily-diet/internal/apperror"
	"github.com/sakif/daily-diet/internal/model"
	"github.com/sakif/daily-diet/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, name, email, session_id, created_at`

// CreateUser inserts a new user, filling in ID and CreatedAt.
//
// The UNIQUE constraints on email and session_id are the final word on
// duplicates: the service checks first for a friendly error, but two
// concurrent registrations can both pass that check, and only one INSERT
// will win.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	user.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, name, email, session_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		user.Email,
		user.SessionID,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "users.email") {
			return apperror.Conflict("user", "email", user.Email)
		}
		if isUniqueViolation(err, "users.session_id") {
			return apperror.Conflict("user", "session", "token")
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Email, err)
	}

	return nil
}

// GetUserByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx, "id", id, id)
}

// GetUserByEmail is used by registration to reject duplicate emails.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUser(ctx, "email", email, email)
}

// GetUserBySessionID resolves the sessionId cookie to its owner. The token
// itself is kept out of the not-found message.
func (db *DB) GetUserBySessionID(ctx context.Context, sessionID string) (*model.User, error) {
	return db.getUser(ctx, "session_id", sessionID, "<session>")
}

// getUser looks a user up by one column. column is always one of our own
// constants, never request input, so formatting it into the query is safe.
// label is what the not-found error reports in place of value.
func (db *DB) getUser(ctx context.Context, column, value, label string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM users WHERE %s = ?`, userColumns, column),
		value,
	).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.SessionID,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", label)
		}
		return nil, fmt.Errorf("sqlite: getting user by %s: %w", column, err)
	}

	return &u, nil
}
