// Package service contains the business rules of the diet tracker.
//
// Handlers call services with plain Go values, services validate and call
// the repository interfaces. Nothing here knows about HTTP or SQL.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/sakif/daily-diet/internal/apperror"
	"github.com/sakif/daily-diet/internal/auth"
	"github.com/sakif/daily-diet/internal/model"
	"github.com/sakif/daily-diet/internal/repository"
)

const (
	MaxUserNameLength = 100
	MaxEmailLength    = 254
)

// UserService registers users and resolves session tokens.
type UserService struct {
	repo       repository.UserRepository
	logger     *slog.Logger
	newSession func() string
}

// UserService is what the session middleware authenticates against.
var _ auth.SessionLookup = (*UserService)(nil)

func NewUserService(repo repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{
		repo:       repo,
		logger:     logger,
		newSession: auth.NewSessionID,
	}
}

// Register creates a user and binds a session to it.
//
// presentedSession is the sessionId cookie the client already holds, if any.
// It is reused only when no other user owns it, which keeps sessions 1:1
// with users. Otherwise a fresh token is minted. The returned user carries
// the session ID the caller must hand back in the cookie.
func (s *UserService) Register(ctx context.Context, name, email, presentedSession string) (*model.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if len(name) > MaxUserNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxUserNameLength))
	}

	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return nil, apperror.Conflict("user", "email", email)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("checking email: %w", err)
	}

	sessionID, err := s.sessionFor(ctx, presentedSession)
	if err != nil {
		return nil, err
	}

	user := &model.User{Name: name, Email: email, SessionID: sessionID}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to create user",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user registered", slog.String("id", user.ID))
	return user, nil
}

// sessionFor decides which token the new user gets.
func (s *UserService) sessionFor(ctx context.Context, presented string) (string, error) {
	presented = strings.TrimSpace(presented)
	if presented == "" {
		return s.newSession(), nil
	}

	_, err := s.repo.GetUserBySessionID(ctx, presented)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		return presented, nil
	case err != nil:
		return "", fmt.Errorf("checking session: %w", err)
	default:
		// Already bound to someone else.
		return s.newSession(), nil
	}
}

// GetByID returns a user by ID.
func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}
	return s.repo.GetUserByID(ctx, id)
}

// Authenticate resolves a session token to its user ID. Unknown tokens come
// back as apperror.ErrUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", apperror.Unauthorized("session is required")
	}

	user, err := s.repo.GetUserBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", apperror.Unauthorized("session is not valid")
		}
		s.logger.Error("session lookup failed", slog.String("error", err.Error()))
		return "", fmt.Errorf("looking up session: %w", err)
	}

	return user.ID, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", apperror.ValidationFailed("email", "email is required")
	}
	if len(email) > MaxEmailLength {
		return "", apperror.ValidationFailed("email",
			fmt.Sprintf("email must be %d characters or less", MaxEmailLength))
	}

	// mail.ParseAddress also accepts `Name <addr>`; insist on a bare address.
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperror.ValidationFailed("email", "email is not a valid address")
	}
	return email, nil
}
