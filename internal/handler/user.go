package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/daily-diet/internal/apperror"
	"github.com/sakif/daily-diet/internal/auth"
	"github.com/sakif/daily-diet/internal/model"
)

// UserService is the part of service.UserService the handler needs.
type UserService interface {
	Register(ctx context.Context, name, email, presentedSession string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// UserHandler serves registration and the current-user endpoint.
type UserHandler struct {
	users  UserService
	cookie auth.CookieOptions
	logger *slog.Logger
}

func NewUserHandler(users UserService, cookie auth.CookieOptions, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, cookie: cookie, logger: logger}
}

type registerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// HandleRegister creates a user.
//
// HTTP: POST /users
// REQUEST BODY: {"name": "Will", "email": "will@mail.com"}
//
// On success the response sets the sessionId cookie. If the client already
// sent one that is still free, the same token is kept.
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.Register(r.Context(), req.Name, req.Email, auth.SessionIDFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	auth.SetSessionCookie(w, user.SessionID, h.cookie)
	writeJSON(w, http.StatusCreated, user)
}

// HandleMe returns the user behind the session cookie.
//
// HTTP: GET /users/me
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("session is required"))
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
