package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/daily-diet/internal/apperror"
	"github.com/sakif/daily-diet/internal/auth"
	"github.com/sakif/daily-diet/internal/model"
	"github.com/sakif/daily-diet/internal/service"
)

// MealService is the part of service.MealService the handler needs.
type MealService interface {
	Create(ctx context.Context, userID string, in service.MealInput) (*model.Meal, error)
	Get(ctx context.Context, userID, id string) (*model.Meal, error)
	List(ctx context.Context, userID string, limit, offset int) ([]model.Meal, error)
	Update(ctx context.Context, userID, id string, in service.MealInput) (*model.Meal, error)
	Delete(ctx context.Context, userID, id string) error
	Metrics(ctx context.Context, userID string) (model.Metrics, error)
}

// MealHandler serves the /meals endpoints. Every route sits behind
// auth.RequireSession, so the user ID is always in the context.
type MealHandler struct {
	meals  MealService
	logger *slog.Logger
}

func NewMealHandler(meals MealService, logger *slog.Logger) *MealHandler {
	return &MealHandler{meals: meals, logger: logger}
}

// mealDate accepts the date forms clients send: an RFC 3339 string
// ("2024-04-01T09:30:00.000Z"), a local date-time without offset (read as
// UTC), a bare date, or a number of unix milliseconds.
type mealDate struct {
	time.Time
}

var mealDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (d *mealDate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		for _, layout := range mealDateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				d.Time = t
				return nil
			}
		}
		return fmt.Errorf("date %q is not a recognised format", s)
	}

	millis, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("date must be a string or unix milliseconds")
	}
	d.Time = time.UnixMilli(millis).UTC()
	return nil
}

type mealRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	IsOnDiet    *bool    `json:"isOnDiet"`
	Date        mealDate `json:"date"`
}

func (req mealRequest) input() service.MealInput {
	return service.MealInput{
		Name:        req.Name,
		Description: req.Description,
		IsOnDiet:    req.IsOnDiet,
		Date:        req.Date.Time,
	}
}

type mealResponse struct {
	Meal *model.Meal `json:"meal"`
}

type mealListResponse struct {
	Meals []model.Meal `json:"meals"`
}

// userID pulls the authenticated user out of the context, writing a 401 if
// the route was somehow mounted without the session middleware.
func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("session is required"))
	}
	return id, ok
}

// HandleCreate records a meal.
//
// HTTP: POST /meals
// REQUEST BODY: {"name":"Lunch","description":"rice","isOnDiet":true,"date":"2024-04-01T12:00:00Z"}
func (h *MealHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req mealRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	meal, err := h.meals.Create(r.Context(), uid, req.input())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, mealResponse{Meal: meal})
}

// HandleList returns the user's meals, oldest first.
//
// HTTP: GET /meals?limit=20&offset=0
// Without limit every meal is returned.
func (h *MealHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeError(w, err)
		return
	}

	meals, err := h.meals.List(r.Context(), uid, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, mealListResponse{Meals: meals})
}

// HandleGet returns a single meal.
//
// HTTP: GET /meals/{mealID}
func (h *MealHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	meal, err := h.meals.Get(r.Context(), uid, chi.URLParam(r, "mealID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, mealResponse{Meal: meal})
}

// HandleUpdate replaces a meal's fields.
//
// HTTP: PUT /meals/{mealID}
// REQUEST BODY: same as HandleCreate; every field is required.
func (h *MealHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req mealRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	meal, err := h.meals.Update(r.Context(), uid, chi.URLParam(r, "mealID"), req.input())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, mealResponse{Meal: meal})
}

// HandleDelete removes a meal.
//
// HTTP: DELETE /meals/{mealID}
func (h *MealHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	if err := h.meals.Delete(r.Context(), uid, chi.URLParam(r, "mealID")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleMetrics returns adherence totals and the best on-diet streak.
//
// HTTP: GET /meals/metrics
//
//	{"totalMeals":5,"totalMealsOnDiet":4,"totalMealsOffDiet":1,"bestSequenceOnDietSequence":3}
func (h *MealHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	m, err := h.meals.Metrics(r.Context(), uid)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, m)
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.ValidationFailed(key, key+" must be an integer")
	}
	return v, nil
}
