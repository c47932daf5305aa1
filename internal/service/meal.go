package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/daily-diet/internal/apperror"
	"github.com/sakif/daily-diet/internal/metrics"
	"github.com/sakif/daily-diet/internal/model"
	"github.com/sakif/daily-diet/internal/repository"
)

const (
	MaxMealNameLength        = 100
	MaxMealDescriptionLength = 1000
	MaxListLimit             = 100
)

// MealInput is the user-supplied part of a meal, shared by create and update.
// IsOnDiet is a pointer so a missing flag can be told apart from false.
type MealInput struct {
	Name        string
	Description string
	IsOnDiet    *bool
	Date        time.Time
}

func (in MealInput) validate() (MealInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)

	if in.Name == "" {
		return in, apperror.ValidationFailed("name", "meal name is required")
	}
	if len(in.Name) > MaxMealNameLength {
		return in, apperror.ValidationFailed("name",
			fmt.Sprintf("meal name must be %d characters or less", MaxMealNameLength))
	}
	if len(in.Description) > MaxMealDescriptionLength {
		return in, apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxMealDescriptionLength))
	}
	if in.IsOnDiet == nil {
		return in, apperror.ValidationFailed("isOnDiet", "isOnDiet is required")
	}
	if in.Date.IsZero() {
		return in, apperror.ValidationFailed("date", "date is required")
	}
	return in, nil
}

// MealService manages a user's meals. Every method takes the authenticated
// user's ID and never touches meals owned by anyone else.
type MealService struct {
	repo   repository.MealRepository
	logger *slog.Logger
}

func NewMealService(repo repository.MealRepository, logger *slog.Logger) *MealService {
	return &MealService{repo: repo, logger: logger}
}

// Create records a new meal for userID.
func (s *MealService) Create(ctx context.Context, userID string, in MealInput) (*model.Meal, error) {
	in, err := in.validate()
	if err != nil {
		return nil, err
	}

	meal := &model.Meal{
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
		IsOnDiet:    *in.IsOnDiet,
		Date:        in.Date,
	}

	if err := s.repo.CreateMeal(ctx, meal); err != nil {
		s.logger.Error("failed to create meal",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating meal: %w", err)
	}

	s.logger.Info("meal created",
		slog.String("id", meal.ID),
		slog.String("userID", userID),
		slog.Bool("onDiet", meal.IsOnDiet),
	)
	return meal, nil
}

// Get returns one of the user's meals.
func (s *MealService) Get(ctx context.Context, userID, id string) (*model.Meal, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "meal ID is required")
	}
	return s.repo.GetMeal(ctx, userID, id)
}

// List returns the user's meals in chronological order. A limit of zero
// returns everything; larger limits are capped at MaxListLimit.
func (s *MealService) List(ctx context.Context, userID string, limit, offset int) ([]model.Meal, error) {
	if limit < 0 {
		limit = 0
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	meals, err := s.repo.ListMeals(ctx, userID, repository.MealListOptions{
		Limit:  limit,
		Offset: offset,
		Order:  repository.OrderDateAsc,
	})
	if err != nil {
		s.logger.Error("failed to list meals", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing meals: %w", err)
	}
	return meals, nil
}

// Update replaces every user-editable field of a meal.
func (s *MealService) Update(ctx context.Context, userID, id string, in MealInput) (*model.Meal, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "meal ID is required")
	}

	in, err := in.validate()
	if err != nil {
		return nil, err
	}

	meal, err := s.repo.GetMeal(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	meal.Name = in.Name
	meal.Description = in.Description
	meal.IsOnDiet = *in.IsOnDiet
	meal.Date = in.Date

	if err := s.repo.UpdateMeal(ctx, meal); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to update meal",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating meal: %w", err)
	}

	s.logger.Info("meal updated", slog.String("id", id))
	return meal, nil
}

// Delete removes one of the user's meals.
func (s *MealService) Delete(ctx context.Context, userID, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "meal ID is required")
	}

	if err := s.repo.DeleteMeal(ctx, userID, id); err != nil {
		return err
	}

	s.logger.Info("meal deleted", slog.String("id", id))
	return nil
}

// Metrics summarises the user's whole history.
//
// The meals are fetched newest first and handed to metrics.Calculate in that
// exact order; the streak is computed over that adjacency. The totals come
// from the same slice, so they always add up.
func (s *MealService) Metrics(ctx context.Context, userID string) (model.Metrics, error) {
	meals, err := s.repo.ListMeals(ctx, userID, repository.MealListOptions{
		Order: repository.OrderDateDesc,
	})
	if err != nil {
		s.logger.Error("failed to load meals for metrics", slog.String("error", err.Error()))
		return model.Metrics{}, fmt.Errorf("loading meals: %w", err)
	}

	return metrics.Calculate(meals), nil
}
