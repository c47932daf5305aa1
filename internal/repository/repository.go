// Package repository declares the storage contracts the services depend on.
// The sqlite subpackage is the only implementation; services and their tests
// see nothing but these interfaces.
package repository

import (
	"context"

	"github.com/sakif/daily-diet/internal/model"
)

// Order selects how meals are sorted by date. Ties on date fall back to
// creation time and then ID so the order is stable between calls.
type Order int

const (
	OrderDateAsc Order = iota
	OrderDateDesc
)

// MealListOptions controls ListMeals. A Limit of zero or less returns every
// meal after Offset.
type MealListOptions struct {
	Limit  int
	Offset int
	Order  Order
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserBySessionID(ctx context.Context, sessionID string) (*model.User, error)
}

// MealRepository scopes every lookup to the owning user. A meal that exists
// but belongs to someone else is reported as not found.
type MealRepository interface {
	CreateMeal(ctx context.Context, meal *model.Meal) error
	GetMeal(ctx context.Context, userID, id string) (*model.Meal, error)
	ListMeals(ctx context.Context, userID string, opts MealListOptions) ([]model.Meal, error)
	UpdateMeal(ctx context.Context, meal *model.Meal) error
	DeleteMeal(ctx context.Context, userID, id string) error
}
