package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"testing"

	"github.com/sakif/daily-diet/internal/apperror"
	"github.com/sakif/daily-diet/internal/model"
	"github.com/sakif/daily-diet/internal/repository"
)

// mockRepo is an in-memory stand-in for sqlite.DB. It implements both
// repository interfaces so a single instance can back both services.
//
// failWith, when set, is returned by every method to simulate a broken
// database.
type mockRepo struct {
	users    map[string]*model.User
	meals    map[string]*model.Meal
	nextID   int
	failWith error
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		users: make(map[string]*model.User),
		meals: make(map[string]*model.Meal),
	}
}

func (m *mockRepo) id(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

func (m *mockRepo) CreateUser(_ context.Context, user *model.User) error {
	if m.failWith != nil {
		return m.failWith
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return apperror.Conflict("user", "email", user.Email)
		}
		if u.SessionID == user.SessionID {
			return apperror.Conflict("user", "session", "token")
		}
	}
	user.ID = m.id("user")
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockRepo) findUser(match func(*model.User) bool, label string) (*model.User, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, u := range m.users {
		if match(u) {
			found := *u
			return &found, nil
		}
	}
	return nil, apperror.NotFound("user", label)
}

func (m *mockRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	return m.findUser(func(u *model.User) bool { return u.ID == id }, id)
}

func (m *mockRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	return m.findUser(func(u *model.User) bool { return u.Email == email }, email)
}

func (m *mockRepo) GetUserBySessionID(_ context.Context, sessionID string) (*model.User, error) {
	return m.findUser(func(u *model.User) bool { return u.SessionID == sessionID }, "<session>")
}

func (m *mockRepo) CreateMeal(_ context.Context, meal *model.Meal) error {
	if m.failWith != nil {
		return m.failWith
	}
	meal.ID = m.id("meal")
	stored := *meal
	m.meals[meal.ID] = &stored
	return nil
}

func (m *mockRepo) GetMeal(_ context.Context, userID, id string) (*model.Meal, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	meal, ok := m.meals[id]
	if !ok || meal.UserID != userID {
		return nil, apperror.NotFound("meal", id)
	}
	found := *meal
	return &found, nil
}

func (m *mockRepo) ListMeals(_ context.Context, userID string, opts repository.MealListOptions) ([]model.Meal, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	result := make([]model.Meal, 0)
	for _, meal := range m.meals {
		if meal.UserID == userID {
			result = append(result, *meal)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Date.Equal(result[j].Date) {
			return result[i].ID < result[j].ID
		}
		return result[i].Date.Before(result[j].Date)
	})
	if opts.Order == repository.OrderDateDesc {
		for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
			result[i], result[j] = result[j], result[i]
		}
	}

	if opts.Offset >= len(result) {
		return []model.Meal{}, nil
	}
	result = result[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(result) {
		result = result[:opts.Limit]
	}
	return result, nil
}

func (m *mockRepo) UpdateMeal(_ context.Context, meal *model.Meal) error {
	if m.failWith != nil {
		return m.failWith
	}
	existing, ok := m.meals[meal.ID]
	if !ok || existing.UserID != meal.UserID {
		return apperror.NotFound("meal", meal.ID)
	}
	stored := *meal
	m.meals[meal.ID] = &stored
	return nil
}

func (m *mockRepo) DeleteMeal(_ context.Context, userID, id string) error {
	if m.failWith != nil {
		return m.failWith
	}
	meal, ok := m.meals[id]
	if !ok || meal.UserID != userID {
		return apperror.NotFound("meal", id)
	}
	delete(m.meals, id)
	return nil
}

var errDatabaseDown = errors.New("database is down")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestServices(t *testing.T) (*UserService, *MealService, *mockRepo) {
	t.Helper()
	repo := newMockRepo()
	return NewUserService(repo, testLogger()), NewMealService(repo, testLogger()), repo
}
