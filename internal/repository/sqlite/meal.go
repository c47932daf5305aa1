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

var _ repository.MealRepository = (*DB)(nil)

// DATE STORAGE:
// meals.date holds unix milliseconds in an INTEGER column. Integer
// comparison keeps ORDER BY date exact regardless of time zone or text
// formatting, which the streak computation depends on.

const mealColumns = `id, user_id, name, description, is_on_diet, date, created_at, updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeal(row rowScanner) (model.Meal, error) {
	var (
		m      model.Meal
		millis int64
	)
	err := row.Scan(
		&m.ID, &m.UserID, &m.Name, &m.Description, &m.IsOnDiet,
		&millis, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return model.Meal{}, err
	}
	m.Date = time.UnixMilli(millis).UTC()
	return m, nil
}

// CreateMeal inserts a meal for meal.UserID and fills in ID and timestamps.
func (db *DB) CreateMeal(ctx context.Context, meal *model.Meal) error {
	meal.ID = xid.New().String()

	now := time.Now().UTC()
	meal.CreatedAt = now
	meal.UpdatedAt = now
	meal.Date = meal.Date.UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO meals (id, user_id, name, description, is_on_diet, date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		meal.ID,
		meal.UserID,
		meal.Name,
		meal.Description,
		meal.IsOnDiet,
		meal.Date.UnixMilli(),
		meal.CreatedAt,
		meal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating meal: %w", err)
	}

	return nil
}

// GetMeal returns the meal only if it belongs to userID.
func (db *DB) GetMeal(ctx context.Context, userID, id string) (*model.Meal, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+mealColumns+`
		 FROM meals
		 WHERE id = ? AND user_id = ?`,
		id, userID,
	)

	meal, err := scanMeal(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("meal", id)
		}
		return nil, fmt.Errorf("sqlite: getting meal %s: %w", id, err)
	}

	return &meal, nil
}

// ListMeals returns the user's meals sorted by date in the requested
// direction. Ties on date are broken by created_at and then id, in the same
// direction, so repeated calls return the same sequence.
func (db *DB) ListMeals(ctx context.Context, userID string, opts repository.MealListOptions) ([]model.Meal, error) {
	direction := "ASC"
	if opts.Order == repository.OrderDateDesc {
		direction = "DESC"
	}

	// SQLite treats LIMIT -1 as "no limit".
	limit := opts.Limit
	if limit <= 0 {
		limit = -1
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(
		`SELECT %s FROM meals
		 WHERE user_id = ?
		 ORDER BY date %[2]s, created_at %[2]s, id %[2]s
		 LIMIT ? OFFSET ?`,
		mealColumns, direction,
	)

	rows, err := db.conn.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing meals: %w", err)
	}
	defer rows.Close()

	meals := make([]model.Meal, 0)
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning meal row: %w", err)
		}
		meals = append(meals, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating meals: %w", err)
	}

	return meals, nil
}

// UpdateMeal rewrites the mutable fields of a meal. The WHERE clause includes
// user_id, so an attempt to update someone else's meal affects no rows and
// comes back as not found.
func (db *DB) UpdateMeal(ctx context.Context, meal *model.Meal) error {
	meal.UpdatedAt = time.Now().UTC()
	meal.Date = meal.Date.UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE meals
		 SET name = ?, description = ?, is_on_diet = ?, date = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		meal.Name,
		meal.Description,
		meal.IsOnDiet,
		meal.Date.UnixMilli(),
		meal.UpdatedAt,
		meal.ID,
		meal.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating meal %s: %w", meal.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("meal", meal.ID)
	}

	return nil
}

// DeleteMeal removes a meal owned by userID.
func (db *DB) DeleteMeal(ctx context.Context, userID, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM meals WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting meal %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("meal", id)
	}

	return nil
}
