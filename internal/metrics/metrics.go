// Package metrics computes diet adherence figures over a user's meal history.
//
// ORDERING CONTRACT:
// Calculate never sorts. The longest on-diet streak depends on adjacency, so
// the result is only meaningful for the order the caller supplies. The meal
// service always passes meals ordered by date descending, straight from the
// repository query. A full reversal yields the same streak, but any other
// reordering (partial pagination, filtering) does not.
package metrics

import "github.com/sakif/daily-diet/internal/model"

// Calculate returns meal totals and the longest run of consecutive on-diet
// meals in the given order. An empty slice yields all zeros.
//
// It has no side effects and touches no shared state, so it is safe to call
// concurrently for different users.
func Calculate(meals []model.Meal) model.Metrics {
	var m model.Metrics
	current := 0

	for _, meal := range meals {
		if meal.IsOnDiet {
			m.TotalMealsOnDiet++
			current++
		} else {
			m.TotalMealsOffDiet++
			current = 0
		}

		if current > m.BestOnDietSequence {
			m.BestOnDietSequence = current
		}
	}

	m.TotalMeals = len(meals)
	return m
}
