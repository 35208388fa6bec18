package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/2beens/fittracker/internal/fitness"
	"github.com/2beens/fittracker/internal/fitness/repo"
)

// Suggested values, the API accepts any string.
var (
	WorkoutTypes   = []string{"strength", "cardio", "flexibility", "sports", "other"}
	GoalCategories = []string{"strength", "endurance", "weight", "muscle", "flexibility", "other"}
)

// ExerciseRow is one line of the workout form. Zero numbers are "not
// recorded".
type ExerciseRow struct {
	Name     string
	Sets     int
	Reps     int
	Weight   float64
	Duration int
}

type WorkoutForm struct {
	Name      string
	Type      string
	Duration  int
	Notes     string
	Exercises []ExerciseRow
}

// Submit creates the workout, then one exercise per row with a non blank
// name. A failing exercise stops the submission, the workout stays.
func (f WorkoutForm) Submit(ctx context.Context, api *Api, userID string) (*repo.Workout, error) {
	notes := f.Notes
	duration := f.Duration
	workout, err := api.CreateWorkout(ctx, fitness.CreateWorkoutRequest{
		UserID:   userID,
		Name:     f.Name,
		Type:     f.Type,
		Duration: &duration,
		Notes:    &notes,
	})
	if err != nil {
		return nil, fmt.Errorf("create workout: %w", err)
	}

	for _, row := range f.Exercises {
		name := strings.TrimSpace(row.Name)
		if name == "" {
			continue
		}
		exercise, err := api.CreateExercise(ctx, fitness.CreateExerciseRequest{
			WorkoutID: workout.ID,
			Name:      name,
			Sets:      optional(row.Sets),
			Reps:      optional(row.Reps),
			Weight:    optional(row.Weight),
			Duration:  optional(row.Duration),
		})
		if err != nil {
			return workout, fmt.Errorf("create exercise %q: %w", name, err)
		}
		workout.Exercises = append(workout.Exercises, *exercise)
	}

	return workout, nil
}

type GoalForm struct {
	Title        string
	Description  string
	TargetValue  *float64
	CurrentValue float64
	Unit         string
	TargetDate   *repo.Date
	Category     string
}

func (f GoalForm) Submit(ctx context.Context, api *Api, userID string) (*repo.Goal, error) {
	current := f.CurrentValue
	goal, err := api.CreateGoal(ctx, fitness.CreateGoalRequest{
		UserID:       userID,
		Title:        f.Title,
		Description:  f.Description,
		TargetValue:  f.TargetValue,
		CurrentValue: &current,
		Unit:         f.Unit,
		TargetDate:   f.TargetDate,
		Category:     f.Category,
	})
	if err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}
	return goal, nil
}

func optional[T int | float64](v T) *T {
	if v == 0 {
		return nil
	}
	return &v
}
