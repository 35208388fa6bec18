package fitness

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/fittracker/internal/fitness/repo"
)

var ErrNegativeDuration = errors.New("duration cannot be negative")

// ValidationError is returned for input a caller has to fix, its message
// is safe to show to the client.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

// FieldError reports a request body field holding a value of the wrong type
// or format.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid value for field %s", e.Field)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// fieldTimeError names the field behind a date parse failure, encoding/json
// passes custom unmarshaler errors through without it.
func fieldTimeError(field string, err error) error {
	if errors.Is(err, repo.ErrInvalidTime) {
		return &FieldError{Field: field, Err: err}
	}
	return err
}

type CreateWorkoutRequest struct {
	UserID      string          `json:"user_id"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Duration    *int            `json:"duration"`
	Notes       *string         `json:"notes"`
	WorkoutDate *repo.Timestamp `json:"workout_date"`
}

func (req *CreateWorkoutRequest) UnmarshalJSON(data []byte) error {
	type plain CreateWorkoutRequest
	return fieldTimeError("workout_date", json.Unmarshal(data, (*plain)(req)))
}

// ToWorkout validates the request and fills in the defaults: duration 0,
// empty notes and now as workout date.
func (req CreateWorkoutRequest) ToWorkout(now time.Time) (repo.Workout, error) {
	if req.UserID == "" || req.Name == "" {
		return repo.Workout{}, newValidationError("user_id and name are required")
	}

	w := repo.Workout{
		ID:          repo.NewWorkoutID(),
		UserID:      req.UserID,
		Name:        req.Name,
		Type:        req.Type,
		WorkoutDate: now,
		CreatedAt:   now,
		Exercises:   []repo.Exercise{},
	}
	if req.Duration != nil {
		if *req.Duration < 0 {
			return repo.Workout{}, newValidationError(ErrNegativeDuration.Error())
		}
		w.Duration = *req.Duration
	}
	if req.Notes != nil {
		w.Notes = *req.Notes
	}
	if req.WorkoutDate != nil && !req.WorkoutDate.IsZero() {
		w.WorkoutDate = req.WorkoutDate.Time
	}

	return w, nil
}

type CreateGoalRequest struct {
	UserID       string     `json:"user_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	TargetValue  *float64   `json:"target_value"`
	CurrentValue *float64   `json:"current_value"`
	Unit         string     `json:"unit"`
	TargetDate   *repo.Date `json:"target_date"`
	Category     string     `json:"category"`
	// Status is accepted but ignored, new goals are always active.
	Status string `json:"status"`
}

func (req *CreateGoalRequest) UnmarshalJSON(data []byte) error {
	type plain CreateGoalRequest
	return fieldTimeError("target_date", json.Unmarshal(data, (*plain)(req)))
}

func (req CreateGoalRequest) ToGoal(now time.Time) (repo.Goal, error) {
	if req.UserID == "" || req.Title == "" {
		return repo.Goal{}, newValidationError("user_id and title are required")
	}

	g := repo.Goal{
		ID:          repo.NewGoalID(),
		UserID:      req.UserID,
		Title:       req.Title,
		Description: req.Description,
		TargetValue: req.TargetValue,
		Unit:        req.Unit,
		TargetDate:  req.TargetDate,
		Category:    req.Category,
		Status:      repo.GoalStatusActive,
		CreatedAt:   now,
	}
	if req.CurrentValue != nil {
		g.CurrentValue = *req.CurrentValue
	}

	return g, nil
}

type CreateExerciseRequest struct {
	WorkoutID string   `json:"workout_id"`
	Name      string   `json:"name"`
	Sets      *int     `json:"sets"`
	Reps      *int     `json:"reps"`
	Weight    *float64 `json:"weight"`
	Duration  *int     `json:"duration"`
}

// ToExercise validates the request. Zero numeric values mean "not
// recorded" and are stored as null.
func (req CreateExerciseRequest) ToExercise(now time.Time) (repo.Exercise, error) {
	if req.WorkoutID == "" || req.Name == "" {
		return repo.Exercise{}, newValidationError("workout_id and name are required")
	}

	return repo.Exercise{
		ID:        repo.NewExerciseID(),
		WorkoutID: req.WorkoutID,
		Name:      req.Name,
		Sets:      nonZero(req.Sets),
		Reps:      nonZero(req.Reps),
		Weight:    nonZero(req.Weight),
		Duration:  nonZero(req.Duration),
		CreatedAt: now,
	}, nil
}

func nonZero[T int | float64](v *T) *T {
	if v == nil || *v == 0 {
		return nil
	}
	return v
}
