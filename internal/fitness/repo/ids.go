package repo

import "github.com/google/uuid"

const (
	WorkoutIDPrefix  = "workout_"
	ExerciseIDPrefix = "exercise_"
	GoalIDPrefix     = "goal_"
)

// IDs are random (v4) uuids with an entity prefix, so siblings created in
// the same instant never collide.

func NewWorkoutID() string {
	return WorkoutIDPrefix + uuid.NewString()
}

func NewExerciseID() string {
	return ExerciseIDPrefix + uuid.NewString()
}

func NewGoalID() string {
	return GoalIDPrefix + uuid.NewString()
}
