package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/fittracker/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrWorkoutNotFound = errors.New("workout not found")

// foreign_key_violation
const pgCodeFKViolation = "23503"

// PoolProvider hands out the connection pool, creating it on first use.
type PoolProvider interface {
	Get(ctx context.Context) (*pgxpool.Pool, error)
}

type PostgresRepo struct {
	pools PoolProvider
}

func NewPostgresRepo(pools PoolProvider) *PostgresRepo {
	return &PostgresRepo{
		pools: pools,
	}
}

// ListWorkouts returns the user's workouts, newest workout_date first.
func (r *PostgresRepo) ListWorkouts(ctx context.Context, userID string, withExercises bool) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.fitness.workouts.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user_id", userID))
	span.SetAttributes(attribute.Bool("with_exercises", withExercises))

	db, err := r.pools.Get(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(
		ctx,
		`
			SELECT id, user_id, name, type, duration, notes, workout_date, created_at
			FROM workouts
			WHERE user_id = $1
			ORDER BY workout_date DESC;`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workouts := []Workout{}
	var ids []string
	for rows.Next() {
		var w Workout
		if err := rows.Scan(&w.ID, &w.UserID, &w.Name, &w.Type, &w.Duration, &w.Notes, &w.WorkoutDate, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan workout: %w", err)
		}
		w.Exercises = []Exercise{}
		workouts = append(workouts, w)
		ids = append(ids, w.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	span.SetAttributes(attribute.Int("workouts.count", len(workouts)))
	if !withExercises || len(workouts) == 0 {
		return workouts, nil
	}

	byWorkout, err := r.exercisesFor(ctx, db, ids)
	if err != nil {
		return nil, err
	}
	for i := range workouts {
		if ex, ok := byWorkout[workouts[i].ID]; ok {
			workouts[i].Exercises = ex
		}
	}

	return workouts, nil
}

func (r *PostgresRepo) exercisesFor(ctx context.Context, db *pgxpool.Pool, workoutIDs []string) (map[string][]Exercise, error) {
	rows, err := db.Query(
		ctx,
		`
			SELECT id, workout_id, name, sets, reps, weight, duration, created_at
			FROM exercises
			WHERE workout_id = ANY($1)
			ORDER BY created_at ASC;`,
		workoutIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("query exercises: %w", err)
	}
	defer rows.Close()

	byWorkout := make(map[string][]Exercise, len(workoutIDs))
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, err
		}
		byWorkout[e.WorkoutID] = append(byWorkout[e.WorkoutID], *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return byWorkout, nil
}

func (r *PostgresRepo) AddWorkout(ctx context.Context, w Workout) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.fitness.workouts.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user_id", w.UserID))

	db, err := r.pools.Get(ctx)
	if err != nil {
		return nil, err
	}

	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now()
	}

	var created Workout
	if err := db.QueryRow(
		ctx,
		`INSERT INTO workouts
				(id, user_id, name, type, duration, notes, workout_date, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, user_id, name, type, duration, notes, workout_date, created_at;`,
		w.ID, w.UserID, w.Name, w.Type, w.Duration, w.Notes, w.WorkoutDate, w.CreatedAt,
	).Scan(
		&created.ID, &created.UserID, &created.Name, &created.Type, &created.Duration,
		&created.Notes, &created.WorkoutDate, &created.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert workout: %w", err)
	}

	span.SetAttributes(attribute.String("workout.id", created.ID))
	created.Exercises = []Exercise{}
	return &created, nil
}

func (r *PostgresRepo) AddExercise(ctx context.Context, e Exercise) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.fitness.exercises.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("workout_id", e.WorkoutID))

	db, err := r.pools.Get(ctx)
	if err != nil {
		return nil, err
	}

	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	created, err := scanExercise(db.QueryRow(
		ctx,
		`INSERT INTO exercises
				(id, workout_id, name, sets, reps, weight, duration, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, workout_id, name, sets, reps, weight, duration, created_at;`,
		e.ID, e.WorkoutID, e.Name, e.Sets, e.Reps, e.Weight, e.Duration, e.CreatedAt,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgCodeFKViolation {
			return nil, ErrWorkoutNotFound
		}
		return nil, fmt.Errorf("insert exercise: %w", err)
	}

	return created, nil
}

func scanExercise(row pgx.Row) (*Exercise, error) {
	var e Exercise
	if err := row.Scan(&e.ID, &e.WorkoutID, &e.Name, &e.Sets, &e.Reps, &e.Weight, &e.Duration, &e.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan exercise: %w", err)
	}
	return &e, nil
}

// ListGoals returns the user's goals, newest first.
func (r *PostgresRepo) ListGoals(ctx context.Context, userID string) (_ []Goal, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.fitness.goals.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user_id", userID))

	db, err := r.pools.Get(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(
		ctx,
		`
			SELECT id, user_id, title, description, target_value, current_value, unit,
				target_date, category, status, created_at
			FROM goals
			WHERE user_id = $1
			ORDER BY created_at DESC;`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	goals := []Goal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("goals.count", len(goals)))
	return goals, nil
}

func (r *PostgresRepo) AddGoal(ctx context.Context, g Goal) (_ *Goal, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.fitness.goals.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user_id", g.UserID))

	db, err := r.pools.Get(ctx)
	if err != nil {
		return nil, err
	}

	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}

	var targetDate *time.Time
	if g.TargetDate != nil {
		targetDate = &g.TargetDate.Time
	}

	created, err := scanGoal(db.QueryRow(
		ctx,
		`INSERT INTO goals
				(id, user_id, title, description, target_value, current_value, unit,
				 target_date, category, status, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id, user_id, title, description, target_value, current_value, unit,
				target_date, category, status, created_at;`,
		g.ID, g.UserID, g.Title, g.Description, g.TargetValue, g.CurrentValue, g.Unit,
		targetDate, g.Category, string(g.Status), g.CreatedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("insert goal: %w", err)
	}

	span.SetAttributes(attribute.String("goal.id", created.ID))
	return created, nil
}

func scanGoal(row pgx.Row) (*Goal, error) {
	var (
		g          Goal
		status     string
		targetDate *time.Time
	)
	if err := row.Scan(
		&g.ID, &g.UserID, &g.Title, &g.Description, &g.TargetValue, &g.CurrentValue, &g.Unit,
		&targetDate, &g.Category, &status, &g.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("scan goal: %w", err)
	}

	g.Status = GoalStatus(status)
	if targetDate != nil {
		d := NewDate(*targetDate)
		g.TargetDate = &d
	}
	return &g, nil
}
