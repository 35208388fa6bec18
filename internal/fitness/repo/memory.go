package repo

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo keeps everything in process memory. Used for local
// development and tests; data is gone on restart.
type MemoryRepo struct {
	mu        sync.RWMutex
	workouts  map[string][]*Workout // by user id
	workoutBy map[string]*Workout   // by workout id
	goals     map[string][]Goal     // by user id
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		workouts:  make(map[string][]*Workout),
		workoutBy: make(map[string]*Workout),
		goals:     make(map[string][]Goal),
	}
}

func (r *MemoryRepo) ListWorkouts(_ context.Context, userID string, withExercises bool) ([]Workout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	workouts := make([]Workout, 0, len(r.workouts[userID]))
	for _, w := range r.workouts[userID] {
		cp := *w
		cp.Exercises = []Exercise{}
		if withExercises {
			cp.Exercises = append(cp.Exercises, w.Exercises...)
		}
		workouts = append(workouts, cp)
	}

	sort.SliceStable(workouts, func(i, j int) bool {
		return workouts[i].WorkoutDate.After(workouts[j].WorkoutDate)
	})

	return workouts, nil
}

func (r *MemoryRepo) AddWorkout(_ context.Context, w Workout) (*Workout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now()
	}
	w.Exercises = []Exercise{}

	stored := w
	r.workouts[w.UserID] = append(r.workouts[w.UserID], &stored)
	r.workoutBy[w.ID] = &stored

	return &w, nil
}

func (r *MemoryRepo) AddExercise(_ context.Context, e Exercise) (*Exercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.workoutBy[e.WorkoutID]
	if !ok {
		return nil, ErrWorkoutNotFound
	}

	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	w.Exercises = append(w.Exercises, e)

	return &e, nil
}

func (r *MemoryRepo) ListGoals(_ context.Context, userID string) ([]Goal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	goals := make([]Goal, len(r.goals[userID]))
	copy(goals, r.goals[userID])

	sort.SliceStable(goals, func(i, j int) bool {
		return goals[i].CreatedAt.After(goals[j].CreatedAt)
	})

	return goals, nil
}

func (r *MemoryRepo) AddGoal(_ context.Context, g Goal) (*Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}
	r.goals[g.UserID] = append(r.goals[g.UserID], g)

	return &g, nil
}
