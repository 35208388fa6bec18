//go:build integration_test || all_tests

package test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/2beens/fittracker/internal/client"
	"github.com/2beens/fittracker/internal/fitness"
	"github.com/2beens/fittracker/internal/fitness/repo"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *E2ETestSuite) TestRoot() {
	t := s.T()

	msg, err := s.api.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fitness.RootMessage, msg)

	resp, err := s.httpClient.Get(apiEndpoint)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func (s *E2ETestSuite) TestWorkoutsFlow() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()
	userID := gofakeit.UUID()

	workouts, err := s.api.ListWorkouts(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, workouts)

	older := time.Now().Add(-26 * time.Hour).UTC().Truncate(time.Second)
	duration := 40
	first, err := s.api.CreateWorkout(ctx, fitness.CreateWorkoutRequest{
		UserID:      userID,
		Name:        "Yesterday",
		Type:        "cardio",
		Duration:    &duration,
		WorkoutDate: &repo.Timestamp{Time: older},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first.ID, "workout_"))

	form := client.WorkoutForm{
		Name: "Today",
		Type: "strength",
		Exercises: []client.ExerciseRow{
			{Name: "Deadlift", Sets: 5, Reps: 5, Weight: 140},
			{Name: " "},
		},
	}
	second, err := form.Submit(ctx, s.api, userID)
	require.NoError(t, err)
	require.Len(t, second.Exercises, 1)

	workouts, err = s.api.ListWorkouts(ctx, userID)
	require.NoError(t, err)
	require.Len(t, workouts, 2)
	assert.Equal(t, second.ID, workouts[0].ID)
	assert.Equal(t, first.ID, workouts[1].ID)
	assert.True(t, workouts[1].WorkoutDate.Equal(older))
	assert.Empty(t, workouts[1].Exercises)

	require.Len(t, workouts[0].Exercises, 1)
	deadlift := workouts[0].Exercises[0]
	assert.Equal(t, "Deadlift", deadlift.Name)
	require.NotNil(t, deadlift.Weight)
	assert.Equal(t, 140.0, *deadlift.Weight)
	assert.Nil(t, deadlift.Duration)

	var stored int
	require.NoError(t, s.db.QueryRow(ctx,
		`SELECT count(*) FROM exercises WHERE workout_id = $1`, second.ID,
	).Scan(&stored))
	assert.Equal(t, 1, stored)

	_, err = s.api.CreateExercise(ctx, fitness.CreateExerciseRequest{WorkoutID: "workout_unknown", Name: "Row"})
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "Failed to create exercise", apiErr.Message)
}

func (s *E2ETestSuite) TestGoalsAndStats() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()
	userID := gofakeit.UUID()

	target := 50.0
	reached := 50.0
	_, err := s.api.CreateGoal(ctx, fitness.CreateGoalRequest{
		UserID:       userID,
		Title:        "Push-ups",
		TargetValue:  &target,
		CurrentValue: &reached,
		Unit:         "reps",
		Category:     "strength",
		Status:       "completed",
	})
	require.NoError(t, err)

	targetDate := repo.NewDate(time.Now().AddDate(0, 3, 0))
	goal, err := client.GoalForm{
		Title:       "Lose weight",
		TargetValue: &target,
		Unit:        "kg",
		TargetDate:  &targetDate,
		Category:    "weight",
	}.Submit(ctx, s.api, userID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, goal.CurrentValue)

	goals, err := s.api.ListGoals(ctx, userID)
	require.NoError(t, err)
	require.Len(t, goals, 2)
	assert.Equal(t, "Lose weight", goals[0].Title)
	require.NotNil(t, goals[0].TargetDate)
	assert.Equal(t, targetDate.String(), goals[0].TargetDate.String())
	for _, g := range goals {
		assert.Equal(t, "active", string(g.Status))
	}

	_, err = s.api.CreateWorkout(ctx, fitness.CreateWorkoutRequest{UserID: userID, Name: "Swim"})
	require.NoError(t, err)

	st, err := s.api.Stats(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, fitness.StatsResponse{
		TotalWorkouts:  1,
		WeeklyWorkouts: 1,
		CompletedGoals: 1,
		TotalGoals:     2,
	}, *st)
}

func (s *E2ETestSuite) TestValidationAndNotFound() {
	t := s.T()

	resp, err := s.httpClient.Post(apiEndpoint+"/goals", "application/json", strings.NewReader(`{"user_id":"u1"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "user_id and title are required", readError(t, resp))

	resp, err = s.httpClient.Get(apiEndpoint + "/stats")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "userId is required", readError(t, resp))

	resp, err = s.httpClient.Get(apiEndpoint + "/unknown")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Route /unknown not found", readError(t, resp))
}

func (s *E2ETestSuite) TestPreflight() {
	t := s.T()

	req, err := http.NewRequest(http.MethodOptions, apiEndpoint+"/workouts", nil)
	require.NoError(t, err)
	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", resp.Header.Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, Authorization", resp.Header.Get("Access-Control-Allow-Headers"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Empty(t, body)
}

func (s *E2ETestSuite) TestWritesAreRateLimited() {
	ctx := context.Background()
	t := s.T()

	_, err := s.api.CreateWorkout(ctx, fitness.CreateWorkoutRequest{UserID: gofakeit.UUID(), Name: "Limited"})
	require.NoError(t, err)

	keys, err := s.redisClient.Keys(ctx, "rate:fittracker-writes:*").Result()
	require.NoError(t, err)
	assert.NotEmpty(t, keys)
}

func (s *E2ETestSuite) TestMetricsEndpoint() {
	t := s.T()

	resp, err := s.httpClient.Get(fmt.Sprintf("http://%s:%s/metrics", serverHost, metricsPort))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "fittracker_main_request_duration_seconds")
	assert.Contains(t, string(body), "pgxpool_")
}

func readError(t require.TestingT, resp *http.Response) string {
	defer resp.Body.Close()
	var errResp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	return errResp.Error
}
