package client_test

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/2beens/fittracker/internal/client"
	"github.com/2beens/fittracker/internal/fitness/repo"
	"github.com/2beens/fittracker/internal/fitness/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDashboard(t *testing.T) {
	var workouts []repo.Workout
	for i := range 7 {
		workouts = append(workouts, workoutOn(fmt.Sprintf("w%d", i), testNow.Add(-time.Duration(i)*24*time.Hour)))
	}
	state := client.State{
		User:      &client.User{ID: "u1", Email: "ana@example.com", UserMetadata: map[string]any{"name": "Ana"}},
		Workouts:  workouts,
		Goals:     []repo.Goal{goalWith("g1", 150, 100), goalWith("g2", 25, 100), {ID: "g3", Title: "no target"}},
		ActiveTab: client.TabHome,
		Notice:    "Goal created successfully!",
	}

	d := client.BuildDashboard(state, testNow)
	assert.Equal(t, client.TabHome, d.Tab)
	assert.Equal(t, "Ana", d.DisplayName)
	assert.Equal(t, "ana@example.com", d.Email)
	assert.Equal(t, "Goal created successfully!", d.Notice)

	require.Len(t, d.RecentWorkouts, client.RecentWorkoutsLimit)
	assert.Equal(t, "w0", d.RecentWorkouts[0].ID)
	assert.Equal(t, "w4", d.RecentWorkouts[4].ID)

	assert.Equal(t, stats.Stats{
		TotalWorkouts:  7,
		WeeklyWorkouts: 7,
		CompletedGoals: 2,
		TotalGoals:     3,
		Streak:         7,
	}, d.Stats)

	require.Len(t, d.Goals, 3)
	assert.Equal(t, 100.0, d.Goals[0].Percent)
	assert.True(t, d.Goals[0].Completed)
	assert.Equal(t, 25.0, d.Goals[1].Percent)
	assert.False(t, d.Goals[1].Completed)
	// missing target compares as 0, so it is done
	assert.Equal(t, 100.0, d.Goals[2].Percent)
	assert.True(t, d.Goals[2].Completed)

	require.Len(t, d.Activity, stats.ActivityDays+1)
	last := d.Activity[len(d.Activity)-1]
	assert.Equal(t, 1, last.Workouts)
	assert.Equal(t, 30, last.TotalDuration)
}

func TestBuildDashboard_Empty(t *testing.T) {
	d := client.BuildDashboard(client.State{}, testNow)
	assert.Empty(t, d.DisplayName)
	assert.Empty(t, d.RecentWorkouts)
	assert.Empty(t, d.Goals)
	assert.Equal(t, stats.Stats{}, d.Stats)
	assert.Len(t, d.Activity, stats.ActivityDays+1)
}

func TestDashboard_Render(t *testing.T) {
	state := client.State{
		User:      &client.User{ID: "u1", Email: "ana@example.com"},
		Workouts:  []repo.Workout{workoutOn("w1", testNow), workoutOn("w2", testNow)},
		Goals:     []repo.Goal{goalWith("g1", 5, 10)},
		LastError: "Failed to load user data",
	}

	var buf bytes.Buffer
	require.NoError(t, client.BuildDashboard(state, testNow).Render(&buf))
	out := buf.String()

	assert.Contains(t, out, "Welcome back, ana@example.com!")
	assert.Contains(t, out, "error: Failed to load user data")
	assert.Regexp(t, `Total workouts\s+2`, out)
	assert.Regexp(t, `Streak\s+1 days`, out)
	assert.Regexp(t, `Goals completed\s+0/1`, out)
	assert.Contains(t, out, "w w1")
	assert.Contains(t, out, "[ ] g g1")
	assert.Contains(t, out, "50%")
	assert.NotContains(t, out, "Last 30 days")
}

func TestDashboard_RenderTabs(t *testing.T) {
	state := client.State{
		User:     &client.User{ID: "u1", Email: "ana@example.com", UserMetadata: map[string]any{"name": "Ana"}},
		Workouts: []repo.Workout{workoutOn("w1", testNow), workoutOn("w2", testNow)},
		Goals:    []repo.Goal{goalWith("g1", 10, 10)},
	}

	state.ActiveTab = client.TabProgress
	var buf bytes.Buffer
	require.NoError(t, client.BuildDashboard(state, testNow).Render(&buf))
	out := buf.String()
	assert.Contains(t, out, "Last 30 days")
	assert.Regexp(t, `2024-04-20\s+##\s+60 min`, out)
	assert.Contains(t, out, "[x] g g1")
	assert.NotContains(t, out, "Recent workouts")

	state.ActiveTab = client.TabProfile
	buf.Reset()
	require.NoError(t, client.BuildDashboard(state, testNow).Render(&buf))
	out = buf.String()
	assert.Regexp(t, `Name\s+Ana`, out)
	assert.Regexp(t, `Email\s+ana@example.com`, out)
	assert.Regexp(t, `Workouts logged\s+2`, out)
	assert.NotContains(t, out, "Goals\n")
}

func TestDashboard_RenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, client.BuildDashboard(client.State{}, testNow).Render(&buf))
	assert.Contains(t, buf.String(), "no workouts yet")
	assert.Contains(t, buf.String(), "no goals yet")
	assert.NotContains(t, buf.String(), "Welcome back")
}
