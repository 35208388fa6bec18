package stats

import (
	"math"
	"sort"
	"time"

	"github.com/2beens/fittracker/internal/fitness/repo"
)

const (
	day  = 24 * time.Hour
	week = 7 * day

	// ActivityDays is how far back DailyActivity reaches, today excluded.
	ActivityDays = 30
)

type Stats struct {
	TotalWorkouts  int `json:"totalWorkouts"`
	WeeklyWorkouts int `json:"weeklyWorkouts"`
	CompletedGoals int `json:"completedGoals"`
	TotalGoals     int `json:"totalGoals"`
	Streak         int `json:"streak"`
}

// Compute derives the aggregate numbers for one user's records as of ref.
// It only reads its arguments and is safe for concurrent use.
func Compute(workouts []repo.Workout, goals []repo.Goal, ref time.Time) Stats {
	return Stats{
		TotalWorkouts:  len(workouts),
		WeeklyWorkouts: WeeklyWorkouts(workouts, ref),
		CompletedGoals: CompletedGoals(goals),
		TotalGoals:     len(goals),
		Streak:         Streak(workouts, ref),
	}
}

// WeeklyWorkouts counts workouts dated at or after ref minus seven days.
// Future dated workouts count as well.
func WeeklyWorkouts(workouts []repo.Workout, ref time.Time) int {
	since := ref.Add(-week)
	count := 0
	for _, w := range workouts {
		if !w.WorkoutDate.Before(since) {
			count++
		}
	}
	return count
}

func CompletedGoals(goals []repo.Goal) int {
	count := 0
	for _, g := range goals {
		if g.Completed() {
			count++
		}
	}
	return count
}

// Streak walks the workouts newest first and counts while the day offset
// from ref equals the current count. The first mismatch ends the walk, so
// a second workout on an already counted day stops it too.
func Streak(workouts []repo.Workout, ref time.Time) int {
	dates := make([]time.Time, len(workouts))
	for i, w := range workouts {
		dates[i] = w.WorkoutDate
	}
	sort.SliceStable(dates, func(i, j int) bool {
		return dates[i].After(dates[j])
	})

	streak := 0
	for _, d := range dates {
		if dayDiff(ref, d) != streak {
			break
		}
		streak++
	}
	return streak
}

// dayDiff is floor((ref - t) / 24h).
func dayDiff(ref, t time.Time) int {
	return int(math.Floor(float64(ref.Sub(t)) / float64(day)))
}

type DayActivity struct {
	Date          time.Time `json:"date"`
	Workouts      int       `json:"workouts"`
	TotalDuration int       `json:"totalDuration"`
}

// DailyActivity returns one entry per calendar day (in ref's location)
// from ActivityDays days before ref up to ref's day, oldest first.
func DailyActivity(workouts []repo.Workout, ref time.Time) []DayActivity {
	loc := ref.Location()
	today := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, loc)
	first := today.AddDate(0, 0, -ActivityDays)

	series := make([]DayActivity, 0, ActivityDays+1)
	index := make(map[string]int, ActivityDays+1)
	for d := first; !d.After(today); d = d.AddDate(0, 0, 1) {
		index[d.Format(time.DateOnly)] = len(series)
		series = append(series, DayActivity{Date: d})
	}

	for _, w := range workouts {
		i, ok := index[w.WorkoutDate.In(loc).Format(time.DateOnly)]
		if !ok {
			continue
		}
		series[i].Workouts++
		series[i].TotalDuration += w.Duration
	}

	return series
}
