package client

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/2beens/fittracker/internal/fitness/repo"
	"github.com/2beens/fittracker/internal/fitness/stats"
)

const RecentWorkoutsLimit = 5

type GoalProgress struct {
	Goal      repo.Goal
	Percent   float64
	Completed bool
}

// Dashboard is the read model of a State, ready to be printed.
type Dashboard struct {
	Tab            Tab
	DisplayName    string
	Email          string
	Stats          stats.Stats
	RecentWorkouts []repo.Workout
	Goals          []GoalProgress
	Activity       []stats.DayActivity
	Notice         string
	Error          string
}

// BuildDashboard recomputes the numbers as of ref, so a dashboard built
// from an old snapshot still shows a correct streak and weekly count.
func BuildDashboard(state State, ref time.Time) Dashboard {
	d := Dashboard{
		Tab:      state.ActiveTab,
		Stats:    stats.Compute(state.Workouts, state.Goals, ref),
		Activity: stats.DailyActivity(state.Workouts, ref),
		Notice:   state.Notice,
		Error:    state.LastError,
	}
	if state.User != nil {
		d.DisplayName = state.User.DisplayName()
		d.Email = state.User.Email
	}
	if !d.Tab.Valid() {
		d.Tab = TabHome
	}

	recent := state.Workouts
	if len(recent) > RecentWorkoutsLimit {
		recent = recent[:RecentWorkoutsLimit]
	}
	d.RecentWorkouts = append([]repo.Workout(nil), recent...)

	d.Goals = make([]GoalProgress, 0, len(state.Goals))
	for _, g := range state.Goals {
		d.Goals = append(d.Goals, GoalProgress{
			Goal:      g,
			Percent:   g.Progress(),
			Completed: g.Completed(),
		})
	}

	return d
}

// Render prints the sections of the active tab.
func (d Dashboard) Render(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	if d.DisplayName != "" {
		fmt.Fprintf(tw, "Welcome back, %s!\n\n", d.DisplayName)
	}
	if d.Notice != "" {
		fmt.Fprintf(tw, "%s\n\n", d.Notice)
	}
	if d.Error != "" {
		fmt.Fprintf(tw, "error: %s\n\n", d.Error)
	}

	switch d.Tab {
	case TabProgress:
		d.renderGoals(tw)
		d.renderActivity(tw)
	case TabProfile:
		fmt.Fprintf(tw, "Name\t%s\n", d.DisplayName)
		fmt.Fprintf(tw, "Email\t%s\n", d.Email)
		fmt.Fprintf(tw, "Workouts logged\t%d\n", d.Stats.TotalWorkouts)
		fmt.Fprintf(tw, "Goals set\t%d\n", d.Stats.TotalGoals)
	default:
		d.renderStats(tw)
		d.renderRecentWorkouts(tw)
		d.renderGoals(tw)
	}

	return tw.Flush()
}

func (d Dashboard) renderStats(w io.Writer) {
	fmt.Fprintf(w, "Total workouts\t%d\n", d.Stats.TotalWorkouts)
	fmt.Fprintf(w, "This week\t%d\n", d.Stats.WeeklyWorkouts)
	fmt.Fprintf(w, "Streak\t%d days\n", d.Stats.Streak)
	fmt.Fprintf(w, "Goals completed\t%d/%d\n", d.Stats.CompletedGoals, d.Stats.TotalGoals)
}

func (d Dashboard) renderRecentWorkouts(w io.Writer) {
	fmt.Fprintln(w, "\nRecent workouts")
	if len(d.RecentWorkouts) == 0 {
		fmt.Fprintln(w, "  no workouts yet")
	}
	for _, wo := range d.RecentWorkouts {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%d min\t%d exercises\n",
			wo.WorkoutDate.Format(time.DateOnly), wo.Name, wo.Type, wo.Duration, len(wo.Exercises))
	}
}

func (d Dashboard) renderGoals(w io.Writer) {
	fmt.Fprintln(w, "\nGoals")
	if len(d.Goals) == 0 {
		fmt.Fprintln(w, "  no goals yet")
	}
	for _, gp := range d.Goals {
		mark := " "
		if gp.Completed {
			mark = "x"
		}
		fmt.Fprintf(w, "  [%s] %s\t%g/%g %s\t%.0f%%\n",
			mark, gp.Goal.Title, gp.Goal.CurrentValue, gp.Goal.Target(), gp.Goal.Unit, gp.Percent)
	}
}

func (d Dashboard) renderActivity(w io.Writer) {
	fmt.Fprintf(w, "\nLast %d days\n", stats.ActivityDays)
	for _, a := range d.Activity {
		if a.Workouts == 0 {
			continue
		}
		fmt.Fprintf(w, "  %s\t%s\t%d min\n",
			a.Date.Format(time.DateOnly), strings.Repeat("#", a.Workouts), a.TotalDuration)
	}
}
