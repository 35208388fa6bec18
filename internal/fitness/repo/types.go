package repo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Workout is a logged exercise session of one user. WorkoutDate is the
// moment the workout counts toward, CreatedAt is when it was logged.
type Workout struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Name        string     `json:"name"`
	Type        string     `json:"type"`
	Duration    int        `json:"duration"` // minutes
	Notes       string     `json:"notes"`
	WorkoutDate time.Time  `json:"workout_date"`
	CreatedAt   time.Time  `json:"created_at"`
	Exercises   []Exercise `json:"exercises"`
}

// Exercise is one movement within a workout. Nil numeric fields were not
// recorded, which is different from a recorded zero.
type Exercise struct {
	ID        string    `json:"id"`
	WorkoutID string    `json:"workout_id"`
	Name      string    `json:"name"`
	Sets      *int      `json:"sets"`
	Reps      *int      `json:"reps"`
	Weight    *float64  `json:"weight"`
	Duration  *int      `json:"duration"`
	CreatedAt time.Time `json:"created_at"`
}

type GoalStatus string

const GoalStatusActive GoalStatus = "active"

// Goal is a numeric target. Status is informational and never changes on
// its own; use Completed to know whether the target was reached.
type Goal struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	TargetValue  *float64   `json:"target_value"`
	CurrentValue float64    `json:"current_value"`
	Unit         string     `json:"unit"`
	TargetDate   *Date      `json:"target_date"`
	Category     string     `json:"category"`
	Status       GoalStatus `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Target returns the target value, a missing target counts as 0.
func (g Goal) Target() float64 {
	if g.TargetValue == nil {
		return 0
	}
	return *g.TargetValue
}

// Completed reports whether current_value >= target_value.
func (g Goal) Completed() bool {
	return g.CurrentValue >= g.Target()
}

// Progress returns the completion percentage in [0, 100].
func (g Goal) Progress() float64 {
	target := g.Target()
	if target <= 0 {
		if g.Completed() {
			return 100
		}
		return 0
	}

	p := g.CurrentValue / target * 100
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

const dateLayout = "2006-01-02"

// ErrInvalidTime is returned for date and timestamp values in neither
// YYYY-MM-DD nor RFC 3339 form.
var ErrInvalidTime = errors.New("expected YYYY-MM-DD or an RFC 3339 timestamp")

// Date is a calendar date without time of day, serialized as YYYY-MM-DD.
// Full RFC 3339 timestamps are accepted on input and cut to their date.
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	return Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	t, err := parseTime(data)
	if err != nil {
		return err
	}
	*d = NewDate(t)
	return nil
}

// Timestamp is a point in time that also accepts a bare YYYY-MM-DD date
// on input, read as midnight UTC. It is serialized as RFC 3339.
type Timestamp struct {
	time.Time
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(ts.Time)
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	t, err := parseTime(data)
	if err != nil {
		return err
	}
	ts.Time = t
	return nil
}

func parseTime(data []byte) (time.Time, error) {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return time.Time{}, fmt.Errorf("%w, got %s", ErrInvalidTime, data)
	}

	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w, got %q: %w", ErrInvalidTime, raw, err)
	}
	return t, nil
}
