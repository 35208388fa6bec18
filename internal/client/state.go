package client

import (
	"sort"
	"sync"
	"time"

	"github.com/2beens/fittracker/internal/fitness/repo"
	"github.com/2beens/fittracker/internal/fitness/stats"
)

type Tab string

const (
	TabHome     Tab = "home"
	TabProgress Tab = "progress"
	TabProfile  Tab = "profile"
)

func (t Tab) Valid() bool {
	switch t {
	case TabHome, TabProgress, TabProfile:
		return true
	default:
		return false
	}
}

type FormKind string

const (
	FormWorkout FormKind = "workout"
	FormGoal    FormKind = "goal"
)

// State is everything a client shows. It only changes through Store.Dispatch.
type State struct {
	User      *User
	Workouts  []repo.Workout
	Goals     []repo.Goal
	Stats     stats.Stats
	FetchedAt time.Time
	ActiveTab Tab
	// Notice and LastError hold the outcome of the latest action.
	Notice    string
	LastError string
}

func (s State) clone() State {
	cp := s
	if s.User != nil {
		u := *s.User
		cp.User = &u
	}
	cp.Workouts = append([]repo.Workout(nil), s.Workouts...)
	cp.Goals = append([]repo.Goal(nil), s.Goals...)
	return cp
}

// Event is a single state transition.
type Event interface {
	apply(s *State)
}

// SessionChanged follows the auth session. A nil user means signed out
// and wipes all user data.
type SessionChanged struct {
	User *User
}

func (e SessionChanged) apply(s *State) {
	if e.User == nil {
		*s = State{ActiveTab: TabHome}
		return
	}
	if s.User != nil && s.User.ID != e.User.ID {
		s.Workouts, s.Goals, s.Stats = nil, nil, stats.Stats{}
	}
	s.User = e.User
}

// DataFetched carries a fresh copy of the user's records, or the error
// that prevented getting them.
type DataFetched struct {
	Workouts []repo.Workout
	Goals    []repo.Goal
	At       time.Time
	Err      error
}

func (e DataFetched) apply(s *State) {
	if e.Err != nil {
		s.LastError = "Failed to load user data"
		return
	}

	s.Workouts = append([]repo.Workout(nil), e.Workouts...)
	sort.SliceStable(s.Workouts, func(i, j int) bool {
		return s.Workouts[i].WorkoutDate.After(s.Workouts[j].WorkoutDate)
	})
	s.Goals = append([]repo.Goal(nil), e.Goals...)
	s.Stats = stats.Compute(s.Workouts, s.Goals, e.At)
	s.FetchedAt = e.At
	s.LastError = ""
}

type FormSubmitted struct {
	Form FormKind
	Err  error
}

func (e FormSubmitted) apply(s *State) {
	var ok, failed string
	switch e.Form {
	case FormWorkout:
		ok, failed = "Workout logged successfully!", "Failed to log workout"
	case FormGoal:
		ok, failed = "Goal created successfully!", "Failed to create goal"
	default:
		return
	}

	if e.Err != nil {
		s.Notice = ""
		s.LastError = failed
		return
	}
	s.Notice = ok
	s.LastError = ""
}

// TabSelected switches tabs, unknown tabs are ignored.
type TabSelected struct {
	Tab Tab
}

func (e TabSelected) apply(s *State) {
	if e.Tab.Valid() {
		s.ActiveTab = e.Tab
	}
}

// Store owns a State. Subscribers get a copy after every event.
type Store struct {
	mu          sync.Mutex
	state       State
	subscribers map[int]func(State)
	nextSubID   int
}

func NewStore() *Store {
	return &Store{
		state:       State{ActiveTab: TabHome},
		subscribers: make(map[int]func(State)),
	}
}

func (s *Store) Dispatch(e Event) {
	s.mu.Lock()
	e.apply(&s.state)
	snapshot := s.state.clone()
	ids := make([]int, 0, len(s.subscribers))
	for id := range s.subscribers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	subs := make([]func(State), 0, len(ids))
	for _, id := range ids {
		subs = append(subs, s.subscribers[id])
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(snapshot)
	}
}

func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}
