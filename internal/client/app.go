package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/2beens/fittracker/internal/fitness/repo"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// App keeps a Store in sync with the auth session and the API.
type App struct {
	api   *Api
	auth  *AuthClient
	store *Store

	NowFunc func() time.Time

	unsubscribeAuth func()
}

func NewApp(api *Api, auth *AuthClient, store *Store) *App {
	app := &App{
		api:     api,
		auth:    auth,
		store:   store,
		NowFunc: time.Now,
	}

	app.unsubscribeAuth = auth.OnAuthStateChange(func(event AuthEvent, session *Session) {
		log.Debugf("auth state changed: %s", event)
		if session == nil || !session.Active() {
			store.Dispatch(SessionChanged{User: nil})
			return
		}
		user := session.User
		store.Dispatch(SessionChanged{User: &user})
	})

	return app
}

func (a *App) Store() *Store {
	return a.store
}

func (a *App) SignIn(ctx context.Context, email, password string) error {
	if _, err := a.auth.SignIn(ctx, email, password); err != nil {
		return err
	}
	return a.Refresh(ctx)
}

// SignUp registers a user with their name as profile data. Sessions that
// wait for email confirmation do not load any data.
func (a *App) SignUp(ctx context.Context, email, password, name string) error {
	session, err := a.auth.SignUp(ctx, email, password, map[string]any{"name": name})
	if err != nil {
		return err
	}
	if !session.Active() {
		return nil
	}
	return a.Refresh(ctx)
}

func (a *App) SignOut(ctx context.Context) error {
	return a.auth.SignOut(ctx)
}

func (a *App) SelectTab(tab Tab) {
	a.store.Dispatch(TabSelected{Tab: tab})
}

// Refresh loads the workouts and goals of the signed in user.
func (a *App) Refresh(ctx context.Context) error {
	user := a.auth.CurrentUser()
	if user == nil {
		return ErrNoSession
	}

	var (
		wg       sync.WaitGroup
		workouts []repo.Workout
		goals    []repo.Goal
		wErr     error
		gErr     error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		workouts, wErr = a.api.ListWorkouts(ctx, user.ID)
	}()
	go func() {
		defer wg.Done()
		goals, gErr = a.api.ListGoals(ctx, user.ID)
	}()
	wg.Wait()

	err := multierr.Combine(wErr, gErr)
	if err != nil {
		log.Errorf("load user data: %s", err)
	}
	a.store.Dispatch(DataFetched{
		Workouts: workouts,
		Goals:    goals,
		At:       a.NowFunc(),
		Err:      err,
	})
	return err
}

func (a *App) SubmitWorkout(ctx context.Context, form WorkoutForm) (*repo.Workout, error) {
	user := a.auth.CurrentUser()
	if user == nil {
		return nil, ErrNoSession
	}

	workout, err := form.Submit(ctx, a.api, user.ID)
	a.store.Dispatch(FormSubmitted{Form: FormWorkout, Err: err})
	if err != nil {
		return workout, err
	}
	return workout, a.refreshQuietly(ctx)
}

func (a *App) SubmitGoal(ctx context.Context, form GoalForm) (*repo.Goal, error) {
	user := a.auth.CurrentUser()
	if user == nil {
		return nil, ErrNoSession
	}

	goal, err := form.Submit(ctx, a.api, user.ID)
	a.store.Dispatch(FormSubmitted{Form: FormGoal, Err: err})
	if err != nil {
		return nil, err
	}
	return goal, a.refreshQuietly(ctx)
}

// refreshQuietly reloads data after a successful submit. A failed reload
// is already in the state and must not turn the submit into a failure.
func (a *App) refreshQuietly(ctx context.Context) error {
	if err := a.Refresh(ctx); err != nil && errors.Is(err, ErrNoSession) {
		return err
	}
	return nil
}

func (a *App) Close() {
	if a.unsubscribeAuth != nil {
		a.unsubscribeAuth()
	}
}
