// Package main is a terminal client of the fittracker API. It signs in
// against the auth service, optionally logs a workout or a goal and prints
// the dashboard.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/2beens/fittracker/internal/client"
	"github.com/2beens/fittracker/internal/logging"

	log "github.com/sirupsen/logrus"
)

func main() {
	apiURL := flag.String("api", "http://localhost:8080/api", "fittracker API base URL, including the prefix")
	authURL := flag.String("auth-url", os.Getenv("SUPABASE_URL"), "auth service base URL (env SUPABASE_URL)")
	email := flag.String("email", "", "account email")
	password := flag.String("password", os.Getenv("FITTRACKER_PASSWORD"), "account password (env FITTRACKER_PASSWORD)")
	signUpName := flag.String("sign-up", "", "create the account first, with this display name")
	tab := flag.String("tab", string(client.TabHome), "dashboard tab [home | progress | profile]")
	logLevel := flag.String("log-level", "warn", "log level")

	addWorkout := flag.String("add-workout", "", "log a workout with this name")
	workoutType := flag.String("type", "strength", "workout type ["+strings.Join(client.WorkoutTypes, " | ")+"]")
	duration := flag.Int("duration", 0, "workout duration in minutes")
	notes := flag.String("notes", "", "workout notes")
	exercises := flag.String("exercises", "", "comma separated exercise names of the logged workout")

	addGoal := flag.String("add-goal", "", "create a goal with this title")
	target := flag.Float64("target", 0, "goal target value, 0 for none")
	current := flag.Float64("current", 0, "goal current value")
	unit := flag.String("unit", "", "goal unit")
	category := flag.String("category", "other", "goal category ["+strings.Join(client.GoalCategories, " | ")+"]")
	flag.Parse()

	logging.Setup(logging.LoggerSetupParams{
		LogToStdout: true,
		LogLevel:    *logLevel,
	})

	if *authURL == "" || *email == "" || *password == "" {
		log.Fatalln("auth-url, email and password are required")
	}
	anonKey := os.Getenv("SUPABASE_ANON_KEY")
	if anonKey == "" {
		log.Warnln("SUPABASE_ANON_KEY env var not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	app := client.NewApp(
		client.NewApi(*apiURL, nil),
		client.NewAuthClient(*authURL, anonKey, nil),
		client.NewStore(),
	)
	defer app.Close()

	if *signUpName != "" {
		if err := app.SignUp(ctx, *email, *password, *signUpName); err != nil {
			log.Fatalf("sign up: %s", err)
		}
		if app.Store().Snapshot().User == nil {
			log.Warnln("account created, confirm the email before signing in")
			return
		}
	} else if err := app.SignIn(ctx, *email, *password); err != nil {
		var authErr *client.AuthError
		if errors.As(err, &authErr) {
			log.Fatalf("sign in: %s", authErr.Message)
		}
		log.Errorf("sign in: %s", err)
	}

	if *addWorkout != "" {
		form := client.WorkoutForm{
			Name:     *addWorkout,
			Type:     *workoutType,
			Duration: *duration,
			Notes:    *notes,
		}
		for _, name := range strings.Split(*exercises, ",") {
			form.Exercises = append(form.Exercises, client.ExerciseRow{Name: name})
		}
		if _, err := app.SubmitWorkout(ctx, form); err != nil {
			log.Errorf("add workout: %s", err)
		}
	}

	if *addGoal != "" {
		form := client.GoalForm{
			Title:        *addGoal,
			CurrentValue: *current,
			Unit:         *unit,
			Category:     *category,
		}
		if *target != 0 {
			form.TargetValue = target
		}
		if _, err := app.SubmitGoal(ctx, form); err != nil {
			log.Errorf("add goal: %s", err)
		}
	}

	app.SelectTab(client.Tab(*tab))
	state := app.Store().Snapshot()
	if err := client.BuildDashboard(state, time.Now()).Render(os.Stdout); err != nil {
		log.Fatalf("render dashboard: %s", err)
	}

	if err := app.SignOut(ctx); err != nil {
		log.Debugf("sign out: %s", err)
	}
}
