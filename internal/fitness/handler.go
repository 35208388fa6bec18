package fitness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/2beens/fittracker/internal/fitness/repo"
	"github.com/2beens/fittracker/internal/fitness/stats"
	"github.com/2beens/fittracker/internal/telemetry/metrics"
	"github.com/2beens/fittracker/internal/telemetry/tracing"
	"github.com/2beens/fittracker/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=fitness_test

type fitnessRepo interface {
	ListWorkouts(ctx context.Context, userID string, withExercises bool) ([]repo.Workout, error)
	AddWorkout(ctx context.Context, w repo.Workout) (*repo.Workout, error)
	AddExercise(ctx context.Context, e repo.Exercise) (*repo.Exercise, error)
	ListGoals(ctx context.Context, userID string) ([]repo.Goal, error)
	AddGoal(ctx context.Context, g repo.Goal) (*repo.Goal, error)
}

const (
	RootMessage = "FitTracker API is running!"

	msgUserIDRequired  = "userId is required"
	msgInvalidJSONBody = "invalid JSON body"
)

type RootResponse struct {
	Message string `json:"message"`
}

// StatsResponse is what /stats returns. The streak is left to clients.
type StatsResponse struct {
	TotalWorkouts  int `json:"totalWorkouts"`
	WeeklyWorkouts int `json:"weeklyWorkouts"`
	CompletedGoals int `json:"completedGoals"`
	TotalGoals     int `json:"totalGoals"`
}

// Route is one entry of the API route table.
type Route struct {
	Name    string
	Method  string
	Path    string
	Handler http.HandlerFunc
	// Write marks routes that create records, those get rate limited.
	Write bool
}

type Handler struct {
	repo    fitnessRepo
	metrics *metrics.Manager

	// NowFunc is the clock used for defaults and stats, replaced in tests.
	NowFunc func() time.Time
}

func NewHandler(repo fitnessRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:    repo,
		metrics: metricsManager,
		NowFunc: time.Now,
	}
}

func (handler *Handler) Routes() []Route {
	return []Route{
		{Name: "root", Method: http.MethodGet, Path: "/", Handler: handler.HandleRoot},
		{Name: "list-workouts", Method: http.MethodGet, Path: "/workouts", Handler: handler.HandleListWorkouts},
		{Name: "add-workout", Method: http.MethodPost, Path: "/workouts", Handler: handler.HandleAddWorkout, Write: true},
		{Name: "list-goals", Method: http.MethodGet, Path: "/goals", Handler: handler.HandleListGoals},
		{Name: "add-goal", Method: http.MethodPost, Path: "/goals", Handler: handler.HandleAddGoal, Write: true},
		{Name: "add-exercise", Method: http.MethodPost, Path: "/exercises", Handler: handler.HandleAddExercise, Write: true},
		{Name: "stats", Method: http.MethodGet, Path: "/stats", Handler: handler.HandleStats},
	}
}

// SetupRoutes registers the route table on router. writeMiddleware, when
// not nil, wraps only the routes that create records.
func (handler *Handler) SetupRoutes(router *mux.Router, writeMiddleware mux.MiddlewareFunc) {
	for _, route := range handler.Routes() {
		var h http.Handler = route.Handler
		if route.Write && writeMiddleware != nil {
			h = writeMiddleware(h)
		}
		router.Handle(route.Path, h).Methods(route.Method).Name(route.Name)
	}
}

// NotFoundHandler answers every unmatched path or method with a JSON 404.
// The echoed path is relative to apiPrefix.
func NotFoundHandler(apiPrefix string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case apiPrefix == "":
		case path == apiPrefix:
			path = "/"
		case strings.HasPrefix(path, apiPrefix+"/"):
			path = strings.TrimPrefix(path, apiPrefix)
		}
		pkg.WriteJSONError(w, http.StatusNotFound, fmt.Sprintf("Route %s not found", path))
	})
}

func (handler *Handler) HandleRoot(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteJSONResponseOK(w, RootResponse{Message: RootMessage})
}

func (handler *Handler) HandleListWorkouts(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.fitness.workouts.list")
	defer span.End()

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		pkg.WriteJSONError(w, http.StatusBadRequest, msgUserIDRequired)
		return
	}
	span.SetAttributes(attribute.String("user_id", userID))

	workouts, err := handler.repo.ListWorkouts(ctx, userID, true)
	if err != nil {
		handler.storeFailed(w, "list_workouts", "Failed to fetch workouts", err)
		return
	}
	if workouts == nil {
		workouts = []repo.Workout{}
	}

	pkg.WriteJSONResponseOK(w, workouts)
}

func (handler *Handler) HandleAddWorkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.fitness.workouts.add")
	defer span.End()

	var req CreateWorkoutRequest
	if !decodeBody(w, r, &req) {
		return
	}

	workout, err := req.ToWorkout(handler.NowFunc())
	if err != nil {
		writeValidationError(w, err)
		return
	}

	added, err := handler.repo.AddWorkout(ctx, workout)
	if err != nil {
		handler.storeFailed(w, "add_workout", "Failed to create workout", err)
		return
	}
	if added.Exercises == nil {
		added.Exercises = []repo.Exercise{}
	}

	handler.metrics.CounterWorkoutsCreated.Inc()
	log.Debugf("new workout added for user [%s]: %s", added.UserID, added.ID)

	pkg.WriteJSONResponseOK(w, added)
}

func (handler *Handler) HandleListGoals(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.fitness.goals.list")
	defer span.End()

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		pkg.WriteJSONError(w, http.StatusBadRequest, msgUserIDRequired)
		return
	}
	span.SetAttributes(attribute.String("user_id", userID))

	goals, err := handler.repo.ListGoals(ctx, userID)
	if err != nil {
		handler.storeFailed(w, "list_goals", "Failed to fetch goals", err)
		return
	}
	if goals == nil {
		goals = []repo.Goal{}
	}

	pkg.WriteJSONResponseOK(w, goals)
}

func (handler *Handler) HandleAddGoal(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.fitness.goals.add")
	defer span.End()

	var req CreateGoalRequest
	if !decodeBody(w, r, &req) {
		return
	}

	goal, err := req.ToGoal(handler.NowFunc())
	if err != nil {
		writeValidationError(w, err)
		return
	}

	added, err := handler.repo.AddGoal(ctx, goal)
	if err != nil {
		handler.storeFailed(w, "add_goal", "Failed to create goal", err)
		return
	}

	handler.metrics.CounterGoalsCreated.Inc()
	log.Debugf("new goal added for user [%s]: %s", added.UserID, added.ID)

	pkg.WriteJSONResponseOK(w, added)
}

func (handler *Handler) HandleAddExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.fitness.exercises.add")
	defer span.End()

	var req CreateExerciseRequest
	if !decodeBody(w, r, &req) {
		return
	}

	exercise, err := req.ToExercise(handler.NowFunc())
	if err != nil {
		writeValidationError(w, err)
		return
	}

	added, err := handler.repo.AddExercise(ctx, exercise)
	if err != nil {
		handler.storeFailed(w, "add_exercise", "Failed to create exercise", err)
		return
	}

	handler.metrics.CounterExercisesCreated.Inc()
	log.Debugf("new exercise added to workout [%s]: %s", added.WorkoutID, added.ID)

	pkg.WriteJSONResponseOK(w, added)
}

func (handler *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.fitness.stats")
	defer span.End()

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		pkg.WriteJSONError(w, http.StatusBadRequest, msgUserIDRequired)
		return
	}
	span.SetAttributes(attribute.String("user_id", userID))

	workouts, err := handler.repo.ListWorkouts(ctx, userID, false)
	if err != nil {
		handler.storeFailed(w, "stats", "Failed to fetch stats", fmt.Errorf("list workouts: %w", err))
		return
	}
	goals, err := handler.repo.ListGoals(ctx, userID)
	if err != nil {
		handler.storeFailed(w, "stats", "Failed to fetch stats", fmt.Errorf("list goals: %w", err))
		return
	}

	s := stats.Compute(workouts, goals, handler.NowFunc())
	pkg.WriteJSONResponseOK(w, StatsResponse{
		TotalWorkouts:  s.TotalWorkouts,
		WeeklyWorkouts: s.WeeklyWorkouts,
		CompletedGoals: s.CompletedGoals,
		TotalGoals:     s.TotalGoals,
	})
}

func (handler *Handler) storeFailed(w http.ResponseWriter, operation, clientMsg string, err error) {
	log.Errorf("%s: %s", strings.ToLower(clientMsg), err)
	handler.metrics.CounterStoreErrors.WithLabelValues(operation).Inc()
	pkg.WriteJSONError(w, http.StatusInternalServerError, clientMsg)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}
	log.Debugf("decode request body for %s: %s", r.URL.Path, err)

	var fieldErr *FieldError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &fieldErr):
		pkg.WriteJSONError(w, http.StatusBadRequest, fieldErr.Error())
	case errors.As(err, &typeErr) && typeErr.Field != "":
		pkg.WriteJSONError(w, http.StatusBadRequest, (&FieldError{Field: typeErr.Field, Err: err}).Error())
	default:
		pkg.WriteJSONError(w, http.StatusBadRequest, msgInvalidJSONBody)
	}
	return false
}

func writeValidationError(w http.ResponseWriter, err error) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		pkg.WriteJSONError(w, http.StatusBadRequest, validationErr.Message)
		return
	}
	log.Errorf("unexpected request conversion error: %s", err)
	pkg.WriteJSONError(w, http.StatusInternalServerError, "Internal server error")
}
