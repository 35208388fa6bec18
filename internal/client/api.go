package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/2beens/fittracker/internal/fitness"
	"github.com/2beens/fittracker/internal/fitness/repo"
	"github.com/2beens/fittracker/internal/telemetry/tracing"
	"github.com/2beens/fittracker/pkg"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
)

const DefaultTimeout = 15 * time.Second

// APIError is a non 2xx answer of the fitness API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error [%d]: %s", e.StatusCode, e.Message)
}

// NewTracedHttpClient returns a client whose requests carry trace context.
func NewTracedHttpClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   timeout,
	}
}

// Api talks to the fitness HTTP API. baseURL includes the API prefix,
// e.g. http://localhost:8080/api.
type Api struct {
	baseURL    string
	httpClient *http.Client
}

func NewApi(baseURL string, httpClient *http.Client) *Api {
	if httpClient == nil {
		httpClient = NewTracedHttpClient(DefaultTimeout)
	}
	return &Api{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (a *Api) Health(ctx context.Context) (string, error) {
	var resp fitness.RootResponse
	if err := a.do(ctx, http.MethodGet, "/", nil, nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (a *Api) ListWorkouts(ctx context.Context, userID string) ([]repo.Workout, error) {
	var workouts []repo.Workout
	if err := a.do(ctx, http.MethodGet, "/workouts", userQuery(userID), nil, &workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

func (a *Api) CreateWorkout(ctx context.Context, req fitness.CreateWorkoutRequest) (*repo.Workout, error) {
	var workout repo.Workout
	if err := a.do(ctx, http.MethodPost, "/workouts", nil, req, &workout); err != nil {
		return nil, err
	}
	return &workout, nil
}

func (a *Api) CreateExercise(ctx context.Context, req fitness.CreateExerciseRequest) (*repo.Exercise, error) {
	var exercise repo.Exercise
	if err := a.do(ctx, http.MethodPost, "/exercises", nil, req, &exercise); err != nil {
		return nil, err
	}
	return &exercise, nil
}

func (a *Api) ListGoals(ctx context.Context, userID string) ([]repo.Goal, error) {
	var goals []repo.Goal
	if err := a.do(ctx, http.MethodGet, "/goals", userQuery(userID), nil, &goals); err != nil {
		return nil, err
	}
	return goals, nil
}

func (a *Api) CreateGoal(ctx context.Context, req fitness.CreateGoalRequest) (*repo.Goal, error) {
	var goal repo.Goal
	if err := a.do(ctx, http.MethodPost, "/goals", nil, req, &goal); err != nil {
		return nil, err
	}
	return &goal, nil
}

func (a *Api) Stats(ctx context.Context, userID string) (*fitness.StatsResponse, error) {
	var resp fitness.StatsResponse
	if err := a.do(ctx, http.MethodGet, "/stats", userQuery(userID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func userQuery(userID string) url.Values {
	return url.Values{"userId": []string{userID}}
}

func (a *Api) do(ctx context.Context, method, path string, query url.Values, body, dst any) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "client.api.do")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("http.method", method))
	span.SetAttributes(attribute.String("api.path", path))

	target := a.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", pkg.ContentType.JSON)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errResp pkg.ErrorResponse
		if json.Unmarshal(respBytes, &errResp) == nil && errResp.Error != "" {
			apiErr.Message = errResp.Error
		} else {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if dst == nil {
		return nil
	}
	if err := json.Unmarshal(respBytes, dst); err != nil {
		return fmt.Errorf("unmarshal response of %s %s: %w", method, path, err)
	}
	return nil
}
