package client_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/2beens/fittracker/internal/client"
	"github.com/2beens/fittracker/internal/fitness"
	"github.com/2beens/fittracker/internal/fitness/repo"
	"github.com/2beens/fittracker/internal/telemetry/metrics"

	"github.com/gorilla/mux"
	"go.uber.org/goleak"
)

const testAPIKey = "anon-key"

var testNow = time.Date(2024, 4, 20, 10, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// newAPIServer serves the real fitness routes under /api, backed by memory.
func newAPIServer(t *testing.T) (*httptest.Server, *client.Api) {
	t.Helper()

	h := fitness.NewHandler(repo.NewMemoryRepo(), metrics.NewTestManager())
	h.NowFunc = func() time.Time {
		return testNow
	}

	r := mux.NewRouter()
	apiRouter := r.PathPrefix("/api").Subrouter()
	h.SetupRoutes(apiRouter, nil)
	apiRouter.NotFoundHandler = fitness.NotFoundHandler("/api")
	apiRouter.MethodNotAllowedHandler = fitness.NotFoundHandler("/api")

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return srv, client.NewApi(srv.URL+"/api/", srv.Client())
}

type fakeAccount struct {
	user     client.User
	password string
}

// fakeAuthServer mimics the GoTrue endpoints used by AuthClient.
type fakeAuthServer struct {
	mu           sync.Mutex
	accounts     map[string]fakeAccount
	confirmEmail bool
	logouts      int
	apiKeys      []string
}

func newFakeAuthServer(t *testing.T) (*fakeAuthServer, *client.AuthClient) {
	t.Helper()

	fake := &fakeAuthServer{accounts: make(map[string]fakeAccount)}
	routes := http.NewServeMux()
	routes.HandleFunc("POST /auth/v1/signup", fake.handleSignUp)
	routes.HandleFunc("POST /auth/v1/token", fake.handleToken)
	routes.HandleFunc("POST /auth/v1/logout", fake.handleLogout)

	srv := httptest.NewServer(routes)
	t.Cleanup(srv.Close)

	return fake, client.NewAuthClient(srv.URL, testAPIKey, srv.Client())
}

type fakeCredentials struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Data     map[string]any `json:"data"`
}

func (f *fakeAuthServer) addAccount(email, password, name string) client.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	user := client.User{
		ID:           fmt.Sprintf("user-%d", len(f.accounts)+1),
		Email:        email,
		UserMetadata: map[string]any{"name": name},
	}
	f.accounts[email] = fakeAccount{user: user, password: password}
	return user
}

func (f *fakeAuthServer) session(user client.User) client.Session {
	return client.Session{
		AccessToken:  "token-" + user.ID,
		TokenType:    "bearer",
		ExpiresIn:    3600,
		RefreshToken: "refresh-" + user.ID,
		User:         user,
	}
}

func (f *fakeAuthServer) decode(w http.ResponseWriter, r *http.Request) (fakeCredentials, bool) {
	f.mu.Lock()
	f.apiKeys = append(f.apiKeys, r.Header.Get("apikey"))
	f.mu.Unlock()

	var creds fakeCredentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "bad body"})
		return creds, false
	}
	return creds, true
}

func (f *fakeAuthServer) handleSignUp(w http.ResponseWriter, r *http.Request) {
	creds, ok := f.decode(w, r)
	if !ok {
		return
	}

	f.mu.Lock()
	_, exists := f.accounts[creds.Email]
	confirm := f.confirmEmail
	f.mu.Unlock()
	if exists {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"msg": "User already registered"})
		return
	}

	name, _ := creds.Data["name"].(string)
	user := f.addAccount(creds.Email, creds.Password, name)
	if confirm {
		writeJSON(w, http.StatusOK, user)
		return
	}
	writeJSON(w, http.StatusOK, f.session(user))
}

func (f *fakeAuthServer) handleToken(w http.ResponseWriter, r *http.Request) {
	creds, ok := f.decode(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Get("grant_type") != "password" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
		return
	}

	f.mu.Lock()
	account, exists := f.accounts[creds.Email]
	f.mu.Unlock()
	if !exists || account.password != creds.Password {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":             "invalid_grant",
			"error_description": "Invalid login credentials",
		})
		return
	}
	writeJSON(w, http.StatusOK, f.session(account.user))
}

func (f *fakeAuthServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer token-") {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid token"})
		return
	}
	f.mu.Lock()
	f.logouts++
	f.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeAuthServer) requireEmailConfirmation() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmEmail = true
}

func (f *fakeAuthServer) logoutCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logouts
}

func (f *fakeAuthServer) seenAPIKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.apiKeys...)
}
