package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/2beens/fittracker/internal/telemetry/tracing"
	"github.com/2beens/fittracker/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

var ErrNoSession = errors.New("no active session")

type AuthEvent string

const (
	AuthEventSignedIn  AuthEvent = "SIGNED_IN"
	AuthEventSignedOut AuthEvent = "SIGNED_OUT"
)

type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
}

// DisplayName is the profile name given at sign up, or the email.
func (u User) DisplayName() string {
	if name, ok := u.UserMetadata["name"].(string); ok && name != "" {
		return name
	}
	return u.Email
}

type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// Active is false for sessions that still wait for email confirmation.
func (s *Session) Active() bool {
	return s != nil && s.AccessToken != ""
}

type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error [%d]: %s", e.StatusCode, e.Message)
}

// AuthListener gets the new session, nil after sign out.
type AuthListener func(event AuthEvent, session *Session)

// AuthClient is a client of a GoTrue (Supabase auth) compatible service.
// It keeps the current session in memory and tells listeners when it changes.
type AuthClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	mu      sync.RWMutex
	session *Session

	listenersMu    sync.Mutex
	listeners      map[int]AuthListener
	nextListenerID int
}

func NewAuthClient(baseURL, apiKey string, httpClient *http.Client) *AuthClient {
	if httpClient == nil {
		httpClient = NewTracedHttpClient(DefaultTimeout)
	}
	return &AuthClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
		listeners:  make(map[int]AuthListener),
	}
}

type credentials struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Data     map[string]any `json:"data,omitempty"`
}

// signUpResponse is either a session, or only the user when the service
// requires an email confirmation first.
type signUpResponse struct {
	Session
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
}

// SignUp creates an account, profile ends up in the user metadata. The
// returned session is not Active if the email has to be confirmed first.
func (c *AuthClient) SignUp(ctx context.Context, email, password string, profile map[string]any) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "client.auth.signup")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var resp signUpResponse
	if err := c.post(ctx, "/auth/v1/signup", "", credentials{Email: email, Password: password, Data: profile}, &resp); err != nil {
		return nil, err
	}

	session := resp.Session
	if session.User.ID == "" {
		session.User = User{ID: resp.ID, Email: resp.Email, UserMetadata: resp.UserMetadata}
	}
	span.SetAttributes(attribute.String("user.id", session.User.ID))

	if !session.Active() {
		log.Debugf("sign up of [%s] waits for email confirmation", email)
		return &session, nil
	}

	c.setSession(&session)
	c.notify(AuthEventSignedIn, &session)
	return &session, nil
}

func (c *AuthClient) SignIn(ctx context.Context, email, password string) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "client.auth.signin")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var session Session
	if err := c.post(ctx, "/auth/v1/token?grant_type=password", "", credentials{Email: email, Password: password}, &session); err != nil {
		return nil, err
	}
	if !session.Active() {
		return nil, &AuthError{StatusCode: http.StatusOK, Message: "no access token in response"}
	}
	span.SetAttributes(attribute.String("user.id", session.User.ID))

	c.setSession(&session)
	c.notify(AuthEventSignedIn, &session)
	return &session, nil
}

// SignOut revokes the session remotely and forgets it locally. The local
// session is dropped even when the remote call fails.
func (c *AuthClient) SignOut(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "client.auth.signout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	session := c.CurrentSession()
	if session == nil {
		return ErrNoSession
	}

	err = c.post(ctx, "/auth/v1/logout", session.AccessToken, nil, nil)

	c.setSession(nil)
	c.notify(AuthEventSignedOut, nil)

	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (c *AuthClient) CurrentSession() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

func (c *AuthClient) CurrentUser() *User {
	session := c.CurrentSession()
	if session == nil {
		return nil
	}
	user := session.User
	return &user
}

// OnAuthStateChange registers listener, the returned func removes it.
func (c *AuthClient) OnAuthStateChange(listener AuthListener) (unsubscribe func()) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()

	id := c.nextListenerID
	c.nextListenerID++
	c.listeners[id] = listener

	return func() {
		c.listenersMu.Lock()
		defer c.listenersMu.Unlock()
		delete(c.listeners, id)
	}
}

func (c *AuthClient) setSession(session *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = session
}

// notify calls listeners in registration order, outside of any lock.
func (c *AuthClient) notify(event AuthEvent, session *Session) {
	c.listenersMu.Lock()
	ids := make([]int, 0, len(c.listeners))
	for id := range c.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	listeners := make([]AuthListener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, c.listeners[id])
	}
	c.listenersMu.Unlock()

	for _, listener := range listeners {
		listener(event, session)
	}
}

type authErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (r authErrorResponse) message() string {
	for _, m := range []string{r.ErrorDescription, r.Msg, r.Message, r.Error} {
		if m != "" {
			return m
		}
	}
	return ""
}

func (c *AuthClient) post(ctx context.Context, path, accessToken string, body, dst any) error {
	var reqBody io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", pkg.ContentType.JSON)
	req.Header.Set("apikey", c.apiKey)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth request %s: %w", path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read auth response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		authErr := &AuthError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var errResp authErrorResponse
		if json.Unmarshal(respBytes, &errResp) == nil && errResp.message() != "" {
			authErr.Message = errResp.message()
		}
		return authErr
	}

	if dst == nil || len(respBytes) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBytes, dst); err != nil {
		return fmt.Errorf("unmarshal auth response: %w", err)
	}
	return nil
}
