package client_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/2beens/fittracker/internal/client"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedAuthEvent struct {
	event   client.AuthEvent
	session *client.Session
}

type authRecorder struct {
	mu     sync.Mutex
	events []recordedAuthEvent
}

func (r *authRecorder) listen(event client.AuthEvent, session *client.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedAuthEvent{event: event, session: session})
}

func (r *authRecorder) all() []recordedAuthEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedAuthEvent(nil), r.events...)
}

func TestAuthClient_SignUp(t *testing.T) {
	fake, auth := newFakeAuthServer(t)
	rec := &authRecorder{}
	unsubscribe := auth.OnAuthStateChange(rec.listen)
	defer unsubscribe()

	session, err := auth.SignUp(context.Background(), "ana@example.com", "secret", map[string]any{"name": "Ana"})
	require.NoError(t, err)
	require.True(t, session.Active())
	assert.Equal(t, "Ana", session.User.DisplayName())

	require.NotNil(t, auth.CurrentUser())
	assert.Equal(t, session.User.ID, auth.CurrentUser().ID)

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, client.AuthEventSignedIn, events[0].event)
	assert.Equal(t, []string{testAPIKey}, fake.seenAPIKeys())

	_, err = auth.SignUp(context.Background(), "ana@example.com", "other", nil)
	var authErr *client.AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, http.StatusUnprocessableEntity, authErr.StatusCode)
	assert.Equal(t, "User already registered", authErr.Message)
}

func TestAuthClient_SignUpWaitingForConfirmation(t *testing.T) {
	fake, auth := newFakeAuthServer(t)
	fake.requireEmailConfirmation()
	rec := &authRecorder{}
	defer auth.OnAuthStateChange(rec.listen)()

	session, err := auth.SignUp(context.Background(), "bo@example.com", "secret", map[string]any{"name": "Bo"})
	require.NoError(t, err)
	assert.False(t, session.Active())
	assert.Equal(t, "bo@example.com", session.User.Email)
	assert.NotEmpty(t, session.User.ID)

	assert.Nil(t, auth.CurrentSession())
	assert.Empty(t, rec.all())
}

func TestAuthClient_SignIn(t *testing.T) {
	fake, auth := newFakeAuthServer(t)
	user := fake.addAccount("ana@example.com", "secret", "")

	_, err := auth.SignIn(context.Background(), "ana@example.com", "wrong")
	var authErr *client.AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, http.StatusBadRequest, authErr.StatusCode)
	assert.Equal(t, "Invalid login credentials", authErr.Message)
	assert.Nil(t, auth.CurrentSession())

	session, err := auth.SignIn(context.Background(), "ana@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.User.ID)
	assert.Equal(t, "token-"+user.ID, auth.CurrentSession().AccessToken)
	// no profile name, the email is shown instead
	assert.Equal(t, "ana@example.com", auth.CurrentUser().DisplayName())
}

func TestAuthClient_SignOut(t *testing.T) {
	fake, auth := newFakeAuthServer(t)
	fake.addAccount("ana@example.com", "secret", "Ana")

	err := auth.SignOut(context.Background())
	assert.ErrorIs(t, err, client.ErrNoSession)

	_, err = auth.SignIn(context.Background(), "ana@example.com", "secret")
	require.NoError(t, err)

	rec := &authRecorder{}
	unsubscribe := auth.OnAuthStateChange(rec.listen)

	require.NoError(t, auth.SignOut(context.Background()))
	assert.Nil(t, auth.CurrentSession())
	assert.Nil(t, auth.CurrentUser())
	assert.Equal(t, 1, fake.logoutCount())

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, client.AuthEventSignedOut, events[0].event)
	assert.Nil(t, events[0].session)

	unsubscribe()
	_, err = auth.SignIn(context.Background(), "ana@example.com", "secret")
	require.NoError(t, err)
	assert.Len(t, rec.all(), 1)
}

func TestAuthClient_ListenersInRegistrationOrder(t *testing.T) {
	fake, auth := newFakeAuthServer(t)
	fake.addAccount("ana@example.com", "secret", "Ana")

	var order []int
	for i := range 5 {
		defer auth.OnAuthStateChange(func(client.AuthEvent, *client.Session) {
			order = append(order, i)
		})()
	}

	_, err := auth.SignIn(context.Background(), "ana@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}
