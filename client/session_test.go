package client

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lolo262652/tasknot/internal/models"
)

func TestSession_SignInTransitions(t *testing.T) {
	gw := newFakeGateway()
	session := NewSession(gw)

	var states []SessionState
	session.OnChange(func(state SessionState, _ *models.Profile) {
		states = append(states, state)
	})

	require.NoError(t, session.SignIn(context.Background(), "a@example.com", "secret123"))

	require.Equal(t, SessionAuthenticated, session.State())
	require.NotNil(t, session.Profile())
	require.Equal(t, []SessionState{SessionLoading, SessionAuthenticated}, states)

	id, ok := session.UserID()
	require.True(t, ok)
	require.NotEmpty(t, id)
}

func TestSession_SignInFailure(t *testing.T) {
	gw := newFakeGateway()
	gw.fail("auth.signin", errors.New("bad credentials"))
	session := NewSession(gw)

	var states []SessionState
	session.OnChange(func(state SessionState, _ *models.Profile) {
		states = append(states, state)
	})

	require.Error(t, session.SignIn(context.Background(), "a@example.com", "wrong"))

	require.Equal(t, SessionUnauthenticated, session.State())
	require.Nil(t, session.Profile())
	require.Equal(t, []SessionState{SessionLoading, SessionUnauthenticated}, states)

	_, ok := session.UserID()
	require.False(t, ok)
}

func TestSession_SignUpSignsIn(t *testing.T) {
	gw := newFakeGateway()
	session := NewSession(gw)

	require.NoError(t, session.SignUp(context.Background(), "new@example.com", "secret123", "New User"))

	require.Equal(t, SessionAuthenticated, session.State())
	profile := session.Profile()
	require.NotNil(t, profile)
	require.Equal(t, "new@example.com", profile.Email)
}

func TestSession_Resume(t *testing.T) {
	gw := newFakeGateway()
	session := NewSession(gw)

	// Nothing to resume yet
	require.Error(t, session.Resume(context.Background()))
	require.Equal(t, SessionUnauthenticated, session.State())

	_, err := gw.Auth().SignIn(context.Background(), "back@example.com", "secret123")
	require.NoError(t, err)

	require.NoError(t, session.Resume(context.Background()))
	require.Equal(t, SessionAuthenticated, session.State())
}

func TestSession_SignOutDespiteRemoteFailure(t *testing.T) {
	gw := newFakeGateway()
	session := NewSession(gw)
	require.NoError(t, session.SignIn(context.Background(), "a@example.com", "secret123"))

	gw.fail("auth.signout", errors.New("gateway unreachable"))

	err := session.SignOut(context.Background())
	require.Error(t, err)
	require.Equal(t, SessionUnauthenticated, session.State(), "local session ends even when the remote call fails")
	require.Nil(t, session.Profile())
}
