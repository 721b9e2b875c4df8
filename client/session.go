package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/lolo262652/tasknot/internal/models"
)

// SessionState is the lifecycle stage of the authentication session.
type SessionState int

const (
	SessionUnauthenticated SessionState = iota
	SessionLoading
	SessionAuthenticated
)

func (s SessionState) String() string {
	switch s {
	case SessionLoading:
		return "loading"
	case SessionAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Session is the explicit session context: it owns the authentication
// lifecycle and the signed-in profile, and notifies subscribers on every
// transition. Reacting to a loss of session (for example, redirecting to the
// sign-in surface) belongs in a subscriber, not here.
type Session struct {
	mu      sync.Mutex
	gw      Gateway
	log     *logrus.Entry
	state   SessionState
	profile *models.Profile
	subs    []func(SessionState, *models.Profile)
}

// NewSession creates an unauthenticated session over the gateway.
func NewSession(gw Gateway) *Session {
	return &Session{
		gw:    gw,
		log:   logrus.WithField("component", "session"),
		state: SessionUnauthenticated,
	}
}

// State returns the current lifecycle stage.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Profile returns the signed-in profile, or nil.
func (s *Session) Profile() *models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// UserID returns the signed-in user's id.
func (s *Session) UserID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return "", false
	}
	return s.profile.ID, true
}

// OnChange registers a subscriber fired on every state transition with the
// new state and profile.
func (s *Session) OnChange(fn func(SessionState, *models.Profile)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// SignUp registers an account and signs straight in, so the profile is
// loaded before any protected surface renders.
func (s *Session) SignUp(ctx context.Context, email, password, fullName string) error {
	s.transition(SessionLoading, nil)

	if _, err := s.gw.Auth().SignUp(ctx, email, password, fullName); err != nil {
		s.transition(SessionUnauthenticated, nil)
		return fmt.Errorf("failed to sign up: %w", err)
	}

	return s.signIn(ctx, email, password)
}

// SignIn authenticates and loads the profile.
func (s *Session) SignIn(ctx context.Context, email, password string) error {
	s.transition(SessionLoading, nil)
	return s.signIn(ctx, email, password)
}

func (s *Session) signIn(ctx context.Context, email, password string) error {
	profile, err := s.gw.Auth().SignIn(ctx, email, password)
	if err != nil {
		s.transition(SessionUnauthenticated, nil)
		return fmt.Errorf("failed to sign in: %w", err)
	}

	s.transition(SessionAuthenticated, profile)
	return nil
}

// Resume restores an existing gateway session, if any.
func (s *Session) Resume(ctx context.Context) error {
	s.transition(SessionLoading, nil)

	profile, err := s.gw.Auth().CurrentProfile(ctx)
	if err != nil {
		s.transition(SessionUnauthenticated, nil)
		return fmt.Errorf("no session to resume: %w", err)
	}

	s.transition(SessionAuthenticated, profile)
	return nil
}

// SignOut ends the session. Subscribers see the unauthenticated transition
// even when the remote sign-out fails; the local session is gone either way.
func (s *Session) SignOut(ctx context.Context) error {
	err := s.gw.Auth().SignOut(ctx)
	if err != nil {
		s.log.WithError(err).Warn("remote sign-out failed")
	}

	s.transition(SessionUnauthenticated, nil)
	return err
}

func (s *Session) transition(state SessionState, profile *models.Profile) {
	s.mu.Lock()
	s.state = state
	s.profile = profile
	subs := make([]func(SessionState, *models.Profile), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(state, profile)
	}
}
