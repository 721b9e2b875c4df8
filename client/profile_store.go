package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/lolo262652/tasknot/internal/models"
)

// ProfileStore is a read-mostly mirror of the profile directory, ordered by
// full name; the assignee picker reads from it.
type ProfileStore struct {
	mu       sync.Mutex
	gw       Gateway
	log      *logrus.Entry
	profiles []models.Profile
	loading  bool
}

// NewProfileStore creates a ProfileStore over the gateway.
func NewProfileStore(gw Gateway) *ProfileStore {
	return &ProfileStore{
		gw:  gw,
		log: logrus.WithField("store", "profiles"),
	}
}

// Profiles returns a snapshot of the directory.
func (s *ProfileStore) Profiles() []models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Profile, len(s.profiles))
	copy(out, s.profiles)
	return out
}

// Loading reports whether a fetch is in flight.
func (s *ProfileStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Fetch replaces the directory with the server's current rows. On failure
// the directory is cleared: a failed load shows nobody rather than stale
// entries.
func (s *ProfileStore) Fetch(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	profiles, err := s.gw.Profiles().List(ctx)

	s.mu.Lock()
	s.loading = false
	if err == nil {
		s.profiles = profiles
	} else {
		s.profiles = nil
	}
	s.mu.Unlock()

	if err != nil {
		s.log.WithError(err).Error("failed to fetch profiles")
		return fmt.Errorf("failed to fetch profiles: %w", err)
	}
	return nil
}
