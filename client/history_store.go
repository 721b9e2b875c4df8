package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/lolo262652/tasknot/internal/constants"
	"github.com/lolo262652/tasknot/internal/models"
	"github.com/lolo262652/tasknot/internal/realtime"
)

// HistoryStore is a read-only mirror of the most recent history records,
// denormalized with task titles and user names at fetch time.
type HistoryStore struct {
	mu      sync.Mutex
	gw      Gateway
	log     *logrus.Entry
	entries []models.HistoryEntry
	loading bool
}

// NewHistoryStore creates a HistoryStore over the gateway.
func NewHistoryStore(gw Gateway) *HistoryStore {
	return &HistoryStore{
		gw:  gw,
		log: logrus.WithField("store", "history"),
	}
}

// Entries returns a snapshot of the feed, newest first.
func (s *HistoryStore) Entries() []models.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.HistoryEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Loading reports whether a fetch is in flight.
func (s *HistoryStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Fetch replaces the feed with the most recent records, capped at the feed
// limit. On failure the feed is left unchanged.
func (s *HistoryStore) Fetch(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	entries, err := s.gw.History().List(ctx, constants.HistoryFeedLimit)

	s.mu.Lock()
	s.loading = false
	if err == nil {
		if len(entries) > constants.HistoryFeedLimit {
			entries = entries[:constants.HistoryFeedLimit]
		}
		s.entries = entries
	}
	s.mu.Unlock()

	if err != nil {
		s.log.WithError(err).Error("failed to fetch history")
		return fmt.Errorf("failed to fetch history: %w", err)
	}
	return nil
}

// Subscribe re-runs Fetch on every insert to the history table. Refetching
// keeps the denormalized titles and names fresh at the cost of one extra
// round trip per event.
func (s *HistoryStore) Subscribe(ctx context.Context) (func(), error) {
	sub, err := s.gw.Subscribe(ctx, realtime.TableHistory, "")
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to history: %w", err)
	}

	go func() {
		for ev := range sub.Events() {
			if ev.Action != realtime.ActionInsert {
				continue
			}
			if err := s.Fetch(ctx); err != nil {
				s.log.WithError(err).Warn("history refetch failed")
			}
		}
	}()

	return func() { sub.Close() }, nil
}
