package services

import (
	"errors"
	"fmt"

	"github.com/lolo262652/tasknot/internal/constants"
	"github.com/lolo262652/tasknot/internal/models"
	"github.com/lolo262652/tasknot/internal/realtime"
	"github.com/lolo262652/tasknot/internal/repository"
)

var ErrInvalidHistoryAction = errors.New("invalid history action")

// HistoryService handles the append-only task history feed.
type HistoryService struct {
	historyRepo repository.HistoryRepository
	hub         *realtime.Hub
}

// NewHistoryService creates a new HistoryService
func NewHistoryService(historyRepo repository.HistoryRepository, hub *realtime.Hub) *HistoryService {
	return &HistoryService{
		historyRepo: historyRepo,
		hub:         hub,
	}
}

// AppendHistoryInput represents input for appending a history record
type AppendHistoryInput struct {
	TaskID         string
	UserID         string
	Action         models.HistoryAction
	PreviousStatus *models.TaskStatus
	NewStatus      *models.TaskStatus
}

// Append writes one history record and publishes the INSERT event.
func (s *HistoryService) Append(input AppendHistoryInput) (*models.TaskHistory, error) {
	if !models.ValidHistoryAction(input.Action) {
		return nil, ErrInvalidHistoryAction
	}

	record := &models.TaskHistory{
		TaskID:         input.TaskID,
		UserID:         input.UserID,
		Action:         input.Action,
		PreviousStatus: input.PreviousStatus,
		NewStatus:      input.NewStatus,
	}

	if err := s.historyRepo.Create(record); err != nil {
		return nil, fmt.Errorf("failed to append history: %w", err)
	}

	s.hub.Publish(realtime.NewEvent(realtime.ActionInsert, realtime.TableHistory, record, nil))
	return record, nil
}

// ListEntries returns the denormalized feed, capped at the feed limit.
func (s *HistoryService) ListEntries(limit int) ([]models.HistoryEntry, error) {
	if limit <= 0 || limit > constants.HistoryFeedLimit {
		limit = constants.HistoryFeedLimit
	}

	entries, err := s.historyRepo.ListEntries(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return entries, nil
}
