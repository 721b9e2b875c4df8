package repository

import (
	"gorm.io/gorm"

	"github.com/lolo262652/tasknot/internal/models"
)

// GormHistoryRepository is a GORM implementation of HistoryRepository
type GormHistoryRepository struct {
	db *gorm.DB
}

// NewHistoryRepository creates a new HistoryRepository
func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &GormHistoryRepository{db: db}
}

// Create appends a history record
func (r *GormHistoryRepository) Create(record *models.TaskHistory) error {
	return r.db.Create(record).Error
}

// ListEntries returns the most recent records denormalized with the task
// title and the acting user's full name. Left joins keep records whose task
// was hard-deleted in the feed, title unset.
func (r *GormHistoryRepository) ListEntries(limit int) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	err := r.db.Model(&models.TaskHistory{}).
		Select("task_history.*, tasks.title AS task_title, profiles.full_name AS user_name").
		Joins("LEFT JOIN tasks ON tasks.id = task_history.task_id").
		Joins("LEFT JOIN profiles ON profiles.id = task_history.user_id").
		Order("task_history.created_at DESC").
		Limit(limit).
		Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
