package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type HistoryAction string

const (
	HistoryActionCreated       HistoryAction = "created"
	HistoryActionUpdated       HistoryAction = "updated"
	HistoryActionStatusChanged HistoryAction = "status_changed"
)

func ValidHistoryAction(a HistoryAction) bool {
	switch a {
	case HistoryActionCreated, HistoryActionUpdated, HistoryActionStatusChanged:
		return true
	}
	return false
}

// TaskHistory is append-only: rows are written as a side effect of task
// mutations and never updated or deleted.
type TaskHistory struct {
	ID             string        `gorm:"type:varchar(36);primaryKey" json:"id"`
	TaskID         string        `gorm:"type:varchar(36);not null;index" json:"task_id"`
	UserID         string        `gorm:"type:varchar(36);not null" json:"user_id"`
	Action         HistoryAction `gorm:"type:varchar(20);not null" json:"action"`
	PreviousStatus *TaskStatus   `gorm:"type:varchar(20)" json:"previous_status"`
	NewStatus      *TaskStatus   `gorm:"type:varchar(20)" json:"new_status"`
	CreatedAt      time.Time     `json:"created_at"`
}

func (TaskHistory) TableName() string {
	return "task_history"
}

func (h *TaskHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}

// HistoryEntry is a TaskHistory row denormalized with the task title and the
// acting user's full name, as served by the history feed.
type HistoryEntry struct {
	ID             string        `json:"id"`
	TaskID         string        `json:"task_id"`
	UserID         string        `json:"user_id"`
	Action         HistoryAction `json:"action"`
	PreviousStatus *TaskStatus   `json:"previous_status"`
	NewStatus      *TaskStatus   `json:"new_status"`
	CreatedAt      time.Time     `json:"created_at"`
	TaskTitle      *string       `json:"task_title"`
	UserName       *string       `json:"user_name"`
}
