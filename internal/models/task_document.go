package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskDocument is immutable once created: there is no update path, only
// insert and delete. FilePath is the opaque object-storage key.
type TaskDocument struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	TaskID      string    `gorm:"type:varchar(36);not null;index" json:"task_id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	FilePath    string    `gorm:"type:varchar(512);not null" json:"file_path"`
	FileSize    int64     `gorm:"not null" json:"file_size"`
	ContentType string    `gorm:"type:varchar(255)" json:"content_type"`
	UploadedBy  string    `gorm:"type:varchar(36);not null" json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

func (d *TaskDocument) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
