package repository

import (
	"github.com/lolo262652/tasknot/internal/models"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID
	FindByID(id string) (*models.Task, error)

	// List retrieves all tasks ordered by creation time, newest first
	List() ([]models.Task, error)

	// UpdateFields applies a partial update and returns the stored row
	UpdateFields(id string, fields map[string]any) (*models.Task, error)

	// Delete physically removes a task row
	Delete(id string) error
}

// DocumentRepository defines the interface for task document data access
type DocumentRepository interface {
	// Create creates a new document record
	Create(doc *models.TaskDocument) error

	// FindByID finds a document by ID
	FindByID(id string) (*models.TaskDocument, error)

	// ListByTask lists a task's documents, newest first
	ListByTask(taskID string) ([]models.TaskDocument, error)

	// CountByTaskAndName counts documents under a task with the given name
	CountByTaskAndName(taskID, name string) (int64, error)

	// Delete removes a document record
	Delete(id string) error

	// DeleteByTask removes all document records of a task
	DeleteByTask(taskID string) error
}

// HistoryRepository defines the interface for task history data access.
// History is append-only; there are no update or delete operations.
type HistoryRepository interface {
	// Create appends a history record
	Create(record *models.TaskHistory) error

	// ListEntries returns the most recent records, denormalized with the
	// task title and acting user's full name
	ListEntries(limit int) ([]models.HistoryEntry, error)
}

// ProfileRepository defines the interface for profile data access
type ProfileRepository interface {
	// Create creates a new profile
	Create(profile *models.Profile) error

	// FindByID finds a profile by ID
	FindByID(id string) (*models.Profile, error)

	// FindByEmail finds a profile by email
	FindByEmail(email string) (*models.Profile, error)

	// List lists all profiles ordered by full name
	List() ([]models.Profile, error)

	// UpdateFullName updates the one client-editable field
	UpdateFullName(id string, fullName *string) (*models.Profile, error)
}
