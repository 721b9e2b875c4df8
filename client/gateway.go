// Package client is the state-synchronization layer of the kanban board: it
// mirrors the remote gateway's tables into in-memory entity stores, issues
// mutations against it, and reconciles the change events it pushes back.
package client

import (
	"context"
	"io"
	"time"

	"github.com/lolo262652/tasknot/internal/models"
	"github.com/lolo262652/tasknot/internal/realtime"
)

// TaskDraft is the caller-supplied part of a new task row. Status is sent
// as given; board surfaces create with "todo" by convention.
type TaskDraft struct {
	Title       string              `json:"title"`
	Description *string             `json:"description,omitempty"`
	Priority    models.TaskPriority `json:"priority,omitempty"`
	DueDate     *time.Time          `json:"due_date,omitempty"`
	Status      models.TaskStatus   `json:"status,omitempty"`
	UserID      string              `json:"user_id,omitempty"`
	AssignedTo  *string             `json:"assigned_to,omitempty"`
}

// DocumentDraft is the record half of a document upload; the binary goes
// through ObjectStorage first.
type DocumentDraft struct {
	TaskID      string `json:"task_id"`
	Name        string `json:"name"`
	FilePath    string `json:"file_path"`
	FileSize    int64  `json:"file_size"`
	ContentType string `json:"content_type"`
}

// HistoryDraft is one append to the task history log.
type HistoryDraft struct {
	TaskID         string               `json:"task_id"`
	UserID         string               `json:"user_id,omitempty"`
	Action         models.HistoryAction `json:"action"`
	PreviousStatus *models.TaskStatus   `json:"previous_status,omitempty"`
	NewStatus      *models.TaskStatus   `json:"new_status,omitempty"`
}

// TaskAPI is row access to the tasks table.
type TaskAPI interface {
	List(ctx context.Context) ([]models.Task, error)
	Insert(ctx context.Context, draft TaskDraft) (*models.Task, error)
	Update(ctx context.Context, id string, fields map[string]any) (*models.Task, error)
	Delete(ctx context.Context, id string) error
}

// DocumentAPI is row access to the task_documents table. Documents are
// immutable once inserted; there is no update.
type DocumentAPI interface {
	ListForTask(ctx context.Context, taskID string) ([]models.TaskDocument, error)
	Insert(ctx context.Context, draft DocumentDraft) (*models.TaskDocument, error)
	Delete(ctx context.Context, id string) error
}

// HistoryAPI is access to the append-only task_history table.
type HistoryAPI interface {
	List(ctx context.Context, limit int) ([]models.HistoryEntry, error)
	Insert(ctx context.Context, draft HistoryDraft) error
}

// ProfileAPI is access to the profiles table.
type ProfileAPI interface {
	List(ctx context.Context) ([]models.Profile, error)
	UpdateFullName(ctx context.Context, fullName string) (*models.Profile, error)
}

// AuthAPI is the session boundary of the gateway.
type AuthAPI interface {
	SignUp(ctx context.Context, email, password, fullName string) (*models.Profile, error)
	SignIn(ctx context.Context, email, password string) (*models.Profile, error)
	SignOut(ctx context.Context) error
	CurrentProfile(ctx context.Context) (*models.Profile, error)
}

// ObjectStorage is the gateway's binary object store.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, r io.Reader) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
	CreateSignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Subscription is one open realtime channel. Events closes after Close.
// Close is safe to call more than once.
type Subscription interface {
	Events() <-chan realtime.Event
	Close() error
}

// Gateway is the remote backend as the stores consume it: typed row access
// per table, object storage, the session boundary, and the change feed.
type Gateway interface {
	Auth() AuthAPI
	Tasks() TaskAPI
	Documents() DocumentAPI
	History() HistoryAPI
	Profiles() ProfileAPI
	Storage() ObjectStorage

	// Subscribe opens a change feed for one table, optionally filtered by
	// column equality ("task_id=eq.<id>").
	Subscribe(ctx context.Context, table, filter string) (Subscription, error)
}
