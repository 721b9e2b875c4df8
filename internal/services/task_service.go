package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/lolo262652/tasknot/internal/models"
	"github.com/lolo262652/tasknot/internal/realtime"
	"github.com/lolo262652/tasknot/internal/repository"
)

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrTitleRequired   = errors.New("title is required")
	ErrInvalidStatus   = errors.New("invalid task status")
	ErrInvalidPriority = errors.New("invalid task priority")
)

// TaskService handles task business logic and publishes a change event for
// every successful mutation.
type TaskService struct {
	taskRepo repository.TaskRepository
	docRepo  repository.DocumentRepository
	hub      *realtime.Hub
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, docRepo repository.DocumentRepository, hub *realtime.Hub) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		docRepo:  docRepo,
		hub:      hub,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description *string
	Priority    models.TaskPriority
	DueDate     *time.Time
	Status      models.TaskStatus
	UserID      string
	AssignedTo  *string
}

// ListTasks returns every task, newest first.
func (s *TaskService) ListTasks() ([]models.Task, error) {
	tasks, err := s.taskRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// GetTask returns one task by id.
func (s *TaskService) GetTask(id string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// CreateTask creates a new task and publishes the INSERT event.
func (s *TaskService) CreateTask(input CreateTaskInput) (*models.Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleRequired
	}
	if input.Status == "" {
		input.Status = models.TaskStatusTodo
	}
	if !models.ValidTaskStatus(input.Status) {
		return nil, ErrInvalidStatus
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}
	if !models.ValidTaskPriority(input.Priority) {
		return nil, ErrInvalidPriority
	}

	task := &models.Task{
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
		Status:      input.Status,
		UserID:      input.UserID,
		AssignedTo:  input.AssignedTo,
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.hub.Publish(realtime.NewEvent(realtime.ActionInsert, realtime.TableTasks, task, nil))
	return task, nil
}

// UpdateTask applies a partial update, publishes the UPDATE event with the
// previous row attached, and returns the authoritative stored row.
func (s *TaskService) UpdateTask(id string, fields map[string]any) (*models.Task, error) {
	if err := validateTaskFields(fields); err != nil {
		return nil, err
	}

	old, err := s.GetTask(id)
	if err != nil {
		return nil, err
	}

	task, err := s.taskRepo.UpdateFields(id, fields)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.hub.Publish(realtime.NewEvent(realtime.ActionUpdate, realtime.TableTasks, task, old))
	return task, nil
}

// DeleteTask physically removes a task and its document rows, then publishes
// the DELETE event carrying the removed row. The documents' storage objects
// are the uploader's compensation problem, not handled here.
func (s *TaskService) DeleteTask(id string) error {
	old, err := s.GetTask(id)
	if err != nil {
		return err
	}

	if err := s.docRepo.DeleteByTask(id); err != nil {
		return fmt.Errorf("failed to delete task documents: %w", err)
	}
	if err := s.taskRepo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.hub.Publish(realtime.NewEvent(realtime.ActionDelete, realtime.TableTasks, nil, old))
	return nil
}

// validateTaskFields checks the mutable columns of a partial update.
func validateTaskFields(fields map[string]any) error {
	for column, value := range fields {
		switch column {
		case "title":
			title, ok := value.(string)
			if !ok || strings.TrimSpace(title) == "" {
				return ErrTitleRequired
			}
		case "status":
			status, ok := value.(string)
			if !ok || !models.ValidTaskStatus(models.TaskStatus(status)) {
				return ErrInvalidStatus
			}
		case "priority":
			priority, ok := value.(string)
			if !ok || !models.ValidTaskPriority(models.TaskPriority(priority)) {
				return ErrInvalidPriority
			}
		}
	}
	return nil
}
