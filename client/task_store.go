package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/lolo262652/tasknot/internal/models"
	"github.com/lolo262652/tasknot/internal/realtime"
)

var ErrTaskNotFound = errors.New("task not found")

// TaskStore mirrors the tasks table: the full set visible to the session,
// newest first. Mutations go to the gateway and apply the returned
// authoritative row locally; the subscription reconciles everyone else's
// changes. Every reconciliation handler is idempotent (insert-if-absent,
// replace-by-id, remove-by-id), so the echo of one's own write is a no-op.
type TaskStore struct {
	mu      sync.Mutex
	gw      Gateway
	log     *logrus.Entry
	tasks   []models.Task
	loading bool

	assignedFns []func(models.Task)
}

// NewTaskStore creates a TaskStore over the gateway.
func NewTaskStore(gw Gateway) *TaskStore {
	return &TaskStore{
		gw:  gw,
		log: logrus.WithField("store", "tasks"),
	}
}

// Tasks returns a snapshot of the mirrored collection.
func (s *TaskStore) Tasks() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Get returns the locally-known row for id.
func (s *TaskStore) Get(id string) (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}

// Loading reports whether a fetch is in flight.
func (s *TaskStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// OnAssigned registers a callback fired with the task snapshot whenever a
// change event assigns a task: a new row arriving with an assignee, or an
// update that changes the assignee.
func (s *TaskStore) OnAssigned(fn func(models.Task)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignedFns = append(s.assignedFns, fn)
}

// Fetch replaces the collection with the server's current rows. On failure
// the collection is left unchanged; the loading flag resets either way.
func (s *TaskStore) Fetch(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	tasks, err := s.gw.Tasks().List(ctx)

	s.mu.Lock()
	s.loading = false
	if err == nil {
		s.tasks = tasks
	}
	s.mu.Unlock()

	if err != nil {
		s.log.WithError(err).Error("failed to fetch tasks")
		return fmt.Errorf("failed to fetch tasks: %w", err)
	}
	return nil
}

// Add inserts a new task and applies the returned row locally. A "created"
// history record is appended best-effort.
func (s *TaskStore) Add(ctx context.Context, draft TaskDraft) error {
	task, err := s.gw.Tasks().Insert(ctx, draft)
	if err != nil {
		s.log.WithError(err).Error("failed to add task")
		return fmt.Errorf("failed to add task: %w", err)
	}

	s.applyInsert(*task)

	s.appendHistory(ctx, HistoryDraft{
		TaskID:    task.ID,
		UserID:    task.UserID,
		Action:    models.HistoryActionCreated,
		NewStatus: &task.Status,
	})
	return nil
}

// Update applies a partial update and replaces the local entry with the
// returned authoritative row. When the update includes a status change, an
// "updated" history record is appended with the previously-known status.
func (s *TaskStore) Update(ctx context.Context, id string, fields map[string]any) error {
	prev, known := s.Get(id)

	task, err := s.gw.Tasks().Update(ctx, id, fields)
	if err != nil {
		s.log.WithError(err).Error("failed to update task")
		return fmt.Errorf("failed to update task: %w", err)
	}

	s.replaceByID(*task)

	if _, ok := fields["status"]; ok {
		draft := HistoryDraft{
			TaskID:    id,
			UserID:    task.UserID,
			Action:    models.HistoryActionUpdated,
			NewStatus: &task.Status,
		}
		if known {
			draft.PreviousStatus = &prev.Status
		}
		s.appendHistory(ctx, draft)
	}
	return nil
}

// UpdateStatus moves a task to a new lifecycle stage and appends a
// "status_changed" history record. The task must be known locally, since
// the previous status cannot be recovered otherwise.
func (s *TaskStore) UpdateStatus(ctx context.Context, id string, status models.TaskStatus) error {
	prev, known := s.Get(id)
	if !known {
		return ErrTaskNotFound
	}

	task, err := s.gw.Tasks().Update(ctx, id, map[string]any{"status": string(status)})
	if err != nil {
		s.log.WithError(err).Error("failed to update task status")
		return fmt.Errorf("failed to update task status: %w", err)
	}

	s.replaceByID(*task)

	s.appendHistory(ctx, HistoryDraft{
		TaskID:         id,
		UserID:         prev.UserID,
		Action:         models.HistoryActionStatusChanged,
		PreviousStatus: &prev.Status,
		NewStatus:      &status,
	})
	return nil
}

// SoftDelete moves a task to the visible, reversible "deleted" stage.
func (s *TaskStore) SoftDelete(ctx context.Context, id string) error {
	return s.UpdateStatus(ctx, id, models.TaskStatusDeleted)
}

// HardDelete physically removes the row and the local entry. Removal is
// idempotent by id, so the channel's delete echo cannot double-remove.
func (s *TaskStore) HardDelete(ctx context.Context, id string) error {
	if err := s.gw.Tasks().Delete(ctx, id); err != nil {
		s.log.WithError(err).Error("failed to delete task")
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.removeByID(id)
	return nil
}

// Subscribe opens the change feed for the tasks table and reconciles its
// events until the returned cancel function is called.
func (s *TaskStore) Subscribe(ctx context.Context) (func(), error) {
	sub, err := s.gw.Subscribe(ctx, realtime.TableTasks, "")
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to tasks: %w", err)
	}

	go func() {
		for ev := range sub.Events() {
			s.reconcile(ev)
		}
	}()

	return func() { sub.Close() }, nil
}

func (s *TaskStore) reconcile(ev realtime.Event) {
	switch ev.Action {
	case realtime.ActionInsert:
		var task models.Task
		if err := ev.DecodeNew(&task); err != nil {
			s.log.WithError(err).Warn("undecodable insert event")
			return
		}
		s.applyInsert(task)

	case realtime.ActionUpdate:
		var task, old models.Task
		if err := ev.DecodeNew(&task); err != nil {
			s.log.WithError(err).Warn("undecodable update event")
			return
		}
		s.replaceByID(task)
		if err := ev.DecodeOld(&old); err == nil && assigneeChanged(old.AssignedTo, task.AssignedTo) {
			s.fireAssigned(task)
		}

	case realtime.ActionDelete:
		var old models.Task
		if err := ev.DecodeOld(&old); err != nil {
			s.log.WithError(err).Warn("undecodable delete event")
			return
		}
		s.removeByID(old.ID)
	}
}

// applyInsert prepends the row if its id is not already present, and raises
// the assignment callbacks for newly-arrived assigned rows.
func (s *TaskStore) applyInsert(task models.Task) {
	s.mu.Lock()
	for _, t := range s.tasks {
		if t.ID == task.ID {
			s.mu.Unlock()
			return
		}
	}
	s.tasks = append([]models.Task{task}, s.tasks...)
	s.mu.Unlock()

	if task.AssignedTo != nil {
		s.fireAssigned(task)
	}
}

// replaceByID swaps the matching entry for the given row. A later event
// always wins; rows not mirrored locally are ignored.
func (s *TaskStore) replaceByID(task models.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tasks {
		if t.ID == task.ID {
			s.tasks[i] = task
			return
		}
	}
}

// removeByID drops the matching entry; removing an absent id is a no-op.
func (s *TaskStore) removeByID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tasks {
		if t.ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return
		}
	}
}

func (s *TaskStore) fireAssigned(task models.Task) {
	s.mu.Lock()
	fns := make([]func(models.Task), len(s.assignedFns))
	copy(fns, s.assignedFns)
	s.mu.Unlock()

	for _, fn := range fns {
		fn(task)
	}
}

// appendHistory is fire-and-forget: a failed history write never rolls back
// the task mutation it records.
func (s *TaskStore) appendHistory(ctx context.Context, draft HistoryDraft) {
	if err := s.gw.History().Insert(ctx, draft); err != nil {
		s.log.WithError(err).Warn("failed to append task history")
	}
}

func assigneeChanged(before, after *string) bool {
	switch {
	case before == nil && after == nil:
		return false
	case before == nil || after == nil:
		return true
	default:
		return *before != *after
	}
}
