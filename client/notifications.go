package client

import (
	"sync"

	"github.com/lolo262652/tasknot/internal/models"
)

// Notifier relays task-assignment changes to presentation consumers (toast,
// sound). It registers on a TaskStore and forwards only the events whose
// assignee is the session's own user, each carrying the task snapshot at
// the time of the change.
type Notifier struct {
	mu       sync.Mutex
	session  *Session
	handlers []func(models.Task)
}

// NewNotifier creates a Notifier bound to the session.
func NewNotifier(session *Session) *Notifier {
	return &Notifier{session: session}
}

// Bind registers the notifier on the store's assignment callbacks.
func (n *Notifier) Bind(store *TaskStore) {
	store.OnAssigned(n.relay)
}

// OnTaskAssigned registers a presentation handler.
func (n *Notifier) OnTaskAssigned(fn func(models.Task)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers = append(n.handlers, fn)
}

func (n *Notifier) relay(task models.Task) {
	userID, ok := n.session.UserID()
	if !ok || task.AssignedTo == nil || *task.AssignedTo != userID {
		return
	}

	n.mu.Lock()
	handlers := make([]func(models.Task), len(n.handlers))
	copy(handlers, n.handlers)
	n.mu.Unlock()

	for _, fn := range handlers {
		fn(task)
	}
}
