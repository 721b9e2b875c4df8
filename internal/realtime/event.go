package realtime

import "encoding/json"

type Action string

const (
	ActionInsert Action = "INSERT"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// Table names as they appear on the wire.
const (
	TableTasks     = "tasks"
	TableHistory   = "task_history"
	TableDocuments = "task_documents"
	TableProfiles  = "profiles"
)

// Event is one row-level change notification. New carries the row after the
// change (INSERT, UPDATE); Old carries the row before it (UPDATE, DELETE).
type Event struct {
	Action Action          `json:"event"`
	Table  string          `json:"table"`
	New    json.RawMessage `json:"new,omitempty"`
	Old    json.RawMessage `json:"old,omitempty"`
}

// NewEvent marshals the given rows into an Event. Rows that fail to marshal
// are left empty; the notification still carries the action and table.
func NewEvent(action Action, table string, newRow, oldRow any) Event {
	ev := Event{Action: action, Table: table}
	if newRow != nil {
		if b, err := json.Marshal(newRow); err == nil {
			ev.New = b
		}
	}
	if oldRow != nil {
		if b, err := json.Marshal(oldRow); err == nil {
			ev.Old = b
		}
	}
	return ev
}

// DecodeNew unmarshals the post-change row into v.
func (e Event) DecodeNew(v any) error {
	return json.Unmarshal(e.New, v)
}

// DecodeOld unmarshals the pre-change row into v.
func (e Event) DecodeOld(v any) error {
	return json.Unmarshal(e.Old, v)
}
