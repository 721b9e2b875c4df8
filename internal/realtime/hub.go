package realtime

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Filter restricts a subscription to rows whose column equals a value,
// mirroring the wire form "column=eq.value". The zero Filter matches all rows.
type Filter struct {
	Column string
	Value  string
}

// ParseFilter parses "column=eq.value". An empty string is the match-all filter.
func ParseFilter(s string) (Filter, error) {
	if s == "" {
		return Filter{}, nil
	}
	column, rest, ok := strings.Cut(s, "=eq.")
	if !ok || column == "" || rest == "" {
		return Filter{}, fmt.Errorf("malformed filter %q", s)
	}
	return Filter{Column: column, Value: rest}, nil
}

func (f Filter) String() string {
	if f.Column == "" {
		return ""
	}
	return f.Column + "=eq." + f.Value
}

// Matches reports whether the event's new or old row satisfies the filter.
func (f Filter) Matches(ev Event) bool {
	if f.Column == "" {
		return true
	}
	return rowHasValue(ev.New, f.Column, f.Value) || rowHasValue(ev.Old, f.Column, f.Value)
}

func rowHasValue(row json.RawMessage, column, value string) bool {
	if len(row) == 0 {
		return false
	}
	var fields map[string]any
	if err := json.Unmarshal(row, &fields); err != nil {
		return false
	}
	v, ok := fields[column]
	if !ok || v == nil {
		return false
	}
	return fmt.Sprint(v) == value
}

// Subscriber receives the events of one subscription on C. Close via
// Hub.Unsubscribe; the channel is closed once no more events will arrive.
type Subscriber struct {
	Table  string
	Filter Filter
	C      chan Event
}

// Hub fans row-change events out to table-scoped subscribers. Services
// publish after each successful mutation; websocket handlers and in-process
// gateways subscribe.
type Hub struct {
	mu   sync.RWMutex
	subs map[*Subscriber]struct{}
	log  *logrus.Entry
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[*Subscriber]struct{}),
		log:  logrus.WithField("component", "realtime"),
	}
}

// Subscribe registers a subscriber for one table, optionally filtered by
// column equality.
func (h *Hub) Subscribe(table string, filter Filter) *Subscriber {
	sub := &Subscriber{
		Table:  table,
		Filter: filter,
		C:      make(chan Event, 16),
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	return sub
}

// Unsubscribe removes the subscriber and closes its channel. Safe to call
// once per subscriber only; callers that may race wrap it in sync.Once.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	_, ok := h.subs[sub]
	delete(h.subs, sub)
	h.mu.Unlock()

	if ok {
		close(sub.C)
	}
}

// Publish delivers ev to every matching subscriber. Slow subscribers have
// the event dropped rather than blocking the mutation path.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs {
		if sub.Table != ev.Table || !sub.Filter.Matches(ev) {
			continue
		}
		select {
		case sub.C <- ev:
		default:
			h.log.WithFields(logrus.Fields{
				"table":  ev.Table,
				"action": ev.Action,
			}).Warn("subscriber too slow, dropping change event")
		}
	}
}
