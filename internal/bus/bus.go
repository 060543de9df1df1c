// Package bus carries lifecycle notifications between the engine and its
// observers. Delivery is at most once; the engine never branches on whether
// a subscriber saw an event.
package bus

import (
	"context"
	"strings"
	"time"
)

// Meta identifies the session and user an event belongs to.
type Meta struct {
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

// Event is the canonical notification envelope.
type Event struct {
	ID         string                 `json:"id"`
	Topic      string                 `json:"topic"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	Meta       Meta                   `json:"meta"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// Handler receives delivered events.
type Handler func(Event)

// Bus is the notification contract consumed by the engine.
type Bus interface {
	// Emit publishes an event on the given topic.
	Emit(ctx context.Context, topic string, payload map[string]interface{}, meta Meta) error

	// Subscribe registers a handler for topics matching the pattern and
	// returns a subscription id.
	Subscribe(pattern string, handler Handler) (string, error)

	// Unsubscribe removes a subscription by id.
	Unsubscribe(id string) error
}

// Event name suffixes emitted by the engine, namespaced by mode
// (e.g. "agent.executor.started").
const (
	EventQueryReceived       = "query.received"
	EventThoughtCompleted    = "thought.completed"
	EventPlanGenerated       = "plan.generated"
	EventToolsDiscovered     = "tools.discovered"
	EventValidationWarnings  = "validation.warnings"
	EventExecutorStarted     = "executor.started"
	EventExecutorStep        = "executor.step.progress"
	EventExecutorCompleted   = "executor.completed"
	EventReflectionCompleted = "reflection.completed"
	EventExecutionCompleted  = "execution.completed"
	EventError               = "error"
)

// Topic namespaces an event name by mode.
func Topic(mode, event string) string {
	return mode + "." + event
}

// matchPattern reports whether a topic matches a subscription pattern.
// Patterns are dot-separated segments where "*" matches one segment and a
// trailing "*" matches the remainder, mirroring the glob subset Redis
// PSUBSCRIBE accepts for our topic shapes.
func matchPattern(pattern, topic string) bool {
	if pattern == topic || pattern == "*" {
		return true
	}
	ps := strings.Split(pattern, ".")
	ts := strings.Split(topic, ".")
	for i, p := range ps {
		if p == "*" && i == len(ps)-1 {
			return true
		}
		if i >= len(ts) {
			return false
		}
		if p != "*" && p != ts[i] {
			return false
		}
	}
	return len(ps) == len(ts)
}
