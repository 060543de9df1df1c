package bus

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryBus delivers events synchronously to in-process subscribers.
type InMemoryBus struct {
	mu   sync.RWMutex
	subs map[string]subscription
}

type subscription struct {
	pattern string
	handler Handler
}

// NewInMemoryBus creates an empty in-process bus.
func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{subs: make(map[string]subscription)}
}

// Emit publishes an event to all matching subscribers.
func (b *InMemoryBus) Emit(_ context.Context, topic string, payload map[string]interface{}, meta Meta) error {
	event := Event{
		ID:         uuid.NewString(),
		Topic:      topic,
		Payload:    payload,
		Meta:       meta,
		OccurredAt: time.Now().UTC(),
	}

	b.mu.RLock()
	var handlers []Handler
	for _, sub := range b.subs {
		if matchPattern(sub.pattern, topic) {
			handlers = append(handlers, sub.handler)
		}
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
	return nil
}

// Subscribe registers a handler for topics matching the pattern.
func (b *InMemoryBus) Subscribe(pattern string, handler Handler) (string, error) {
	id := uuid.NewString()
	b.mu.Lock()
	b.subs[id] = subscription{pattern: pattern, handler: handler}
	b.mu.Unlock()
	return id, nil
}

// Unsubscribe removes a subscription by id.
func (b *InMemoryBus) Unsubscribe(id string) error {
	b.mu.Lock()
	delete(b.subs, id)
	b.mu.Unlock()
	return nil
}
