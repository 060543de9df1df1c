package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisBus publishes events over Redis pub/sub. Patterns use PSUBSCRIBE glob
// semantics, which cover the dot-separated topic shapes the engine emits.
type RedisBus struct {
	client *redis.Client

	mu   sync.Mutex
	subs map[string]*redis.PubSub
}

// NewRedisBus connects to Redis and verifies the connection with a ping.
func NewRedisBus(ctx context.Context, addr, password string, db int, timeout time.Duration) (*RedisBus, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: timeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis bus ping: %w", err)
	}
	return &RedisBus{client: client, subs: make(map[string]*redis.PubSub)}, nil
}

// Emit publishes an event on the given topic.
func (b *RedisBus) Emit(ctx context.Context, topic string, payload map[string]interface{}, meta Meta) error {
	event := Event{
		ID:         uuid.NewString(),
		Topic:      topic,
		Payload:    payload,
		Meta:       meta,
		OccurredAt: time.Now().UTC(),
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, topic, raw).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe registers a handler for topics matching the pattern.
func (b *RedisBus) Subscribe(pattern string, handler Handler) (string, error) {
	ps := b.client.PSubscribe(context.Background(), pattern)
	id := uuid.NewString()

	b.mu.Lock()
	b.subs[id] = ps
	b.mu.Unlock()

	go func() {
		for msg := range ps.Channel() {
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue
			}
			handler(event)
		}
	}()
	return id, nil
}

// Unsubscribe closes the subscription's underlying pub/sub connection.
func (b *RedisBus) Unsubscribe(id string) error {
	b.mu.Lock()
	ps, ok := b.subs[id]
	delete(b.subs, id)
	b.mu.Unlock()
	if !ok {
		return nil
	}
	return ps.Close()
}

// Close releases the Redis connection and all subscriptions.
func (b *RedisBus) Close() error {
	b.mu.Lock()
	for id, ps := range b.subs {
		_ = ps.Close()
		delete(b.subs, id)
	}
	b.mu.Unlock()
	return b.client.Close()
}
