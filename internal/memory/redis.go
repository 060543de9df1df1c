package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the per-session message window in a Redis list so the
// buffer survives process restarts and is shared across engine instances.
type RedisStore struct {
	client *redis.Client
	window int
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection with a ping.
func NewRedisStore(ctx context.Context, addr, password string, db int, window int, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis memory ping: %w", err)
	}
	if window <= 0 {
		window = 20
	}
	return &RedisStore{client: client, window: window, ttl: ttl}, nil
}

func (s *RedisStore) key(sessionID string) string {
	return "axon:memory:" + sessionID
}

// Append pushes messages onto the session list and trims it to the window.
func (s *RedisStore) Append(ctx context.Context, sessionID string, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(msgs))
	for _, m := range msgs {
		raw, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("marshal message: %w", err)
		}
		values = append(values, raw)
	}
	key := s.key(sessionID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	pipe.LTrim(ctx, key, int64(-s.window), -1)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append memory: %w", err)
	}
	return nil
}

// Recent returns up to limit of the most recent messages, oldest first.
func (s *RedisStore) Recent(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}
	raw, err := s.client.LRange(ctx, s.key(sessionID), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read memory: %w", err)
	}
	out := make([]Message, 0, len(raw))
	for _, r := range raw {
		var m Message
		if err := json.Unmarshal([]byte(r), &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error { return s.client.Close() }
