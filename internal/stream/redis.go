package stream

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStream appends updates to a Redis Stream via XADD so external
// consumers can tail execution progress with XREAD. It owns the client it
// was constructed with and releases it on Close.
type RedisStream struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisStream verifies connectivity and returns a stream publisher. maxLen
// caps the stream length approximately; zero disables trimming.
func NewRedisStream(ctx context.Context, client *redis.Client, stream string, maxLen int64) (*RedisStream, error) {
	if stream == "" {
		return nil, fmt.Errorf("stream name is required")
	}
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStream{client: client, stream: stream, maxLen: maxLen}, nil
}

func (s *RedisStream) Publish(ctx context.Context, update Update) error {
	if update.ID == "" {
		update.ID = uuid.NewString()
	}
	if err := update.ValidateBasic(); err != nil {
		return err
	}
	raw, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("marshal update: %w", err)
	}
	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{"update": raw},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd: %w", err)
	}
	return nil
}

func (s *RedisStream) Close() error { return s.client.Close() }
