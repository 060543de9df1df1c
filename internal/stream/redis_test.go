package stream

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
)

func TestRedisStreamCloseReleasesClient(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	s := &RedisStream{client: client, stream: "updates"}

	if err := s.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := client.Ping(context.Background()).Err(); !errors.Is(err, redis.ErrClosed) {
		t.Fatalf("client should be closed after stream Close, got %v", err)
	}
}

func TestNewRedisStreamRequiresStreamName(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()
	if _, err := NewRedisStream(context.Background(), client, "", 0); err == nil {
		t.Fatalf("empty stream name must be rejected")
	}
}
