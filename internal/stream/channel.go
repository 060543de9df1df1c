package stream

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ChannelStream delivers updates over an in-process buffered channel. Slow
// consumers drop the oldest buffered update rather than blocking the engine.
type ChannelStream struct {
	mu     sync.Mutex
	ch     chan Update
	closed bool
}

func NewChannelStream(buffer int) *ChannelStream {
	if buffer <= 0 {
		buffer = 64
	}
	return &ChannelStream{ch: make(chan Update, buffer)}
}

// Updates exposes the consumer side of the stream.
func (s *ChannelStream) Updates() <-chan Update { return s.ch }

func (s *ChannelStream) Publish(_ context.Context, update Update) error {
	if update.ID == "" {
		update.ID = uuid.NewString()
	}
	if update.OccurredAt.IsZero() {
		update.OccurredAt = time.Now().UTC()
	}
	if err := update.ValidateBasic(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	for {
		select {
		case s.ch <- update:
			return nil
		default:
			// buffer full: evict oldest
			select {
			case <-s.ch:
			default:
			}
		}
	}
}

func (s *ChannelStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	return nil
}
