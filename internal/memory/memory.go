// Package memory holds the short-term conversation buffer the engine feeds
// into its completion prompts.
package memory

import (
	"context"
	"time"
)

// Message is one conversation turn.
type Message struct {
	Role      string    `json:"role"` // user, assistant, system
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the short-term memory contract consumed by the engine.
type Store interface {
	// Append adds messages to the session's buffer.
	Append(ctx context.Context, sessionID string, msgs ...Message) error

	// Recent returns up to limit of the most recent messages, oldest first.
	Recent(ctx context.Context, sessionID string, limit int) ([]Message, error)
}
