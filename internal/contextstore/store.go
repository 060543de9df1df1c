// Package contextstore persists durable per-session context: execution
// summaries and other long-lived notes the engine retrieves on later runs.
package contextstore

import (
	"context"
	"time"
)

// Entry is one durable context record.
type Entry struct {
	ID        string            `json:"id"`
	SessionID string            `json:"session_id"`
	Kind      string            `json:"kind"` // summary, note, execution
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Store is the durable context contract consumed by the engine.
type Store interface {
	// Append persists an entry.
	Append(ctx context.Context, entry Entry) error

	// Search returns entries relevant to the query within a session. Vector
	// backends rank by similarity; relational backends fall back to substring
	// match ordered by recency. The query must be non-empty.
	Search(ctx context.Context, sessionID, query string, limit int) ([]Entry, error)

	// Close releases backend resources.
	Close() error
}
