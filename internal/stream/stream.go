// Package stream carries live per-step progress updates to interactive
// consumers (SSE bridges, CLIs). Unlike the notification bus, updates are an
// ordered feed scoped to one execution.
package stream

import (
	"context"
	"fmt"
	"time"
)

// Update is one live progress record.
type Update struct {
	ID          string                 `json:"id"`
	Kind        string                 `json:"kind"` // step, phase, error
	SessionID   string                 `json:"session_id,omitempty"`
	ExecutionID string                 `json:"execution_id,omitempty"`
	StepID      string                 `json:"step_id,omitempty"`
	Status      string                 `json:"status,omitempty"`
	Data        map[string]interface{} `json:"data,omitempty"`
	OccurredAt  time.Time              `json:"occurred_at"`
}

// ValidateBasic ensures mandatory fields are present before publishing.
func (u *Update) ValidateBasic() error {
	if u.Kind == "" {
		return fmt.Errorf("kind is required")
	}
	if u.OccurredAt.IsZero() {
		u.OccurredAt = time.Now().UTC()
	}
	return nil
}

// Publisher is the live-update contract consumed by the engine.
type Publisher interface {
	Publish(ctx context.Context, update Update) error
	Close() error
}
