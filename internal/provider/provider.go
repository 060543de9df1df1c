// Package provider abstracts chat-completion backends behind a single
// interface so the engine stages stay model-agnostic.
package provider

import (
	"context"
	"errors"
)

// Message is one prior conversation turn handed to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options tunes a single completion call. Zero values fall back to the
// provider's configured defaults.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Completion is the normalized result of one model call.
type Completion struct {
	Content      string
	TokensUsed   int64
	Model        string
	FinishReason string
}

// ErrEmptyCompletion is returned when the model replies with no content.
var ErrEmptyCompletion = errors.New("provider returned empty completion")

// CompletionProvider generates text completions from a prompt plus optional
// conversation history.
type CompletionProvider interface {
	Complete(ctx context.Context, prompt string, history []Message, opts Options) (Completion, error)
}
