package engine

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/snazari/axon/internal/provider"
	"github.com/snazari/axon/internal/tool"
)

// generateThought produces the structured reasoning that precedes planning,
// grounded on the recent conversation. Malformed model output is recovered by
// treating the raw text as reasoning.
func (e *Engine) generateThought(ctx context.Context, query string, history []provider.Message, specs []tool.Spec, acct *usage) (*Thought, error) {
	model := e.cfg.LLM.Routing.Thought
	if model == "" {
		model = e.cfg.LLM.Routing.Fallback
	}

	raw, err := e.complete(ctx, model, thoughtPrompt(query, specs), history, acct)
	if err != nil {
		return nil, err
	}

	var th Thought
	if err := json.Unmarshal([]byte(extractFirstJSON(raw)), &th); err != nil || strings.TrimSpace(th.Reasoning) == "" {
		return &Thought{Reasoning: strings.TrimSpace(raw)}, nil
	}
	return &th, nil
}
