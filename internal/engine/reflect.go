package engine

import (
	"context"
	"encoding/json"
)

// reflect judges whether an execution achieved the goal. If the model output
// is malformed, success defaults from the execution status and the loop does
// not iterate.
func (e *Engine) reflect(ctx context.Context, query string, plan *Plan, execution *Execution, acct *usage) (*Reflection, error) {
	model := e.cfg.LLM.Routing.Reflection
	if model == "" {
		model = e.cfg.LLM.Routing.Fallback
	}

	raw, err := e.complete(ctx, model, reflectionPrompt(query, plan, execution), nil, acct)
	if err != nil {
		return nil, err
	}

	var refl Reflection
	if err := json.Unmarshal([]byte(extractFirstJSON(raw)), &refl); err != nil {
		return &Reflection{
			Success:       execution.Status == ExecutionCompleted,
			Analysis:      raw,
			ShouldIterate: false,
		}, nil
	}
	return &refl, nil
}
