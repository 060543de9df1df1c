package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/snazari/axon/internal/tool"
)

// fallbackConfidence is assigned when the planner output could not be parsed
// and the plan is reconstructed from raw text lines.
const fallbackConfidence = 0.3

type planDoc struct {
	Steps []struct {
		Order        int                    `json:"order"`
		Description  string                 `json:"description"`
		Tool         string                 `json:"tool"`
		Parameters   map[string]interface{} `json:"parameters"`
		Dependencies []int                  `json:"dependencies"`
	} `json:"steps"`
	RequiredTools []string `json:"required_tools"`
	Confidence    float64  `json:"confidence"`
	Reasoning     string   `json:"reasoning"`
}

// generatePlan asks the model for a step plan and cleans it against the
// actual tool catalog. Returns the plan plus any filtering warnings.
func (e *Engine) generatePlan(ctx context.Context, query string, thought *Thought, specs []tool.Spec, acct *usage) (*Plan, []string, error) {
	model := e.cfg.LLM.Routing.Planning
	if model == "" {
		model = e.cfg.LLM.Routing.Fallback
	}

	raw, err := e.complete(ctx, model, planPrompt(query, thought, specs), nil, acct)
	if err != nil {
		return nil, nil, err
	}

	var doc planDoc
	if err := json.Unmarshal([]byte(extractFirstJSON(raw)), &doc); err != nil || len(doc.Steps) == 0 {
		return planFromLines(raw), nil, nil
	}

	plan := &Plan{
		ID:         uuid.NewString(),
		Confidence: clamp01(doc.Confidence),
		Reasoning:  doc.Reasoning,
	}
	seen := make(map[int]bool, len(doc.Steps))
	nextOrder := 0
	for _, s := range doc.Steps {
		nextOrder++
		order := s.Order
		if order <= 0 || seen[order] {
			// repair rather than reject: orders must be unique positives
			for seen[nextOrder] {
				nextOrder++
			}
			order = nextOrder
		}
		seen[order] = true
		plan.Steps = append(plan.Steps, PlanStep{
			ID:           uuid.NewString(),
			Order:        order,
			Description:  s.Description,
			Tool:         s.Tool,
			Parameters:   s.Parameters,
			Dependencies: s.Dependencies,
		})
	}

	warnings := filterPlan(plan, specs)
	return plan, warnings, nil
}

// filterPlan demotes steps bound to unknown tools to manual and recomputes
// RequiredTools from the steps that survived. Returns one warning per demotion.
func filterPlan(plan *Plan, specs []tool.Spec) []string {
	known := make(map[string]bool, len(specs))
	for _, s := range specs {
		known[s.Name] = true
	}

	var warnings []string
	referenced := make(map[string]bool)
	for i := range plan.Steps {
		step := &plan.Steps[i]
		if step.Tool == "" {
			continue
		}
		if !known[step.Tool] {
			warnings = append(warnings, fmt.Sprintf("step %d references unknown tool %q; demoted to manual", step.Order, step.Tool))
			step.Tool = ""
			step.Parameters = nil
			continue
		}
		referenced[step.Tool] = true
	}

	plan.RequiredTools = plan.RequiredTools[:0]
	for name := range referenced {
		plan.RequiredTools = append(plan.RequiredTools, name)
	}
	sort.Strings(plan.RequiredTools)
	return warnings
}

// planFromLines degrades unparseable planner output into one manual step per
// non-blank line.
func planFromLines(raw string) *Plan {
	plan := &Plan{ID: uuid.NewString(), Confidence: fallbackConfidence}
	order := 0
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		order++
		plan.Steps = append(plan.Steps, PlanStep{
			ID:          uuid.NewString(),
			Order:       order,
			Description: line,
		})
	}
	if len(plan.Steps) == 0 {
		plan.Steps = append(plan.Steps, PlanStep{
			ID:          uuid.NewString(),
			Order:       1,
			Description: "review the request manually",
		})
	}
	return plan
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
