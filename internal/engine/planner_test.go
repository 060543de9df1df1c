package engine

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/snazari/axon/internal/tool"
)

func TestFilterPlanDemotesUnknownTools(t *testing.T) {
	plan := &Plan{
		ID: "p",
		Steps: []PlanStep{
			{ID: "a", Order: 1, Tool: "search", Parameters: map[string]interface{}{"query": "x"}},
			{ID: "b", Order: 2, Tool: "teleport", Parameters: map[string]interface{}{"to": "mars"}},
			{ID: "c", Order: 3},
		},
		RequiredTools: []string{"search", "teleport", "phantom"},
	}
	specs := []tool.Spec{{Name: "search"}, {Name: "read"}}

	warnings := filterPlan(plan, specs)

	if len(warnings) != 1 || !strings.Contains(warnings[0], "teleport") {
		t.Fatalf("expected one warning naming the unknown tool, got %v", warnings)
	}
	if plan.Steps[1].Tool != "" || plan.Steps[1].Parameters != nil {
		t.Fatalf("unknown-tool step should be demoted to manual: %+v", plan.Steps[1])
	}
	if !reflect.DeepEqual(plan.RequiredTools, []string{"search"}) {
		t.Fatalf("required tools should only keep referenced names, got %v", plan.RequiredTools)
	}
}

func TestGeneratePlanParsesModelOutput(t *testing.T) {
	prov := &scriptedProvider{responses: []string{`Here is the plan:
{"steps": [
  {"order": 1, "description": "find sources", "tool": "search", "parameters": {"query": "golang"}},
  {"order": 2, "description": "summarize", "dependencies": [1]}
], "required_tools": ["search"], "confidence": 0.8, "reasoning": "two phases"}`}}
	e := newTestEngine(t, prov, searchReadTools(), Deps{})

	plan, warnings, err := e.generatePlan(context.Background(), "research golang", &Thought{Reasoning: "r"}, searchReadTools().specs, &usage{})
	if err != nil {
		t.Fatalf("generatePlan failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(plan.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(plan.Steps))
	}
	if plan.Steps[0].Tool != "search" || plan.Steps[1].Tool != "" {
		t.Fatalf("tool bindings wrong: %+v", plan.Steps)
	}
	if plan.Steps[0].ID == "" || plan.Steps[0].ID == plan.Steps[1].ID {
		t.Fatalf("steps need distinct generated ids")
	}
	if !reflect.DeepEqual(plan.Steps[1].Dependencies, []int{1}) {
		t.Fatalf("dependencies lost: %+v", plan.Steps[1])
	}
	if plan.Confidence != 0.8 {
		t.Fatalf("confidence = %v", plan.Confidence)
	}
}

func TestGeneratePlanWarnsOnHallucinatedTool(t *testing.T) {
	prov := &scriptedProvider{responses: []string{`{"steps": [
  {"order": 1, "description": "use magic", "tool": "wand", "parameters": {"spell": "fix"}}
], "required_tools": ["wand"], "confidence": 0.9}`}}
	e := newTestEngine(t, prov, searchReadTools(), Deps{})

	plan, warnings, err := e.generatePlan(context.Background(), "q", nil, searchReadTools().specs, &usage{})
	if err != nil {
		t.Fatalf("generatePlan failed: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected a demotion warning, got %v", warnings)
	}
	if plan.Steps[0].Tool != "" {
		t.Fatalf("hallucinated tool should be stripped")
	}
	if len(plan.RequiredTools) != 0 {
		t.Fatalf("required tools should be empty after filtering, got %v", plan.RequiredTools)
	}
}

func TestGeneratePlanFallsBackToLines(t *testing.T) {
	prov := &scriptedProvider{responses: []string{"first do this\n\nthen do that\nfinally check results"}}
	e := newTestEngine(t, prov, searchReadTools(), Deps{})

	plan, _, err := e.generatePlan(context.Background(), "q", nil, nil, &usage{})
	if err != nil {
		t.Fatalf("generatePlan failed: %v", err)
	}
	if len(plan.Steps) != 3 {
		t.Fatalf("expected one manual step per non-blank line, got %d", len(plan.Steps))
	}
	for i, step := range plan.Steps {
		if step.Tool != "" {
			t.Fatalf("fallback steps must be manual")
		}
		if step.Order != i+1 {
			t.Fatalf("orders should be sequential, got %d at %d", step.Order, i)
		}
	}
	if plan.Confidence != fallbackConfidence {
		t.Fatalf("fallback confidence = %v", plan.Confidence)
	}
}

func TestGeneratePlanRepairsDuplicateOrders(t *testing.T) {
	prov := &scriptedProvider{responses: []string{`{"steps": [
  {"order": 1, "description": "a"},
  {"order": 1, "description": "b"},
  {"order": 0, "description": "c"}
], "confidence": 0.5}`}}
	e := newTestEngine(t, prov, searchReadTools(), Deps{})

	plan, _, err := e.generatePlan(context.Background(), "q", nil, nil, &usage{})
	if err != nil {
		t.Fatalf("generatePlan failed: %v", err)
	}
	seen := map[int]bool{}
	for _, s := range plan.Steps {
		if s.Order <= 0 {
			t.Fatalf("order must be positive, got %d", s.Order)
		}
		if seen[s.Order] {
			t.Fatalf("duplicate order %d survived", s.Order)
		}
		seen[s.Order] = true
	}
}

func TestExtractFirstJSON(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`{"a": 1}`, `{"a": 1}`},
		{"prose before {\"a\": {\"b\": 2}} prose after", `{"a": {"b": 2}}`},
		{"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{`{"s": "brace } inside"}`, `{"s": "brace } inside"}`},
		{"no json here", "no json here"},
	}
	for _, c := range cases {
		if got := extractFirstJSON(c.in); got != c.want {
			t.Errorf("extractFirstJSON(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestGenerateThoughtFallsBackToRawText(t *testing.T) {
	prov := &scriptedProvider{responses: []string{"I would start by searching."}}
	e := newTestEngine(t, prov, searchReadTools(), Deps{})

	th, err := e.generateThought(context.Background(), "q", nil, nil, &usage{})
	if err != nil {
		t.Fatalf("generateThought failed: %v", err)
	}
	if th.Reasoning != "I would start by searching." {
		t.Fatalf("raw text should become the reasoning, got %q", th.Reasoning)
	}
}
