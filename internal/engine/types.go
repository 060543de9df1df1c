// Package engine implements the agent orchestration core: the thought,
// planning, execution, and reflection stages plus the bounded iteration loop
// that drives them.
package engine

import (
	"time"
)

// Thought is the structured reasoning output produced before planning.
type Thought struct {
	Reasoning      string   `json:"reasoning"`
	Considerations []string `json:"considerations,omitempty"`
	Assumptions    []string `json:"assumptions,omitempty"`
}

// PlanStep is one unit of work in a Plan. Dependencies reference the order
// values of sibling steps, not their ids.
type PlanStep struct {
	ID           string                 `json:"id"`
	Order        int                    `json:"order"`
	Description  string                 `json:"description"`
	Tool         string                 `json:"tool,omitempty"`
	Parameters   map[string]interface{} `json:"parameters,omitempty"`
	Dependencies []int                  `json:"dependencies,omitempty"`
}

// Plan is a DAG of steps with tool bindings.
type Plan struct {
	ID            string     `json:"id"`
	Steps         []PlanStep `json:"steps"`
	RequiredTools []string   `json:"required_tools,omitempty"`
	Confidence    float64    `json:"confidence"`
	Reasoning     string     `json:"reasoning,omitempty"`
}

// Step statuses.
const (
	StepPending   = "pending"
	StepRunning   = "running"
	StepCompleted = "completed"
	StepFailed    = "failed"
	StepSkipped   = "skipped"
)

// Execution statuses.
const (
	ExecutionPending   = "pending"
	ExecutionRunning   = "running"
	ExecutionCompleted = "completed"
	ExecutionFailed    = "failed"
	ExecutionCancelled = "cancelled"
)

// ExecutionStep tracks the run-state of one PlanStep.
type ExecutionStep struct {
	PlanStepID  string      `json:"plan_step_id"`
	Status      string      `json:"status"`
	Result      interface{} `json:"result,omitempty"`
	Error       string      `json:"error,omitempty"`
	StartedAt   *time.Time  `json:"started_at,omitempty"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

// Execution is the mutable run-state of one scheduling pass over a Plan. The
// scheduler owns it for the duration of the pass; afterwards it is read-only.
type Execution struct {
	ID          string                 `json:"id"`
	Plan        *Plan                  `json:"plan"`
	Status      string                 `json:"status"`
	Steps       []ExecutionStep        `json:"steps"`
	Results     map[string]interface{} `json:"results,omitempty"`
	Error       string                 `json:"error,omitempty"`
	StartedAt   time.Time              `json:"started_at"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
}

// Reflection is the post-hoc judgment of one Execution.
type Reflection struct {
	Success       bool     `json:"success"`
	Analysis      string   `json:"analysis"`
	Issues        []string `json:"issues,omitempty"`
	Improvements  []string `json:"improvements,omitempty"`
	ShouldIterate bool     `json:"should_iterate"`
	NextSteps     []string `json:"next_steps,omitempty"`
}

// Result bundles everything one orchestrator run produced.
type Result struct {
	SessionID  string      `json:"session_id"`
	Mode       string      `json:"mode"`
	Query      string      `json:"query"`
	Answer     string      `json:"answer,omitempty"`
	Thought    *Thought    `json:"thought,omitempty"`
	Plan       *Plan       `json:"plan,omitempty"`
	Execution  *Execution  `json:"execution,omitempty"`
	Reflection *Reflection `json:"reflection,omitempty"`
	Iterations int         `json:"iterations"`
	TokensUsed int64       `json:"tokens_used"`
	ModelsUsed []string    `json:"models_used,omitempty"`
	// TokensByModel attributes the token spend to each model that served
	// a completion during the run.
	TokensByModel map[string]int64 `json:"tokens_by_model,omitempty"`
	Duration      time.Duration
}
