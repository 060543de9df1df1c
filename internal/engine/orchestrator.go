package engine

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/snazari/axon/config"
	"github.com/snazari/axon/internal/bus"
	"github.com/snazari/axon/internal/contextstore"
	"github.com/snazari/axon/internal/memory"
	"github.com/snazari/axon/internal/provider"
	"github.com/snazari/axon/internal/stream"
	"github.com/snazari/axon/internal/telemetry"
	"github.com/snazari/axon/internal/tool"
)

// Engine modes.
const (
	ModeAsk   = "ask"
	ModePlan  = "plan"
	ModeAgent = "agent"
)

// Deps bundles the subsystems the engine runs against. Provider and Tools
// are required; Bus defaults to no-op, the rest are optional.
type Deps struct {
	Provider  provider.CompletionProvider
	Tools     tool.Capability
	Bus       bus.Bus
	Memory    memory.Store
	Contexts  contextstore.Store
	Stream    stream.Publisher
	Telemetry *telemetry.Telemetry
}

// Engine drives the thought, plan, execution, and reflection stages for one
// query at a time. It is safe for concurrent Run calls: per-run state lives
// on the stack, and the shared collaborators are concurrency-safe.
type Engine struct {
	cfg       *config.Config
	logger    *log.Logger
	provider  provider.CompletionProvider
	tools     tool.Capability
	bus       bus.Bus
	memory    memory.Store
	contexts  contextstore.Store
	stream    stream.Publisher
	telemetry *telemetry.Telemetry
}

func New(cfg *config.Config, deps Deps) (*Engine, error) {
	if deps.Provider == nil {
		return nil, fmt.Errorf("completion provider is required")
	}
	if deps.Tools == nil {
		return nil, fmt.Errorf("tool capability is required")
	}
	if err := cfg.Engine.Validate(); err != nil {
		return nil, err
	}
	b := deps.Bus
	if b == nil {
		b = bus.NewNoopBus()
	}
	return &Engine{
		cfg:       cfg,
		logger:    log.New(log.Writer(), "[ENGINE] ", log.LstdFlags),
		provider:  deps.Provider,
		tools:     deps.Tools,
		bus:       b,
		memory:    deps.Memory,
		contexts:  deps.Contexts,
		stream:    deps.Stream,
		telemetry: deps.Telemetry,
	}, nil
}

// usage accumulates token spend across the completion calls of one run,
// attributed per model.
type usage struct {
	tokens  int64
	byModel map[string]int64
}

func (u *usage) add(c provider.Completion) {
	u.tokens += c.TokensUsed
	if u.byModel == nil {
		u.byModel = map[string]int64{}
	}
	u.byModel[c.Model] += c.TokensUsed
}

func (u *usage) models() []string {
	out := make([]string, 0, len(u.byModel))
	for m := range u.byModel {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// complete performs one completion call with the routed model.
func (e *Engine) complete(ctx context.Context, model, prompt string, history []provider.Message, acct *usage) (string, error) {
	c, err := e.provider.Complete(ctx, prompt, history, provider.Options{Model: model})
	if err != nil {
		return "", err
	}
	if acct != nil {
		acct.add(c)
	}
	return c.Content, nil
}

// Run processes one query in the given mode. The query must be non-blank;
// this is rejected before any completion or tool call.
func (e *Engine) Run(ctx context.Context, mode, sessionID, userID, query string) (*Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	switch mode {
	case ModeAsk, ModePlan, ModeAgent:
	default:
		return nil, fmt.Errorf("unknown mode: %s", mode)
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	meta := bus.Meta{SessionID: sessionID, UserID: userID}
	started := time.Now()

	e.emit(ctx, mode, bus.EventQueryReceived, map[string]interface{}{"query": query}, meta)

	res, err := e.runMode(ctx, mode, sessionID, meta, query)
	if err != nil {
		e.emit(ctx, mode, bus.EventError, map[string]interface{}{"error": err.Error()}, meta)
		e.telemetry.RecordRun(ctx, telemetry.RunEvent{
			SessionID: sessionID, Mode: mode,
			StartTime: started, EndTime: time.Now(), Duration: time.Since(started),
			Success: false, Error: err.Error(),
		})
		return nil, err
	}

	res.SessionID = sessionID
	res.Mode = mode
	res.Query = query
	res.Duration = time.Since(started)

	e.emit(ctx, mode, bus.EventExecutionCompleted, executionSummary(res), meta)
	e.telemetry.RecordRun(ctx, telemetry.RunEvent{
		SessionID:  sessionID,
		Mode:       mode,
		StartTime:  started,
		EndTime:    time.Now(),
		Duration:   res.Duration,
		Iterations: res.Iterations,
		Success:       runSucceeded(res),
		TokensUsed:    res.TokensUsed,
		ModelsUsed:    res.ModelsUsed,
		TokensByModel: res.TokensByModel,
	})
	e.recordRun(ctx, sessionID, query, res)
	return res, nil
}

func (e *Engine) runMode(ctx context.Context, mode, sessionID string, meta bus.Meta, query string) (*Result, error) {
	acct := &usage{}
	switch mode {
	case ModeAsk:
		return e.runAsk(ctx, mode, meta, query, acct)
	case ModePlan:
		res, err := e.prepare(ctx, mode, meta, query, acct)
		if err != nil {
			return nil, err
		}
		res.TokensUsed = acct.tokens
		res.ModelsUsed = acct.models()
		res.TokensByModel = acct.byModel
		return res, nil
	default:
		res, err := e.prepare(ctx, mode, meta, query, acct)
		if err != nil {
			return nil, err
		}
		if err := e.runLoop(ctx, mode, sessionID, meta, query, res, acct); err != nil {
			return nil, err
		}
		res.TokensUsed = acct.tokens
		res.ModelsUsed = acct.models()
		res.TokensByModel = acct.byModel
		return res, nil
	}
}

// recentHistory loads the session's recent turns from short-term memory.
// Failures degrade to an empty history, never abort the run.
func (e *Engine) recentHistory(ctx context.Context, sessionID string) []provider.Message {
	if e.memory == nil {
		return nil
	}
	msgs, err := e.memory.Recent(ctx, sessionID, e.cfg.Engine.HistoryWindow)
	if err != nil {
		e.logger.Printf("loading history failed: %v", err)
		return nil
	}
	history := make([]provider.Message, 0, len(msgs))
	for _, m := range msgs {
		history = append(history, provider.Message{Role: m.Role, Content: m.Content})
	}
	return history
}

// think runs tool discovery and the thought stage shared by all modes:
// the thought completion sees the query, the recent conversation, and the
// discovered tool catalog.
func (e *Engine) think(ctx context.Context, mode string, meta bus.Meta, query string, acct *usage) ([]tool.Spec, []provider.Message, *Thought, error) {
	specs, err := e.tools.Discover(ctx, "", e.cfg.Tools.Remote.DiscoveryLimit)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("tool discovery failed: %w", err)
	}
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}
	e.emit(ctx, mode, bus.EventToolsDiscovered, map[string]interface{}{"tools": names}, meta)

	history := e.recentHistory(ctx, meta.SessionID)
	thought, err := e.generateThought(ctx, query, history, specs, acct)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("thought stage failed: %w", err)
	}
	e.emit(ctx, mode, bus.EventThoughtCompleted, map[string]interface{}{"reasoning": thought.Reasoning}, meta)
	return specs, history, thought, nil
}

// runAsk reasons over the query, then answers directly from the model. Both
// completions see the recent conversation history; no plan is produced.
func (e *Engine) runAsk(ctx context.Context, mode string, meta bus.Meta, query string, acct *usage) (*Result, error) {
	_, history, thought, err := e.think(ctx, mode, meta, query, acct)
	if err != nil {
		return nil, err
	}

	model := e.cfg.LLM.Routing.Chat
	if model == "" {
		model = e.cfg.LLM.Routing.Fallback
	}
	answer, err := e.complete(ctx, model, askPrompt(query), history, acct)
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}
	return &Result{
		Thought:       thought,
		Answer:        answer,
		TokensUsed:    acct.tokens,
		ModelsUsed:    acct.models(),
		TokensByModel: acct.byModel,
	}, nil
}

// prepare runs the thought and plan stages shared by plan and agent modes.
func (e *Engine) prepare(ctx context.Context, mode string, meta bus.Meta, query string, acct *usage) (*Result, error) {
	specs, _, thought, err := e.think(ctx, mode, meta, query, acct)
	if err != nil {
		return nil, err
	}

	plan, warnings, err := e.generatePlan(ctx, query, thought, specs, acct)
	if err != nil {
		return nil, fmt.Errorf("plan stage failed: %w", err)
	}
	e.emit(ctx, mode, bus.EventPlanGenerated, map[string]interface{}{
		"plan_id":    plan.ID,
		"steps":      len(plan.Steps),
		"confidence": plan.Confidence,
	}, meta)
	if len(warnings) > 0 {
		e.emit(ctx, mode, bus.EventValidationWarnings, map[string]interface{}{"warnings": warnings}, meta)
	}

	return &Result{Thought: thought, Plan: plan}, nil
}

// runLoop executes the plan and reflects, iterating up to
// engine.max_iterations. Each iteration re-executes the same plan unchanged:
// reflection output steers only whether to retry, not what to retry.
func (e *Engine) runLoop(ctx context.Context, mode, sessionID string, meta bus.Meta, query string, res *Result, acct *usage) error {
	plan := res.Plan
	for iteration := 1; iteration <= e.cfg.Engine.MaxIterations; iteration++ {
		res.Iterations = iteration
		e.emit(ctx, mode, bus.EventExecutorStarted, map[string]interface{}{
			"plan_id":   plan.ID,
			"iteration": iteration,
		}, meta)
		e.publishUpdate(ctx, stream.Update{
			Kind: "phase", SessionID: sessionID, Status: "executing",
			Data: map[string]interface{}{"iteration": iteration},
		})

		execution, err := e.Schedule(ctx, mode, sessionID, plan)
		if err != nil {
			// a whole-schedule defect becomes a failed execution, not a crash
			now := time.Now()
			execution = &Execution{
				ID:          uuid.NewString(),
				Plan:        plan,
				Status:      ExecutionFailed,
				Error:       err.Error(),
				StartedAt:   now,
				CompletedAt: &now,
			}
		}
		res.Execution = execution
		e.emit(ctx, mode, bus.EventExecutorCompleted, map[string]interface{}{
			"execution_id": execution.ID,
			"status":       execution.Status,
			"iteration":    iteration,
		}, meta)

		reflection, err := e.reflect(ctx, query, plan, execution, acct)
		if err != nil {
			return fmt.Errorf("reflection stage failed: %w", err)
		}
		res.Reflection = reflection
		e.emit(ctx, mode, bus.EventReflectionCompleted, map[string]interface{}{
			"success":        reflection.Success,
			"should_iterate": reflection.ShouldIterate,
			"iteration":      iteration,
		}, meta)

		if reflection.Success || !reflection.ShouldIterate {
			break
		}
	}
	return nil
}

// emitStepProgress publishes one step state change on the bus and the live
// update stream.
func (e *Engine) emitStepProgress(ctx context.Context, mode, sessionID string, exec *Execution, es *ExecutionStep, ps PlanStep) {
	payload := map[string]interface{}{
		"execution_id": exec.ID,
		"step_id":      es.PlanStepID,
		"order":        ps.Order,
		"status":       es.Status,
	}
	if es.Error != "" {
		payload["error"] = es.Error
	}
	e.emit(ctx, mode, bus.EventExecutorStep, payload, bus.Meta{SessionID: sessionID})
	e.publishUpdate(ctx, stream.Update{
		Kind:        "step",
		SessionID:   sessionID,
		ExecutionID: exec.ID,
		StepID:      es.PlanStepID,
		Status:      es.Status,
	})
}

func (e *Engine) emit(ctx context.Context, mode, event string, payload map[string]interface{}, meta bus.Meta) {
	if err := e.bus.Emit(ctx, bus.Topic(mode, event), payload, meta); err != nil {
		e.logger.Printf("emit %s failed: %v", bus.Topic(mode, event), err)
	}
}

func (e *Engine) publishUpdate(ctx context.Context, update stream.Update) {
	if e.stream == nil {
		return
	}
	if err := e.stream.Publish(ctx, update); err != nil {
		e.logger.Printf("stream publish failed: %v", err)
	}
}

// recordRun persists conversation turns to short-term memory and a run
// summary to the durable context store. Failures are logged, never fatal.
func (e *Engine) recordRun(ctx context.Context, sessionID, query string, res *Result) {
	if e.memory != nil {
		if err := e.memory.Append(ctx, sessionID, memory.Message{Role: "user", Content: query, CreatedAt: time.Now()}); err != nil {
			e.logger.Printf("memory append failed: %v", err)
		}
		if reply := resultReply(res); reply != "" {
			if err := e.memory.Append(ctx, sessionID, memory.Message{Role: "assistant", Content: reply, CreatedAt: time.Now()}); err != nil {
				e.logger.Printf("memory append failed: %v", err)
			}
		}
	}
	if e.contexts != nil && res.Execution != nil {
		entry := contextstore.Entry{
			SessionID: sessionID,
			Kind:      "run_summary",
			Content:   runSummaryText(query, res),
			Metadata: map[string]string{
				"mode":   res.Mode,
				"status": res.Execution.Status,
			},
			CreatedAt: time.Now(),
		}
		if err := e.contexts.Append(ctx, entry); err != nil {
			e.logger.Printf("context append failed: %v", err)
		}
	}
}

func resultReply(res *Result) string {
	if res.Answer != "" {
		return res.Answer
	}
	if res.Reflection != nil {
		return res.Reflection.Analysis
	}
	return ""
}

func runSummaryText(query string, res *Result) string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "query: %s\n", query)
	fmt.Fprintf(b, "status: %s\n", res.Execution.Status)
	if res.Reflection != nil {
		fmt.Fprintf(b, "analysis: %s\n", res.Reflection.Analysis)
	}
	for i, es := range res.Execution.Steps {
		desc := ""
		if res.Plan != nil && i < len(res.Plan.Steps) {
			desc = res.Plan.Steps[i].Description
		}
		fmt.Fprintf(b, "step %d (%s): %s\n", i+1, desc, es.Status)
	}
	return b.String()
}

func runSucceeded(res *Result) bool {
	if res.Reflection != nil {
		return res.Reflection.Success
	}
	if res.Execution != nil {
		return res.Execution.Status == ExecutionCompleted
	}
	return true
}

func executionSummary(res *Result) map[string]interface{} {
	payload := map[string]interface{}{"iterations": res.Iterations}
	if res.Execution != nil {
		payload["execution_id"] = res.Execution.ID
		payload["status"] = res.Execution.Status
	}
	if res.Reflection != nil {
		payload["success"] = res.Reflection.Success
	}
	if res.Answer != "" {
		payload["answer"] = res.Answer
	}
	return payload
}
