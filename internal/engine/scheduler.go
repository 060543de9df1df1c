package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/snazari/axon/internal/telemetry"
)

// errDepsNotSatisfied is recorded on every step swept up by deadlock
// detection: a dependency cycle, or a dependency on a step that failed.
const errDepsNotSatisfied = "dependencies not satisfied"

// Schedule turns a Plan into an Execution. Steps whose dependencies are
// satisfied run concurrently within a round, bounded by
// engine.max_concurrent_steps; a new round starts only after every step in
// the current round reached a terminal state. Step failures are recorded,
// never thrown; only an internal defect returns an error.
func (e *Engine) Schedule(ctx context.Context, mode, sessionID string, plan *Plan) (_ *Execution, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scheduler defect: %v", r)
		}
	}()

	exec := &Execution{
		ID:        uuid.NewString(),
		Plan:      plan,
		Status:    ExecutionRunning,
		StartedAt: time.Now(),
	}
	exec.Steps = make([]ExecutionStep, len(plan.Steps))
	for i, ps := range plan.Steps {
		exec.Steps[i] = ExecutionStep{PlanStepID: ps.ID, Status: StepPending}
	}

	stepByOrder := make(map[int]PlanStep, len(plan.Steps))
	for _, ps := range plan.Steps {
		stepByOrder[ps.Order] = ps
	}

	var mu sync.Mutex
	completed := make(map[string]bool, len(plan.Steps))

	for {
		ready := e.readySteps(plan, exec, stepByOrder, completed)
		if len(ready) == 0 {
			if !anyPending(exec) {
				break
			}
			// deadlock: cycle or dependency on a step that can never complete
			now := time.Now()
			for i := range exec.Steps {
				if exec.Steps[i].Status != StepPending {
					continue
				}
				exec.Steps[i].Status = StepFailed
				exec.Steps[i].Error = errDepsNotSatisfied
				t := now
				exec.Steps[i].CompletedAt = &t
				e.emitStepProgress(ctx, mode, sessionID, exec, &exec.Steps[i], plan.Steps[i])
			}
			break
		}

		g := &errgroup.Group{}
		if e.cfg.Engine.MaxConcurrentSteps > 0 {
			g.SetLimit(e.cfg.Engine.MaxConcurrentSteps)
		}
		for _, idx := range ready {
			idx := idx
			es := &exec.Steps[idx]
			ps := plan.Steps[idx]
			g.Go(func() error {
				started := time.Now()
				es.Status = StepRunning
				es.StartedAt = &started

				result, stepErr := e.executeStep(ctx, ps)

				done := time.Now()
				es.CompletedAt = &done
				if stepErr != nil {
					es.Status = StepFailed
					es.Error = stepErr.Error()
				} else {
					es.Status = StepCompleted
					es.Result = result
					mu.Lock()
					completed[ps.ID] = true
					mu.Unlock()
				}
				e.telemetry.RecordStep(ctx, telemetry.StepEvent{
					StepID:   ps.ID,
					Tool:     ps.Tool,
					Status:   es.Status,
					Duration: done.Sub(started),
				})
				e.emitStepProgress(ctx, mode, sessionID, exec, es, ps)
				// step failures are recorded on the step, never propagated
				return nil
			})
		}
		_ = g.Wait()
	}

	exec.Status = ExecutionCompleted
	for _, es := range exec.Steps {
		if es.Status == StepFailed {
			exec.Status = ExecutionFailed
			break
		}
	}
	now := time.Now()
	exec.CompletedAt = &now
	return exec, nil
}

// readySteps returns indexes of pending steps whose every dependency order
// either has no matching step (auto-satisfied) or belongs to a completed step.
func (e *Engine) readySteps(plan *Plan, exec *Execution, stepByOrder map[int]PlanStep, completed map[string]bool) []int {
	var ready []int
	for i := range exec.Steps {
		if exec.Steps[i].Status != StepPending {
			continue
		}
		ok := true
		for _, dep := range plan.Steps[i].Dependencies {
			ps, exists := stepByOrder[dep]
			if !exists {
				continue
			}
			if !completed[ps.ID] {
				ok = false
				break
			}
		}
		if ok {
			ready = append(ready, i)
		}
	}
	return ready
}

func anyPending(exec *Execution) bool {
	for _, es := range exec.Steps {
		if es.Status == StepPending {
			return true
		}
	}
	return false
}

// executeStep runs a single plan step. A step without a bound tool is manual
// and produces a descriptive payload without side effects. Tool outcomes are
// stored raw: a tool that reports failure through its outcome rather than an
// error still counts as a completed step, and the reflection stage sees the
// failure in the result payload.
func (e *Engine) executeStep(ctx context.Context, step PlanStep) (interface{}, error) {
	if step.Tool == "" {
		return map[string]interface{}{
			"type":        "manual",
			"description": step.Description,
			"note":        "requires manual execution",
		}, nil
	}

	params := step.Parameters
	if params == nil {
		params = map[string]interface{}{}
	}

	if vr := e.tools.Validate(step.Tool, params); !vr.Valid {
		return nil, fmt.Errorf("invalid parameters for tool %s: %s", step.Tool, strings.Join(vr.Errors, "; "))
	}

	outcome, err := e.tools.Invoke(ctx, step.Tool, params)
	if err != nil {
		e.telemetry.RecordToolInvocation(ctx, step.Tool, false)
		return nil, err
	}
	e.telemetry.RecordToolInvocation(ctx, step.Tool, outcome.Success)
	return outcome, nil
}
