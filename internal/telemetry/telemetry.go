// Package telemetry tracks run, step, and tool metrics for the engine and
// exposes them over Prometheus.
package telemetry

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/snazari/axon/config"
)

// RunEvent captures one complete orchestrator invocation.
type RunEvent struct {
	SessionID  string
	Mode       string
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	Iterations int
	Success    bool
	Error      string
	TokensUsed int64
	ModelsUsed []string
	// TokensByModel attributes the spend per model; TokensUsed is the sum.
	TokensByModel map[string]int64
}

// StepEvent captures one scheduled step reaching a terminal state.
type StepEvent struct {
	StepID   string
	Tool     string
	Status   string
	Duration time.Duration
}

// Telemetry aggregates engine metrics. A nil *Telemetry is safe: every
// recording method is a no-op.
type Telemetry struct {
	cfg    config.TelemetryConfig
	logger *log.Logger

	runs        *prometheus.CounterVec
	iterations  prometheus.Counter
	steps       *prometheus.CounterVec
	invocations *prometheus.CounterVec
	tokens      *prometheus.CounterVec
	runSeconds  prometheus.Histogram

	mu          sync.RWMutex
	totalRuns   int64
	failedRuns  int64
	totalTokens int64

	server *http.Server
}

// New registers metrics on a fresh registry and, when enabled, serves
// /metrics on the configured port.
func New(cfg config.TelemetryConfig) *Telemetry {
	reg := prometheus.NewRegistry()
	t := &Telemetry{
		cfg:    cfg,
		logger: log.New(log.Writer(), "[TELEMETRY] ", log.LstdFlags),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "axon_runs_total",
			Help: "Orchestrator runs by mode and outcome.",
		}, []string{"mode", "outcome"}),
		iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "axon_iterations_total",
			Help: "Execution/reflection iterations across all runs.",
		}),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "axon_steps_total",
			Help: "Scheduled steps by terminal status.",
		}, []string{"status"}),
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "axon_tool_invocations_total",
			Help: "Tool invocations by tool name and outcome.",
		}, []string{"tool", "outcome"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "axon_completion_tokens_total",
			Help: "Completion tokens consumed by model.",
		}, []string{"model"}),
		runSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "axon_run_duration_seconds",
			Help:    "Wall-clock duration of orchestrator runs.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}
	reg.MustRegister(t.runs, t.iterations, t.steps, t.invocations, t.tokens, t.runSeconds)

	if cfg.Enabled && cfg.MetricsPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		t.server = &http.Server{Addr: fmt.Sprintf(":%d", cfg.MetricsPort), Handler: mux}
		go func() {
			if err := t.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				t.logger.Printf("metrics server stopped: %v", err)
			}
		}()
	}
	return t
}

// RecordRun records a finished orchestrator invocation.
func (t *Telemetry) RecordRun(ctx context.Context, event RunEvent) {
	if t == nil {
		return
	}
	outcome := "success"
	if !event.Success {
		outcome = "failure"
	}
	t.runs.WithLabelValues(event.Mode, outcome).Inc()
	t.iterations.Add(float64(event.Iterations))
	t.runSeconds.Observe(event.Duration.Seconds())
	for model, tokens := range event.TokensByModel {
		t.tokens.WithLabelValues(model).Add(float64(tokens))
	}

	t.mu.Lock()
	t.totalRuns++
	if !event.Success {
		t.failedRuns++
	}
	t.totalTokens += event.TokensUsed
	t.mu.Unlock()

	t.logger.Printf("Run: session=%s mode=%s success=%t iterations=%d duration=%v tokens=%d",
		event.SessionID, event.Mode, event.Success, event.Iterations, event.Duration, event.TokensUsed)
}

// RecordStep records a step reaching a terminal state.
func (t *Telemetry) RecordStep(ctx context.Context, event StepEvent) {
	if t == nil {
		return
	}
	t.steps.WithLabelValues(event.Status).Inc()
}

// RecordToolInvocation records a single tool call outcome.
func (t *Telemetry) RecordToolInvocation(ctx context.Context, tool string, success bool) {
	if t == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	t.invocations.WithLabelValues(tool, outcome).Inc()
}

// Snapshot is a coarse counters view for CLI reporting.
type Snapshot struct {
	TotalRuns   int64
	FailedRuns  int64
	TotalTokens int64
}

func (t *Telemetry) GetSnapshot() Snapshot {
	if t == nil {
		return Snapshot{}
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Snapshot{TotalRuns: t.totalRuns, FailedRuns: t.failedRuns, TotalTokens: t.totalTokens}
}

// Shutdown stops the metrics server if one was started.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil || t.server == nil {
		return nil
	}
	return t.server.Shutdown(ctx)
}
