package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/snazari/axon/config"
)

func TestRecordRunAttributesTokensPerModel(t *testing.T) {
	tel := New(config.TelemetryConfig{})

	tel.RecordRun(context.Background(), RunEvent{
		SessionID:  "sess",
		Mode:       "agent",
		Duration:   2 * time.Second,
		Iterations: 1,
		Success:    true,
		TokensUsed: 42,
		ModelsUsed: []string{"model-a", "model-b"},
		TokensByModel: map[string]int64{
			"model-a": 30,
			"model-b": 12,
		},
	})

	if got := testutil.ToFloat64(tel.tokens.WithLabelValues("model-a")); got != 30 {
		t.Fatalf("model-a tokens = %v, want 30", got)
	}
	if got := testutil.ToFloat64(tel.tokens.WithLabelValues("model-b")); got != 12 {
		t.Fatalf("model-b tokens = %v, want 12", got)
	}
	if got := testutil.ToFloat64(tel.runs.WithLabelValues("agent", "success")); got != 1 {
		t.Fatalf("runs counter = %v, want 1", got)
	}

	snap := tel.GetSnapshot()
	if snap.TotalRuns != 1 || snap.TotalTokens != 42 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestNilTelemetryIsSafe(t *testing.T) {
	var tel *Telemetry
	tel.RecordRun(context.Background(), RunEvent{TokensByModel: map[string]int64{"m": 1}})
	tel.RecordStep(context.Background(), StepEvent{Status: "completed"})
	tel.RecordToolInvocation(context.Background(), "search", true)
	if snap := tel.GetSnapshot(); snap.TotalRuns != 0 {
		t.Fatalf("nil telemetry snapshot should be zero: %+v", snap)
	}
	if err := tel.Shutdown(context.Background()); err != nil {
		t.Fatalf("nil shutdown: %v", err)
	}
}
