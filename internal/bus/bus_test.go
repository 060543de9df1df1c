package bus

import (
	"context"
	"testing"
)

func TestMatchPattern(t *testing.T) {
	cases := []struct {
		pattern string
		topic   string
		want    bool
	}{
		{"agent.executor.started", "agent.executor.started", true},
		{"agent.*", "agent.executor.started", true},
		{"agent.executor.*", "agent.executor.step.progress", true},
		{"*", "plan.plan.generated", true},
		{"ask.*", "agent.error", false},
		{"agent.executor.started", "agent.executor.completed", false},
		{"agent.*.started", "agent.executor.started", true},
		{"agent.*.started", "agent.executor.completed", false},
	}
	for _, tc := range cases {
		if got := matchPattern(tc.pattern, tc.topic); got != tc.want {
			t.Fatalf("matchPattern(%q, %q) = %v, want %v", tc.pattern, tc.topic, got, tc.want)
		}
	}
}

func TestInMemoryBusDelivery(t *testing.T) {
	b := NewInMemoryBus()
	var got []Event
	id, err := b.Subscribe("agent.*", func(e Event) { got = append(got, e) })
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	meta := Meta{SessionID: "s1", UserID: "u1"}
	if err := b.Emit(context.Background(), Topic("agent", EventExecutorStarted), map[string]interface{}{"iteration": 1}, meta); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if err := b.Emit(context.Background(), Topic("ask", EventQueryReceived), nil, meta); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("expected one delivered event, got %d", len(got))
	}
	if got[0].Topic != "agent.executor.started" {
		t.Fatalf("unexpected topic %q", got[0].Topic)
	}
	if got[0].Meta.SessionID != "s1" || got[0].Meta.UserID != "u1" {
		t.Fatalf("meta not carried: %+v", got[0].Meta)
	}
	if got[0].ID == "" || got[0].OccurredAt.IsZero() {
		t.Fatalf("event envelope incomplete: %+v", got[0])
	}

	if err := b.Unsubscribe(id); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
	if err := b.Emit(context.Background(), Topic("agent", EventError), nil, meta); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("unsubscribed handler must not receive events")
	}
}

func TestNoopBusIsSafe(t *testing.T) {
	b := NewNoopBus()
	if err := b.Emit(context.Background(), "agent.error", nil, Meta{}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	id, err := b.Subscribe("*", func(Event) { t.Fatal("noop bus must not deliver") })
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := b.Unsubscribe(id); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
	if err := b.Emit(context.Background(), "agent.error", nil, Meta{}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
}
