package runtime

import (
	"context"
	"log"
	"path/filepath"
	"testing"

	"github.com/snazari/axon/config"
	"github.com/snazari/axon/internal/bus"
	"github.com/snazari/axon/internal/contextstore"
	"github.com/snazari/axon/internal/memory"
)

func testLogger() *log.Logger {
	return log.New(log.Writer(), "[TEST] ", 0)
}

func TestContextStoreFallsBackOnce(t *testing.T) {
	// preferred backend cannot construct (unreachable database), fallback
	// is the embedded vector store
	cfg := config.ContextConfig{
		Backend:  "postgres",
		Fallback: "chromem",
		Postgres: config.PostgresConfig{Host: "127.0.0.1", Port: "1", User: "x", Password: "bad", DBName: "nope"},
		Chromem:  config.ChromemConfig{Path: filepath.Join(t.TempDir(), "ctx"), Collection: "sessions"},
	}

	store, err := newContextStore(context.Background(), cfg, testLogger())
	if err != nil {
		t.Fatalf("fallback construction should succeed, got %v", err)
	}
	defer store.Close()
	if _, ok := store.(*contextstore.ChromemStore); !ok {
		t.Fatalf("expected the chromem fallback, got %T", store)
	}
}

func TestContextStoreNoFallbackIsFatal(t *testing.T) {
	cfg := config.ContextConfig{
		Backend:  "postgres",
		Postgres: config.PostgresConfig{Host: "127.0.0.1", Port: "1", User: "x", Password: "bad", DBName: "nope"},
	}
	if _, err := newContextStore(context.Background(), cfg, testLogger()); err == nil {
		t.Fatalf("construction without a viable fallback must fail")
	}
}

func TestMemoryStoreFallsBackToInMemory(t *testing.T) {
	cfg := config.MemoryConfig{
		Backend:  "redis",
		Fallback: "inmemory",
		Window:   20,
		Redis:    config.RedisConfig{Host: "127.0.0.1", Port: "1"},
	}
	store, err := newMemoryStore(context.Background(), cfg, testLogger())
	if err != nil {
		t.Fatalf("fallback construction should succeed, got %v", err)
	}
	if _, ok := store.(*memory.InMemoryStore); !ok {
		t.Fatalf("expected the in-memory fallback, got %T", store)
	}
}

func TestBusFailureDegradesToNoop(t *testing.T) {
	cfg := config.BusConfig{
		Backend: "redis",
		Redis:   config.RedisConfig{Host: "127.0.0.1", Port: "1"},
	}
	b := newBus(context.Background(), cfg, testLogger())
	if _, ok := b.(*bus.NoopBus); !ok {
		t.Fatalf("broken bus backend should degrade to noop, got %T", b)
	}
	// the noop bus is safe to use
	if err := b.Emit(context.Background(), "agent.error", nil, bus.Meta{}); err != nil {
		t.Fatalf("noop emit failed: %v", err)
	}
}

func TestBackendAttemptsCappedAtTwo(t *testing.T) {
	cases := []struct {
		preferred, fallback string
		want                int
	}{
		{"redis", "inmemory", 2},
		{"redis", "redis", 1},
		{"redis", "", 1},
		{"", "", 1},
	}
	for _, c := range cases {
		got := backendAttempts(c.preferred, c.fallback, "inmemory")
		if len(got) != c.want {
			t.Errorf("backendAttempts(%q, %q) = %v, want %d attempts", c.preferred, c.fallback, got, c.want)
		}
	}
}

func TestUnknownToolsBackendIsFatal(t *testing.T) {
	if _, err := newTools(config.ToolsConfig{Backend: "psychic"}); err == nil {
		t.Fatalf("unknown tools backend must be fatal")
	}
}

func TestLocalToolsBackendHasBuiltins(t *testing.T) {
	registry, err := newTools(config.ToolsConfig{Backend: "local"})
	if err != nil {
		t.Fatalf("local registry construction failed: %v", err)
	}
	specs, err := registry.Discover(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("discover failed: %v", err)
	}
	if len(specs) == 0 {
		t.Fatalf("expected builtin tools in the local registry")
	}
}
