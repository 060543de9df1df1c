// Package runtime assembles the engine's pluggable subsystems from
// configuration. Each subsystem is selected by a backend name; context and
// memory backends get a single fallback attempt, the notification bus
// degrades to a no-op, and every other construction failure is fatal.
package runtime

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/snazari/axon/config"
	"github.com/snazari/axon/internal/bus"
	"github.com/snazari/axon/internal/contextstore"
	"github.com/snazari/axon/internal/engine"
	"github.com/snazari/axon/internal/memory"
	"github.com/snazari/axon/internal/provider"
	"github.com/snazari/axon/internal/stream"
	"github.com/snazari/axon/internal/telemetry"
	"github.com/snazari/axon/internal/tool"
)

// Runtime owns the constructed subsystems and the engine wired to them.
type Runtime struct {
	Engine    *engine.Engine
	Tools     tool.Capability
	Bus       bus.Bus
	Memory    memory.Store
	Contexts  contextstore.Store
	Stream    stream.Publisher
	Telemetry *telemetry.Telemetry

	logger *log.Logger
}

// New builds every subsystem and the engine. Construction order is leaves
// first so a fatal failure surfaces before anything holds open connections.
func New(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	logger := log.New(log.Writer(), "[RUNTIME] ", log.LstdFlags)
	rt := &Runtime{logger: logger}

	prov, err := provider.NewCompletionProvider(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("completion provider: %w", err)
	}

	rt.Tools, err = newTools(cfg.Tools)
	if err != nil {
		return nil, fmt.Errorf("tool registry: %w", err)
	}

	rt.Contexts, err = newContextStore(ctx, cfg.Context, logger)
	if err != nil {
		return nil, fmt.Errorf("context store: %w", err)
	}

	rt.Memory, err = newMemoryStore(ctx, cfg.Memory, logger)
	if err != nil {
		return nil, fmt.Errorf("memory store: %w", err)
	}

	rt.Bus = newBus(ctx, cfg.Bus, logger)

	rt.Stream, err = newStream(ctx, cfg.Stream)
	if err != nil {
		return nil, fmt.Errorf("update stream: %w", err)
	}

	rt.Telemetry = telemetry.New(cfg.Telemetry)

	rt.Engine, err = engine.New(cfg, engine.Deps{
		Provider:  prov,
		Tools:     rt.Tools,
		Bus:       rt.Bus,
		Memory:    rt.Memory,
		Contexts:  rt.Contexts,
		Stream:    rt.Stream,
		Telemetry: rt.Telemetry,
	})
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	return rt, nil
}

func newTools(cfg config.ToolsConfig) (tool.Capability, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case "", "local":
		registry := tool.NewLocalRegistry()
		if err := tool.RegisterBuiltins(registry); err != nil {
			return nil, err
		}
		return registry, nil
	case "remote":
		transport := tool.NewHTTPTransport(cfg.Remote.Endpoint, cfg.Remote.Timeout)
		return tool.NewRemoteRegistry(transport), nil
	default:
		return nil, fmt.Errorf("unsupported tools backend: %s", cfg.Backend)
	}
}

// newContextStore tries the configured backend, then its designated fallback
// exactly once. A failing fallback (or none configured) is fatal.
func newContextStore(ctx context.Context, cfg config.ContextConfig, logger *log.Logger) (contextstore.Store, error) {
	attempts := backendAttempts(cfg.Backend, cfg.Fallback, "chromem")
	var lastErr error
	for i, backend := range attempts {
		store, err := buildContextStore(ctx, backend, cfg)
		if err == nil {
			if i > 0 {
				logger.Printf("context backend %q unavailable, using fallback %q", attempts[0], backend)
			}
			return store, nil
		}
		lastErr = err
		if i == 0 && len(attempts) > 1 {
			logger.Printf("Warning: context backend %q init failed: %v, falling back to %q", backend, err, attempts[1])
		}
	}
	return nil, lastErr
}

func buildContextStore(ctx context.Context, backend string, cfg config.ContextConfig) (contextstore.Store, error) {
	switch backend {
	case "chromem":
		return contextstore.NewChromemStore(cfg.Chromem.Path, cfg.Chromem.Collection, cfg.Chromem.Compress, nil)
	case "postgres":
		return contextstore.NewPostgresStore(ctx, cfg.Postgres.DSN())
	default:
		return nil, fmt.Errorf("unsupported context backend: %s", backend)
	}
}

// newMemoryStore mirrors the context store policy: one fallback attempt, then
// fatal.
func newMemoryStore(ctx context.Context, cfg config.MemoryConfig, logger *log.Logger) (memory.Store, error) {
	attempts := backendAttempts(cfg.Backend, cfg.Fallback, "inmemory")
	var lastErr error
	for i, backend := range attempts {
		store, err := buildMemoryStore(ctx, backend, cfg)
		if err == nil {
			if i > 0 {
				logger.Printf("memory backend %q unavailable, using fallback %q", attempts[0], backend)
			}
			return store, nil
		}
		lastErr = err
		if i == 0 && len(attempts) > 1 {
			logger.Printf("Warning: memory backend %q init failed: %v, falling back to %q", backend, err, attempts[1])
		}
	}
	return nil, lastErr
}

func buildMemoryStore(ctx context.Context, backend string, cfg config.MemoryConfig) (memory.Store, error) {
	switch backend {
	case "redis":
		if err := cfg.Redis.Validate(); err != nil {
			return nil, err
		}
		return memory.NewRedisStore(ctx, cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB, cfg.Window, cfg.TTL)
	case "inmemory":
		return memory.NewInMemoryStore(cfg.Window), nil
	default:
		return nil, fmt.Errorf("unsupported memory backend: %s", backend)
	}
}

// newBus never fails: a broken bus backend is replaced by the no-op bus so
// callers never branch on bus availability.
func newBus(ctx context.Context, cfg config.BusConfig, logger *log.Logger) bus.Bus {
	switch cfg.Backend {
	case "redis":
		b, err := bus.NewRedisBus(ctx, cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Timeout)
		if err != nil {
			logger.Printf("Warning: redis bus init failed: %v, notifications disabled", err)
			return bus.NewNoopBus()
		}
		return b
	case "", "inmemory":
		return bus.NewInMemoryBus()
	case "noop":
		return bus.NewNoopBus()
	default:
		logger.Printf("Warning: unknown bus backend %q, notifications disabled", cfg.Backend)
		return bus.NewNoopBus()
	}
}

func newStream(ctx context.Context, cfg config.StreamConfig) (stream.Publisher, error) {
	switch cfg.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return stream.NewRedisStream(ctx, client, cfg.Stream, cfg.MaxLen)
	case "", "channel":
		return stream.NewChannelStream(int(cfg.MaxLen)), nil
	default:
		return nil, fmt.Errorf("unsupported stream backend: %s", cfg.Backend)
	}
}

// backendAttempts builds the ordered construction list: the preferred
// backend, then at most one fallback. Explicit, not recursive, so startup
// cannot loop.
func backendAttempts(preferred, fallback, defaultBackend string) []string {
	if preferred == "" {
		preferred = defaultBackend
	}
	attempts := []string{preferred}
	if fallback != "" && fallback != preferred {
		attempts = append(attempts, fallback)
	}
	return attempts
}

// Close releases backend resources in reverse construction order.
func (rt *Runtime) Close(ctx context.Context) {
	if rt.Stream != nil {
		if err := rt.Stream.Close(); err != nil {
			rt.logger.Printf("closing stream: %v", err)
		}
	}
	if rt.Contexts != nil {
		if err := rt.Contexts.Close(); err != nil {
			rt.logger.Printf("closing context store: %v", err)
		}
	}
	if c, ok := rt.Bus.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			rt.logger.Printf("closing bus: %v", err)
		}
	}
	if err := rt.Telemetry.Shutdown(ctx); err != nil {
		rt.logger.Printf("shutting down telemetry: %v", err)
	}
}
