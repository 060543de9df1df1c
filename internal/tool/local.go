package tool

import (
	"context"
	"fmt"
	"sync"
)

// Handler executes an in-process tool.
type Handler func(ctx context.Context, params map[string]interface{}) (Outcome, error)

// LocalRegistry holds tools directly in process.
type LocalRegistry struct {
	mu       sync.RWMutex
	specs    []Spec
	handlers map[string]Handler
}

// NewLocalRegistry creates an empty in-process registry.
func NewLocalRegistry() *LocalRegistry {
	return &LocalRegistry{handlers: make(map[string]Handler)}
}

// Register adds a tool to the registry, replacing any previous tool with the same name.
func (r *LocalRegistry) Register(spec Spec, handler Handler) error {
	if spec.Name == "" {
		return fmt.Errorf("tool spec requires a name")
	}
	if handler == nil {
		return fmt.Errorf("tool %s requires a handler", spec.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[spec.Name]; exists {
		for i := range r.specs {
			if r.specs[i].Name == spec.Name {
				r.specs[i] = spec
				break
			}
		}
	} else {
		r.specs = append(r.specs, spec)
	}
	r.handlers[spec.Name] = handler
	return nil
}

// Discover returns tools matching the query, capped at limit.
func (r *LocalRegistry) Discover(_ context.Context, query string, limit int) ([]Spec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return filterSpecs(r.specs, query, limit), nil
}

// Validate checks params against the named tool's input schema.
func (r *LocalRegistry) Validate(name string, params map[string]interface{}) ValidationResult {
	r.mu.RLock()
	spec, ok := r.lookup(name)
	r.mu.RUnlock()
	if !ok {
		return ValidationResult{Valid: false, Errors: []string{fmt.Sprintf("unknown tool: %s", name)}}
	}
	return validateParams(spec, params)
}

// Invoke executes the named tool.
func (r *LocalRegistry) Invoke(ctx context.Context, name string, params map[string]interface{}) (Outcome, error) {
	r.mu.RLock()
	handler, ok := r.handlers[name]
	r.mu.RUnlock()
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return handler(ctx, params)
}

func (r *LocalRegistry) lookup(name string) (Spec, bool) {
	for _, s := range r.specs {
		if s.Name == name {
			return s, true
		}
	}
	return Spec{}, false
}
