package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// RemoteRegistry proxies a tool server over a Transport. The tool catalog is
// fetched once on first use and cached; Validate re-validates against cached
// schemas without touching the wire.
type RemoteRegistry struct {
	transport Transport

	mu      sync.RWMutex
	catalog []Spec
	loaded  bool
}

// NewRemoteRegistry creates a registry backed by the given transport.
func NewRemoteRegistry(transport Transport) *RemoteRegistry {
	return &RemoteRegistry{transport: transport}
}

// InvalidateCatalog clears the cached catalog; the next operation refetches it.
func (r *RemoteRegistry) InvalidateCatalog() {
	r.mu.Lock()
	r.catalog = nil
	r.loaded = false
	r.mu.Unlock()
}

// Discover returns tools matching the query, capped at limit.
func (r *RemoteRegistry) Discover(ctx context.Context, query string, limit int) ([]Spec, error) {
	specs, err := r.ensureCatalog(ctx)
	if err != nil {
		return nil, err
	}
	return filterSpecs(specs, query, limit), nil
}

// Validate checks params against the cached schema for the named tool.
func (r *RemoteRegistry) Validate(name string, params map[string]interface{}) ValidationResult {
	r.mu.RLock()
	specs, loaded := r.catalog, r.loaded
	r.mu.RUnlock()
	if !loaded {
		// catalog never fetched; fetch lazily with a background context so
		// Validate keeps its non-blocking signature on the happy path
		var err error
		specs, err = r.ensureCatalog(context.Background())
		if err != nil {
			return ValidationResult{Valid: false, Errors: []string{fmt.Sprintf("tool catalog unavailable: %v", err)}}
		}
	}
	for _, s := range specs {
		if s.Name == name {
			return validateParams(s, params)
		}
	}
	return ValidationResult{Valid: false, Errors: []string{fmt.Sprintf("unknown tool: %s", name)}}
}

// Invoke calls the named tool on the remote server.
func (r *RemoteRegistry) Invoke(ctx context.Context, name string, params map[string]interface{}) (Outcome, error) {
	resp, err := r.transport.Call(ctx, Request{Method: "call", Name: name, Arguments: params})
	if err != nil {
		return Outcome{}, err
	}
	if resp.Error != nil {
		return Outcome{Success: false, Error: resp.Error.Message}, nil
	}
	if len(resp.Result) == 0 {
		return Outcome{Success: true}, nil
	}
	// servers may return either a full Outcome or a bare payload
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(resp.Result, &probe); err == nil {
		if _, ok := probe["success"]; ok {
			var out Outcome
			if err := json.Unmarshal(resp.Result, &out); err != nil {
				return Outcome{}, fmt.Errorf("decode tool result: %w", err)
			}
			return out, nil
		}
	}
	var data interface{}
	if err := json.Unmarshal(resp.Result, &data); err != nil {
		return Outcome{}, fmt.Errorf("decode tool result: %w", err)
	}
	return Outcome{Success: true, Data: data}, nil
}

func (r *RemoteRegistry) ensureCatalog(ctx context.Context) ([]Spec, error) {
	r.mu.RLock()
	if r.loaded {
		specs := r.catalog
		r.mu.RUnlock()
		return specs, nil
	}
	r.mu.RUnlock()

	resp, err := r.transport.Call(ctx, Request{Method: "list"})
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("list tools: %s", resp.Error.Message)
	}
	var listing struct {
		Tools []Spec `json:"tools"`
	}
	if err := json.Unmarshal(resp.Result, &listing); err != nil {
		// some servers return the array directly
		var tools []Spec
		if err2 := json.Unmarshal(resp.Result, &tools); err2 != nil {
			return nil, fmt.Errorf("decode tool catalog: %w", err)
		}
		listing.Tools = tools
	}

	r.mu.Lock()
	r.catalog = listing.Tools
	r.loaded = true
	specs := r.catalog
	r.mu.Unlock()
	return specs, nil
}
