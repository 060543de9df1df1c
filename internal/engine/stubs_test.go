package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/snazari/axon/config"
	"github.com/snazari/axon/internal/provider"
	"github.com/snazari/axon/internal/tool"
)

// scriptedProvider returns canned responses in order, repeating the last one
// once the script is exhausted.
type scriptedProvider struct {
	mu        sync.Mutex
	responses []string
	calls     int
	prompts   []string
	histories [][]provider.Message
}

func (p *scriptedProvider) Complete(_ context.Context, prompt string, history []provider.Message, opts provider.Options) (provider.Completion, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts = append(p.prompts, prompt)
	p.histories = append(p.histories, history)
	idx := p.calls
	if idx >= len(p.responses) {
		idx = len(p.responses) - 1
	}
	p.calls++
	if idx < 0 {
		return provider.Completion{}, fmt.Errorf("no scripted response")
	}
	return provider.Completion{Content: p.responses[idx], Model: "stub-model", TokensUsed: 10}, nil
}

// stubTools is a deterministic in-memory tool capability.
type stubTools struct {
	specs   []tool.Spec
	invoke  map[string]func(params map[string]interface{}) (tool.Outcome, error)
	mu      sync.Mutex
	invoked []string
}

func (s *stubTools) Discover(_ context.Context, query string, limit int) ([]tool.Spec, error) {
	return s.specs, nil
}

func (s *stubTools) Validate(name string, params map[string]interface{}) tool.ValidationResult {
	for _, spec := range s.specs {
		if spec.Name == name {
			return tool.ValidationResult{Valid: true}
		}
	}
	return tool.ValidationResult{Valid: false, Errors: []string{fmt.Sprintf("unknown tool: %s", name)}}
}

func (s *stubTools) Invoke(_ context.Context, name string, params map[string]interface{}) (tool.Outcome, error) {
	s.mu.Lock()
	s.invoked = append(s.invoked, name)
	s.mu.Unlock()
	if fn, ok := s.invoke[name]; ok {
		return fn(params)
	}
	return tool.Outcome{Success: true, Data: name + " ok"}, nil
}

func searchReadTools() *stubTools {
	return &stubTools{
		specs: []tool.Spec{
			{Name: "search", Description: "search the web", InputSchema: tool.InputSchema{Type: "object"}},
			{Name: "read", Description: "read a document", InputSchema: tool.InputSchema{Type: "object"}},
		},
		invoke: map[string]func(map[string]interface{}) (tool.Outcome, error){},
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Engine: config.EngineConfig{
			MaxIterations:      3,
			MaxConcurrentSteps: 4,
			HistoryWindow:      10,
		},
		LLM: config.LLMConfig{
			Routing: config.LLMRoutingConfig{Fallback: "stub-model"},
		},
	}
}

func newTestEngine(t *testing.T, prov provider.CompletionProvider, tools tool.Capability, deps Deps) *Engine {
	t.Helper()
	deps.Provider = prov
	deps.Tools = tools
	e, err := New(testConfig(), deps)
	if err != nil {
		t.Fatalf("creating engine: %v", err)
	}
	return e
}
