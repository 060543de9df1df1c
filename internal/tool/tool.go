package tool

import (
	"context"
	"fmt"
	"strings"
)

// Spec describes a callable tool and its input schema.
type Spec struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"input_schema"`
}

// InputSchema is a JSON-schema object declaration for tool parameters.
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Property declares a single named parameter.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// ValidationResult reports whether a parameter set conforms to a tool schema.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Outcome is the raw result of one tool invocation.
type Outcome struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Capability is the contract both registry backends implement.
type Capability interface {
	// Discover returns tools matching the query, capped at limit.
	Discover(ctx context.Context, query string, limit int) ([]Spec, error)

	// Validate checks params against the named tool's input schema.
	Validate(name string, params map[string]interface{}) ValidationResult

	// Invoke executes the named tool with the given params.
	Invoke(ctx context.Context, name string, params map[string]interface{}) (Outcome, error)
}

// ErrUnknownTool indicates an invocation of a tool that is not registered.
var ErrUnknownTool = fmt.Errorf("unknown tool")

// filterSpecs applies discovery semantics shared by both backends: an empty
// query returns the whole catalog, otherwise a case-insensitive substring
// match against name and description. Results are capped at limit when
// limit > 0.
func filterSpecs(specs []Spec, query string, limit int) []Spec {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []Spec
	for _, s := range specs {
		if q != "" &&
			!strings.Contains(strings.ToLower(s.Name), q) &&
			!strings.Contains(strings.ToLower(s.Description), q) {
			continue
		}
		out = append(out, s)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
