package tool

import (
	"context"
	"strings"
	"testing"
)

func searchSpec() Spec {
	return Spec{
		Name:        "search",
		Description: "Searches indexed documents",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"query": {Type: "string"},
				"limit": {Type: "integer"},
				"deep":  {Type: "boolean"},
				"tags":  {Type: "array"},
				"opts":  {Type: "object"},
				"boost": {Type: "number"},
				"blob":  {Type: "binary"},
			},
			Required: []string{"query"},
		},
	}
}

func newTestRegistry(t *testing.T) *LocalRegistry {
	t.Helper()
	reg := NewLocalRegistry()
	err := reg.Register(searchSpec(), func(ctx context.Context, params map[string]interface{}) (Outcome, error) {
		return Outcome{Success: true, Data: map[string]interface{}{"hits": 3}}, nil
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return reg
}

func TestValidateUnknownTool(t *testing.T) {
	reg := newTestRegistry(t)
	res := reg.Validate("nonexistent", map[string]interface{}{})
	if res.Valid {
		t.Fatalf("expected invalid result for unknown tool")
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "nonexistent") {
		t.Fatalf("expected single error naming the tool, got %v", res.Errors)
	}
}

func TestValidateNilParams(t *testing.T) {
	reg := newTestRegistry(t)
	res := reg.Validate("search", nil)
	if res.Valid {
		t.Fatalf("expected invalid result for nil params")
	}
}

func TestValidateMissingRequired(t *testing.T) {
	reg := newTestRegistry(t)
	res := reg.Validate("search", map[string]interface{}{"limit": 5})
	if res.Valid {
		t.Fatalf("expected invalid result")
	}
	found := false
	for _, e := range res.Errors {
		if strings.Contains(e, "missing required parameter: query") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected missing-required error, got %v", res.Errors)
	}
}

func TestValidateUnknownParameter(t *testing.T) {
	reg := newTestRegistry(t)
	res := reg.Validate("search", map[string]interface{}{"query": "x", "bogus": 1})
	if res.Valid {
		t.Fatalf("expected invalid result")
	}
	found := false
	for _, e := range res.Errors {
		if strings.Contains(e, "unknown parameter: bogus") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected unknown-parameter error, got %v", res.Errors)
	}
}

func TestValidateTypeMismatches(t *testing.T) {
	reg := newTestRegistry(t)
	cases := []struct {
		name   string
		params map[string]interface{}
	}{
		{"string", map[string]interface{}{"query": 42}},
		{"integer", map[string]interface{}{"query": "x", "limit": "five"}},
		{"boolean", map[string]interface{}{"query": "x", "deep": "yes"}},
		{"array", map[string]interface{}{"query": "x", "tags": "a,b"}},
		{"object", map[string]interface{}{"query": "x", "opts": []interface{}{1}}},
		{"number", map[string]interface{}{"query": "x", "boost": true}},
	}
	for _, tc := range cases {
		res := reg.Validate("search", tc.params)
		if res.Valid {
			t.Fatalf("%s: expected type mismatch to fail validation", tc.name)
		}
		joined := strings.Join(res.Errors, "; ")
		if !strings.Contains(joined, "expected") {
			t.Fatalf("%s: expected type error naming expectation, got %v", tc.name, res.Errors)
		}
	}
}

func TestValidateConformingParams(t *testing.T) {
	reg := newTestRegistry(t)
	res := reg.Validate("search", map[string]interface{}{
		"query": "ready steps",
		"limit": float64(5), // JSON numbers decode as float64
		"deep":  true,
		"tags":  []interface{}{"a", "b"},
		"opts":  map[string]interface{}{"fuzzy": true},
		"boost": 1.5,
		"blob":  struct{}{}, // unknown declared type passes unconditionally
	})
	if !res.Valid {
		t.Fatalf("expected valid result, got errors: %v", res.Errors)
	}
}

func TestIntegerAcceptsIntegralFloat(t *testing.T) {
	reg := newTestRegistry(t)
	res := reg.Validate("search", map[string]interface{}{"query": "x", "limit": 3.0})
	if !res.Valid {
		t.Fatalf("integral float64 should satisfy integer, got %v", res.Errors)
	}
	res = reg.Validate("search", map[string]interface{}{"query": "x", "limit": 3.5})
	if res.Valid {
		t.Fatalf("fractional float64 should not satisfy integer")
	}
}
