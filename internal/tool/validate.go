package tool

import (
	"encoding/json"
	"fmt"
	"math"
)

// validateParams checks a parameter map against a tool's input schema.
// The accumulated error list is empty iff the params conform.
func validateParams(spec Spec, params map[string]interface{}) ValidationResult {
	if params == nil {
		return ValidationResult{Valid: false, Errors: []string{"parameters must be an object"}}
	}

	var errs []string
	for _, req := range spec.InputSchema.Required {
		if _, ok := params[req]; !ok {
			errs = append(errs, fmt.Sprintf("missing required parameter: %s", req))
		}
	}
	for key := range params {
		if _, ok := spec.InputSchema.Properties[key]; !ok {
			errs = append(errs, fmt.Sprintf("unknown parameter: %s", key))
		}
	}
	for key, prop := range spec.InputSchema.Properties {
		val, ok := params[key]
		if !ok {
			continue
		}
		if ok, actual := matchesPrimitive(prop.Type, val); !ok {
			errs = append(errs, fmt.Sprintf("parameter %s: expected %s, got %s", key, prop.Type, actual))
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// matchesPrimitive checks a runtime value against a JSON-schema primitive
// type name. Unknown declared types pass unconditionally.
func matchesPrimitive(declared string, val interface{}) (bool, string) {
	actual := runtimeTypeName(val)
	switch declared {
	case "string":
		return actual == "string", actual
	case "boolean":
		return actual == "boolean", actual
	case "object":
		return actual == "object", actual
	case "array":
		return actual == "array", actual
	case "number":
		return actual == "number" || actual == "integer", actual
	case "integer":
		if actual == "integer" {
			return true, actual
		}
		// numbers decoded from JSON arrive as float64; accept integral values
		if f, ok := val.(float64); ok && f == math.Trunc(f) {
			return true, actual
		}
		return false, actual
	default:
		return true, actual
	}
}

func runtimeTypeName(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]interface{}:
		return "object"
	case []interface{}:
		return "array"
	case int, int32, int64:
		return "integer"
	case float32, float64:
		return "number"
	case json.Number:
		if _, err := v.Int64(); err == nil {
			return "integer"
		}
		return "number"
	default:
		return fmt.Sprintf("%T", val)
	}
}
