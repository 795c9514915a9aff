package myai3

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/shreyasd806-spec/myAI3/models"
)

// ValidateArgs checks required fields and primitive property types against a
// tool's parameter schema. Properties not named in the schema are ignored.
func ValidateArgs(args map[string]interface{}, schema models.Parameters) error {
	for _, field := range schema.Required {
		if _, exists := args[field]; !exists {
			return fmt.Errorf("missing required field: %s", field)
		}
	}

	for key, value := range args {
		propDef, ok := schema.Properties[key]
		if !ok {
			continue
		}
		expectedType := expectedTypeOf(propDef)
		if expectedType == "" {
			continue
		}
		if err := validateType(value, expectedType); err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
	}
	return nil
}

func expectedTypeOf(definition interface{}) string {
	switch def := definition.(type) {
	case map[string]interface{}:
		if value, ok := def["type"].(string); ok {
			return value
		}
	case map[string]string:
		return def["type"]
	}
	return ""
}

func validateType(value interface{}, expected string) error {
	switch expected {
	case "string":
		if _, ok := value.(string); ok {
			return nil
		}
	case "number":
		if isNumber(value) {
			return nil
		}
	case "integer":
		if isInteger(value) {
			return nil
		}
	case "boolean":
		if _, ok := value.(bool); ok {
			return nil
		}
	case "object":
		if _, ok := value.(map[string]interface{}); ok {
			return nil
		}
	case "array":
		if _, ok := value.([]interface{}); ok {
			return nil
		}
	default:
		return fmt.Errorf("unsupported schema type %q", expected)
	}
	return fmt.Errorf("expected %s but got %T", expected, value)
}

func isNumber(value interface{}) bool {
	switch v := value.(type) {
	case float32, float64, int, int32, int64:
		return true
	case json.Number:
		_, err := v.Float64()
		return err == nil
	}
	return false
}

func isInteger(value interface{}) bool {
	switch v := value.(type) {
	case int, int32, int64:
		return true
	case float64:
		return math.Trunc(v) == v
	case json.Number:
		_, err := v.Int64()
		return err == nil
	}
	return false
}
