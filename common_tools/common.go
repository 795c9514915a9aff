// Package common_tools provides the tools exposed to the chat model.
//
// Available tools:
//   - getCurrentRatesTool: live financial rate search backed by Exa
//   - vectorDatabaseSearch: semantic search over the ingested knowledge base
package common_tools

import (
	"fmt"
	"math"
)

func stringArg(args map[string]interface{}, key string) string {
	switch v := args[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// intArg accepts JSON numbers and Go integers. Anything else is 0.
func intArg(args map[string]interface{}, key string) int {
	switch v := args[key].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return int(v)
	case float32:
		return int(v)
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	}
	return 0
}
