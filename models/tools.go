package models

import (
	"context"
	"sort"
)

// ToolFunc executes a tool with arguments that already passed schema
// validation. The result is either a string or a JSON-serialisable value.
type ToolFunc func(ctx context.Context, args map[string]interface{}) (interface{}, error)

type FunctionDeclaration struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  Parameters `json:"parameters"`
	Callable    ToolFunc   `json:"-"`
}

// Parameters defines the JSON Schema for function parameters
type Parameters struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
	Required   []string               `json:"required"`
}

// ToolSet maps a tool name to its declaration.
type ToolSet map[string]FunctionDeclaration

// NewToolSet indexes declarations by name.
func NewToolSet(decls ...FunctionDeclaration) ToolSet {
	set := make(ToolSet, len(decls))
	for _, d := range decls {
		set[d.Name] = d
	}
	return set
}

// Declarations returns the declarations in name order so requests are stable.
func (s ToolSet) Declarations() []FunctionDeclaration {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]FunctionDeclaration, 0, len(names))
	for _, name := range names {
		out = append(out, s[name])
	}
	return out
}
