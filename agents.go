// Package myai3 ties a hosted model to the tools it may call.
package myai3

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shreyasd806-spec/myAI3/models"
)

// Model streams one model turn. The response channel carries text and
// reasoning deltas as they arrive; function calls are delivered whole. Both
// channels are closed when the turn ends.
type Model interface {
	Stream_Model_Request(ctx context.Context, request models.Model_Request) (<-chan models.Model_Response, <-chan error)
}

// Agent is a model plus the tools it may call and how many model turns a
// single chat request may take.
type Agent struct {
	Model    Model
	Tools    models.ToolSet
	System   string
	Options  models.GenerationOptions
	MaxSteps int
}

// Create_Agent builds an agent with the default step limit and generation options.
func Create_Agent(model Model, system string, tools ...models.FunctionDeclaration) *Agent {
	return &Agent{
		Model:    model,
		Tools:    models.NewToolSet(tools...),
		System:   system,
		Options:  models.DefaultGenerationOptions(),
		MaxSteps: DefaultMaxSteps,
	}
}

// Run_Stream sends one model turn with the agent's prompt, tools and options.
func (agent *Agent) Run_Stream(ctx context.Context, history []models.Message) (<-chan models.Model_Response, <-chan error) {
	return agent.Model.Stream_Model_Request(ctx, models.Model_Request{
		System:   agent.System,
		Messages: history,
		Tools:    agent.Tools.Declarations(),
		Options:  agent.Options,
	})
}

// ToolError is returned by ExecuteTool when a call could not produce a result.
type ToolError struct {
	Tool   string
	Reason string
	Err    error
}

func (e *ToolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tool %s: %s: %v", e.Tool, e.Reason, e.Err)
	}
	return fmt.Sprintf("tool %s: %s", e.Tool, e.Reason)
}

func (e *ToolError) Unwrap() error { return e.Err }

// ExecuteTool runs a tool by name after validating args against its schema.
// Soft failures come back as ordinary results; an error means the tool is
// unknown, the arguments are invalid, or the tool itself failed hard.
func (agent *Agent) ExecuteTool(ctx context.Context, name string, args map[string]interface{}) (result interface{}, err error) {
	tool, ok := agent.Tools[name]
	if !ok {
		return nil, &ToolError{Tool: name, Reason: "unknown or unavailable tool"}
	}
	if tool.Callable == nil {
		return nil, &ToolError{Tool: name, Reason: "tool is not callable"}
	}
	if err := ValidateArgs(args, tool.Parameters); err != nil {
		return nil, &ToolError{Tool: name, Reason: "invalid arguments", Err: err}
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("tool", name).Interface("panic", r).Msg("tool panicked")
			result, err = nil, &ToolError{Tool: name, Reason: fmt.Sprintf("panic: %v", r)}
		}
	}()

	if args == nil {
		args = map[string]interface{}{}
	}
	out, execErr := tool.Callable(ctx, args)
	if execErr != nil {
		return nil, &ToolError{Tool: name, Reason: "execution failed", Err: execErr}
	}
	return out, nil
}
