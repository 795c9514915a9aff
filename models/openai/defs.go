package openai

import "github.com/shreyasd806-spec/myAI3/models"

// Chat completions request/response types (OpenAI-compatible format)

type ChatRequest struct {
	Model             string      `json:"model"`
	Messages          []Message   `json:"messages"`
	Tools             []Tool      `json:"tools,omitempty"`
	ToolChoice        interface{} `json:"tool_choice,omitempty"` // "auto", "none", or a specific tool
	ParallelToolCalls *bool       `json:"parallel_tool_calls,omitempty"`
	ReasoningEffort   string      `json:"reasoning_effort,omitempty"`
	Stream            bool        `json:"stream,omitempty"`
	MaxTokens         *int        `json:"max_completion_tokens,omitempty"`
	Temperature       *float64    `json:"temperature,omitempty"`
}

type Message struct {
	Role       string     `json:"role"` // "system", "user", "assistant", "tool"
	Content    *string    `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID *string    `json:"tool_call_id,omitempty"`
	// Reasoning models on OpenAI-compatible hosts stream chain-of-thought
	// under one of these two names.
	Reasoning        *string `json:"reasoning,omitempty"`
	ReasoningContent *string `json:"reasoning_content,omitempty"`
}

type Tool struct {
	Type     string       `json:"type"` // "function"
	Function ToolFunction `json:"function"`
}

type ToolFunction struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  interface{} `json:"parameters"` // JSON Schema object
}

type ToolCall struct {
	Index    *int             `json:"index,omitempty"` // only set on stream deltas
	ID       string           `json:"id,omitempty"`
	Type     string           `json:"type,omitempty"` // "function"
	Function ToolCallFunction `json:"function"`
}

type ToolCallFunction struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments"` // JSON string of arguments
}

type Choice struct {
	Index        int      `json:"index"`
	Delta        *Message `json:"delta,omitempty"`
	FinishReason *string  `json:"finish_reason,omitempty"` // "stop", "tool_calls", "length", etc.
}

// StreamResponse is one "chat.completion.chunk" server-sent event.
type StreamResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}

type APIError struct {
	Message string      `json:"message"`
	Type    string      `json:"type"`
	Param   interface{} `json:"param,omitempty"`
	Code    interface{} `json:"code,omitempty"`
}

// SanitizedParameters keeps properties an object and required an array, as
// strict schema validators reject nulls for either.
type SanitizedParameters struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
	Required   []string               `json:"required"`
}

// ConvertTool converts a FunctionDeclaration to the chat completions tool format.
func ConvertTool(fd models.FunctionDeclaration) Tool {
	params := SanitizedParameters{
		Type:       fd.Parameters.Type,
		Properties: fd.Parameters.Properties,
		Required:   fd.Parameters.Required,
	}
	if params.Properties == nil {
		params.Properties = make(map[string]interface{})
	}
	if params.Required == nil {
		params.Required = []string{}
	}
	if params.Type == "" {
		params.Type = "object"
	}

	return Tool{
		Type: "function",
		Function: ToolFunction{
			Name:        fd.Name,
			Description: fd.Description,
			Parameters:  params,
		},
	}
}

// ConvertTools converts every declaration.
func ConvertTools(fds []models.FunctionDeclaration) []Tool {
	tools := make([]Tool, len(fds))
	for i, fd := range fds {
		tools[i] = ConvertTool(fd)
	}
	return tools
}
