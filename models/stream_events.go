package models

// Stream event types written to the client, in the UI message stream format
// the browser chat hook consumes.
const (
	EventStart               = "start"
	EventStartStep           = "start-step"
	EventTextStart           = "text-start"
	EventTextDelta           = "text-delta"
	EventTextEnd             = "text-end"
	EventReasoningStart      = "reasoning-start"
	EventReasoningDelta      = "reasoning-delta"
	EventReasoningEnd        = "reasoning-end"
	EventToolInputAvailable  = "tool-input-available"
	EventToolOutputAvailable = "tool-output-available"
	EventToolOutputError     = "tool-output-error"
	EventFinishStep          = "finish-step"
	EventFinish              = "finish"
	EventError               = "error"
)

// StreamEvent is one element of the outbound stream. Fields that do not
// apply to a given type are omitted from the JSON.
type StreamEvent struct {
	Type         string      `json:"type"`
	MessageID    string      `json:"messageId,omitempty"`
	ID           string      `json:"id,omitempty"`
	Delta        string      `json:"delta,omitempty"`
	ToolCallID   string      `json:"toolCallId,omitempty"`
	ToolName     string      `json:"toolName,omitempty"`
	Input        interface{} `json:"input,omitempty"`
	Output       interface{} `json:"output,omitempty"`
	ErrorText    string      `json:"errorText,omitempty"`
	FinishReason string      `json:"finishReason,omitempty"`
}
