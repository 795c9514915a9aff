package models

// Model_Request is a single model turn: the fixed system prompt, the
// conversation so far, the tools the model may call and provider options.
type Model_Request struct {
	System   string                `json:"system"`
	Messages []Message             `json:"messages"`
	Tools    []FunctionDeclaration `json:"tools,omitempty"`
	Options  GenerationOptions     `json:"options"`
}

// RoleTool marks a model message carrying function responses.
const RoleTool = "tool"

// Message is the provider-neutral conversation entry sent to a model.
type Message struct {
	Role  string       `json:"role"` // "user", "assistant", "tool"
	Parts []Model_Part `json:"parts"`
}

// ReasoningEffort bounds how much the model thinks before answering.
type ReasoningEffort string

const (
	ReasoningMinimal ReasoningEffort = "minimal"
	ReasoningLow     ReasoningEffort = "low"
	ReasoningMedium  ReasoningEffort = "medium"
	ReasoningHigh    ReasoningEffort = "high"
)

// ReasoningSummary selects how reasoning is summarised back to the client.
type ReasoningSummary string

const (
	SummaryAuto     ReasoningSummary = "auto"
	SummaryConcise  ReasoningSummary = "concise"
	SummaryDetailed ReasoningSummary = "detailed"
	SummaryNone     ReasoningSummary = "none"
)

// GenerationOptions are the provider specific knobs, kept as named fields.
type GenerationOptions struct {
	ReasoningEffort   ReasoningEffort  `json:"reasoning_effort" toml:"reasoning_effort"`
	ReasoningSummary  ReasoningSummary `json:"reasoning_summary" toml:"reasoning_summary"`
	ParallelToolCalls bool             `json:"parallel_tool_calls" toml:"parallel_tool_calls"`
}

// DefaultGenerationOptions returns low effort, automatic summaries and
// serialized tool calls.
func DefaultGenerationOptions() GenerationOptions {
	return GenerationOptions{
		ReasoningEffort:   ReasoningLow,
		ReasoningSummary:  SummaryAuto,
		ParallelToolCalls: false,
	}
}

// Valid reports whether every option holds a known value.
func (o GenerationOptions) Valid() bool {
	switch o.ReasoningEffort {
	case ReasoningMinimal, ReasoningLow, ReasoningMedium, ReasoningHigh:
	default:
		return false
	}
	switch o.ReasoningSummary {
	case SummaryAuto, SummaryConcise, SummaryDetailed, SummaryNone:
	default:
		return false
	}
	return true
}
