package models

// Model_Response is one streamed chunk of a model turn.
type Model_Response struct {
	Parts []Model_Part `json:"parts"`
}

type FunctionCall struct {
	ID   string                 `json:"id,omitempty"` // Unique ID for this specific call instance
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
}

// FunctionResponse carries a tool result back to the model.
type FunctionResponse struct {
	ID       string      `json:"id,omitempty"`
	Name     string      `json:"name"`
	Response interface{} `json:"response"`
}

// Model_Part is text, reasoning, a complete function call or (in history) a
// function response. Exactly one field is set.
type Model_Part struct {
	Text             *string           `json:"text,omitempty"`
	Reasoning        *string           `json:"reasoning,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
}

// TextOf builds a text part.
func TextOf(s string) Model_Part {
	return Model_Part{Text: &s}
}

// ReasoningOf builds a reasoning part.
func ReasoningOf(s string) Model_Part {
	return Model_Part{Reasoning: &s}
}

// DocumentMatch is a knowledge base chunk returned by a vector query.
type DocumentMatch struct {
	Content string  `json:"content"`
	Source  string  `json:"source"`
	Score   float64 `json:"score"`
}
