package models

import (
	"encoding/json"
	"strings"
)

// Roles carried by UI messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Chat_Request is the body of POST /api/chat.
type Chat_Request struct {
	ID       string      `json:"id,omitempty"`
	Messages []UIMessage `json:"messages"`
}

// UIMessage is a single message as the browser client stores and sends it.
type UIMessage struct {
	ID       string          `json:"id"`
	Role     string          `json:"role"`
	Parts    []UIPart        `json:"parts"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// UIPart is one tagged element of a message. Only the fields used by the
// server are decoded; the original bytes are kept so variants the server
// does not understand are written back untouched.
type UIPart struct {
	Type string `json:"type"`

	// text, reasoning
	Text string `json:"text,omitempty"`

	// tool-<name>, dynamic-tool
	ToolName   string          `json:"toolName,omitempty"`
	ToolCallID string          `json:"toolCallId,omitempty"`
	State      string          `json:"state,omitempty"`
	Input      json.RawMessage `json:"input,omitempty"`
	Output     json.RawMessage `json:"output,omitempty"`
	ErrorText  string          `json:"errorText,omitempty"`

	raw json.RawMessage
}

type uiPartFields UIPart

func (p *UIPart) UnmarshalJSON(data []byte) error {
	var fields uiPartFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*p = UIPart(fields)
	p.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (p UIPart) MarshalJSON() ([]byte, error) {
	if len(p.raw) > 0 {
		return p.raw, nil
	}
	return json.Marshal(uiPartFields(p))
}

// TextPart builds a text part.
func TextPart(text string) UIPart {
	return UIPart{Type: "text", Text: text}
}

// IsText reports whether the part carries plain text.
func (p UIPart) IsText() bool {
	return p.Type == "text"
}

// IsTool reports whether the part is a tool invocation, static or dynamic.
func (p UIPart) IsTool() bool {
	return strings.HasPrefix(p.Type, "tool-") || p.Type == "dynamic-tool"
}

// ToolNameOf returns the tool name of a tool part.
func (p UIPart) ToolNameOf() string {
	if p.Type == "dynamic-tool" {
		return p.ToolName
	}
	return strings.TrimPrefix(p.Type, "tool-")
}

// Text concatenates every text part of the message.
func (m UIMessage) Text() string {
	var b strings.Builder
	for _, part := range m.Parts {
		if part.IsText() {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

// LatestUserMessage returns the last message with the user role.
func LatestUserMessage(messages []UIMessage) (UIMessage, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return messages[i], true
		}
	}
	return UIMessage{}, false
}

// ModerationResult is the verdict of the moderation gate for one input.
type ModerationResult struct {
	Flagged       bool     `json:"flagged"`
	DenialMessage string   `json:"denial_message,omitempty"`
	Categories    []string `json:"categories,omitempty"`
}
