package sessions

import (
	"encoding/json"

	"github.com/shreyasd806-spec/myAI3/models"
)

// Tool part states that carry a final result.
const (
	stateOutputAvailable = "output-available"
	stateOutputError     = "output-error"
)

// ToModelMessages converts the client's UI messages into model history.
// Text parts are kept, finished tool parts become a function call on the
// assistant turn followed by a tool turn with its response, and everything
// else (reasoning, step boundaries, files, unknown parts) is dropped.
// System messages are ignored; the system prompt is assembled server side.
func ToModelMessages(messages []models.UIMessage) []models.Message {
	var out []models.Message
	for _, m := range messages {
		switch m.Role {
		case models.RoleUser:
			var parts []models.Model_Part
			for _, p := range m.Parts {
				if p.IsText() && p.Text != "" {
					parts = append(parts, models.TextOf(p.Text))
				}
			}
			if len(parts) > 0 {
				out = append(out, models.Message{Role: models.RoleUser, Parts: parts})
			}
		case models.RoleAssistant:
			out = append(out, assistantTurns(m)...)
		}
	}
	return out
}

// assistantTurns splits one UI assistant message into model turns. A UI
// message spans several steps, so text that follows tool results opens a
// new assistant turn.
func assistantTurns(m models.UIMessage) []models.Message {
	var out []models.Message
	var current, results []models.Model_Part

	flush := func() {
		if len(current) > 0 {
			out = append(out, models.Message{Role: models.RoleAssistant, Parts: current})
		}
		if len(results) > 0 {
			out = append(out, models.Message{Role: models.RoleTool, Parts: results})
		}
		current, results = nil, nil
	}

	for _, p := range m.Parts {
		switch {
		case p.IsText():
			if p.Text == "" {
				continue
			}
			if len(results) > 0 {
				flush()
			}
			current = append(current, models.TextOf(p.Text))

		case p.IsTool():
			if p.State != stateOutputAvailable && p.State != stateOutputError {
				continue
			}
			name := p.ToolNameOf()
			current = append(current, models.Model_Part{FunctionCall: &models.FunctionCall{
				ID:   p.ToolCallID,
				Name: name,
				Args: decodeArgs(p.Input),
			}})
			var response interface{}
			if p.State == stateOutputError {
				response = map[string]interface{}{"error": p.ErrorText}
			} else {
				response = decodeOutput(p.Output)
			}
			results = append(results, models.Model_Part{FunctionResponse: &models.FunctionResponse{
				ID:       p.ToolCallID,
				Name:     name,
				Response: response,
			}})
		}
	}
	flush()
	return out
}

func decodeArgs(raw json.RawMessage) map[string]interface{} {
	args := map[string]interface{}{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil || args == nil {
			return map[string]interface{}{}
		}
	}
	return args
}

func decodeOutput(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return ""
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}
