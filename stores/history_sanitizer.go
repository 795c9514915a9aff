package stores

import (
	"github.com/rs/zerolog/log"
	"github.com/shreyasd806-spec/myAI3/models"
)

// SanitizeHistory ensures the conversation handed to a model has a valid
// turn structure. Providers reject histories where a function call has no
// matching response or a response has no call, so:
//
//   - leading tool results and leading assistant turns made only of
//     function calls are skipped, since their partners were truncated away
//   - function calls whose ID never gets a response are removed
//   - function responses whose ID was never called are removed
//   - messages left without parts are dropped
func SanitizeHistory(msgs []models.Message) []models.Message {
	if len(msgs) == 0 {
		return msgs
	}

	startIdx := findValidStartIndex(msgs)
	if startIdx == -1 {
		log.Debug().Msg("[HISTORY_SANITIZER] No valid starting point found, returning empty history")
		return []models.Message{}
	}
	if startIdx > 0 {
		log.Debug().Int("skipped", startIdx).Str("first_role", msgs[0].Role).Msg("[HISTORY_SANITIZER] Skipping messages to find valid start")
		msgs = msgs[startIdx:]
	}

	sanitized := sanitizeToolCycles(msgs)
	if removed := countParts(msgs) - countParts(sanitized); removed > 0 {
		log.Debug().Int("removed_parts", removed).Msg("[HISTORY_SANITIZER] Removed parts with broken tool cycles")
	}
	return sanitized
}

// findValidStartIndex returns the first message that is a user turn or an
// assistant turn containing something other than function calls.
func findValidStartIndex(msgs []models.Message) int {
	for i, msg := range msgs {
		switch msg.Role {
		case models.RoleUser:
			return i
		case models.RoleAssistant:
			if hasNonCallPart(msg) {
				return i
			}
		}
	}
	return -1
}

func hasNonCallPart(msg models.Message) bool {
	for _, p := range msg.Parts {
		if p.FunctionCall == nil {
			return true
		}
	}
	return false
}

// sanitizeToolCycles pairs calls and responses by ID and drops the unpaired
// halves.
func sanitizeToolCycles(msgs []models.Message) []models.Message {
	called := make(map[string]bool)
	answered := make(map[string]bool)
	for _, msg := range msgs {
		for _, p := range msg.Parts {
			if p.FunctionCall != nil {
				called[p.FunctionCall.ID] = true
			}
			if p.FunctionResponse != nil {
				answered[p.FunctionResponse.ID] = true
			}
		}
	}

	result := make([]models.Message, 0, len(msgs))
	for i, msg := range msgs {
		parts := make([]models.Model_Part, 0, len(msg.Parts))
		for _, p := range msg.Parts {
			switch {
			case p.FunctionCall != nil && !answered[p.FunctionCall.ID]:
				log.Debug().Int("index", i).Str("tool", p.FunctionCall.Name).Msg("[HISTORY_SANITIZER] Removing function_call without response")
			case p.FunctionResponse != nil && !called[p.FunctionResponse.ID]:
				log.Debug().Int("index", i).Str("tool", p.FunctionResponse.Name).Msg("[HISTORY_SANITIZER] Removing orphaned function_response")
			default:
				parts = append(parts, p)
			}
		}
		if len(parts) == 0 {
			continue
		}
		msg.Parts = parts
		result = append(result, msg)
	}
	return result
}

func countParts(msgs []models.Message) int {
	n := 0
	for _, m := range msgs {
		n += len(m.Parts)
	}
	return n
}

// DetectCorruptedHistory reports problems that would make a provider reject
// the history. An empty slice means the history is clean.
func DetectCorruptedHistory(msgs []models.Message) []string {
	issues := []string{}
	if len(msgs) == 0 {
		return issues
	}

	if msgs[0].Role == models.RoleTool {
		issues = append(issues, "History starts with a tool result (orphaned)")
	}
	if msgs[0].Role == models.RoleAssistant && !hasNonCallPart(msgs[0]) {
		issues = append(issues, "History starts with function_call (truncated mid-cycle)")
	}

	pending := make(map[string]bool)
	for _, msg := range msgs {
		for _, p := range msg.Parts {
			if p.FunctionCall != nil {
				pending[p.FunctionCall.ID] = true
			}
			if p.FunctionResponse != nil {
				if !pending[p.FunctionResponse.ID] {
					issues = append(issues, "function_response without preceding function_call")
				}
				delete(pending, p.FunctionResponse.ID)
			}
		}
	}
	if len(pending) > 0 {
		issues = append(issues, "Orphaned function_call(s) without responses")
	}

	for i := 1; i < len(msgs); i++ {
		if msgs[i-1].Role == models.RoleUser && msgs[i].Role == models.RoleUser {
			issues = append(issues, "Two consecutive user messages")
		}
	}

	return issues
}
