package sessions

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shreyasd806-spec/myAI3/models"
	"github.com/shreyasd806-spec/myAI3/stores"
)

// GetChatHistory returns the stored transcript of a chat in API form.
// limit <= 0 returns everything.
func GetChatHistory(store stores.MessageStore, chatID string, limit int) ([]models.ChatMessageResponse, error) {
	// Get history from store
	dbHistory, err := store.FetchHistory(chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}

	// Convert to API response format
	apiHistory := make([]models.ChatMessageResponse, 0, len(dbHistory))
	for _, msg := range dbHistory {
		apiMsg := models.ChatMessageResponse{
			ID:             msg.ID,
			CreatedAt:      msg.CreatedAt,
			UpdatedAt:      msg.UpdatedAt,
			ConversationID: msg.ConversationID,
			Sequence:       msg.Sequence,
			Role:           msg.Role,
			Type:           msg.Type,
		}

		if msg.PartsJSON != "" && msg.PartsJSON != "{}" && msg.PartsJSON != "null" {
			var unmarshalledParts interface{}
			if err := json.Unmarshal([]byte(msg.PartsJSON), &unmarshalledParts); err != nil {
				log.Warn().Err(err).Uint("message_id", msg.ID).Msg("Error unmarshalling PartsJSON")
			} else {
				apiMsg.Parts = unmarshalledParts
				apiMsg.Text = extractText(msg)
			}
		}

		apiHistory = append(apiHistory, apiMsg)
	}

	return apiHistory, nil
}

// extractText pulls the plain text out of user and assistant messages.
func extractText(msg stores.Message) string {
	var text string
	switch msg.Type {
	case stores.TypeUserMessage:
		var userParts []models.UIPart
		if err := json.Unmarshal([]byte(msg.PartsJSON), &userParts); err == nil {
			for _, p := range userParts {
				if p.IsText() {
					text += p.Text
				}
			}
		}
	case stores.TypeAssistantMessage:
		var modelParts []models.Model_Part
		if err := json.Unmarshal([]byte(msg.PartsJSON), &modelParts); err == nil {
			for _, p := range modelParts {
				if p.Text != nil {
					text += *p.Text
				}
			}
		}
	}
	return text
}
