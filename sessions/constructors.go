package sessions

import (
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	myai3 "github.com/shreyasd806-spec/myAI3"
	"github.com/shreyasd806-spec/myAI3/moderation"
	"github.com/shreyasd806-spec/myAI3/stores"
)

// NewChatSession creates a session for one chat request. store and traces
// may be nil, in which case nothing is persisted.
func NewChatSession(chatID string, agent *myai3.Agent, gate moderation.Gate, store stores.MessageStore, traces stores.TraceStore) *ChatSession {
	if gate == nil {
		gate = moderation.Disabled{}
	}
	return &ChatSession{
		Agent:  agent,
		Gate:   gate,
		Store:  store,
		Traces: traces,
		ChatID: chatID,
		Logger: log.With().Str("chat_id", chatID).Logger(),
	}
}

// NewWebSocketWriter wraps conn for one connection.
func NewWebSocketWriter(conn *websocket.Conn, chatID string) *WebSocketWriter {
	return &WebSocketWriter{
		Conn:   conn,
		Logger: log.With().Str("transport", "ws").Str("chat_id", chatID).Logger(),
	}
}
