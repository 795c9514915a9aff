package stores

import (
	"time"

	"gorm.io/gorm"
)

// Message types stored in the messages table.
const (
	TypeUserMessage      = "user_message"
	TypeAssistantMessage = "assistant_message"
	TypeFunctionCall     = "function_call"
	TypeFunctionResponse = "function_response"
)

// Message is one stored turn of a chat transcript.
type Message struct {
	gorm.Model
	ConversationID string `gorm:"uniqueIndex:idx_message_conv_seq;not null"`
	Sequence       int    `gorm:"uniqueIndex:idx_message_conv_seq;not null"`
	Role           string `gorm:"not null"` // "user", "assistant", "tool"
	Type           string `gorm:"not null"`
	// PartsJSON holds the marshalled parts of the turn, UI parts for the
	// user and model parts for everything the assistant produced.
	PartsJSON string `gorm:"type:text"`
}

// Conversation holds metadata for a chat transcript. ConversationID is the
// chat id sent by the client.
type Conversation struct {
	gorm.Model
	ConversationID string    `gorm:"uniqueIndex;not null"`
	Title          string    `gorm:"type:text"`
	MessageCount   int       `gorm:"default:0"`
	Messages       []Message `gorm:"foreignKey:ConversationID;references:ConversationID"`
}

// ConversationInfo holds basic conversation metadata for listing
type ConversationInfo struct {
	ConversationID string `json:"conversation_id"`
	Title          string `json:"title"`
	MessageCount   int    `json:"message_count"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// MessageStore abstracts transcript persistence.
type MessageStore interface {
	SaveMessage(conversationID, role, messageType string, parts interface{}) error
	FetchHistory(conversationID string, limit int) ([]Message, error)

	ListConversations() ([]ConversationInfo, error)

	// PruneBefore hard-deletes conversations last updated before cutoff,
	// together with their messages. It returns the number of conversations removed.
	PruneBefore(cutoff time.Time) (int64, error)

	// DB exposes the connection so trace and vector stores can share it.
	DB() *gorm.DB

	Connect() error
	Close() error
	Ping() error
}

// StoreConfig holds configuration for database stores
type StoreConfig struct {
	Type       string            `json:"type" toml:"type"`             // "sqlite" or "postgres"
	Connection string            `json:"connection" toml:"connection"` // file path or DSN
	Options    map[string]string `json:"options" toml:"options"`
}

// NewStoreConfig creates a new store configuration
func NewStoreConfig(storeType, connection string) *StoreConfig {
	return &StoreConfig{
		Type:       storeType,
		Connection: connection,
		Options:    make(map[string]string),
	}
}
