package models

import "time"

// ChatMessageResponse defines the structure for messages returned by the chat history API endpoint.
// It excludes internal DB fields like gorm.Model but includes necessary identifiers and timestamps.
type ChatMessageResponse struct {
	ID             uint        `json:"id"`         // Message primary key ID
	CreatedAt      time.Time   `json:"created_at"` // Time the message was created
	UpdatedAt      time.Time   `json:"updated_at"` // Time the message was last updated
	ConversationID string      `json:"conversation_id"`
	Sequence       int         `json:"sequence"`
	Role           string      `json:"role"`            // "user", "assistant", "tool"
	Type           string      `json:"type"`            // "user_message", "assistant_message", "function_response"
	Text           string      `json:"text,omitempty"`  // Primary text content, if applicable (extracted from parts)
	Parts          interface{} `json:"parts,omitempty"` // Unmarshalled parts array ([]UIPart or []Model_Part)
}

// ChatHistoryResponse is the body of GET /api/chat/:id/history.
type ChatHistoryResponse struct {
	ChatID   string                `json:"chat_id"`
	Messages []ChatMessageResponse `json:"messages"`
	Traces   interface{}           `json:"traces,omitempty"`
}
