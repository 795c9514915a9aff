package stores

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Trace statuses
const (
	TraceStatusOK    = "ok"
	TraceStatusError = "error"
)

// ExecutionTrace records one tool execution inside a chat turn.
type ExecutionTrace struct {
	ID             uint           `gorm:"primarykey" json:"-"`
	CreatedAt      time.Time      `json:"-"`
	ConversationID string         `gorm:"index:idx_trace_conv;not null" json:"conversation_id"`
	ToolCallID     string         `gorm:"index:idx_trace_conv;not null" json:"tool_call_id"`
	Step           int            `json:"step"`
	Tool           string         `gorm:"not null" json:"tool"`
	Status         string         `gorm:"not null" json:"status"`
	ErrorText      string         `json:"error_text,omitempty"`
	DetailsJSON    string         `gorm:"type:text" json:"-"`
	Details        map[string]any `gorm:"-" json:"details,omitempty"` // input and output, stored as DetailsJSON
	Timestamp      int64          `gorm:"not null" json:"timestamp"`
	DurationMS     int64          `json:"duration_ms"`
}

// BeforeSave marshals Details to DetailsJSON
func (t *ExecutionTrace) BeforeSave(tx *gorm.DB) error {
	if t.Details != nil {
		data, err := json.Marshal(t.Details)
		if err != nil {
			return err
		}
		t.DetailsJSON = string(data)
	}
	return nil
}

// AfterFind unmarshals DetailsJSON to Details
func (t *ExecutionTrace) AfterFind(tx *gorm.DB) error {
	if t.DetailsJSON != "" {
		return json.Unmarshal([]byte(t.DetailsJSON), &t.Details)
	}
	return nil
}

// TraceStore persists tool execution traces.
type TraceStore interface {
	SaveTrace(trace *ExecutionTrace) error
	GetTracesByConversation(conversationID string) ([]*ExecutionTrace, error)
}

// GORMTraceStore implements TraceStore for SQLite/PostgreSQL via GORM
type GORMTraceStore struct {
	db *gorm.DB
}

// NewGORMTraceStore creates a trace store from an existing GORM database connection
func NewGORMTraceStore(db *gorm.DB) (*GORMTraceStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	if err := db.AutoMigrate(&ExecutionTrace{}); err != nil {
		return nil, fmt.Errorf("failed to migrate execution_traces table: %w", err)
	}

	return &GORMTraceStore{db: db}, nil
}

// SaveTrace saves a single trace event
func (s *GORMTraceStore) SaveTrace(trace *ExecutionTrace) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	if trace.Timestamp == 0 {
		trace.Timestamp = time.Now().UnixMilli()
	}
	return s.db.Create(trace).Error
}

// GetTracesByConversation retrieves all traces for a conversation, ordered by timestamp
func (s *GORMTraceStore) GetTracesByConversation(conversationID string) ([]*ExecutionTrace, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	var traces []*ExecutionTrace
	err := s.db.Where("conversation_id = ?", conversationID).
		Order("timestamp ASC").
		Find(&traces).Error

	return traces, err
}
