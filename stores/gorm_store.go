package stores

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	titleMaxRunes = 60

	// saveAttempts bounds retries when a concurrent writer took the same
	// sequence number.
	saveAttempts = 3
)

// gormStore carries the MessageStore logic shared by every SQL backend. The
// concrete stores only differ in how they open the connection.
type gormStore struct {
	db   *gorm.DB
	open func() gorm.Dialector
	name string
}

// Connect establishes the connection and migrates the schema
func (s *gormStore) Connect() error {
	db, err := gorm.Open(s.open(), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", s.name, err)
	}

	s.db = db

	if err := s.db.AutoMigrate(&Conversation{}, &Message{}); err != nil {
		return fmt.Errorf("failed to migrate database schema: %w", err)
	}

	return nil
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// Close closes the database connection
func (s *gormStore) Close() error {
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (s *gormStore) Ping() error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}

// SaveMessage appends a turn to a conversation, creating the conversation on
// first use. The first user message also becomes the conversation title.
func (s *gormStore) SaveMessage(conversationID, role, messageType string, parts interface{}) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}

	partsJSONBytes, err := json.Marshal(parts)
	if err != nil {
		return fmt.Errorf("failed to marshal parts for database: %w", err)
	}
	partsJSON := string(partsJSONBytes)
	if parts == nil || partsJSON == "null" {
		log.Warn().Str("conversation_id", conversationID).Str("type", messageType).Msg("saving message with empty parts")
		partsJSON = "[]"
	}

	for attempt := 1; ; attempt++ {
		err = s.appendMessage(conversationID, role, messageType, parts, partsJSON)
		if err == nil || !errors.Is(err, gorm.ErrDuplicatedKey) || attempt == saveAttempts {
			return err
		}
		log.Debug().Str("conversation_id", conversationID).Int("attempt", attempt).Msg("sequence conflict, retrying save")
	}
}

func (s *gormStore) appendMessage(conversationID, role, messageType string, parts interface{}, partsJSON string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Conversation{}).Where("conversation_id = ?", conversationID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to look up conversation: %w", err)
		}
		if count == 0 {
			title := ""
			if messageType == TypeUserMessage {
				title = titleFromParts(parts)
			}
			if err := tx.Create(&Conversation{ConversationID: conversationID, Title: title}).Error; err != nil {
				return fmt.Errorf("failed to create conversation record: %w", err)
			}
		}

		if err := tx.Model(&Message{}).Where("conversation_id = ?", conversationID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count existing messages: %w", err)
		}
		seq := int(count) + 1

		msg := Message{
			ConversationID: conversationID,
			Sequence:       seq,
			Role:           role,
			Type:           messageType,
			PartsJSON:      partsJSON,
		}
		if err := tx.Create(&msg).Error; err != nil {
			return fmt.Errorf("failed to create message record: %w", err)
		}

		// Updates also bumps updated_at, which retention relies on.
		if err := tx.Model(&Conversation{}).Where("conversation_id = ?", conversationID).Updates(map[string]interface{}{"message_count": seq}).Error; err != nil {
			return fmt.Errorf("failed to update conversation message count: %w", err)
		}
		return nil
	})
}

// FetchHistory retrieves messages for a conversation in sequence order.
// limit keeps only the last N messages (0 = all).
func (s *gormStore) FetchHistory(conversationID string, limit int) ([]Message, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	var msgs []Message
	query := s.db.Where("conversation_id = ?", conversationID).Order("sequence ASC")

	if limit > 0 {
		var count int64
		if err := s.db.Model(&Message{}).Where("conversation_id = ?", conversationID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to count messages: %w", err)
		}
		if count > int64(limit) {
			query = query.Offset(int(count) - limit)
		}
	}

	if err := query.Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	return msgs, nil
}

// ListConversations returns every conversation, most recently updated first.
func (s *gormStore) ListConversations() ([]ConversationInfo, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	var convs []Conversation
	if err := s.db.Order("updated_at DESC").Find(&convs).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch conversations: %w", err)
	}

	result := make([]ConversationInfo, len(convs))
	for i, c := range convs {
		result[i] = ConversationInfo{
			ConversationID: c.ConversationID,
			Title:          c.Title,
			MessageCount:   c.MessageCount,
			CreatedAt:      c.CreatedAt.Format(time.RFC3339),
			UpdatedAt:      c.UpdatedAt.Format(time.RFC3339),
		}
	}

	return result, nil
}

func (s *gormStore) PruneBefore(cutoff time.Time) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database connection is nil")
	}

	var ids []string
	if err := s.db.Unscoped().Model(&Conversation{}).Where("updated_at < ?", cutoff).Pluck("conversation_id", &ids).Error; err != nil {
		return 0, fmt.Errorf("failed to select expired conversations: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	var removed int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("conversation_id IN ?", ids).Delete(&Message{}).Error; err != nil {
			return fmt.Errorf("failed to delete messages: %w", err)
		}
		if tx.Migrator().HasTable(&ExecutionTrace{}) {
			if err := tx.Where("conversation_id IN ?", ids).Delete(&ExecutionTrace{}).Error; err != nil {
				return fmt.Errorf("failed to delete traces: %w", err)
			}
		}
		res := tx.Unscoped().Where("conversation_id IN ?", ids).Delete(&Conversation{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete conversations: %w", res.Error)
		}
		removed = res.RowsAffected
		return nil
	})
	return removed, err
}

// titleFromParts builds a short title from the text parts of a user message.
func titleFromParts(parts interface{}) string {
	data, err := json.Marshal(parts)
	if err != nil {
		return ""
	}
	var items []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return ""
	}
	title := ""
	for _, it := range items {
		if it.Type == "text" {
			title += it.Text
		}
	}
	if utf8.RuneCountInString(title) > titleMaxRunes {
		title = string([]rune(title)[:titleMaxRunes])
	}
	return title
}
