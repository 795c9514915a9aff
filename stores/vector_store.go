package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shreyasd806-spec/myAI3/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Document is one embedded knowledge base chunk. Key is "<source>#<chunk>".
type Document struct {
	ID            uint   `gorm:"primarykey"`
	Key           string `gorm:"uniqueIndex;not null"`
	Source        string `gorm:"index;not null"`
	Chunk         int    `gorm:"not null"`
	Content       string `gorm:"type:text;not null"`
	EmbeddingJSON string `gorm:"type:text;not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DocumentKey builds the upsert key for a chunk.
func DocumentKey(source string, chunk int) string {
	return fmt.Sprintf("%s#%d", source, chunk)
}

// GORMVectorStore keeps embeddings in the documents table and ranks them by
// cosine similarity in process.
type GORMVectorStore struct {
	db *gorm.DB
}

// NewGORMVectorStore creates a vector store from an existing GORM connection
func NewGORMVectorStore(db *gorm.DB) (*GORMVectorStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	if err := db.AutoMigrate(&Document{}); err != nil {
		return nil, fmt.Errorf("failed to migrate documents table: %w", err)
	}
	return &GORMVectorStore{db: db}, nil
}

// Upsert inserts chunks or replaces existing ones with the same key.
func (s *GORMVectorStore) Upsert(ctx context.Context, source string, chunk int, content string, embedding []float32) error {
	data, err := json.Marshal(embedding)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding: %w", err)
	}
	doc := Document{
		Key:           DocumentKey(source, chunk),
		Source:        source,
		Chunk:         chunk,
		Content:       content,
		EmbeddingJSON: string(data),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"source", "chunk", "content", "embedding_json", "updated_at"}),
	}).Create(&doc).Error
}

// Count returns the number of stored chunks.
func (s *GORMVectorStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Document{}).Count(&n).Error
	return n, err
}

// Query returns the topK chunks most similar to vector, best first.
func (s *GORMVectorStore) Query(ctx context.Context, vector []float32, topK int) ([]models.DocumentMatch, error) {
	var docs []Document
	if err := s.db.WithContext(ctx).Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}

	matches := make([]models.DocumentMatch, 0, len(docs))
	for _, d := range docs {
		var emb []float32
		if err := json.Unmarshal([]byte(d.EmbeddingJSON), &emb); err != nil {
			log.Warn().Err(err).Str("key", d.Key).Msg("skipping document with corrupt embedding")
			continue
		}
		score, err := CosineSimilarity(vector, emb)
		if err != nil {
			log.Warn().Err(err).Str("key", d.Key).Msg("skipping document")
			continue
		}
		matches = append(matches, models.DocumentMatch{Content: d.Content, Source: d.Key, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0 when
// either vector has zero magnitude.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectors must have the same length: %d != %d", len(a), len(b))
	}

	var dot, aMag, bMag float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		aMag += float64(a[i]) * float64(a[i])
		bMag += float64(b[i]) * float64(b[i])
	}
	if aMag == 0 || bMag == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(aMag) * math.Sqrt(bMag)), nil
}
