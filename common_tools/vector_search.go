package common_tools

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shreyasd806-spec/myAI3/models"
)

const (
	VectorToolName = "vectorDatabaseSearch"

	DefaultTopK     = 5
	MaxTopK         = 20
	DefaultMinScore = 0.3

	NoDocumentsMessage = "No relevant documents were found in the knowledge base for this query."
)

// Embedder turns text into embedding vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string, taskType string) ([][]float32, error)
}

// VectorIndex returns the topK documents closest to a query vector, best first.
type VectorIndex interface {
	Query(ctx context.Context, vector []float32, topK int) ([]models.DocumentMatch, error)
}

type KnowledgeMetadata struct {
	SourceSearchQuery string `json:"source_search_query"`
}

// KnowledgePayload is the successful result of the vector search tool.
type KnowledgePayload struct {
	KnowledgeBaseResults []models.DocumentMatch `json:"knowledge_base_results"`
	Metadata             KnowledgeMetadata      `json:"metadata"`
}

// VectorSearch answers questions from the ingested knowledge base.
type VectorSearch struct {
	Embedder Embedder
	Index    VectorIndex
	MinScore float64
}

// Vector_Database_Search embeds the query and looks it up in the index.
// Like the rate tool, every path returns a value rather than an error.
func (v *VectorSearch) Vector_Database_Search(ctx context.Context, query string, topK int) interface{} {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}

	vectors, err := v.Embedder.Embed(ctx, []string{query}, "RETRIEVAL_QUERY")
	if err != nil || len(vectors) == 0 {
		if err == nil {
			err = fmt.Errorf("embedder returned no vectors")
		}
		log.Error().Err(err).Str("query", query).Msg("vector search: embed failed")
		return knowledgeErrorMessage(query)
	}

	matches, err := v.Index.Query(ctx, vectors[0], topK)
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("vector search: query failed")
		return knowledgeErrorMessage(query)
	}

	minScore := v.MinScore
	if minScore == 0 {
		minScore = DefaultMinScore
	}
	kept := make([]models.DocumentMatch, 0, len(matches))
	for _, m := range matches {
		if m.Score >= minScore {
			kept = append(kept, m)
		}
	}
	if len(kept) == 0 {
		return NoDocumentsMessage
	}

	return &KnowledgePayload{
		KnowledgeBaseResults: kept,
		Metadata:             KnowledgeMetadata{SourceSearchQuery: query},
	}
}

func knowledgeErrorMessage(query string) string {
	return fmt.Sprintf("An error occurred while searching the knowledge base for: %s.", query)
}

// Execute adapts Vector_Database_Search to the generic tool signature.
func (v *VectorSearch) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return v.Vector_Database_Search(ctx, stringArg(args, "query"), intArg(args, "topK")), nil
}

// Declaration returns the tool definition handed to the model.
func (v *VectorSearch) Declaration() models.FunctionDeclaration {
	return models.FunctionDeclaration{
		Name:        VectorToolName,
		Description: "Searches the internal knowledge base of financial guides and product documentation. Use it for background explanations and definitions, not for live rates.",
		Parameters: models.Parameters{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Natural language question to look up in the knowledge base",
				},
				"topK": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of passages to return, defaults to 5 (max 20)",
				},
			},
			Required: []string{"query"},
		},
		Callable: v.Execute,
	}
}
