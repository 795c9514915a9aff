package common_tools

import (
	"github.com/shreyasd806-spec/myAI3/models"
)

// RatesTool returns the FunctionDeclaration for live rate search.
func RatesTool(searcher Searcher) models.FunctionDeclaration {
	return (&RateSearch{Searcher: searcher}).Declaration()
}

// VectorSearchTool returns the FunctionDeclaration for knowledge base search.
func VectorSearchTool(embedder Embedder, index VectorIndex) models.FunctionDeclaration {
	return (&VectorSearch{Embedder: embedder, Index: index}).Declaration()
}

// DefaultTools returns the tools for the chat agent. vector is optional; it
// is skipped when nil or missing an embedder or index.
func DefaultTools(searcher Searcher, vector *VectorSearch) []models.FunctionDeclaration {
	tools := []models.FunctionDeclaration{RatesTool(searcher)}
	if vector != nil && vector.Embedder != nil && vector.Index != nil {
		tools = append(tools, vector.Declaration())
	}
	return tools
}
