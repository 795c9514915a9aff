package common_tools

import (
	"context"
	"errors"
	"testing"

	"github.com/shreyasd806-spec/myAI3/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorSearchFiltersByScore(t *testing.T) {
	embedder := &fakeEmbedder{}
	index := &fakeIndex{matches: []models.DocumentMatch{
		{Content: "CDs lock your money for a term.", Source: "guides/cd.md#0", Score: 0.91},
		{Content: "unrelated", Source: "misc.md#3", Score: 0.12},
	}}
	v := &VectorSearch{Embedder: embedder, Index: index}

	out := v.Vector_Database_Search(context.Background(), "what is a CD", 0)
	payload, ok := out.(*KnowledgePayload)
	require.True(t, ok, "expected payload, got %T", out)

	require.Len(t, payload.KnowledgeBaseResults, 1)
	assert.Equal(t, "guides/cd.md#0", payload.KnowledgeBaseResults[0].Source)
	assert.Equal(t, "what is a CD", payload.Metadata.SourceSearchQuery)
	assert.Equal(t, DefaultTopK, index.topK)
	assert.Equal(t, "RETRIEVAL_QUERY", embedder.task)
}

func TestVectorSearchTopKCapped(t *testing.T) {
	index := &fakeIndex{}
	v := &VectorSearch{Embedder: &fakeEmbedder{}, Index: index}

	out := v.Vector_Database_Search(context.Background(), "q", 500)
	assert.Equal(t, NoDocumentsMessage, out)
	assert.Equal(t, MaxTopK, index.topK)
}

func TestVectorSearchEmbedError(t *testing.T) {
	index := &fakeIndex{}
	v := &VectorSearch{Embedder: &fakeEmbedder{err: errors.New("quota")}, Index: index}

	out, err := v.Execute(context.Background(), map[string]interface{}{"query": "roth ira"})
	require.NoError(t, err)
	assert.Contains(t, out, "roth ira")
	assert.Zero(t, index.topK, "index must not be queried when embedding fails")
}

func TestVectorSearchIndexError(t *testing.T) {
	v := &VectorSearch{Embedder: &fakeEmbedder{}, Index: &fakeIndex{err: errors.New("db down")}}
	out := v.Vector_Database_Search(context.Background(), "roth ira", 3)
	assert.Contains(t, out, "roth ira")
}
