package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const DefaultEmbeddingModel = "gemini-embedding-001"

// maxEmbedBatch is the most texts the API accepts in one EmbedContent call.
const maxEmbedBatch = 100

// Embedder computes embeddings with the GenAI EmbedContent API.
type Embedder struct {
	Client *genai.Client
	Model  string
}

// Embed returns one vector per text. taskType is a GenAI task type such as
// RETRIEVAL_QUERY or RETRIEVAL_DOCUMENT.
func (e *Embedder) Embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if e.Client == nil {
		return nil, fmt.Errorf("gemini client is not configured")
	}
	if len(texts) == 0 {
		return nil, nil
	}
	model := e.Model
	if model == "" {
		model = DefaultEmbeddingModel
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxEmbedBatch {
		end := min(start+maxEmbedBatch, len(texts))

		contents := make([]*genai.Content, 0, end-start)
		for _, text := range texts[start:end] {
			contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
		}

		result, err := e.Client.Models.EmbedContent(ctx, model, contents, &genai.EmbedContentConfig{TaskType: taskType})
		if err != nil {
			return nil, fmt.Errorf("GenAI embed failed: %w", err)
		}
		if len(result.Embeddings) != end-start {
			return nil, fmt.Errorf("GenAI returned %d embeddings for %d texts", len(result.Embeddings), end-start)
		}
		for _, emb := range result.Embeddings {
			out = append(out, emb.Values)
		}
	}
	return out, nil
}
