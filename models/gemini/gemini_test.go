package gemini

import (
	"testing"

	"github.com/shreyasd806-spec/myAI3/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestToContents(t *testing.T) {
	msgs := []models.Message{
		{Role: models.RoleUser, Parts: []models.Model_Part{models.TextOf("best CD?")}},
		{Role: models.RoleAssistant, Parts: []models.Model_Part{
			models.ReasoningOf("dropped"),
			{FunctionCall: &models.FunctionCall{ID: "c1", Name: "getCurrentRatesTool", Args: map[string]interface{}{"query": "cd"}}},
		}},
		{Role: models.RoleTool, Parts: []models.Model_Part{
			{FunctionResponse: &models.FunctionResponse{ID: "c1", Name: "getCurrentRatesTool", Response: "no results"}},
		}},
		{Role: models.RoleAssistant, Parts: []models.Model_Part{models.ReasoningOf("only reasoning")}},
	}

	contents := ToContents(msgs)
	require.Len(t, contents, 3)
	assert.Equal(t, genai.RoleUser, contents[0].Role)
	assert.Equal(t, "best CD?", contents[0].Parts[0].Text)

	assert.Equal(t, genai.RoleModel, contents[1].Role)
	require.Len(t, contents[1].Parts, 1)
	assert.Equal(t, "getCurrentRatesTool", contents[1].Parts[0].FunctionCall.Name)

	assert.Equal(t, genai.RoleUser, contents[2].Role)
	assert.Equal(t, map[string]any{"output": "no results"}, contents[2].Parts[0].FunctionResponse.Response)
}

func TestResponseMap(t *testing.T) {
	type payload struct {
		Results []string `json:"results"`
	}
	assert.Equal(t, map[string]any{"results": []any{"a"}}, responseMap(payload{Results: []string{"a"}}))
	assert.Equal(t, map[string]any{"k": 1}, responseMap(map[string]any{"k": 1}))
	assert.Equal(t, map[string]any{"output": []int{1}}, responseMap([]int{1}))
}

func TestGenerateConfig(t *testing.T) {
	cfg := GenerateConfig(models.Model_Request{
		System: "sys",
		Tools: []models.FunctionDeclaration{{
			Name:        "getCurrentRatesTool",
			Description: "rates",
			Parameters: models.Parameters{
				Type: "object",
				Properties: map[string]interface{}{
					"query":      map[string]interface{}{"type": "string", "description": "q"},
					"numResults": map[string]interface{}{"type": "number"},
				},
				Required: []string{"query"},
			},
		}},
		Options: models.GenerationOptions{ReasoningEffort: models.ReasoningHigh, ReasoningSummary: models.SummaryNone},
	})

	require.NotNil(t, cfg.SystemInstruction)
	assert.Equal(t, "sys", cfg.SystemInstruction.Parts[0].Text)
	assert.False(t, cfg.ThinkingConfig.IncludeThoughts)
	assert.Equal(t, int32(24576), *cfg.ThinkingConfig.ThinkingBudget)

	require.Len(t, cfg.Tools, 1)
	decl := cfg.Tools[0].FunctionDeclarations[0]
	assert.Equal(t, genai.TypeObject, decl.Parameters.Type)
	assert.Equal(t, genai.TypeString, decl.Parameters.Properties["query"].Type)
	assert.Equal(t, "q", decl.Parameters.Properties["query"].Description)
	assert.Equal(t, genai.TypeNumber, decl.Parameters.Properties["numResults"].Type)
	assert.Equal(t, []string{"query"}, decl.Parameters.Required)
}

func TestFromResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{
			{Text: "pondering", Thought: true},
			{Text: "Answer"},
			{FunctionCall: &genai.FunctionCall{Name: "getCurrentRatesTool", Args: map[string]any{"query": "cd"}}},
		}},
	}}}

	parts := FromResponse(resp)
	require.Len(t, parts, 3)
	assert.Equal(t, "pondering", *parts[0].Reasoning)
	assert.Equal(t, "Answer", *parts[1].Text)
	assert.Equal(t, "getCurrentRatesTool", parts[2].FunctionCall.Name)
	assert.NotEmpty(t, parts[2].FunctionCall.ID)

	assert.Empty(t, FromResponse(nil))
	assert.Empty(t, FromResponse(&genai.GenerateContentResponse{}))
}

func TestThinkingBudgetDefaultsToLow(t *testing.T) {
	assert.Equal(t, ThinkingBudget(models.ReasoningLow), ThinkingBudget(""))
}
