// Package gemini streams model turns and computes embeddings through the
// Google GenAI SDK.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shreyasd806-spec/myAI3/models"
	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

// NewClient creates a GenAI client for the Gemini API backend.
func NewClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return client, nil
}

// Gemini_Model implements myai3.Model on top of GenerateContentStream.
type Gemini_Model struct {
	Model  string
	Client *genai.Client
}

// Stream_Model_Request streams one model turn. Thought parts arrive as
// Reasoning, text as Text, and function calls whole as Gemini sends them.
func (g *Gemini_Model) Stream_Model_Request(ctx context.Context, request models.Model_Request) (<-chan models.Model_Response, <-chan error) {
	respChan := make(chan models.Model_Response)
	errChan := make(chan error, 1)

	go func() {
		defer close(respChan)
		defer close(errChan)

		if g.Client == nil {
			errChan <- fmt.Errorf("gemini client is not configured")
			return
		}

		contents := ToContents(request.Messages)
		if len(contents) == 0 {
			errChan <- fmt.Errorf("cannot create gemini request with no messages")
			return
		}

		model := g.Model
		if model == "" {
			model = DefaultModel
		}

		for resp, err := range g.Client.Models.GenerateContentStream(ctx, model, contents, GenerateConfig(request)) {
			if err != nil {
				errChan <- fmt.Errorf("gemini stream failed: %w", err)
				return
			}
			parts := FromResponse(resp)
			if len(parts) == 0 {
				continue
			}
			select {
			case respChan <- models.Model_Response{Parts: parts}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return respChan, errChan
}

// GenerateConfig builds the per-request configuration: system prompt, tools
// and a thinking budget derived from the reasoning effort.
func GenerateConfig(request models.Model_Request) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: request.Options.ReasoningSummary != models.SummaryNone,
			ThinkingBudget:  genai.Ptr(ThinkingBudget(request.Options.ReasoningEffort)),
		},
	}
	if request.System != "" {
		config.SystemInstruction = genai.NewContentFromText(request.System, genai.RoleUser)
	}
	if len(request.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(request.Tools))
		for _, t := range request.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  ToSchema(t.Parameters),
			})
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}
	return config
}

// ThinkingBudget maps a reasoning effort to a thinking token budget.
func ThinkingBudget(effort models.ReasoningEffort) int32 {
	switch effort {
	case models.ReasoningMinimal:
		return 128
	case models.ReasoningMedium:
		return 8192
	case models.ReasoningHigh:
		return 24576
	default:
		return 1024
	}
}

// ToSchema converts tool parameters to a GenAI schema.
func ToSchema(p models.Parameters) *genai.Schema {
	schema := &genai.Schema{
		Type:     genai.TypeObject,
		Required: p.Required,
	}
	if len(p.Properties) > 0 {
		schema.Properties = make(map[string]*genai.Schema, len(p.Properties))
		for name, def := range p.Properties {
			schema.Properties[name] = propertySchema(def)
		}
	}
	return schema
}

func propertySchema(def interface{}) *genai.Schema {
	m, ok := def.(map[string]interface{})
	if !ok {
		return &genai.Schema{Type: genai.TypeString}
	}
	s := &genai.Schema{}
	if d, ok := m["description"].(string); ok {
		s.Description = d
	}
	switch m["type"] {
	case "number":
		s.Type = genai.TypeNumber
	case "integer":
		s.Type = genai.TypeInteger
	case "boolean":
		s.Type = genai.TypeBoolean
	case "array":
		s.Type = genai.TypeArray
		s.Items = propertySchema(m["items"])
	case "object":
		s.Type = genai.TypeObject
	default:
		s.Type = genai.TypeString
	}
	return s
}

// ToContents converts provider-neutral messages. Tool results travel as user
// content, assistant turns as model content.
func ToContents(messages []models.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := genai.RoleUser
		if m.Role == models.RoleAssistant {
			role = genai.RoleModel
		}

		var parts []*genai.Part
		for _, p := range m.Parts {
			switch {
			case p.Text != nil:
				parts = append(parts, &genai.Part{Text: *p.Text})
			case p.FunctionCall != nil:
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
					ID:   p.FunctionCall.ID,
					Name: p.FunctionCall.Name,
					Args: p.FunctionCall.Args,
				}})
			case p.FunctionResponse != nil:
				parts = append(parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
					ID:       p.FunctionResponse.ID,
					Name:     p.FunctionResponse.Name,
					Response: responseMap(p.FunctionResponse.Response),
				}})
			}
		}
		if len(parts) == 0 {
			continue
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}
	return contents
}

// responseMap shapes a tool result as the object Gemini expects. Strings
// and other non-object results are wrapped under "output".
func responseMap(response interface{}) map[string]any {
	if m, ok := response.(map[string]any); ok {
		return m
	}
	if _, ok := response.(string); !ok {
		if data, err := json.Marshal(response); err == nil {
			var m map[string]any
			if json.Unmarshal(data, &m) == nil && m != nil {
				return m
			}
		}
	}
	return map[string]any{"output": response}
}

// FromResponse extracts the parts of the first candidate.
func FromResponse(resp *genai.GenerateContentResponse) []models.Model_Part {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	var parts []models.Model_Part
	for _, p := range resp.Candidates[0].Content.Parts {
		if p == nil {
			continue
		}
		switch {
		case p.FunctionCall != nil:
			id := p.FunctionCall.ID
			if id == "" {
				id = "call_" + uuid.NewString()
			}
			args := p.FunctionCall.Args
			if args == nil {
				args = map[string]any{}
			}
			parts = append(parts, models.Model_Part{FunctionCall: &models.FunctionCall{ID: id, Name: p.FunctionCall.Name, Args: args}})
		case p.Thought && p.Text != "":
			parts = append(parts, models.ReasoningOf(p.Text))
		case p.Text != "":
			parts = append(parts, models.TextOf(p.Text))
		default:
			log.Debug().Msg("gemini: skipping unsupported part")
		}
	}
	return parts
}
