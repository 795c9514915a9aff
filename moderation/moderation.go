// Package moderation decides whether a user message may be answered at all.
package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shreyasd806-spec/myAI3/models"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "omni-moderation-latest"

	// FallbackDenial is streamed when the classifier flags a message without
	// giving a more specific reason.
	FallbackDenial = "Your message violates our guidelines. I can't answer that."
)

// Gate classifies a piece of user text.
type Gate interface {
	Classify(ctx context.Context, text string) (models.ModerationResult, error)
}

// Disabled never flags anything.
type Disabled struct{}

func (Disabled) Classify(ctx context.Context, text string) (models.ModerationResult, error) {
	return models.ModerationResult{}, nil
}

// Category-specific denial messages, checked in this order.
var denialMessages = []struct {
	category string
	message  string
}{
	{"sexual/minors", "I can't help with that. Content involving minors in a sexual context is not allowed."},
	{"self-harm/intent", "I'm really sorry you're going through this. I can't help with that, but please reach out to a crisis line or someone you trust right away."},
	{"self-harm/instructions", "I can't provide that. If you are thinking about harming yourself, please contact a crisis line or emergency services."},
	{"self-harm", "I can't help with that. If you are struggling, please talk to someone you trust or a local crisis line."},
	{"violence/graphic", "I can't help with graphic violent content. I'm here to help with financial products and rates."},
	{"violence", "I can't help with requests involving violence. I'm here to help with financial products and rates."},
	{"illicit/violent", "I can't help with that request."},
	{"illicit", "I can't help with illegal activities, including financial fraud or evading regulations."},
	{"hate/threatening", "I can't engage with threatening or hateful content."},
	{"hate", "I can't engage with hateful content. Let's keep the conversation respectful."},
	{"harassment/threatening", "I can't engage with threatening content."},
	{"harassment", "I can't engage with harassing content. Let's keep the conversation respectful."},
	{"sexual", "I can't help with sexual content. I'm here to help with financial products and rates."},
}

// DenialFor returns the denial message for the first matching category, or
// "" when none of the categories has a dedicated message.
func DenialFor(categories []string) string {
	flagged := make(map[string]bool, len(categories))
	for _, c := range categories {
		flagged[c] = true
	}
	for _, d := range denialMessages {
		if flagged[d.category] {
			return d.message
		}
	}
	return ""
}

// Denial returns the message to show for a flagged result.
func Denial(result models.ModerationResult) string {
	if result.DenialMessage != "" {
		return result.DenialMessage
	}
	return FallbackDenial
}

// OpenAIGate calls an OpenAI-compatible moderations endpoint.
type OpenAIGate struct {
	APIKey  string
	BaseURL string
	Model   string
	Client  *http.Client
}

// NewOpenAIGate builds a gate with default endpoint and model.
func NewOpenAIGate(apiKey string) *OpenAIGate {
	return &OpenAIGate{
		APIKey:  apiKey,
		BaseURL: DefaultBaseURL,
		Model:   DefaultModel,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type moderationRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type moderationResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Results []struct {
		Flagged    bool            `json:"flagged"`
		Categories map[string]bool `json:"categories"`
	} `json:"results"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Classify sends text to the moderation endpoint. Transport and API errors
// are returned; the caller decides whether to fail the request.
func (g *OpenAIGate) Classify(ctx context.Context, text string) (models.ModerationResult, error) {
	if g.APIKey == "" {
		return models.ModerationResult{}, fmt.Errorf("moderation API key not set")
	}

	body, err := json.Marshal(moderationRequest{Model: g.model(), Input: text})
	if err != nil {
		return models.ModerationResult{}, fmt.Errorf("failed to marshal moderation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(g.baseURL(), "/")+"/moderations", bytes.NewReader(body))
	if err != nil {
		return models.ModerationResult{}, fmt.Errorf("failed to create moderation request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.APIKey)
	req.Header.Set("Content-Type", "application/json")

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return models.ModerationResult{}, fmt.Errorf("moderation request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.ModerationResult{}, fmt.Errorf("failed to read moderation response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			return models.ModerationResult{}, fmt.Errorf("moderation API error: %s (type: %s)", errResp.Error.Message, errResp.Error.Type)
		}
		return models.ModerationResult{}, fmt.Errorf("moderation API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var parsed moderationResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return models.ModerationResult{}, fmt.Errorf("failed to unmarshal moderation response: %w", err)
	}
	if len(parsed.Results) == 0 {
		return models.ModerationResult{}, fmt.Errorf("moderation response contained no results")
	}

	first := parsed.Results[0]
	if !first.Flagged {
		return models.ModerationResult{}, nil
	}

	var categories []string
	for name, hit := range first.Categories {
		if hit {
			categories = append(categories, name)
		}
	}
	sort.Strings(categories)
	result := models.ModerationResult{
		Flagged:       true,
		Categories:    categories,
		DenialMessage: DenialFor(categories),
	}
	log.Info().Strs("categories", categories).Msg("moderation: message flagged")
	return result, nil
}

func (g *OpenAIGate) baseURL() string {
	if g.BaseURL == "" {
		return DefaultBaseURL
	}
	return g.BaseURL
}

func (g *OpenAIGate) model() string {
	if g.Model == "" {
		return DefaultModel
	}
	return g.Model
}
