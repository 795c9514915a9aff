// Package openai streams chat completions from any OpenAI-compatible endpoint.
package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shreyasd806-spec/myAI3/models"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-5-mini"
)

// OpenAI_Model implements myai3.Model for the chat completions API.
type OpenAI_Model struct {
	Model       string
	APIKey      string
	BaseURL     string // defaults to DefaultBaseURL; "/chat/completions" is appended
	Temperature *float64
	MaxTokens   *int
	Client      *http.Client
}

// Stream_Model_Request streams one model turn. Text and reasoning deltas are
// forwarded as they arrive; tool calls are accumulated and delivered as
// complete function calls when the stream ends.
func (o *OpenAI_Model) Stream_Model_Request(ctx context.Context, request models.Model_Request) (<-chan models.Model_Response, <-chan error) {
	respChan := make(chan models.Model_Response)
	errChan := make(chan error, 1)

	go func() {
		defer close(respChan)
		defer close(errChan)

		send := func(r models.Model_Response) bool {
			select {
			case respChan <- r:
				return true
			case <-ctx.Done():
				return false
			}
		}

		requestBody, err := o.createRequest(request)
		if err != nil {
			errChan <- fmt.Errorf("failed to create chat request: %w", err)
			return
		}

		jsonBytes, err := json.Marshal(requestBody)
		if err != nil {
			errChan <- fmt.Errorf("failed to marshal request body: %w", err)
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint(), bytes.NewReader(jsonBytes))
		if err != nil {
			errChan <- fmt.Errorf("failed to create HTTP request: %w", err)
			return
		}
		req.Header.Set("Authorization", "Bearer "+o.APIKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "text/event-stream")

		client := o.Client
		if client == nil {
			client = http.DefaultClient
		}
		resp, err := client.Do(req)
		if err != nil {
			errChan <- fmt.Errorf("HTTP request failed: %w", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			var errResp ErrorResponse
			if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
				errChan <- fmt.Errorf("chat completions API error: %s (type: %s)", errResp.Error.Message, errResp.Error.Type)
			} else {
				errChan <- fmt.Errorf("chat completions API error: status %d, body: %s", resp.StatusCode, string(body))
			}
			return
		}

		acc := newToolCallAccumulator()
		dropReasoning := request.Options.ReasoningSummary == models.SummaryNone

		reader := bufio.NewReader(resp.Body)
		for {
			line, err := reader.ReadString('\n')
			if err != nil && err != io.EOF {
				errChan <- fmt.Errorf("error reading stream: %w", err)
				return
			}
			eof := err == io.EOF

			line = strings.TrimSpace(line)
			if data, ok := strings.CutPrefix(line, "data:"); ok {
				data = strings.TrimSpace(data)
				if data == "[DONE]" {
					eof = true
				} else {
					var chunk StreamResponse
					if err := json.Unmarshal([]byte(data), &chunk); err != nil {
						log.Warn().Err(err).Str("data", data).Msg("openai: failed to unmarshal stream chunk")
					} else if parts := o.chunkParts(chunk, acc, dropReasoning); len(parts) > 0 {
						if !send(models.Model_Response{Parts: parts}) {
							return
						}
					}
				}
			}

			if eof {
				if calls := acc.parts(); len(calls) > 0 {
					send(models.Model_Response{Parts: calls})
				}
				return
			}
		}
	}()

	return respChan, errChan
}

// chunkParts extracts text and reasoning deltas from a chunk and feeds tool
// call fragments to the accumulator.
func (o *OpenAI_Model) chunkParts(chunk StreamResponse, acc *toolCallAccumulator, dropReasoning bool) []models.Model_Part {
	var parts []models.Model_Part
	for _, choice := range chunk.Choices {
		if choice.Delta == nil {
			continue
		}
		delta := choice.Delta

		var reasoning string
		if delta.Reasoning != nil && *delta.Reasoning != "" {
			reasoning = *delta.Reasoning
		} else if delta.ReasoningContent != nil && *delta.ReasoningContent != "" {
			reasoning = *delta.ReasoningContent
		}
		if reasoning != "" && !dropReasoning {
			parts = append(parts, models.ReasoningOf(reasoning))
		}

		if delta.Content != nil && *delta.Content != "" {
			parts = append(parts, models.TextOf(*delta.Content))
		}

		for _, tc := range delta.ToolCalls {
			acc.add(tc)
		}
	}
	return parts
}

func (o *OpenAI_Model) endpoint() string {
	base := o.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return strings.TrimRight(base, "/") + "/chat/completions"
}

func (o *OpenAI_Model) createRequest(request models.Model_Request) (ChatRequest, error) {
	messages := []Message{}
	if request.System != "" {
		system := request.System
		messages = append(messages, Message{Role: "system", Content: &system})
	}
	for _, m := range request.Messages {
		messages = append(messages, convertMessage(m)...)
	}
	if len(messages) == 0 {
		return ChatRequest{}, fmt.Errorf("cannot create chat request with no messages")
	}

	model := o.Model
	if model == "" {
		model = DefaultModel
	}

	chatReq := ChatRequest{
		Model:           model,
		Messages:        messages,
		Stream:          true,
		ReasoningEffort: string(request.Options.ReasoningEffort),
		Temperature:     o.Temperature,
		MaxTokens:       o.MaxTokens,
	}
	if len(request.Tools) > 0 {
		parallel := request.Options.ParallelToolCalls
		chatReq.Tools = ConvertTools(request.Tools)
		chatReq.ToolChoice = "auto"
		chatReq.ParallelToolCalls = &parallel
	}
	return chatReq, nil
}

// convertMessage maps a provider-neutral message to one or more chat
// messages. Each function response becomes its own "tool" message.
func convertMessage(m models.Message) []Message {
	switch m.Role {
	case models.RoleTool:
		var out []Message
		for _, p := range m.Parts {
			if p.FunctionResponse == nil {
				continue
			}
			id := p.FunctionResponse.ID
			content := responseContent(p.FunctionResponse.Response)
			out = append(out, Message{Role: "tool", ToolCallID: &id, Content: &content})
		}
		return out

	case models.RoleAssistant:
		msg := Message{Role: "assistant"}
		var text strings.Builder
		for _, p := range m.Parts {
			switch {
			case p.Text != nil:
				text.WriteString(*p.Text)
			case p.FunctionCall != nil:
				args, err := json.Marshal(p.FunctionCall.Args)
				if err != nil || p.FunctionCall.Args == nil {
					args = []byte("{}")
				}
				msg.ToolCalls = append(msg.ToolCalls, ToolCall{
					ID:       p.FunctionCall.ID,
					Type:     "function",
					Function: ToolCallFunction{Name: p.FunctionCall.Name, Arguments: string(args)},
				})
			}
		}
		if text.Len() > 0 || len(msg.ToolCalls) == 0 {
			content := text.String()
			msg.Content = &content
		}
		return []Message{msg}

	default:
		var text strings.Builder
		for _, p := range m.Parts {
			if p.Text != nil {
				text.WriteString(*p.Text)
			}
		}
		content := text.String()
		return []Message{{Role: "user", Content: &content}}
	}
}

func responseContent(response interface{}) string {
	if s, ok := response.(string); ok {
		return s
	}
	data, err := json.Marshal(response)
	if err != nil {
		return fmt.Sprintf("%v", response)
	}
	return string(data)
}

// toolCallAccumulator joins streamed tool call fragments by their index.
type toolCallAccumulator struct {
	calls map[int]*ToolCall
}

func newToolCallAccumulator() *toolCallAccumulator {
	return &toolCallAccumulator{calls: make(map[int]*ToolCall)}
}

func (a *toolCallAccumulator) add(tc ToolCall) {
	idx := 0
	if tc.Index != nil {
		idx = *tc.Index
	}
	existing, ok := a.calls[idx]
	if !ok {
		a.calls[idx] = &ToolCall{
			ID:       tc.ID,
			Type:     tc.Type,
			Function: ToolCallFunction{Name: tc.Function.Name, Arguments: tc.Function.Arguments},
		}
		return
	}
	if existing.ID == "" {
		existing.ID = tc.ID
	}
	if existing.Function.Name == "" {
		existing.Function.Name = tc.Function.Name
	}
	existing.Function.Arguments += tc.Function.Arguments
}

// parts returns the accumulated calls in index order.
func (a *toolCallAccumulator) parts() []models.Model_Part {
	indexes := make([]int, 0, len(a.calls))
	for idx := range a.calls {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	parts := make([]models.Model_Part, 0, len(indexes))
	for _, idx := range indexes {
		tc := a.calls[idx]
		args := map[string]interface{}{}
		if strings.TrimSpace(tc.Function.Arguments) != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				log.Warn().Err(err).Str("tool", tc.Function.Name).Msg("openai: failed to unmarshal tool call arguments")
				args = map[string]interface{}{}
			}
		}
		id := tc.ID
		if id == "" {
			id = "call_" + uuid.NewString()
		}
		parts = append(parts, models.Model_Part{
			FunctionCall: &models.FunctionCall{ID: id, Name: tc.Function.Name, Args: args},
		})
	}
	return parts
}
