package sessions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	myai3 "github.com/shreyasd806-spec/myAI3"
	"github.com/shreyasd806-spec/myAI3/models"
	"github.com/shreyasd806-spec/myAI3/moderation"
	"github.com/shreyasd806-spec/myAI3/stores"
)

const (
	// DenialTextID is the part id of the single text block streamed for a
	// flagged message.
	DenialTextID = "moderation-denial-text"

	// StreamErrorText is all the client learns about a failure after the
	// stream has started.
	StreamErrorText = "An error occurred."
)

// ChatSession answers one chat request: moderate the latest user message,
// then run the model and its tools for up to Agent.MaxSteps turns, writing
// everything to an EventWriter as it happens.
type ChatSession struct {
	Agent  *myai3.Agent
	Gate   moderation.Gate
	Store  stores.MessageStore // optional
	Traces stores.TraceStore   // optional
	ChatID string
	Logger zerolog.Logger
}

// Run handles the complete interaction. Errors returned before any event
// was written (moderation failure, broken writer) are for the caller to
// report; once "start" is out, failures are reported in-band as a single
// error event and Run returns nil.
func (s *ChatSession) Run(ctx context.Context, messages []models.UIMessage, w EventWriter) error {
	latest, hasUser := models.LatestUserMessage(messages)

	if hasUser {
		if text := latest.Text(); text != "" {
			result, err := s.Gate.Classify(ctx, text)
			if err != nil {
				s.Logger.Error().Err(err).Msg("Moderation request failed")
				return fmt.Errorf("moderation failed: %w", err)
			}
			if result.Flagged {
				s.Logger.Info().Strs("categories", result.Categories).Msg("Message denied by moderation")
				s.saveMessage(models.RoleUser, stores.TypeUserMessage, latest.Parts)
				return s.streamDenial(w, moderation.Denial(result))
			}
		}
		s.saveMessage(models.RoleUser, stores.TypeUserMessage, latest.Parts)
	}

	converted := ToModelMessages(messages)
	if issues := stores.DetectCorruptedHistory(converted); len(issues) > 0 {
		s.Logger.Debug().Strs("issues", issues).Msg("Repairing client history")
	}
	history := stores.SanitizeHistory(converted)

	if err := s.write(w, models.StreamEvent{Type: models.EventStart, MessageID: "msg_" + uuid.NewString()}); err != nil {
		return err
	}

	if err := s.runSteps(ctx, history, w); err != nil {
		var agentErr *AgentError
		if errors.As(err, &agentErr) && agentErr.Fatal {
			return err
		}
		s.Logger.Error().Err(err).Msg("Chat stream failed")
		if werr := s.write(w, models.StreamEvent{Type: models.EventError, ErrorText: StreamErrorText}); werr != nil {
			return werr
		}
		return w.WriteDone()
	}

	if err := s.write(w, models.StreamEvent{Type: models.EventFinish}); err != nil {
		return err
	}
	return w.WriteDone()
}

// streamDenial writes the fixed event sequence for a flagged message.
func (s *ChatSession) streamDenial(w EventWriter, message string) error {
	events := []models.StreamEvent{
		{Type: models.EventStart, MessageID: "msg_" + uuid.NewString()},
		{Type: models.EventTextStart, ID: DenialTextID},
		{Type: models.EventTextDelta, ID: DenialTextID, Delta: message},
		{Type: models.EventTextEnd, ID: DenialTextID},
		{Type: models.EventFinish},
	}
	for _, event := range events {
		if err := s.write(w, event); err != nil {
			return err
		}
	}
	s.saveMessage(models.RoleAssistant, stores.TypeAssistantMessage, []models.Model_Part{models.TextOf(message)})
	return w.WriteDone()
}

// runSteps is the tool loop. A step that produces no function calls ends
// it, as does reaching the step limit.
func (s *ChatSession) runSteps(ctx context.Context, history []models.Message, w EventWriter) error {
	maxSteps := s.Agent.MaxSteps
	if maxSteps <= 0 {
		maxSteps = myai3.DefaultMaxSteps
	}

	for step := 0; step < maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.write(w, models.StreamEvent{Type: models.EventStartStep}); err != nil {
			return err
		}

		parts, err := s.processStream(ctx, history, w)
		if err != nil {
			return err
		}

		var calls []*models.FunctionCall
		for _, p := range parts {
			if p.FunctionCall != nil {
				calls = append(calls, p.FunctionCall)
			}
		}

		if len(parts) > 0 {
			history = append(history, models.Message{Role: models.RoleAssistant, Parts: parts})
			s.saveMessage(models.RoleAssistant, stores.TypeAssistantMessage, parts)
		}

		if len(calls) > 0 {
			responses, err := s.executeCalls(ctx, step, calls, w)
			if err != nil {
				return err
			}
			history = append(history, models.Message{Role: models.RoleTool, Parts: responses})
			s.saveMessage(models.RoleTool, stores.TypeFunctionResponse, responses)
		}

		if err := s.write(w, models.StreamEvent{Type: models.EventFinishStep}); err != nil {
			return err
		}

		if len(calls) == 0 {
			return nil
		}
	}

	s.Logger.Warn().Int("max_steps", maxSteps).Msg("Step limit reached")
	return nil
}

// block tracks the text or reasoning part currently open on the stream.
type block struct {
	kind string // "text" or "reasoning"
	id   string
	buf  strings.Builder
}

// processStream runs one model turn, forwarding deltas as they arrive. It
// returns the turn's parts with consecutive deltas merged.
func (s *ChatSession) processStream(ctx context.Context, history []models.Message, w EventWriter) ([]models.Model_Part, error) {
	// Cancelling on return releases a provider blocked on a send.
	turnCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	resChan, errChan := s.Agent.Run_Stream(turnCtx, history)

	var parts []models.Model_Part
	var open *block

	closeBlock := func() error {
		if open == nil {
			return nil
		}
		endType := models.EventTextEnd
		if open.kind == "reasoning" {
			endType = models.EventReasoningEnd
			parts = append(parts, models.ReasoningOf(open.buf.String()))
		} else {
			parts = append(parts, models.TextOf(open.buf.String()))
		}
		id := open.id
		open = nil
		return s.write(w, models.StreamEvent{Type: endType, ID: id})
	}

	delta := func(kind, text string) error {
		if open != nil && open.kind != kind {
			if err := closeBlock(); err != nil {
				return err
			}
		}
		startType, deltaType := models.EventTextStart, models.EventTextDelta
		if kind == "reasoning" {
			startType, deltaType = models.EventReasoningStart, models.EventReasoningDelta
		}
		if open == nil {
			open = &block{kind: kind, id: kind + "_" + uuid.NewString()}
			if err := s.write(w, models.StreamEvent{Type: startType, ID: open.id}); err != nil {
				return err
			}
		}
		open.buf.WriteString(text)
		return s.write(w, models.StreamEvent{Type: deltaType, ID: open.id, Delta: text})
	}

	for resChan != nil || errChan != nil {
		select {
		case <-ctx.Done():
			if err := closeBlock(); err != nil {
				return nil, err
			}
			return nil, ctx.Err()

		case chunk, ok := <-resChan:
			if !ok {
				resChan = nil
				continue
			}
			for _, p := range chunk.Parts {
				var err error
				switch {
				case p.Reasoning != nil && *p.Reasoning != "":
					err = delta("reasoning", *p.Reasoning)
				case p.Text != nil && *p.Text != "":
					err = delta("text", *p.Text)
				case p.FunctionCall != nil:
					if err = closeBlock(); err == nil {
						parts = append(parts, p)
					}
				}
				if err != nil {
					return nil, err
				}
			}

		case streamErr, ok := <-errChan:
			if !ok {
				errChan = nil
				continue
			}
			if streamErr != nil {
				if err := closeBlock(); err != nil {
					return nil, err
				}
				return nil, fmt.Errorf("model stream failed: %w", streamErr)
			}
		}
	}

	if err := closeBlock(); err != nil {
		return nil, err
	}
	return parts, nil
}

// executeCalls runs the turn's function calls one at a time and returns
// their responses in call order.
func (s *ChatSession) executeCalls(ctx context.Context, step int, calls []*models.FunctionCall, w EventWriter) ([]models.Model_Part, error) {
	responses := make([]models.Model_Part, 0, len(calls))
	for _, call := range calls {
		args := call.Args
		if args == nil {
			args = map[string]interface{}{}
		}
		if err := s.write(w, models.StreamEvent{
			Type:       models.EventToolInputAvailable,
			ToolCallID: call.ID,
			ToolName:   call.Name,
			Input:      args,
		}); err != nil {
			return nil, err
		}

		started := time.Now()
		result, execErr := s.Agent.ExecuteTool(ctx, call.Name, args)
		elapsed := time.Since(started)

		trace := &stores.ExecutionTrace{
			ConversationID: s.ChatID,
			ToolCallID:     call.ID,
			Step:           step,
			Tool:           call.Name,
			Status:         stores.TraceStatusOK,
			Details:        map[string]any{"input": args},
			DurationMS:     elapsed.Milliseconds(),
		}

		var response interface{}
		var event models.StreamEvent
		if execErr != nil {
			s.Logger.Warn().Err(execErr).Str("tool", call.Name).Msg("Tool call failed")
			response = map[string]interface{}{"error": execErr.Error()}
			event = models.StreamEvent{Type: models.EventToolOutputError, ToolCallID: call.ID, ErrorText: execErr.Error()}
			trace.Status = stores.TraceStatusError
			trace.ErrorText = execErr.Error()
		} else {
			s.Logger.Debug().Str("tool", call.Name).Dur("elapsed", elapsed).Msg("Tool call finished")
			response = result
			event = models.StreamEvent{Type: models.EventToolOutputAvailable, ToolCallID: call.ID, Output: result}
			trace.Details["output"] = result
		}
		s.saveTrace(trace)

		if err := s.write(w, event); err != nil {
			return nil, err
		}
		responses = append(responses, models.Model_Part{
			FunctionResponse: &models.FunctionResponse{ID: call.ID, Name: call.Name, Response: response},
		})
	}
	return responses, nil
}

func (s *ChatSession) write(w EventWriter, event models.StreamEvent) error {
	if err := w.WriteEvent(event); err != nil {
		s.Logger.Error().Err(err).Str("event", event.Type).Msg("Error writing stream event")
		return &AgentError{Message: "Error writing stream event", Fatal: true}
	}
	return nil
}

// saveMessage persists one transcript entry when a store is configured.
// Failures are logged only.
func (s *ChatSession) saveMessage(role, messageType string, parts interface{}) {
	if s.Store == nil || s.ChatID == "" {
		return
	}
	if err := s.Store.SaveMessage(s.ChatID, role, messageType, parts); err != nil {
		s.Logger.Error().Err(err).Str("type", messageType).Msg("Error saving message")
	}
}

func (s *ChatSession) saveTrace(trace *stores.ExecutionTrace) {
	if s.Traces == nil || s.ChatID == "" {
		return
	}
	if err := s.Traces.SaveTrace(trace); err != nil {
		s.Logger.Error().Err(err).Str("tool", trace.Tool).Msg("Error saving execution trace")
	}
}
