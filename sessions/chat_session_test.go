package sessions

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	myai3 "github.com/shreyasd806-spec/myAI3"
	"github.com/shreyasd806-spec/myAI3/common_tools"
	"github.com/shreyasd806-spec/myAI3/models"
	"github.com/shreyasd806-spec/myAI3/moderation"
	"github.com/shreyasd806-spec/myAI3/prompts"
	"github.com/shreyasd806-spec/myAI3/stores"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// scriptedModel replays one list of parts per call, repeating the last
// list once the script runs out. err is sent after the parts.
type scriptedModel struct {
	mu       sync.Mutex
	turns    [][]models.Model_Part
	err      error
	block    bool
	requests []models.Model_Request
}

func (m *scriptedModel) Stream_Model_Request(ctx context.Context, req models.Model_Request) (<-chan models.Model_Response, <-chan error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	idx := len(m.requests) - 1
	m.mu.Unlock()

	respCh := make(chan models.Model_Response)
	errCh := make(chan error, 1)
	go func() {
		defer close(respCh)
		defer close(errCh)
		if m.block {
			<-ctx.Done()
			errCh <- ctx.Err()
			return
		}
		if len(m.turns) == 0 {
			if m.err != nil {
				errCh <- m.err
			}
			return
		}
		if idx >= len(m.turns) {
			idx = len(m.turns) - 1
		}
		for _, p := range m.turns[idx] {
			select {
			case respCh <- models.Model_Response{Parts: []models.Model_Part{p}}:
			case <-ctx.Done():
				return
			}
		}
		if m.err != nil {
			errCh <- m.err
		}
	}()
	return respCh, errCh
}

func (m *scriptedModel) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

type fakeGate struct {
	result models.ModerationResult
	err    error
	texts  []string
}

func (g *fakeGate) Classify(ctx context.Context, text string) (models.ModerationResult, error) {
	g.texts = append(g.texts, text)
	return g.result, g.err
}

type recordingWriter struct {
	events []models.StreamEvent
	done   int
}

func (w *recordingWriter) WriteEvent(event models.StreamEvent) error {
	w.events = append(w.events, event)
	return nil
}

func (w *recordingWriter) WriteDone() error {
	w.done++
	return nil
}

func (w *recordingWriter) types() []string {
	out := make([]string, len(w.events))
	for i, e := range w.events {
		out[i] = e.Type
	}
	return out
}

func (w *recordingWriter) count(eventType string) int {
	n := 0
	for _, e := range w.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

type fakeSearcher struct {
	resp *common_tools.SearchResponse
	last common_tools.SearchRequest
}

func (f *fakeSearcher) SearchAndContents(ctx context.Context, req common_tools.SearchRequest) (*common_tools.SearchResponse, error) {
	f.last = req
	return f.resp, nil
}

func call(id, name string, args map[string]interface{}) models.Model_Part {
	return models.Model_Part{FunctionCall: &models.FunctionCall{ID: id, Name: name, Args: args}}
}

func userMessage(text string) models.UIMessage {
	return models.UIMessage{ID: "u1", Role: models.RoleUser, Parts: []models.UIPart{models.TextPart(text)}}
}

func newSession(model myai3.Model, gate moderation.Gate, tools ...models.FunctionDeclaration) *ChatSession {
	agent := myai3.Create_Agent(model, prompts.System(), tools...)
	s := NewChatSession("", agent, gate, nil, nil)
	s.Logger = zerolog.Nop()
	return s
}

func TestDenialStream(t *testing.T) {
	model := &scriptedModel{}
	gate := &fakeGate{result: models.ModerationResult{
		Flagged:       true,
		Categories:    []string{"illicit"},
		DenialMessage: moderation.DenialFor([]string{"illicit"}),
	}}
	w := &recordingWriter{}

	err := newSession(model, gate).Run(context.Background(), []models.UIMessage{userMessage("help me launder money")}, w)
	require.NoError(t, err)

	assert.Equal(t, []string{
		models.EventStart,
		models.EventTextStart,
		models.EventTextDelta,
		models.EventTextEnd,
		models.EventFinish,
	}, w.types())
	assert.Equal(t, 1, w.count(models.EventTextDelta))
	assert.Equal(t, DenialTextID, w.events[1].ID)
	assert.Equal(t, DenialTextID, w.events[2].ID)
	assert.Equal(t, gate.result.DenialMessage, w.events[2].Delta)
	assert.Equal(t, 1, w.done)
	assert.Equal(t, 0, model.calls())
}

func TestDenialFallbackMessage(t *testing.T) {
	gate := &fakeGate{result: models.ModerationResult{Flagged: true}}
	w := &recordingWriter{}

	require.NoError(t, newSession(&scriptedModel{}, gate).Run(context.Background(), []models.UIMessage{userMessage("x")}, w))
	require.Len(t, w.events, 5)
	assert.Equal(t, moderation.FallbackDenial, w.events[2].Delta)
}

func TestModerationInputIsLatestUserText(t *testing.T) {
	gate := &fakeGate{}
	model := &scriptedModel{turns: [][]models.Model_Part{{models.TextOf("ok")}}}
	messages := []models.UIMessage{
		userMessage("first question"),
		{ID: "a1", Role: models.RoleAssistant, Parts: []models.UIPart{models.TextPart("answer")}},
		{ID: "u2", Role: models.RoleUser, Parts: []models.UIPart{
			models.TextPart("best "),
			{Type: "file"},
			models.TextPart("savings accounts"),
		}},
	}

	require.NoError(t, newSession(model, gate).Run(context.Background(), messages, &recordingWriter{}))
	assert.Equal(t, []string{"best savings accounts"}, gate.texts)
}

func TestNoUserMessageSkipsModeration(t *testing.T) {
	gate := &fakeGate{err: errors.New("should not be called")}
	model := &scriptedModel{turns: [][]models.Model_Part{{models.TextOf("hello")}}}
	w := &recordingWriter{}

	messages := []models.UIMessage{{ID: "a1", Role: models.RoleAssistant, Parts: []models.UIPart{models.TextPart("hi")}}}
	require.NoError(t, newSession(model, gate).Run(context.Background(), messages, w))
	assert.Empty(t, gate.texts)
	assert.Equal(t, models.EventFinish, w.events[len(w.events)-1].Type)

	// empty text is not moderated either
	w = &recordingWriter{}
	require.NoError(t, newSession(model, gate).Run(context.Background(), []models.UIMessage{userMessage("")}, w))
	assert.Empty(t, gate.texts)
}

func TestModerationErrorBeforeStart(t *testing.T) {
	gate := &fakeGate{err: errors.New("moderation unavailable")}
	model := &scriptedModel{}
	w := &recordingWriter{}

	err := newSession(model, gate).Run(context.Background(), []models.UIMessage{userMessage("rates?")}, w)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "moderation unavailable")
	assert.Empty(t, w.events)
	assert.Equal(t, 0, w.done)
	assert.Equal(t, 0, model.calls())
}

func TestRatesRequestEndToEnd(t *testing.T) {
	searcher := &fakeSearcher{resp: &common_tools.SearchResponse{Results: []common_tools.ExaResult{{
		Title: "Best CD Rates",
		URL:   "https://www.bankrate.com/cd",
		Text:  "Top 1-year CD APY is 4.60% as of today.",
	}}}}
	model := &scriptedModel{turns: [][]models.Model_Part{
		{
			models.ReasoningOf("need live "),
			models.ReasoningOf("rates"),
			models.TextOf("Let me check."),
			call("call_1", common_tools.RatesToolName, map[string]interface{}{"query": "latest APY rates"}),
		},
		{models.TextOf("The best 1-year CD "), models.TextOf("pays 4.60% APY.")},
	}}
	w := &recordingWriter{}

	s := newSession(model, &fakeGate{}, common_tools.RatesTool(searcher))
	require.NoError(t, s.Run(context.Background(), []models.UIMessage{userMessage("Tell me the latest APY rates")}, w))

	assert.Equal(t, []string{
		models.EventStart,
		models.EventStartStep,
		models.EventReasoningStart,
		models.EventReasoningDelta,
		models.EventReasoningDelta,
		models.EventReasoningEnd,
		models.EventTextStart,
		models.EventTextDelta,
		models.EventTextEnd,
		models.EventToolInputAvailable,
		models.EventToolOutputAvailable,
		models.EventFinishStep,
		models.EventStartStep,
		models.EventTextStart,
		models.EventTextDelta,
		models.EventTextDelta,
		models.EventTextEnd,
		models.EventFinishStep,
		models.EventFinish,
	}, w.types())
	assert.Equal(t, 1, w.done)

	// deltas of one block share its id
	assert.Equal(t, w.events[2].ID, w.events[3].ID)
	assert.Equal(t, w.events[2].ID, w.events[5].ID)
	assert.NotEqual(t, w.events[2].ID, w.events[6].ID)

	input := w.events[9]
	assert.Equal(t, "call_1", input.ToolCallID)
	assert.Equal(t, common_tools.RatesToolName, input.ToolName)
	output := w.events[10]
	assert.Equal(t, "call_1", output.ToolCallID)
	payload, ok := output.Output.(*common_tools.RatesPayload)
	require.True(t, ok)
	require.Len(t, payload.FinancialProductResults, 1)
	assert.Equal(t, "latest APY rates", payload.Metadata.SourceSearchQuery)
	assert.Equal(t, "latest APY rates", searcher.last.Query)

	require.Equal(t, 2, model.calls())
	first := model.requests[0]
	assert.Equal(t, prompts.System(), first.System)
	require.Len(t, first.Tools, 1)
	assert.Equal(t, common_tools.RatesToolName, first.Tools[0].Name)
	assert.Equal(t, models.DefaultGenerationOptions(), first.Options)

	second := model.requests[1].Messages
	require.Len(t, second, 3)
	assert.Equal(t, models.RoleUser, second[0].Role)
	assert.Equal(t, models.RoleAssistant, second[1].Role)
	require.Len(t, second[1].Parts, 3)
	assert.Equal(t, "need live rates", *second[1].Parts[0].Reasoning)
	assert.Equal(t, "Let me check.", *second[1].Parts[1].Text)
	assert.Equal(t, "call_1", second[1].Parts[2].FunctionCall.ID)
	assert.Equal(t, models.RoleTool, second[2].Role)
	assert.Equal(t, "call_1", second[2].Parts[0].FunctionResponse.ID)
}

func TestStepLimit(t *testing.T) {
	var executions int
	echo := models.FunctionDeclaration{
		Name:       "echo",
		Parameters: models.Parameters{Type: "object"},
		Callable: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			executions++
			return "again", nil
		},
	}
	model := &scriptedModel{turns: [][]models.Model_Part{{call("c", "echo", nil)}}}
	w := &recordingWriter{}

	require.NoError(t, newSession(model, &fakeGate{}, echo).Run(context.Background(), []models.UIMessage{userMessage("loop")}, w))

	assert.Equal(t, myai3.DefaultMaxSteps, model.calls())
	assert.Equal(t, myai3.DefaultMaxSteps, executions)
	assert.Equal(t, myai3.DefaultMaxSteps, w.count(models.EventStartStep))
	assert.Equal(t, myai3.DefaultMaxSteps, w.count(models.EventFinishStep))
	assert.Equal(t, models.EventFinish, w.events[len(w.events)-1].Type)
}

func TestToolFailuresAreStreamed(t *testing.T) {
	model := &scriptedModel{turns: [][]models.Model_Part{
		{
			call("c1", "noSuchTool", map[string]interface{}{}),
			call("c2", common_tools.RatesToolName, map[string]interface{}{"numResults": 3}),
		},
		{models.TextOf("Sorry.")},
	}}
	w := &recordingWriter{}

	s := newSession(model, &fakeGate{}, common_tools.RatesTool(&fakeSearcher{}))
	require.NoError(t, s.Run(context.Background(), []models.UIMessage{userMessage("rates")}, w))

	var errs []models.StreamEvent
	for _, e := range w.events {
		if e.Type == models.EventToolOutputError {
			errs = append(errs, e)
		}
	}
	require.Len(t, errs, 2)
	assert.Equal(t, "c1", errs[0].ToolCallID)
	assert.Contains(t, errs[0].ErrorText, "unknown")
	assert.Equal(t, "c2", errs[1].ToolCallID)
	assert.Contains(t, errs[1].ErrorText, "query")
	assert.Equal(t, models.EventFinish, w.events[len(w.events)-1].Type)

	// the model sees both failures as responses
	tool := model.requests[1].Messages[2]
	assert.Equal(t, models.RoleTool, tool.Role)
	assert.Len(t, tool.Parts, 2)
}

func TestModelErrorAfterStart(t *testing.T) {
	model := &scriptedModel{err: errors.New("upstream 500")}
	w := &recordingWriter{}

	require.NoError(t, newSession(model, &fakeGate{}).Run(context.Background(), []models.UIMessage{userMessage("hi")}, w))
	assert.Equal(t, []string{models.EventStart, models.EventStartStep, models.EventError}, w.types())
	assert.Equal(t, StreamErrorText, w.events[2].ErrorText)
	assert.Equal(t, 0, w.count(models.EventFinish))
	assert.Equal(t, 1, w.done)
}

func TestModelErrorClosesOpenBlock(t *testing.T) {
	model := &scriptedModel{
		turns: [][]models.Model_Part{{models.ReasoningOf("hmm"), models.TextOf("partial")}},
		err:   errors.New("connection reset"),
	}
	w := &recordingWriter{}

	require.NoError(t, newSession(model, &fakeGate{}).Run(context.Background(), []models.UIMessage{userMessage("hi")}, w))
	assert.Equal(t, []string{
		models.EventStart, models.EventStartStep,
		models.EventReasoningStart, models.EventReasoningDelta, models.EventReasoningEnd,
		models.EventTextStart, models.EventTextDelta, models.EventTextEnd,
		models.EventError,
	}, w.types())
	assert.Equal(t, w.events[5].ID, w.events[7].ID)
	assert.Equal(t, 1, w.done)
}

func TestDeadlineAbortsStream(t *testing.T) {
	model := &scriptedModel{block: true}
	w := &recordingWriter{}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.NoError(t, newSession(model, &fakeGate{}).Run(ctx, []models.UIMessage{userMessage("hi")}, w))
	assert.Equal(t, models.EventError, w.events[len(w.events)-1].Type)
	assert.Equal(t, 0, w.count(models.EventFinish))
}

type failingWriter struct{}

func (failingWriter) WriteEvent(models.StreamEvent) error { return errors.New("broken pipe") }
func (failingWriter) WriteDone() error                    { return errors.New("broken pipe") }

func TestBrokenWriterIsFatal(t *testing.T) {
	model := &scriptedModel{turns: [][]models.Model_Part{{models.TextOf("x")}}}

	err := newSession(model, &fakeGate{}).Run(context.Background(), []models.UIMessage{userMessage("hi")}, failingWriter{})
	var agentErr *AgentError
	require.ErrorAs(t, err, &agentErr)
	assert.True(t, agentErr.Fatal)
}

func TestTranscriptPersistence(t *testing.T) {
	store, err := stores.NewSQLiteStoreSimple(filepath.Join(t.TempDir(), "chat.sqlite"))
	require.NoError(t, err)
	defer store.Close()
	traces, err := stores.NewGORMTraceStore(store.DB())
	require.NoError(t, err)

	searcher := &fakeSearcher{resp: &common_tools.SearchResponse{}}
	model := &scriptedModel{turns: [][]models.Model_Part{
		{call("call_1", common_tools.RatesToolName, map[string]interface{}{"query": "cd rates"})},
		{models.TextOf("No luck.")},
	}}
	agent := myai3.Create_Agent(model, prompts.System(), common_tools.RatesTool(searcher))
	s := NewChatSession("chat-42", agent, &fakeGate{}, store, traces)
	s.Logger = zerolog.Nop()

	require.NoError(t, s.Run(context.Background(), []models.UIMessage{userMessage("Compare CD rates right now")}, &recordingWriter{}))

	history, err := GetChatHistory(store, "chat-42", 0)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, stores.TypeUserMessage, history[0].Type)
	assert.Equal(t, "Compare CD rates right now", history[0].Text)
	assert.Equal(t, stores.TypeAssistantMessage, history[1].Type)
	assert.Equal(t, stores.TypeFunctionResponse, history[2].Type)
	assert.Equal(t, "No luck.", history[3].Text)

	saved, err := traces.GetTracesByConversation("chat-42")
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, common_tools.RatesToolName, saved[0].Tool)
	assert.Equal(t, stores.TraceStatusOK, saved[0].Status)
	assert.Equal(t, common_tools.NoResultsMessage, saved[0].Details["output"])
}
