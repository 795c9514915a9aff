package sessions

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/shreyasd806-spec/myAI3/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToModelMessages(t *testing.T) {
	body := `[
		{"id":"u1","role":"user","parts":[{"type":"text","text":"Compare CD rates"}]},
		{"id":"a1","role":"assistant","parts":[
			{"type":"step-start"},
			{"type":"reasoning","text":"thinking"},
			{"type":"text","text":"Checking."},
			{"type":"tool-getCurrentRatesTool","toolCallId":"c1","state":"output-available","input":{"query":"cd"},"output":{"financial_product_results":[]}},
			{"type":"dynamic-tool","toolName":"vectorDatabaseSearch","toolCallId":"c2","state":"output-error","input":{"query":"cd"},"errorText":"boom"},
			{"type":"tool-getCurrentRatesTool","toolCallId":"c3","state":"input-streaming"},
			{"type":"step-start"},
			{"type":"text","text":"Here you go."},
			{"type":"source-url","url":"https://example.com"}
		]},
		{"id":"s1","role":"system","parts":[{"type":"text","text":"ignored"}]},
		{"id":"u2","role":"user","parts":[{"type":"file","url":"x"}]}
	]`
	var messages []models.UIMessage
	require.NoError(t, json.Unmarshal([]byte(body), &messages))

	out := ToModelMessages(messages)
	require.Len(t, out, 4)

	assert.Equal(t, models.RoleUser, out[0].Role)
	assert.Equal(t, "Compare CD rates", *out[0].Parts[0].Text)

	assert.Equal(t, models.RoleAssistant, out[1].Role)
	require.Len(t, out[1].Parts, 3)
	assert.Equal(t, "Checking.", *out[1].Parts[0].Text)
	assert.Equal(t, "getCurrentRatesTool", out[1].Parts[1].FunctionCall.Name)
	assert.Equal(t, map[string]interface{}{"query": "cd"}, out[1].Parts[1].FunctionCall.Args)
	assert.Equal(t, "vectorDatabaseSearch", out[1].Parts[2].FunctionCall.Name)

	assert.Equal(t, models.RoleTool, out[2].Role)
	require.Len(t, out[2].Parts, 2)
	assert.Equal(t, "c1", out[2].Parts[0].FunctionResponse.ID)
	assert.Equal(t, map[string]interface{}{"error": "boom"}, out[2].Parts[1].FunctionResponse.Response)

	assert.Equal(t, models.RoleAssistant, out[3].Role)
	assert.Equal(t, "Here you go.", *out[3].Parts[0].Text)
}

func TestSSEWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	w := NewSSEWriter(rec)

	require.NoError(t, w.WriteEvent(models.StreamEvent{Type: models.EventTextDelta, ID: "t1", Delta: "hi"}))
	require.NoError(t, w.WriteDone())

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "v1", rec.Header().Get("x-vercel-ai-ui-message-stream"))
	assert.Equal(t, "data: {\"type\":\"text-delta\",\"id\":\"t1\",\"delta\":\"hi\"}\n\ndata: [DONE]\n\n", rec.Body.String())
	assert.True(t, rec.Flushed)
}
