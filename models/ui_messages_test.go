package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUIPartUnknownVariantRoundTrip(t *testing.T) {
	in := `{"id":"m1","role":"assistant","parts":[{"type":"source-url","sourceId":"s1","url":"https://bankrate.com","title":"Bankrate"},{"type":"text","text":"hi"}]}`

	var msg UIMessage
	require.NoError(t, json.Unmarshal([]byte(in), &msg))
	require.Len(t, msg.Parts, 2)
	assert.Equal(t, "source-url", msg.Parts[0].Type)

	out, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestUIMessageText(t *testing.T) {
	msg := UIMessage{
		Role: RoleUser,
		Parts: []UIPart{
			TextPart("What's the APY "),
			{Type: "file"},
			TextPart("on a 1-year CD?"),
		},
	}
	assert.Equal(t, "What's the APY on a 1-year CD?", msg.Text())
}

func TestLatestUserMessage(t *testing.T) {
	msgs := []UIMessage{
		{ID: "1", Role: RoleUser},
		{ID: "2", Role: RoleAssistant},
		{ID: "3", Role: RoleUser},
		{ID: "4", Role: RoleAssistant},
	}
	latest, ok := LatestUserMessage(msgs)
	require.True(t, ok)
	assert.Equal(t, "3", latest.ID)

	_, ok = LatestUserMessage([]UIMessage{{Role: RoleAssistant}})
	assert.False(t, ok)

	_, ok = LatestUserMessage(nil)
	assert.False(t, ok)
}

func TestToolPartNames(t *testing.T) {
	static := UIPart{Type: "tool-getCurrentRatesTool"}
	dynamic := UIPart{Type: "dynamic-tool", ToolName: "vectorDatabaseSearch"}

	assert.True(t, static.IsTool())
	assert.True(t, dynamic.IsTool())
	assert.False(t, TextPart("x").IsTool())
	assert.Equal(t, "getCurrentRatesTool", static.ToolNameOf())
	assert.Equal(t, "vectorDatabaseSearch", dynamic.ToolNameOf())
}

func TestGenerationOptionsDefaults(t *testing.T) {
	opts := DefaultGenerationOptions()
	assert.Equal(t, ReasoningLow, opts.ReasoningEffort)
	assert.Equal(t, SummaryAuto, opts.ReasoningSummary)
	assert.False(t, opts.ParallelToolCalls)
	assert.True(t, opts.Valid())

	opts.ReasoningEffort = "extreme"
	assert.False(t, opts.Valid())
}

func TestToolSetDeclarationsSorted(t *testing.T) {
	set := NewToolSet(
		FunctionDeclaration{Name: "vectorDatabaseSearch"},
		FunctionDeclaration{Name: "getCurrentRatesTool"},
	)
	decls := set.Declarations()
	require.Len(t, decls, 2)
	assert.Equal(t, "getCurrentRatesTool", decls[0].Name)
	assert.Equal(t, "vectorDatabaseSearch", decls[1].Name)
}
