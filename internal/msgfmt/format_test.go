package msgfmt

import (
	"strings"
	"testing"

	"github.com/casualjim/mobileuse/messages"
	"github.com/casualjim/mobileuse/state"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscript(t *testing.T) {
	log := state.Log{
		messages.New().Instructions("You are the Executor.\nMore rules").Erase(),
		messages.New().UserPrompt("type hello").Erase(),
		messages.New().WithSender("executor").ToolCall(messages.ToolCallData{
			ID: "c1", Name: "input_text", Arguments: `{"text": "hello"}`,
		}).Erase(),
		messages.New().ToolResponse("c1", "input_text", "Successfully typed hello", messages.StatusSuccess).Erase(),
		messages.New().ToolResponse("c2", "list_packages", "Failed to list packages.", messages.StatusError).Erase(),
		messages.New().AssistantMessage("done").Erase(),
	}

	var buf strings.Builder
	require.NoError(t, Transcript(&buf, log))

	out := buf.String()
	assert.Contains(t, out, color.BlueString("System")+": You are the Executor.\n")
	assert.NotContains(t, out, "More rules")
	assert.Contains(t, out, color.CyanString("User")+": type hello")
	assert.Contains(t, out, color.MagentaString("executor")+": "+color.YellowString("input_text")+`{"text"="hello"}`)
	assert.Contains(t, out, color.YellowString("input_text")+" ["+color.GreenString("success")+"]: Successfully typed hello")
	assert.Contains(t, out, "["+color.RedString("error")+"]: Failed to list packages.")
	assert.Contains(t, out, color.MagentaString("Assistant")+": done")
}

func TestSummary(t *testing.T) {
	s := state.New("greet")
	s.AgentsThoughts = []string{"typed the greeting"}

	var buf strings.Builder
	require.NoError(t, Summary(&buf, 3, 1, false, s))
	assert.Contains(t, buf.String(), color.GreenString("settled")+" after 3 ticks, 1 tool calls")
	assert.Contains(t, buf.String(), "typed the greeting")

	buf.Reset()
	require.NoError(t, Summary(&buf, 3, 1, true, state.New("greet")))
	assert.Contains(t, buf.String(), color.RedString("failed"))
	assert.NotContains(t, buf.String(), "Last thought")
}
