package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/casualjim/mobileuse/device"
	"github.com/casualjim/mobileuse/events"
	"github.com/casualjim/mobileuse/messages"
	"github.com/casualjim/mobileuse/provider"
	"github.com/casualjim/mobileuse/state"
	"github.com/casualjim/mobileuse/tool"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	reply  messages.AssistantMessage
	err    error
	panics bool
	calls  []provider.CompletionParams
}

func (f *fakeProvider) ChatCompletion(_ context.Context, params provider.CompletionParams) (messages.Message[messages.AssistantMessage], error) {
	f.calls = append(f.calls, params)
	if f.panics {
		panic("provider exploded")
	}
	if f.err != nil {
		return messages.Message[messages.AssistantMessage]{}, f.err
	}
	return messages.New().WithRunID(params.RunID).Assistant(f.reply), nil
}

type fakeModel struct {
	prov *fakeProvider
}

func (fakeModel) Name() string                  { return "fake-model" }
func (m fakeModel) Provider() provider.Provider { return m.prov }

type recordingHook struct {
	calls []string
	ticks []events.Tick
}

func (r *recordingHook) Before(_ context.Context, t events.Tick) { r.calls = append(r.calls, "before") }
func (r *recordingHook) OnError(_ context.Context, t events.Tick, _ error) {
	r.calls = append(r.calls, "error")
}

func (r *recordingHook) After(_ context.Context, t events.Tick) {
	r.calls = append(r.calls, "after")
	r.ticks = append(r.ticks, t)
}

type noArgs struct {
	tool.Thought
}

func testCatalog(t *testing.T) *tool.Catalog {
	t.Helper()
	mk := func(name string) tool.Tool {
		return tool.Must(tool.Spec[noArgs]{
			Name:      name,
			Run:       func(context.Context, tool.Env, noArgs) (tool.Result, error) { return tool.Result{}, nil },
			OnSuccess: func(noArgs) string { return "ok" },
			OnFailure: func(noArgs) string { return "failed" },
		})
	}
	c, err := tool.NewCatalog(mk("input_text"), mk("list_packages"))
	require.NoError(t, err)
	return c
}

func testDevice(t *testing.T, platform device.Platform) *device.Context {
	t.Helper()
	dc, err := device.New(device.Info{
		HostPlatform: device.MacOS,
		Platform:     platform,
		ID:           "device-1",
		Width:        1170,
		Height:       2532,
	}, device.WithTraceID("trace-1"))
	require.NoError(t, err)
	return dc
}

func newNode(t *testing.T, fp *fakeProvider, platform device.Platform, options ...Option) *Node {
	t.Helper()
	n, err := New(fakeModel{fp}, testCatalog(t), testDevice(t, platform), options...)
	require.NoError(t, err)
	return n
}

func toolCallReply() messages.AssistantMessage {
	return messages.AssistantMessage{ToolCalls: []messages.ToolCallData{{
		ID:        "call_1",
		Name:      "input_text",
		Arguments: `{"agent_thought":"type it","text":"Hello World"}`,
	}}}
}

func dangling() messages.Message[messages.ModelMessage] {
	return messages.New().ToolCall(messages.ToolCallData{ID: "call_0", Name: "input_text", Arguments: "{}"}).Erase()
}

func TestNew(t *testing.T) {
	fp := &fakeProvider{}
	dc := testDevice(t, device.Android)
	catalog := testCatalog(t)

	_, err := New(nil, catalog, dc)
	assert.Error(t, err)
	_, err = New(fakeModel{fp}, nil, dc)
	assert.Error(t, err)
	_, err = New(fakeModel{fp}, catalog, nil)
	assert.Error(t, err)

	runID := uuid.New()
	n, err := New(fakeModel{fp}, catalog, dc, WithRunID(runID))
	require.NoError(t, err)
	assert.Equal(t, Idle, n.Phase())
	assert.Equal(t, runID, n.runID)
}

func TestNoDecisions(t *testing.T) {
	fp := &fakeProvider{reply: toolCallReply()}
	n := newNode(t, fp, device.Android)
	s := state.New("open settings")
	s.StructuredDecisions = "   "

	u, err := n.Run(context.Background(), s)
	require.NoError(t, err)
	assert.Empty(t, fp.calls)
	assert.Equal(t, []string{NoDecisionsThought}, u.AgentsThoughts)
	assert.Empty(t, u.Messages)
	assert.Empty(t, u.ExecutorMessages)
	assert.Nil(t, u.ExecutorFailed)
	assert.Equal(t, Idle, n.Phase())
}

func TestDanglingToolCallRecovery(t *testing.T) {
	fp := &fakeProvider{reply: toolCallReply()}
	n := newNode(t, fp, device.Android)

	s := state.New("open settings")
	s.StructuredDecisions = "type Hello World"
	s.ExecutorRetrigger = true
	s.Messages = state.Log{
		messages.New().UserPrompt("plan").Erase(),
		dangling(),
	}
	s.ExecutorMessages = state.Log{
		messages.New().AssistantMessage("earlier").Erase(),
		messages.New().ToolResponse("x", "input_text", "ok", messages.StatusSuccess).Erase(),
		messages.New().AssistantMessage("more").Erase(),
		dangling(),
	}

	u, err := n.Run(context.Background(), s)
	require.NoError(t, err)
	assert.Empty(t, fp.calls)
	assert.Equal(t, Recovering, n.Phase())

	require.NotNil(t, u.ExecutorRetrigger)
	require.NotNil(t, u.ExecutorFailed)
	assert.False(t, *u.ExecutorRetrigger)
	assert.True(t, *u.ExecutorFailed)
	assert.True(t, u.ReplaceExecutorMessages)

	s.Apply(u)
	assert.False(t, s.ExecutorRetrigger)
	assert.True(t, s.ExecutorFailed)
	require.Len(t, s.ExecutorMessages, 1)
	assert.Equal(t, s.Messages[len(s.Messages)-1], s.ExecutorMessages[0])
	assert.Len(t, s.Messages, 2)

	t.Run("idempotent", func(t *testing.T) {
		before := s.Clone()
		u2, err := n.Run(context.Background(), s)
		require.NoError(t, err)
		s.Apply(u2)

		assert.Empty(t, fp.calls)
		assert.Equal(t, before.ExecutorRetrigger, s.ExecutorRetrigger)
		assert.Equal(t, before.ExecutorFailed, s.ExecutorFailed)
		assert.Equal(t, before.ExecutorMessages, s.ExecutorMessages)
		assert.Equal(t, before.Messages, s.Messages)
		assert.Equal(t, before.AgentsThoughts, s.AgentsThoughts)
	})
}

func TestDispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("builds the conversation and binds tools sequentially", func(t *testing.T) {
		fp := &fakeProvider{reply: toolCallReply()}
		n := newNode(t, fp, device.Android)

		s := state.New("greet")
		s.StructuredDecisions = `{"action":"type","text":"Hello World"}`
		s.CortexLastThought = "the search field is focused"
		s.ExecutorMessages = state.Log{
			messages.New().AssistantMessage("previous").Erase(),
		}

		u, err := n.Run(ctx, s)
		require.NoError(t, err)
		require.Len(t, fp.calls, 1)
		params := fp.calls[0]

		assert.False(t, params.ParallelToolCalls)
		assert.Equal(t, provider.ToolChoiceAuto, params.ToolChoice)
		require.Len(t, params.Tools, 2)
		assert.Equal(t, "input_text", params.Tools[0].Name)
		assert.Equal(t, "list_packages", params.Tools[1].Name)

		require.Len(t, params.Messages, 4)
		sys, ok := messages.As[messages.InstructionsMessage](params.Messages[0])
		require.True(t, ok)
		assert.Contains(t, sys.Payload.Content, "android device")
		assert.Contains(t, sys.Payload.Content, "Device ID: device-1")
		rationale, ok := messages.As[messages.UserMessage](params.Messages[1])
		require.True(t, ok)
		assert.Equal(t, "the search field is focused", rationale.Payload.Content.Text())
		decision, ok := messages.As[messages.UserMessage](params.Messages[2])
		require.True(t, ok)
		assert.Equal(t, s.StructuredDecisions, decision.Payload.Content.Text())
		assert.Equal(t, s.ExecutorMessages[0], params.Messages[3])

		require.Len(t, u.Messages, 1)
		require.Len(t, u.ExecutorMessages, 1)
		assert.False(t, u.ReplaceExecutorMessages)
		assert.True(t, messages.IsDanglingToolCall(u.ExecutorMessages[0]))
		assert.Equal(t, NodeName, u.ExecutorMessages[0].Sender)
		require.NotNil(t, u.CortexLastThought)
		assert.Equal(t, "the search field is focused", *u.CortexLastThought)
		assert.Equal(t, AwaitingTool, n.Phase())

		s.Apply(u)
		assert.Len(t, s.ExecutorMessages, 2)
		assert.Len(t, s.Messages, 1)
		assert.Equal(t, []string{"call_1"}, []string{s.PendingToolCalls()[0].ID})
	})

	t.Run("falls back to the last agent thought", func(t *testing.T) {
		fp := &fakeProvider{reply: messages.AssistantMessage{Content: messages.AssistantContentOrParts{Content: "done"}}}
		n := newNode(t, fp, device.Android)

		s := state.New("greet")
		s.StructuredDecisions = "tap OK"
		s.AgentsThoughts = []string{"old", "the dialog is open"}

		u, err := n.Run(ctx, s)
		require.NoError(t, err)
		rationale, ok := messages.As[messages.UserMessage](fp.calls[0].Messages[1])
		require.True(t, ok)
		assert.Equal(t, "the dialog is open", rationale.Payload.Content.Text())
		require.NotNil(t, u.CortexLastThought)
		assert.Equal(t, "the dialog is open", *u.CortexLastThought)
		assert.Equal(t, Idle, n.Phase())
	})

	t.Run("omits the rationale when there is none", func(t *testing.T) {
		fp := &fakeProvider{reply: toolCallReply()}
		n := newNode(t, fp, device.Android)

		s := state.New("greet")
		s.StructuredDecisions = "tap OK"

		u, err := n.Run(ctx, s)
		require.NoError(t, err)
		require.Len(t, fp.calls[0].Messages, 2)
		assert.Nil(t, u.CortexLastThought)
	})

	for _, platform := range []device.Platform{device.Android, device.IOS} {
		t.Run("parallel tool calls disabled on "+string(platform), func(t *testing.T) {
			fp := &fakeProvider{reply: toolCallReply()}
			n := newNode(t, fp, platform)
			s := state.New("greet")
			s.StructuredDecisions = "tap OK"

			_, err := n.Run(ctx, s)
			require.NoError(t, err)
			assert.False(t, fp.calls[0].ParallelToolCalls)
			sys, _ := messages.As[messages.InstructionsMessage](fp.calls[0].Messages[0])
			assert.Contains(t, sys.Payload.Content, string(platform)+" device")
		})
	}
}

func TestHooks(t *testing.T) {
	ctx := context.Background()

	t.Run("provider error", func(t *testing.T) {
		boom := errors.New("rate limited")
		hook := &recordingHook{}
		n := newNode(t, &fakeProvider{err: boom}, device.Android, WithHook(events.Hook(hook)))
		s := state.New("greet")
		s.StructuredDecisions = "tap OK"

		u, err := n.Run(ctx, s)
		assert.ErrorIs(t, err, boom)
		assert.True(t, u.IsZero())
		assert.Equal(t, []string{"before", "error", "after"}, hook.calls)
	})

	t.Run("panic is recovered and after runs", func(t *testing.T) {
		hook := &recordingHook{}
		n := newNode(t, &fakeProvider{panics: true}, device.Android, WithHook(events.Hook(hook)))
		s := state.New("greet")
		s.StructuredDecisions = "tap OK"

		_, err := n.Run(ctx, s)
		var pe *events.PanicError
		assert.ErrorAs(t, err, &pe)
		assert.Equal(t, []string{"before", "error", "after"}, hook.calls)
		assert.True(t, hook.ticks[0].Panicked)
	})

	t.Run("ticks are numbered", func(t *testing.T) {
		hook := &recordingHook{}
		n := newNode(t, &fakeProvider{}, device.Android, WithHook(events.Hook(hook)))
		s := state.New("greet")

		for range 2 {
			_, err := n.Run(ctx, s)
			require.NoError(t, err)
		}
		require.Len(t, hook.ticks, 2)
		assert.Equal(t, 1, hook.ticks[0].Seq)
		assert.Equal(t, 2, hook.ticks[1].Seq)
		assert.Equal(t, NodeName, hook.ticks[0].Node)
		assert.Equal(t, "trace-1", hook.ticks[0].TraceID)
		assert.Equal(t, string(Idle), hook.ticks[1].Phase)
	})
}
