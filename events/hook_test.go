package events

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type mockHook struct {
	calls     []string
	lastTick  Tick
	lastError error
}

func (m *mockHook) Before(_ context.Context, t Tick) {
	m.calls = append(m.calls, "before")
	m.lastTick = t
}

func (m *mockHook) OnError(_ context.Context, t Tick, err error) {
	m.calls = append(m.calls, "error")
	m.lastTick = t
	m.lastError = err
}

func (m *mockHook) After(_ context.Context, t Tick) {
	m.calls = append(m.calls, "after")
	m.lastTick = t
}

type recordingPublisher struct {
	subjects []string
	payloads []gjson.Result
	err      error
}

func (r *recordingPublisher) Publish(subject string, data []byte) error {
	r.subjects = append(r.subjects, subject)
	r.payloads = append(r.payloads, gjson.ParseBytes(data))
	return r.err
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	tick := Tick{RunID: uuid.New(), Node: "executor", Seq: 3}

	t.Run("success", func(t *testing.T) {
		hook := &mockHook{}
		got, err := Run(ctx, hook, tick, func(_ context.Context, tk *Tick) (int, error) {
			tk.Phase = "dispatching"
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, got)
		assert.Equal(t, []string{"before", "after"}, hook.calls)
		assert.Equal(t, "dispatching", hook.lastTick.Phase)
		assert.Equal(t, 3, hook.lastTick.Seq)
		assert.False(t, hook.lastTick.Panicked)
	})

	t.Run("error", func(t *testing.T) {
		hook := &mockHook{}
		boom := errors.New("boom")
		_, err := Run(ctx, hook, tick, func(context.Context, *Tick) (int, error) {
			return 0, boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, []string{"before", "error", "after"}, hook.calls)
		assert.Equal(t, boom, hook.lastError)
	})

	t.Run("panic is recovered and after still runs", func(t *testing.T) {
		hook := &mockHook{}
		got, err := Run(ctx, hook, tick, func(context.Context, *Tick) (string, error) {
			panic("tool blew up")
		})
		assert.Empty(t, got)
		var pe *PanicError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "tool blew up", pe.Value)
		assert.Equal(t, []string{"before", "error", "after"}, hook.calls)
		assert.True(t, hook.lastTick.Panicked)
	})

	t.Run("nil hook", func(t *testing.T) {
		got, err := Run(ctx, nil, tick, func(context.Context, *Tick) (bool, error) { return true, nil })
		require.NoError(t, err)
		assert.True(t, got)
	})
}

func TestCompositeHook(t *testing.T) {
	mock1 := &mockHook{}
	mock2 := &mockHook{}
	composite := NewCompositeHook(mock1, nil, mock2)
	ctx := context.Background()
	tick := Tick{Node: "dispatch"}

	composite.Before(ctx, tick)
	composite.OnError(ctx, tick, errors.New("x"))
	composite.After(ctx, tick)

	assert.Equal(t, []string{"before", "error", "after"}, mock1.calls)
	assert.Equal(t, mock1.calls, mock2.calls)
}

func TestLoggingHook(t *testing.T) {
	hook := LoggingHook()
	tick := Tick{RunID: uuid.New(), Node: "executor", TraceID: "trace-1", Phase: "idle"}
	require.NotPanics(t, func() {
		hook.Before(context.Background(), tick)
		hook.OnError(context.Background(), tick, errors.New("x"))
		hook.After(context.Background(), tick)
	})
}

func TestNATSHook(t *testing.T) {
	pub := &recordingPublisher{}
	runID := uuid.New()
	hook := NATSHook(pub, "mobileuse.ticks")

	_, err := Run(context.Background(), hook, Tick{RunID: runID, Node: "executor", Seq: 1}, func(_ context.Context, tk *Tick) (int, error) {
		tk.Phase = "recovering"
		return 0, errors.New("dangling tool call")
	})
	require.Error(t, err)

	require.Len(t, pub.subjects, 3)
	for _, s := range pub.subjects {
		assert.Equal(t, "mobileuse.ticks."+runID.String(), s)
	}
	assert.Equal(t, "before", pub.payloads[0].Get("type").String())
	assert.Equal(t, "error", pub.payloads[1].Get("type").String())
	assert.Equal(t, "dangling tool call", pub.payloads[1].Get("error").String())
	assert.Equal(t, "after", pub.payloads[2].Get("type").String())
	assert.Equal(t, "recovering", pub.payloads[2].Get("tick.phase").String())
	assert.Equal(t, runID.String(), pub.payloads[2].Get("tick.run_id").String())

	t.Run("publish failures are swallowed", func(t *testing.T) {
		failing := &recordingPublisher{err: errors.New("nats: connection closed")}
		require.NotPanics(t, func() {
			NATSHook(failing, "x").Before(context.Background(), Tick{RunID: runID})
		})
		assert.Len(t, failing.subjects, 1)
	})
}

func TestMustJSON(t *testing.T) {
	assert.JSONEq(t, `{"key":"value"}`, string(mustJSON(map[string]string{"key": "value"})))
	assert.Panics(t, func() {
		mustJSON(make(chan int))
	})
}
