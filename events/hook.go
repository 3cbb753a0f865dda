package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/casualjim/mobileuse/pkg/slogx"
	"github.com/go-openapi/strfmt"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Tick describes one node invocation. Run fills in the timing fields, the node sets Phase.
type Tick struct {
	RunID    uuid.UUID       `json:"run_id"`
	Node     string          `json:"node"`
	Seq      int             `json:"seq"`
	TraceID  string          `json:"trace_id,omitempty"`
	Phase    string          `json:"phase,omitempty"`
	Started  strfmt.DateTime `json:"started"`
	Duration time.Duration   `json:"duration_ns,omitempty"`
	Panicked bool            `json:"panicked,omitempty"`
}

// Hook is called around every tick.
type Hook interface {
	Before(context.Context, Tick)
	OnError(context.Context, Tick, error)
	After(context.Context, Tick)
}

// NewCompositeHook calls every hook in order.
func NewCompositeHook(hooks ...Hook) Hook {
	flat := make(compositeHook, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			flat = append(flat, h)
		}
	}
	return flat
}

type compositeHook []Hook

func (c compositeHook) Before(ctx context.Context, t Tick) {
	for _, h := range c {
		h.Before(ctx, t)
	}
}

func (c compositeHook) OnError(ctx context.Context, t Tick, err error) {
	for _, h := range c {
		h.OnError(ctx, t, err)
	}
}

func (c compositeHook) After(ctx context.Context, t Tick) {
	for _, h := range c {
		h.After(ctx, t)
	}
}

// LoggingHook logs tick boundaries with slog.
func LoggingHook() Hook {
	return loggingHook{}
}

type loggingHook struct{}

func tickAttrs(t Tick) []any {
	attrs := []any{
		slogx.LoggerName(t.Node),
		slog.String("run_id", t.RunID.String()),
		slog.Int("seq", t.Seq),
	}
	if t.TraceID != "" {
		attrs = append(attrs, slogx.TraceID(t.TraceID))
	}
	if t.Phase != "" {
		attrs = append(attrs, slog.String("phase", t.Phase))
	}
	return attrs
}

func (loggingHook) Before(ctx context.Context, t Tick) {
	slog.InfoContext(ctx, "Starting "+t.Node, tickAttrs(t)...)
}

func (loggingHook) OnError(ctx context.Context, t Tick, err error) {
	slog.ErrorContext(ctx, t.Node+" failed", append(tickAttrs(t), slogx.Error(err))...)
}

func (loggingHook) After(ctx context.Context, t Tick) {
	slog.InfoContext(ctx, t.Node+" finished", append(tickAttrs(t), slog.Duration("duration", t.Duration))...)
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
