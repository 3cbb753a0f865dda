package events

import (
	"context"
	"log/slog"

	"github.com/casualjim/mobileuse/pkg/slogx"
)

// Publisher sends a payload on a subject. *nats.Conn satisfies it.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Event is the JSON document published for a tick boundary.
type Event struct {
	Type  string `json:"type"`
	Tick  Tick   `json:"tick"`
	Error string `json:"error,omitempty"`
}

// NATSHook publishes tick events on "<prefix>.<run id>". Publish failures are logged
// and never affect the tick.
func NATSHook(pub Publisher, prefix string) Hook {
	return &natsHook{pub: pub, prefix: prefix}
}

type natsHook struct {
	pub    Publisher
	prefix string
}

func (n *natsHook) publish(ctx context.Context, ev Event) {
	subject := n.prefix + "." + ev.Tick.RunID.String()
	if err := n.pub.Publish(subject, mustJSON(ev)); err != nil {
		slog.WarnContext(ctx, "failed to publish tick event", slog.String("subject", subject), slogx.Error(err))
	}
}

func (n *natsHook) Before(ctx context.Context, t Tick) {
	n.publish(ctx, Event{Type: "before", Tick: t})
}

func (n *natsHook) OnError(ctx context.Context, t Tick, err error) {
	n.publish(ctx, Event{Type: "error", Tick: t, Error: err.Error()})
}

func (n *natsHook) After(ctx context.Context, t Tick) {
	n.publish(ctx, Event{Type: "after", Tick: t})
}
