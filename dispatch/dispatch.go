// Package dispatch runs the tool calls the executor asked for.
//
// Calls are executed one at a time, in the order the model produced them. Each tool sees
// the state as left by the calls before it. A call the catalog does not know is answered
// with an error response so the model can correct itself. A tool that fails outright
// (returns an error or panics) aborts the tick and its call stays unanswered; the next
// executor tick notices the dangling call and recovers.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/casualjim/mobileuse/device"
	"github.com/casualjim/mobileuse/events"
	"github.com/casualjim/mobileuse/messages"
	"github.com/casualjim/mobileuse/pkg/slogx"
	"github.com/casualjim/mobileuse/pkg/uuidx"
	"github.com/casualjim/mobileuse/state"
	"github.com/casualjim/mobileuse/tool"
	"github.com/fogfish/opts"
	"github.com/google/uuid"
)

// NodeName is the node name in tick events.
const NodeName = "dispatch"

type Option = opts.Option[Node]

var (
	// WithHook sets the lifecycle hook wrapped around every tick.
	WithHook = opts.ForName[Node, events.Hook]("hook")
	// WithRunID tags tick events with the run id.
	WithRunID = opts.ForName[Node, uuid.UUID]("runID")
)

// Node executes pending tool calls against a device.
type Node struct {
	catalog *tool.Catalog
	device  *device.Context
	hook    events.Hook
	runID   uuid.UUID
	seq     int
}

func New(catalog *tool.Catalog, dc *device.Context, options ...Option) (*Node, error) {
	if catalog == nil || catalog.Len() == 0 {
		return nil, fmt.Errorf("dispatch: at least one tool is required")
	}
	if dc == nil {
		return nil, fmt.Errorf("dispatch: device context is required")
	}
	n := &Node{
		catalog: catalog,
		device:  dc,
		hook:    events.LoggingHook(),
		runID:   uuidx.New(),
	}
	if err := opts.Apply(n, options); err != nil {
		return nil, err
	}
	return n, nil
}

// Run answers the pending tool calls of s and returns the combined update.
// When a tool fails nothing is returned for the turn, so it stays dangling as a whole.
func (n *Node) Run(ctx context.Context, s *state.State) (state.Update, error) {
	n.seq++
	tick := events.Tick{RunID: n.runID, Node: NodeName, Seq: n.seq, TraceID: n.device.TraceID()}
	return events.Run(ctx, n.hook, tick, func(ctx context.Context, tk *events.Tick) (state.Update, error) {
		tk.Phase = "running"
		return n.run(ctx, s)
	})
}

func (n *Node) run(ctx context.Context, s *state.State) (state.Update, error) {
	log := slogx.Logger(NodeName).With(slogx.TraceID(n.device.TraceID()))

	calls := s.PendingToolCalls()
	if len(calls) == 0 {
		log.DebugContext(ctx, "no pending tool calls")
		return state.Update{}, nil
	}

	working := s.Clone()
	var combined state.Update
	for _, call := range calls {
		t, ok := n.catalog.Get(call.Name)
		if !ok {
			log.WarnContext(ctx, "model requested an unknown tool",
				slog.String("tool", call.Name), slog.String("call_id", call.ID), slog.Any("available", n.catalog.Names()))
			u := working.MergeUpdate(ctx, n.device, unknownTool(call))
			working.Apply(u)
			combined = combined.Then(u)
			continue
		}

		log.InfoContext(ctx, "invoking tool", slog.String("tool", call.Name), slog.String("call_id", call.ID))
		u, err := t.Invoke(ctx, tool.Env{Device: n.device, State: working, Call: call})
		if err != nil {
			log.ErrorContext(ctx, "tool failed", slog.String("tool", call.Name), slog.String("call_id", call.ID), slogx.Error(err))
			return state.Update{}, fmt.Errorf("dispatch %s (%s): %w", call.Name, call.ID, err)
		}
		working.Apply(u)
		combined = combined.Then(u)
	}
	return combined, nil
}

func unknownTool(call messages.ToolCallData) state.Update {
	msg := messages.New().
		WithSender(NodeName).
		ToolResponse(call.ID, call.Name, fmt.Sprintf("Unknown tool %s", call.Name), messages.StatusError)
	return state.Update{ExecutorMessages: state.Log{msg.Erase()}}
}
