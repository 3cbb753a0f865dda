// Package executor turns the planner's structured decision into one model directed
// tool call turn, and recovers when a previous tool call was left unanswered.
package executor

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"

	"github.com/casualjim/mobileuse/device"
	"github.com/casualjim/mobileuse/events"
	"github.com/casualjim/mobileuse/internal/prompt"
	"github.com/casualjim/mobileuse/messages"
	"github.com/casualjim/mobileuse/pkg/slogx"
	"github.com/casualjim/mobileuse/pkg/stdx"
	"github.com/casualjim/mobileuse/pkg/uuidx"
	"github.com/casualjim/mobileuse/provider"
	"github.com/casualjim/mobileuse/state"
	"github.com/casualjim/mobileuse/tool"
	"github.com/fogfish/opts"
	"github.com/google/uuid"
)

//go:embed executor.md
var systemTemplate string

// NodeName is the sender of executor messages and the node name in tick events.
const NodeName = "executor"

// NoDecisionsThought is recorded when there is nothing to execute.
const NoDecisionsThought = "No structured decisions found, I cannot execute anything."

// Phase is where the executor is in its cycle after a tick.
type Phase string

const (
	Idle         Phase = "idle"
	Dispatching  Phase = "dispatching"
	AwaitingTool Phase = "awaiting_tool"
	Recovering   Phase = "recovering"
)

// Option configures a Node.
type Option = opts.Option[Node]

var (
	// WithHook sets the lifecycle hook wrapped around every tick.
	WithHook = opts.ForName[Node, events.Hook]("hook")
	// WithRunID tags requests and tick events with the run id.
	WithRunID = opts.ForName[Node, uuid.UUID]("runID")
)

// Node is the executor. It is driven one tick at a time by a single goroutine.
type Node struct {
	model   provider.Model
	catalog *tool.Catalog
	device  *device.Context
	hook    events.Hook
	runID   uuid.UUID
	seq     int
	phase   Phase
}

// New creates an executor that binds catalog to model and acts on dc.
func New(model provider.Model, catalog *tool.Catalog, dc *device.Context, options ...Option) (*Node, error) {
	if model == nil {
		return nil, fmt.Errorf("executor: model is required")
	}
	if catalog == nil || catalog.Len() == 0 {
		return nil, fmt.Errorf("executor: at least one tool is required")
	}
	if dc == nil {
		return nil, fmt.Errorf("executor: device context is required")
	}
	n := &Node{
		model:   model,
		catalog: catalog,
		device:  dc,
		hook:    events.LoggingHook(),
		runID:   uuidx.New(),
		phase:   Idle,
	}
	if err := opts.Apply(n, options); err != nil {
		return nil, err
	}
	return n, nil
}

// Phase reports the phase the last tick ended in.
func (n *Node) Phase() Phase {
	return n.phase
}

// Run executes one tick against s and returns the sanitized update. s is only read.
func (n *Node) Run(ctx context.Context, s *state.State) (state.Update, error) {
	n.seq++
	tick := events.Tick{RunID: n.runID, Node: NodeName, Seq: n.seq, TraceID: n.device.TraceID()}
	return events.Run(ctx, n.hook, tick, func(ctx context.Context, tk *events.Tick) (state.Update, error) {
		u, phase, err := n.tick(ctx, s)
		if err == nil {
			n.phase = phase
		}
		tk.Phase = string(n.phase)
		return u, err
	})
}

func (n *Node) tick(ctx context.Context, s *state.State) (state.Update, Phase, error) {
	log := slogx.Logger(NodeName).With(slogx.TraceID(n.device.TraceID()))

	if strings.TrimSpace(s.StructuredDecisions) == "" {
		log.WarnContext(ctx, "no structured decisions found")
		return s.MergeUpdate(ctx, n.device, state.Update{
			AgentsThoughts: []string{NoDecisionsThought},
		}), Idle, nil
	}

	if s.ExecutorMessages.EndsWithDanglingToolCall() {
		log.WarnContext(ctx, "previous tool call was never answered, marking the executor as failed")
		return s.MergeUpdate(ctx, n.device, recoveryUpdate(s)), Recovering, nil
	}

	rationale := s.CortexLastThought
	if rationale == "" {
		rationale, _ = s.LastThought()
	}

	conversation, err := n.conversation(rationale, s)
	if err != nil {
		return state.Update{}, Dispatching, err
	}

	reply, err := n.model.Provider().ChatCompletion(ctx, provider.CompletionParams{
		RunID:             n.runID,
		Model:             n.model,
		Messages:          conversation,
		Tools:             n.catalog.Definitions(),
		ToolChoice:        provider.ToolChoiceAuto,
		ParallelToolCalls: false,
	})
	if err != nil {
		return state.Update{}, Dispatching, fmt.Errorf("executor model call failed: %w", err)
	}
	if reply.Sender == "" {
		reply.Sender = NodeName
	}
	response := reply.Erase()

	phase := Idle
	if reply.Payload.HasToolCalls() {
		phase = AwaitingTool
		for _, tc := range reply.Payload.ToolCalls {
			log.InfoContext(ctx, "model requested tool", slog.String("tool", tc.Name), slog.String("call_id", tc.ID))
		}
	}

	u := state.Update{
		Messages:         state.Log{response},
		ExecutorMessages: state.Log{response},
	}
	if rationale != "" {
		u.CortexLastThought = &rationale
	}
	return s.MergeUpdate(ctx, n.device, u), phase, nil
}

// recoveryUpdate resynchronizes the executor log after a tool call that never answered.
// The broken turn is not sent to the model again.
func recoveryUpdate(s *state.State) state.Update {
	last, ok := s.Messages.Last()
	if !ok {
		last, _ = s.ExecutorMessages.Last()
	}
	return state.Update{
		ExecutorRetrigger:       stdx.Ptr(false),
		ExecutorFailed:          stdx.Ptr(true),
		ExecutorMessages:        state.Log{last},
		ReplaceExecutorMessages: true,
	}
}

func (n *Node) conversation(rationale string, s *state.State) ([]messages.Message[messages.ModelMessage], error) {
	info := n.device.Info()
	system, err := prompt.Render("executor", systemTemplate, map[string]any{
		"Platform": string(info.Platform),
		"Device":   info.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render executor instructions: %w", err)
	}

	b := messages.New().WithRunID(n.runID).WithSender(NodeName)
	result := make([]messages.Message[messages.ModelMessage], 0, len(s.ExecutorMessages)+3)
	result = append(result, b.Instructions(system).Erase())
	if rationale != "" {
		result = append(result, b.UserPrompt(rationale).Erase())
	}
	result = append(result, b.UserPrompt(s.StructuredDecisions).Erase())
	result = append(result, s.ExecutorMessages...)
	return result, nil
}
