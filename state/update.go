package state

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/casualjim/mobileuse/device"
	"github.com/casualjim/mobileuse/messages"
	"github.com/casualjim/mobileuse/pkg/slogx"
	"github.com/casualjim/mobileuse/pkg/stdx"
)

// Update is a partial change to a State. Fields are merged by Apply with these strategies:
//
//	Messages, AgentsThoughts          append
//	ExecutorMessages                  append, or replace when ReplaceExecutorMessages is set
//	StructuredDecisions,
//	CortexLastThought,
//	ExecutorRetrigger, ExecutorFailed overwrite when non-nil
//	InitialGoal                       set once, ignored afterwards
type Update struct {
	InitialGoal             string
	Messages                Log
	ExecutorMessages        Log
	ReplaceExecutorMessages bool
	AgentsThoughts          []string
	StructuredDecisions     *string
	CortexLastThought       *string
	ExecutorRetrigger       *bool
	ExecutorFailed          *bool
}

// IsZero reports whether applying u would change nothing.
func (u Update) IsZero() bool {
	return u.InitialGoal == "" &&
		len(u.Messages) == 0 &&
		len(u.ExecutorMessages) == 0 &&
		!u.ReplaceExecutorMessages &&
		len(u.AgentsThoughts) == 0 &&
		u.StructuredDecisions == nil &&
		u.CortexLastThought == nil &&
		u.ExecutorRetrigger == nil &&
		u.ExecutorFailed == nil
}

// NewPhase starts an execution phase for a new planner decision. The executor log is
// reset and both executor flags are cleared.
func NewPhase(decisions string) Update {
	return Update{
		StructuredDecisions:     stdx.Ptr(decisions),
		ExecutorMessages:        Log{},
		ReplaceExecutorMessages: true,
		ExecutorRetrigger:       stdx.Ptr(false),
		ExecutorFailed:          stdx.Ptr(false),
	}
}

// MergeUpdate sanitizes an update produced by a node so it can be handed to Apply.
//
// Blank thoughts and messages without a payload are dropped, tool responses without a
// valid status are tagged as errors, and a second initial goal is discarded.
func (s *State) MergeUpdate(ctx context.Context, dc *device.Context, u Update) Update {
	log := slogx.Logger("state")
	if id := dc.TraceID(); id != "" {
		log = log.With(slogx.TraceID(id))
	}

	out := u
	out.Messages = sanitizeLog(ctx, log, u.Messages)
	out.ExecutorMessages = sanitizeLog(ctx, log, u.ExecutorMessages)
	if u.ReplaceExecutorMessages && out.ExecutorMessages == nil {
		out.ExecutorMessages = Log{}
	}

	out.AgentsThoughts = nil
	for _, thought := range u.AgentsThoughts {
		thought = strings.TrimSpace(thought)
		if thought == "" {
			continue
		}
		log.InfoContext(ctx, "agent thought", slog.String("thought", thought))
		out.AgentsThoughts = append(out.AgentsThoughts, thought)
	}

	if u.InitialGoal != "" && s.InitialGoal != "" && u.InitialGoal != s.InitialGoal {
		log.WarnContext(ctx, "initial goal is already set, ignoring the new one", slog.String("goal", u.InitialGoal))
		out.InitialGoal = ""
	}
	return out
}

func sanitizeLog(ctx context.Context, log *slog.Logger, in Log) Log {
	if len(in) == 0 {
		return nil
	}
	out := make(Log, 0, len(in))
	for _, m := range in {
		switch payload := m.Payload.(type) {
		case nil:
			log.WarnContext(ctx, "dropping message without payload", slog.String("sender", m.Sender))
			continue
		case messages.ToolResponse:
			if !payload.Status.Valid() {
				log.WarnContext(ctx, "tool response has no valid status, marking it as an error",
					slog.String("tool", payload.ToolName), slog.String("status", string(payload.Status)))
				payload.Status = messages.StatusError
				m.Payload = payload
			}
		}
		out = append(out, m)
	}
	return out
}

// Apply merges a sanitized update into the state.
func (s *State) Apply(u Update) {
	if u.InitialGoal != "" && s.InitialGoal == "" {
		s.InitialGoal = u.InitialGoal
	}
	s.Messages = append(s.Messages, u.Messages...)
	if u.ReplaceExecutorMessages {
		s.ExecutorMessages = append(Log{}, u.ExecutorMessages...)
	} else {
		s.ExecutorMessages = append(s.ExecutorMessages, u.ExecutorMessages...)
	}
	s.AgentsThoughts = append(s.AgentsThoughts, u.AgentsThoughts...)
	if u.StructuredDecisions != nil {
		s.StructuredDecisions = *u.StructuredDecisions
	}
	if u.CortexLastThought != nil {
		s.CortexLastThought = *u.CortexLastThought
	}
	if u.ExecutorRetrigger != nil {
		s.ExecutorRetrigger = *u.ExecutorRetrigger
	}
	if u.ExecutorFailed != nil {
		s.ExecutorFailed = *u.ExecutorFailed
	}
}

// Then returns the update equivalent to applying u and then next.
func (u Update) Then(next Update) Update {
	out := u
	if out.InitialGoal == "" {
		out.InitialGoal = next.InitialGoal
	}
	out.Messages = append(u.Messages.Clone(), next.Messages...)
	if next.ReplaceExecutorMessages {
		out.ExecutorMessages = append(Log{}, next.ExecutorMessages...)
		out.ReplaceExecutorMessages = true
	} else {
		out.ExecutorMessages = append(u.ExecutorMessages.Clone(), next.ExecutorMessages...)
	}
	out.AgentsThoughts = append(slices.Clone(u.AgentsThoughts), next.AgentsThoughts...)
	if next.StructuredDecisions != nil {
		out.StructuredDecisions = next.StructuredDecisions
	}
	if next.CortexLastThought != nil {
		out.CortexLastThought = next.CortexLastThought
	}
	if next.ExecutorRetrigger != nil {
		out.ExecutorRetrigger = next.ExecutorRetrigger
	}
	if next.ExecutorFailed != nil {
		out.ExecutorFailed = next.ExecutorFailed
	}
	return out
}
