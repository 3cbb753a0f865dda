// Package state holds the record of a task run shared by the executor and the tools.
//
// Nodes never mutate a State directly. They return an Update, which is sanitized by
// MergeUpdate and applied by the orchestrator with Apply.
package state

import (
	"slices"

	"github.com/casualjim/mobileuse/messages"
)

// State is owned by a single run. Concurrent runs use independent values.
type State struct {
	InitialGoal         string   `json:"initial_goal"`
	Messages            Log      `json:"messages"`
	ExecutorMessages    Log      `json:"executor_messages"`
	AgentsThoughts      []string `json:"agents_thoughts"`
	StructuredDecisions string   `json:"structured_decisions,omitempty"`
	CortexLastThought   string   `json:"cortex_last_thought,omitempty"`
	ExecutorRetrigger   bool     `json:"executor_retrigger"`
	ExecutorFailed      bool     `json:"executor_failed"`
}

// New starts the state of a run for the given goal.
func New(goal string) *State {
	return &State{
		InitialGoal:      goal,
		Messages:         Log{},
		ExecutorMessages: Log{},
		AgentsThoughts:   []string{},
	}
}

// PendingToolCalls returns the tool invocations the executor requested that were not answered yet.
func (s *State) PendingToolCalls() []messages.ToolCallData {
	return s.ExecutorMessages.PendingToolCalls()
}

// LastThought returns the most recent agent thought.
func (s *State) LastThought() (string, bool) {
	if len(s.AgentsThoughts) == 0 {
		return "", false
	}
	return s.AgentsThoughts[len(s.AgentsThoughts)-1], true
}

// Clone copies the state so a node can read it while the original is updated.
func (s *State) Clone() *State {
	c := *s
	c.Messages = s.Messages.Clone()
	c.ExecutorMessages = s.ExecutorMessages.Clone()
	c.AgentsThoughts = slices.Clone(s.AgentsThoughts)
	return &c
}
