package mobileuse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/casualjim/mobileuse/pkg/slogx"
	"github.com/casualjim/mobileuse/pkg/stdx"
	"github.com/casualjim/mobileuse/state"
	"github.com/fogfish/opts"
)

// ErrMaxTicks is returned when a run does not settle within the tick budget.
var ErrMaxTicks = errors.New("mobileuse: run did not settle within the tick budget")

// DefaultMaxTicks is the tick budget of a Runner without WithMaxTicks.
const DefaultMaxTicks = 50

// Node is one step of a run. It reads the state and returns the change it wants applied.
type Node interface {
	Run(context.Context, *state.State) (state.Update, error)
}

// Result summarizes a finished run.
type Result struct {
	// Ticks counts executor and dispatch ticks together.
	Ticks int
	// ToolCalls is the number of dispatch ticks.
	ToolCalls int
	// Failed is set when the executor gave up on the phase.
	Failed bool
	// Retriggers counts dispatch ticks that failed and handed control back to the executor.
	Retriggers int
}

// Runner alternates the executor and the dispatcher over one state until the phase settles.
type Runner struct {
	executor   Node
	dispatcher Node
	maxTicks   int
	traceID    string
}

func New(executor, dispatcher Node, options ...Option) (*Runner, error) {
	var err error
	if executor == nil {
		err = errors.Join(err, errors.New("executor is required"))
	}
	if dispatcher == nil {
		err = errors.Join(err, errors.New("dispatcher is required"))
	}
	if err != nil {
		return nil, err
	}

	r := &Runner{
		executor:   executor,
		dispatcher: dispatcher,
		maxTicks:   DefaultMaxTicks,
	}
	if err := opts.Apply(r, options); err != nil {
		return nil, err
	}
	return r, nil
}

// Execute starts a new phase for decisions on s and runs it.
func (r *Runner) Execute(ctx context.Context, s *state.State, decisions string) (Result, error) {
	s.Apply(state.NewPhase(decisions))
	return r.Run(ctx, s)
}

// Run drives s until the executor stops requesting tools or flags the phase as failed.
// s is updated in place. A phase that already failed is not resumed; start a new one with Execute.
func (r *Runner) Run(ctx context.Context, s *state.State) (Result, error) {
	log := slogx.Logger("runner")
	if r.traceID != "" {
		log = log.With(slogx.TraceID(r.traceID))
	}

	var res Result
	if s.ExecutorFailed {
		log.WarnContext(ctx, "phase already failed, not running it again")
		res.Failed = true
		return res, nil
	}
	for res.Ticks < r.maxTicks {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		u, err := r.executor.Run(ctx, s)
		res.Ticks++
		if err != nil {
			return res, fmt.Errorf("executor tick %d: %w", res.Ticks, err)
		}
		s.Apply(u)

		if s.ExecutorFailed {
			log.WarnContext(ctx, "executor flagged the phase as failed", slog.Int("ticks", res.Ticks))
			res.Failed = true
			return res, nil
		}
		if len(s.PendingToolCalls()) == 0 {
			log.InfoContext(ctx, "phase settled", slog.Int("ticks", res.Ticks), slog.Int("tool_calls", res.ToolCalls))
			return res, nil
		}
		if res.Ticks >= r.maxTicks {
			break
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		u, err = r.dispatcher.Run(ctx, s)
		res.Ticks++
		res.ToolCalls++
		if err != nil {
			log.ErrorContext(ctx, "dispatch failed, handing control back to the executor", slogx.Error(err))
			s.Apply(state.Update{ExecutorRetrigger: stdx.Ptr(true)})
			res.Retriggers++
			continue
		}
		s.Apply(u)
	}
	return res, ErrMaxTicks
}
