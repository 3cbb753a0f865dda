package mobileuse

import (
	"errors"

	"github.com/fogfish/opts"
)

// Option configures a Runner.
type Option = opts.Option[Runner]

// WithMaxTicks bounds the number of node ticks in one run. Executor and dispatch ticks
// both count.
func WithMaxTicks(n int) Option {
	return opts.Type[Runner](func(r *Runner) error {
		if n <= 0 {
			return errors.New("max ticks must be positive")
		}
		r.maxTicks = n
		return nil
	})
}

// WithTraceID tags the runner's log lines.
var WithTraceID = opts.ForName[Runner, string]("traceID")
