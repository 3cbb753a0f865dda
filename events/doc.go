// Package events provides the lifecycle hooks wrapped around every node tick.
//
// A tick is one invocation of a node (the executor or the tool dispatcher) against the
// run's state. Run wraps a tick so that:
//   - Before is called when the tick starts
//   - OnError is called when the tick returns an error or panics
//   - After is called on every exit path, including a recovered panic
//
// Hooks observe. They cannot change the outcome of a tick.
//
// Implementations:
//   - LoggingHook: structured logs through log/slog
//   - NATSHook: publishes tick events as JSON on a NATS subject
//   - NewCompositeHook: fans out to several hooks in order
//
// Example usage:
//
//	hook := events.NewCompositeHook(events.LoggingHook(), events.NATSHook(conn, "mobileuse.ticks"))
//	update, err := events.Run(ctx, hook, events.Tick{RunID: runID, Node: "executor"}, func(ctx context.Context, tick *events.Tick) (state.Update, error) {
//	    tick.Phase = "dispatching"
//	    return node.tick(ctx, s)
//	})
package events
