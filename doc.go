/*
Package mobileuse drives an LLM executor that operates a mobile device one tool call at a
time.

A run alternates between two nodes that share a single state.State:

  - the executor (package executor) turns the planner's structured decision into a model
    turn that requests a tool
  - the dispatcher (package dispatch) runs the requested tool against the device and
    records its outcome

Both nodes return updates instead of mutating the state. The Runner applies them in order
and decides when the run is settled.

# Basic Usage

	phone, _ := adb.New(serial)
	dc, _ := device.New(info, device.WithTransport(phone), device.WithBridge(phone))
	catalog, _ := mobile.Executor(insight.NewLLM(openai.GPT4oMini()))

	exec, _ := executor.New(openai.GPT41(), catalog, dc)
	disp, _ := dispatch.New(catalog, dc)

	runner, _ := mobileuse.New(exec, disp, mobileuse.WithMaxTicks(20))
	res, err := runner.Execute(ctx, state.New("open settings"), "tap the Settings icon")

# Recovery

A tool that fails without producing an outcome leaves its call unanswered. The runner
marks the executor for a retrigger, and the next executor tick sees the dangling call,
resynchronizes the executor log and flags the phase as failed. That two tick window is how
a broken tool turn is kept away from the model.

# Hooks

Every tick of either node is wrapped by an events.Hook. The default hook logs through
slog; events.NATSHook publishes the same lifecycle to NATS subjects.
*/
package mobileuse
