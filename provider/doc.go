// Package provider is the seam between the executor and the language model.
//
// A Provider answers one chat completion at a time. There is no streaming: a tick
// waits for the whole assistant turn, which either carries text or tool invocations.
//
// Design decisions:
//   - Single shot: the executor never acts on partial output, so responses are returned whole
//   - Tool binding is explicit: the caller states the tool choice and whether parallel calls are allowed
//   - Structured output: a JSON schema can be requested for collaborators that decode the reply
//
// Example usage:
//
//	model := openai.Model(openai.ChatModelGPT4o)
//	reply, err := model.Provider().ChatCompletion(ctx, provider.CompletionParams{
//	    RunID:             runID,
//	    Model:             model,
//	    Messages:          conversation,
//	    Tools:             catalog.Definitions(),
//	    ToolChoice:        provider.ToolChoiceAuto,
//	    ParallelToolCalls: false,
//	})
package provider
