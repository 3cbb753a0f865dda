/*
Package tool turns device capabilities into tools a model can call, and standardizes how
every tool reports its outcome back into the conversation.

# Key Concepts

 1. Spec
    A tool is declared once, at package init, as a Spec over its argument struct:
    - Name: identifier the model uses to call the tool
    - Description: what the model reads to decide when to call it
    - Run: the stateless function doing the work
    - OnSuccess / OnFailure: the visible text of the outcome message

 2. Wrapper
    Wrap reflects the JSON schema of the arguments and returns an immutable Wrapper.
    Invoking a wrapper decodes the model's arguments, runs the tool and converts its
    Result into a tool response:
    - failure present: OnFailure text, status "error", the raw failure in the "error" metadata
    - failure absent: OnSuccess text, status "success", no error metadata

 3. Env
    Tools never close over run state. Everything they may touch is passed explicitly in
    an Env built for each call: the device context, a read-only view of the state, and
    the call being answered.

 4. Catalog
    An ordered, name indexed set of tools that is bound to the model and used by the
    dispatcher to resolve calls.

# Usage

	type inputTextArgs struct {
		tool.Thought
		Text string `json:"text"`
	}

	var inputText = tool.Must(tool.Spec[inputTextArgs]{
		Name:        "input_text",
		Description: "Inputs the specified text into the UI.",
		Run: func(ctx context.Context, env tool.Env, args inputTextArgs) (tool.Result, error) {
			...
		},
		OnSuccess: func(a inputTextArgs) string { return "Successfully typed " + a.Text },
		OnFailure: func(a inputTextArgs) string { return "Failed to input text " + a.Text },
	})

# Errors

A Run function reports device side problems through Result.Failure. Returning an error
instead means the tool itself broke: the error is not turned into a message and the
call stays unanswered, which the executor detects on its next tick.
*/
package tool
