package mobile

import (
	"context"

	"github.com/casualjim/mobileuse/tool"
)

type InputTextArgs struct {
	tool.Thought
	Text string `json:"text" jsonschema:"description=The text to type"`
}

const inputTextDescription = `Inputs the specified text into the UI (works even if no field is focused).

Example:
    - inputText: "Hello World"

Notes:
- Unicode not supported on Android.`

// InputText types literal text on the device.
var InputText = tool.Must(tool.Spec[InputTextArgs]{
	Name:        "input_text",
	Description: inputTextDescription,
	Run:         inputText,
	OnSuccess:   func(a InputTextArgs) string { return "Successfully typed " + a.Text },
	OnFailure:   func(a InputTextArgs) string { return "Failed to input text " + a.Text },
})

func inputText(ctx context.Context, env tool.Env, args InputTextArgs) (tool.Result, error) {
	transport, err := env.Device.Transport()
	if err != nil {
		return tool.Result{}, err
	}
	failure, err := transport.InputText(ctx, env.Device.Info(), args.Text)
	if err != nil {
		return tool.Result{}, err
	}
	return tool.Result{Failure: failure}, nil
}
