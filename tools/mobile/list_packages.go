package mobile

import (
	"context"
	"log/slog"

	"github.com/casualjim/mobileuse/insight"
	"github.com/casualjim/mobileuse/pkg/slogx"
	"github.com/casualjim/mobileuse/tool"
)

const listPackagesDescription = `Lists all the applications on the device.
Outputs the full package names list (android) or bundle ids list (IOS).`

// ListPackages builds the package listing tool. The extractor condenses the raw list
// to what matters for the goal.
func ListPackages(extractor insight.Extractor) *tool.Wrapper[tool.Thought] {
	return tool.Must(tool.Spec[tool.Thought]{
		Name:        "list_packages",
		Description: listPackagesDescription,
		Run: func(ctx context.Context, env tool.Env, _ tool.Thought) (tool.Result, error) {
			return listPackages(ctx, env, extractor)
		},
		OnSuccess: func(tool.Thought) string { return "Packages listed successfully." },
		OnFailure: func(tool.Thought) string { return "Failed to list packages." },
	})
}

func listPackages(ctx context.Context, env tool.Env, extractor insight.Extractor) (tool.Result, error) {
	transport, err := env.Device.Transport()
	if err != nil {
		return tool.Result{}, err
	}
	output, err := transport.ListPackages(ctx, env.Device.Info())
	if err != nil {
		return tool.Result{}, err
	}

	found, err := extractor.Extract(ctx, env.Device, insight.Request{
		Goal:     env.State.InitialGoal,
		Messages: env.State.Messages,
		Data:     output,
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to extract insights from package list",
			slogx.LoggerName("list_packages"), slogx.TraceID(env.Device.TraceID()), slogx.Error(err))
		return tool.Result{Failed: true, Meta: map[string]any{"output": output}}, nil
	}
	return tool.Result{Detail: ": " + found.Step + ": " + found.Output}, nil
}
