package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/casualjim/mobileuse"
	"github.com/casualjim/mobileuse/device"
	"github.com/casualjim/mobileuse/device/adb"
	"github.com/casualjim/mobileuse/dispatch"
	"github.com/casualjim/mobileuse/events"
	"github.com/casualjim/mobileuse/executor"
	"github.com/casualjim/mobileuse/insight"
	"github.com/casualjim/mobileuse/internal/config"
	"github.com/casualjim/mobileuse/internal/logging"
	"github.com/casualjim/mobileuse/internal/msgfmt"
	"github.com/casualjim/mobileuse/pkg/natsx"
	"github.com/casualjim/mobileuse/pkg/slogx"
	"github.com/casualjim/mobileuse/pkg/uuidx"
	"github.com/casualjim/mobileuse/provider/openai"
	"github.com/casualjim/mobileuse/state"
	"github.com/casualjim/mobileuse/tools/mobile"
	"github.com/fatih/color"
	"github.com/openai/openai-go/option"
	"github.com/spf13/cobra"
)

// errPhaseFailed makes the process exit non-zero when the executor gave up.
var errPhaseFailed = errors.New("executor could not carry out the decision")

type runFlags struct {
	goal      string
	decision  string
	thought   string
	statePath string
	maxTicks  int
}

func newRunCmd(root *rootFlags) *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one structured decision on the configured device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDecision(cmd.Context(), cmd, root, flags)
		},
	}
	cmd.Flags().StringVar(&flags.goal, "goal", "", "initial goal of the task")
	cmd.Flags().StringVar(&flags.decision, "decision", "", "structured decision to carry out")
	cmd.Flags().StringVar(&flags.thought, "thought", "", "planner rationale for the decision")
	cmd.Flags().StringVar(&flags.statePath, "state", "", "state snapshot to resume from and save to")
	cmd.Flags().IntVar(&flags.maxTicks, "max-ticks", 0, "override MOBILEUSE_MAX_TICKS")
	_ = cmd.MarkFlagRequired("decision")
	return cmd
}

func runDecision(ctx context.Context, cmd *cobra.Command, root *rootFlags, flags *runFlags) error {
	color.NoColor = color.NoColor || root.noColor

	cfg, err := config.Load(root.envFiles...)
	if err != nil {
		return err
	}
	if flags.maxTicks > 0 {
		cfg.MaxTicks = flags.maxTicks
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, err := logging.Setup(cmd.ErrOrStderr(), cfg.LogLevel, !color.NoColor); err != nil {
		return err
	}

	s, err := loadState(flags.statePath, flags.goal, flags.thought)
	if err != nil {
		return err
	}

	runID := uuidx.New()
	traceID := runID.String()
	log := slogx.Logger("cli").With(slogx.TraceID(traceID))

	phone, err := adb.New(cfg.Device.Serial, adb.WithBinary(cfg.ADBPath))
	if err != nil {
		return err
	}
	dc, err := device.New(cfg.Device.Info(),
		device.WithTransport(phone),
		device.WithBridge(phone),
		device.WithTraceID(traceID),
	)
	if err != nil {
		return err
	}

	hook, closeHook, err := tickHook(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeHook()

	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.OpenAIAPIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.OpenAIBaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.OpenAIBaseURL))
	}

	catalog, err := mobile.Executor(insight.NewLLM(openai.Model(cfg.InsightModel, reqOpts...)))
	if err != nil {
		return err
	}
	exec, err := executor.New(openai.Model(cfg.ExecutorModel, reqOpts...), catalog, dc,
		executor.WithHook(hook), executor.WithRunID(runID))
	if err != nil {
		return err
	}
	disp, err := dispatch.New(catalog, dc, dispatch.WithHook(hook), dispatch.WithRunID(runID))
	if err != nil {
		return err
	}
	runner, err := mobileuse.New(exec, disp, mobileuse.WithMaxTicks(cfg.MaxTicks), mobileuse.WithTraceID(traceID))
	if err != nil {
		return err
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	log.InfoContext(ctx, "executing decision", slog.String("device", cfg.Device.Serial), slog.String("model", cfg.ExecutorModel))
	res, runErr := runner.Execute(ctx, s, flags.decision)

	out := cmd.OutOrStdout()
	if err := msgfmt.Transcript(out, s.ExecutorMessages); err != nil {
		return err
	}
	if err := msgfmt.Summary(out, res.Ticks, res.ToolCalls, res.Failed, s); err != nil {
		return err
	}

	if flags.statePath != "" {
		if err := s.Save(flags.statePath); err != nil {
			return errors.Join(runErr, err)
		}
	}
	if runErr != nil {
		return runErr
	}
	if res.Failed {
		return errPhaseFailed
	}
	return nil
}

// loadState resumes from the snapshot at path when it exists, otherwise starts a new run for goal.
func loadState(path, goal, thought string) (*state.State, error) {
	var s *state.State
	if path != "" {
		loaded, err := state.Load(path)
		switch {
		case err == nil:
			s = loaded
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, err
		}
	}
	if s == nil {
		if goal == "" {
			return nil, errors.New("--goal is required when not resuming from a snapshot")
		}
		s = state.New(goal)
	}
	if thought != "" {
		s.Apply(state.Update{AgentsThoughts: []string{thought}, CortexLastThought: &thought})
	}
	return s, nil
}

func tickHook(ctx context.Context, cfg config.Config) (events.Hook, func(), error) {
	hooks := []events.Hook{events.LoggingHook()}
	if cfg.NATSURL == "" {
		return events.NewCompositeHook(hooks...), func() {}, nil
	}

	conn, err := natsx.NewClient(cfg.NATSURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to nats: %w", err)
	}
	hooks = append(hooks, events.NATSHook(conn, cfg.EventsSubject))
	closer := func() {
		if err := conn.Drain(); err != nil {
			slog.WarnContext(ctx, "failed to drain nats connection", slogx.Error(err))
		}
	}
	return events.NewCompositeHook(hooks...), closer, nil
}
