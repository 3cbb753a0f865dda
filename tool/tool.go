package tool

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/casualjim/mobileuse/device"
	"github.com/casualjim/mobileuse/messages"
	"github.com/casualjim/mobileuse/pkg/jsonx"
	"github.com/casualjim/mobileuse/pkg/stdx"
	"github.com/casualjim/mobileuse/state"
	json "github.com/goccy/go-json"
	"github.com/invopop/jsonschema"
	"github.com/tidwall/gjson"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Thought is embedded in every argument struct. The model explains the step it is taking.
type Thought struct {
	AgentThought string `json:"agent_thought" jsonschema:"description=Why this action is taken and what it should achieve"`
}

// Reasoning returns the thought the model gave for the call.
func (t Thought) Reasoning() string {
	return t.AgentThought
}

type reasoner interface {
	Reasoning() string
}

// Env is the capability object handed to a tool for one call.
type Env struct {
	Device *device.Context
	State  *state.State
	Call   messages.ToolCallData
}

// Result is what a tool reports. A non-nil Failure marks the call as failed and is
// attached as the "error" metadata. Failed marks it as failed without an error payload.
// Detail is appended to the success text. Meta is attached to the outcome message.
type Result struct {
	Failure any
	Failed  bool
	Detail  string
	Meta    map[string]any
}

func (r Result) failed() bool {
	return r.Failed || r.Failure != nil
}

// Func does the work of a tool.
type Func[A any] func(ctx context.Context, env Env, args A) (Result, error)

// Spec declares a tool over its argument type A.
type Spec[A any] struct {
	Name        string
	Description string
	Run         Func[A]
	OnSuccess   func(A) string
	OnFailure   func(A) string
}

// Definition is what a model provider needs to bind a tool.
type Definition struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
}

// ParametersJSON returns the parameter schema as a generic JSON object.
func (d Definition) ParametersJSON() (map[string]any, error) {
	params := d.Parameters
	if params == nil {
		params = &jsonschema.Schema{
			Type:       "object",
			Properties: orderedmap.New[string, *jsonschema.Schema](),
		}
	}
	return jsonx.ToDynamicJSON(params)
}

// Tool is a wrapper with its argument type erased, as stored in a Catalog.
type Tool interface {
	Definition() Definition
	Invoke(ctx context.Context, env Env) (state.Update, error)
}

var argsReflector = jsonschema.Reflector{
	DoNotReference: true,
}

// Wrapper standardizes the outcome of one tool. It is immutable and shared by every run.
type Wrapper[A any] struct {
	spec Spec[A]
	def  Definition
}

// Wrap validates spec and reflects the schema of A.
func Wrap[A any](spec Spec[A]) (*Wrapper[A], error) {
	var errs []error
	if strings.TrimSpace(spec.Name) == "" {
		errs = append(errs, errors.New("tool name is required"))
	}
	if spec.Run == nil {
		errs = append(errs, fmt.Errorf("tool %q has no run function", spec.Name))
	}
	if spec.OnSuccess == nil || spec.OnFailure == nil {
		errs = append(errs, fmt.Errorf("tool %q needs both a success and a failure message", spec.Name))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	var zero A
	schema := argsReflector.Reflect(zero)
	schema.Version = ""
	schema.ID = ""

	return &Wrapper[A]{
		spec: spec,
		def: Definition{
			Name:        spec.Name,
			Description: spec.Description,
			Parameters:  schema,
		},
	}, nil
}

// Must is Wrap for package level declarations.
func Must[A any](spec Spec[A]) *Wrapper[A] {
	return stdx.Must1(Wrap(spec))
}

func (w *Wrapper[A]) Name() string {
	return w.spec.Name
}

func (w *Wrapper[A]) Definition() Definition {
	return w.def
}

// SuccessMessage returns the visible text of a successful outcome.
func (w *Wrapper[A]) SuccessMessage(args A) string {
	return w.spec.OnSuccess(args)
}

// FailureMessage returns the visible text of a failed outcome.
func (w *Wrapper[A]) FailureMessage(args A) string {
	return w.spec.OnFailure(args)
}

// Outcome converts the result of a call into the tool response answering it.
func (w *Wrapper[A]) Outcome(call messages.ToolCallData, args A, res Result) (messages.Message[messages.ToolResponse], error) {
	content := w.spec.OnSuccess(args)
	status := messages.StatusSuccess
	if res.failed() {
		content = w.spec.OnFailure(args)
		status = messages.StatusError
	} else if res.Detail != "" {
		content += res.Detail
	}

	meta, err := outcomeMeta(res)
	if err != nil {
		return messages.Message[messages.ToolResponse]{}, fmt.Errorf("tool %s: %w", w.spec.Name, err)
	}
	return messages.New().
		WithSender(w.spec.Name).
		WithMetadata(meta).
		ToolResponse(call.ID, w.spec.Name, content, status), nil
}

func outcomeMeta(res Result) (gjson.Result, error) {
	kv := make([]any, 0, 2*len(res.Meta)+2)
	for _, k := range slices.Sorted(maps.Keys(res.Meta)) {
		if k == "error" {
			continue
		}
		kv = append(kv, k, res.Meta[k])
	}
	if res.Failure != nil {
		kv = append(kv, "error", res.Failure)
	}
	return jsonx.Object(kv...)
}

// Invoke answers env.Call and returns the sanitized update carrying the step's thought
// and the outcome message. An error from the run function is returned as is and leaves
// the call unanswered.
func (w *Wrapper[A]) Invoke(ctx context.Context, env Env) (state.Update, error) {
	if env.State == nil {
		return state.Update{}, fmt.Errorf("tool %s: no state in env", w.spec.Name)
	}

	var args A
	if err := decodeArgs(env.Call.Arguments, &args); err != nil {
		msg := messages.New().
			WithSender(w.spec.Name).
			WithMetadata(stdx.Must1(jsonx.Object("error", err))).
			ToolResponse(env.Call.ID, w.spec.Name, fmt.Sprintf("Invalid arguments for tool %s: %v", w.spec.Name, err), messages.StatusError)
		return env.State.MergeUpdate(ctx, env.Device, state.Update{
			ExecutorMessages: state.Log{msg.Erase()},
		}), nil
	}

	res, err := w.spec.Run(ctx, env, args)
	if err != nil {
		return state.Update{}, fmt.Errorf("tool %s: %w", w.spec.Name, err)
	}

	msg, err := w.Outcome(env.Call, args, res)
	if err != nil {
		return state.Update{}, err
	}

	var thoughts []string
	if r, ok := any(args).(reasoner); ok {
		thoughts = []string{r.Reasoning()}
	}
	return env.State.MergeUpdate(ctx, env.Device, state.Update{
		AgentsThoughts:   thoughts,
		ExecutorMessages: state.Log{msg.Erase()},
	}), nil
}

func decodeArgs(raw string, dst any) error {
	if strings.TrimSpace(raw) == "" {
		raw = "{}"
	}
	if !gjson.Valid(raw) {
		return fmt.Errorf("arguments are not valid json: %q", raw)
	}
	return json.Unmarshal([]byte(raw), dst)
}
