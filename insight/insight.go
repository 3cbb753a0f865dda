// Package insight turns raw, unstructured device output into a short structured summary.
package insight

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/casualjim/mobileuse/device"
	"github.com/casualjim/mobileuse/internal/prompt"
	"github.com/casualjim/mobileuse/messages"
	"github.com/casualjim/mobileuse/pkg/slogx"
	"github.com/casualjim/mobileuse/pkg/uuidx"
	"github.com/casualjim/mobileuse/provider"
	"github.com/casualjim/mobileuse/state"
	json "github.com/goccy/go-json"
	"github.com/invopop/jsonschema"
)

//go:embed insight.md
var systemTemplate string

// maxTranscript bounds how many recent conversation entries are shown to the model.
const maxTranscript = 10

// Request is the data to interpret and what it is interpreted for.
type Request struct {
	Goal     string
	Messages state.Log
	Data     string
}

// Output is the extracted insight.
type Output struct {
	Step   string `json:"step" jsonschema:"description=What the raw output means for the current step"`
	Output string `json:"output" jsonschema:"description=The relevant extract of the raw output"`
}

// Extractor interprets raw device output. Callers are expected to fall back to their own
// failure outcome when it errors.
type Extractor interface {
	Extract(ctx context.Context, dc *device.Context, req Request) (Output, error)
}

var outputSchema = func() *jsonschema.Schema {
	r := jsonschema.Reflector{DoNotReference: true}
	s := r.Reflect(Output{})
	s.Version = ""
	return s
}()

// LLM asks a model to extract the insight with a structured response.
type LLM struct {
	model provider.Model
}

var _ Extractor = (*LLM)(nil)

func NewLLM(model provider.Model) *LLM {
	return &LLM{model: model}
}

func (l *LLM) Extract(ctx context.Context, dc *device.Context, req Request) (Output, error) {
	log := slogx.Logger("insight")
	if id := dc.TraceID(); id != "" {
		log = log.With(slogx.TraceID(id))
	}

	system, err := prompt.Render("insight", systemTemplate, map[string]any{
		"Goal":       req.Goal,
		"Transcript": transcript(req.Messages, maxTranscript),
	})
	if err != nil {
		return Output{}, fmt.Errorf("failed to render insight prompt: %w", err)
	}

	reply, err := l.model.Provider().ChatCompletion(ctx, provider.CompletionParams{
		RunID: uuidx.New(),
		Model: l.model,
		Messages: []messages.Message[messages.ModelMessage]{
			messages.New().WithSender("insight").Instructions(system).Erase(),
			messages.New().WithSender("insight").UserPrompt("Raw output:\n" + req.Data).Erase(),
		},
		ResponseSchema: &provider.StructuredOutput{
			Name:        "insight",
			Description: "Relevant information extracted from raw device output",
			Schema:      outputSchema,
		},
	})
	if err != nil {
		return Output{}, err
	}
	if reply.Payload.Refusal != "" {
		return Output{}, fmt.Errorf("model refused to extract insight: %s", reply.Payload.Refusal)
	}

	content := strings.TrimSpace(reply.Payload.Content.Text())
	if content == "" {
		return Output{}, errors.New("model returned an empty insight")
	}
	var out Output
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return Output{}, fmt.Errorf("failed to decode insight: %w", err)
	}
	log.DebugContext(ctx, "extracted insight", slog.String("step", out.Step))
	return out, nil
}

// transcript renders the text of the last n conversation entries.
func transcript(log state.Log, n int) string {
	if len(log) > n {
		log = log[len(log)-n:]
	}
	var lines []string
	for m := range log.Iter() {
		switch p := m.Payload.(type) {
		case messages.UserMessage:
			if text := p.Content.Text(); text != "" {
				lines = append(lines, "user: "+text)
			}
		case messages.AssistantMessage:
			if text := p.Content.Text(); text != "" {
				lines = append(lines, "assistant: "+text)
			}
			for _, tc := range p.ToolCalls {
				lines = append(lines, fmt.Sprintf("assistant called %s(%s)", tc.Name, tc.Arguments))
			}
		case messages.ToolResponse:
			lines = append(lines, fmt.Sprintf("%s [%s]: %s", p.ToolName, p.Status, p.Content))
		}
	}
	return strings.Join(lines, "\n")
}
