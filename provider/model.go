package provider

import (
	"context"

	"github.com/casualjim/mobileuse/messages"
	"github.com/casualjim/mobileuse/tool"
	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
)

// Provider sends a conversation to a model and returns its reply.
type Provider interface {
	ChatCompletion(context.Context, CompletionParams) (messages.Message[messages.AssistantMessage], error)
}

// Model names a model and the provider serving it.
type Model interface {
	Name() string
	Provider() Provider
}

// ToolChoice controls whether the model may, must or must not call a tool.
type ToolChoice string

const (
	ToolChoiceAuto     ToolChoice = "auto"
	ToolChoiceNone     ToolChoice = "none"
	ToolChoiceRequired ToolChoice = "required"
)

// CompletionParams is one chat completion request.
type CompletionParams struct {
	// RunID identifies the run the request belongs to
	RunID uuid.UUID

	// Model selects the model to call
	Model Model

	// Messages is the ordered conversation, system instructions first
	Messages []messages.Message[messages.ModelMessage]

	// Tools are bound to the model when not empty
	Tools []tool.Definition

	// ToolChoice is sent only when tools are bound. Empty means the provider default.
	ToolChoice ToolChoice

	// ParallelToolCalls allows more than one tool invocation per turn
	ParallelToolCalls bool

	// ResponseSchema asks for a reply matching a JSON schema
	ResponseSchema *StructuredOutput

	// Temperature overrides the sampling temperature when set
	Temperature *float64

	_ struct{}
}

// StructuredOutput defines a schema for formatted responses.
type StructuredOutput struct {
	// Name identifies this output format
	Name string

	// Description explains the purpose of this format
	Description string

	// Schema defines the JSON structure responses should follow
	Schema *jsonschema.Schema
}
