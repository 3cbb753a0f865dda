package messages

import (
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// New starts a message builder stamped with the current time.
//
//	msg := messages.New().WithSender("executor").AssistantMessage("done")
func New() messageBuilder {
	return messageBuilder{
		timestamp: strfmt.DateTime(time.Now()),
	}
}

type messageBuilder struct {
	runID     uuid.UUID
	turnID    uuid.UUID
	sender    string
	timestamp strfmt.DateTime
	metadata  gjson.Result
}

func (b messageBuilder) WithRunID(id uuid.UUID) messageBuilder {
	b.runID = id
	return b
}

func (b messageBuilder) WithTurnID(id uuid.UUID) messageBuilder {
	b.turnID = id
	return b
}

func (b messageBuilder) WithSender(sender string) messageBuilder {
	b.sender = sender
	return b
}

func (b messageBuilder) WithTimestamp(ts strfmt.DateTime) messageBuilder {
	b.timestamp = ts
	return b
}

func (b messageBuilder) WithMetadata(meta gjson.Result) messageBuilder {
	b.metadata = meta
	return b
}

func build[T ModelMessage](b messageBuilder, payload T) Message[T] {
	return Message[T]{
		RunID:     b.runID,
		TurnID:    b.turnID,
		Payload:   payload,
		Sender:    b.sender,
		Timestamp: b.timestamp,
		Meta:      b.metadata,
	}
}

func (b messageBuilder) Instructions(content string) Message[InstructionsMessage] {
	return build(b, InstructionsMessage{Content: content})
}

func (b messageBuilder) UserPrompt(content string) Message[UserMessage] {
	return build(b, UserMessage{Content: ContentOrParts{Content: content}})
}

func (b messageBuilder) UserPromptMultipart(parts ...ContentPart) Message[UserMessage] {
	return build(b, UserMessage{Content: ContentOrParts{Parts: parts}})
}

func (b messageBuilder) AssistantMessage(content string) Message[AssistantMessage] {
	return build(b, AssistantMessage{Content: AssistantContentOrParts{Content: content}})
}

func (b messageBuilder) AssistantRefusal(refusal string) Message[AssistantMessage] {
	return build(b, AssistantMessage{Refusal: refusal})
}

// Assistant wraps a complete assistant turn, as decoded from a provider response.
func (b messageBuilder) Assistant(payload AssistantMessage) Message[AssistantMessage] {
	return build(b, payload)
}

// ToolCall builds an assistant turn requesting the given invocations.
func (b messageBuilder) ToolCall(calls ...ToolCallData) Message[AssistantMessage] {
	return build(b, AssistantMessage{ToolCalls: calls})
}

func (b messageBuilder) ToolResponse(callID, toolName, content string, status ToolStatus) Message[ToolResponse] {
	return build(b, ToolResponse{
		ToolName:   toolName,
		ToolCallID: callID,
		Content:    content,
		Status:     status,
	})
}
