package messages

import (
	"fmt"
	"strings"

	"github.com/go-openapi/strfmt"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ModelMessage is implemented by every payload that can be part of a conversation.
type ModelMessage interface {
	message()
}

// InstructionsMessage holds system instructions.
type InstructionsMessage struct {
	Content string `json:"content"`
}

func (InstructionsMessage) message() {}

// UserMessage is a human turn. The executor uses it for the planner's rationale and decision.
type UserMessage struct {
	Content ContentOrParts `json:"content"`
}

func (UserMessage) message() {}

// ToolCallData is one tool invocation requested by the model.
type ToolCallData struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// AssistantMessage is a model turn: text, a refusal, tool invocations, or a mix.
type AssistantMessage struct {
	Content   AssistantContentOrParts `json:"content"`
	Refusal   string                  `json:"refusal,omitempty"`
	ToolCalls []ToolCallData          `json:"tool_calls,omitempty"`
}

func (AssistantMessage) message() {}

// HasToolCalls reports whether the turn requests at least one tool invocation.
func (a AssistantMessage) HasToolCalls() bool {
	return len(a.ToolCalls) > 0
}

// ToolStatus tags the outcome carried by a ToolResponse.
type ToolStatus string

const (
	StatusSuccess ToolStatus = "success"
	StatusError   ToolStatus = "error"
)

// Valid reports whether s is one of the known statuses.
func (s ToolStatus) Valid() bool {
	return s == StatusSuccess || s == StatusError
}

// ToolResponse resolves the tool invocation identified by ToolCallID.
type ToolResponse struct {
	ToolName   string     `json:"tool_name"`
	ToolCallID string     `json:"tool_call_id"`
	Content    string     `json:"content"`
	Status     ToolStatus `json:"status"`
}

func (ToolResponse) message() {}

// Failed reports whether the response carries an error status.
func (t ToolResponse) Failed() bool {
	return t.Status == StatusError
}

// Message wraps a payload with the bookkeeping every conversation entry carries.
type Message[T ModelMessage] struct {
	RunID     uuid.UUID
	TurnID    uuid.UUID
	Payload   T
	Sender    string
	Timestamp strfmt.DateTime
	Meta      gjson.Result
}

// Erase widens the message so it can be stored next to other payload kinds.
func (m Message[T]) Erase() Message[ModelMessage] {
	return Message[ModelMessage]{
		RunID:     m.RunID,
		TurnID:    m.TurnID,
		Payload:   m.Payload,
		Sender:    m.Sender,
		Timestamp: m.Timestamp,
		Meta:      m.Meta,
	}
}

// As narrows an erased message back to a concrete payload type.
func As[T ModelMessage](m Message[ModelMessage]) (Message[T], bool) {
	payload, ok := m.Payload.(T)
	if !ok {
		return Message[T]{}, false
	}
	return Message[T]{
		RunID:     m.RunID,
		TurnID:    m.TurnID,
		Payload:   payload,
		Sender:    m.Sender,
		Timestamp: m.Timestamp,
		Meta:      m.Meta,
	}, true
}

// IsDanglingToolCall reports whether m is an assistant turn requesting a tool.
// When such a message is the last entry of a log, the tool call was never resolved.
func IsDanglingToolCall(m Message[ModelMessage]) bool {
	am, ok := m.Payload.(AssistantMessage)
	return ok && am.HasToolCalls()
}

// Kind returns the JSON type discriminator of a payload.
func Kind(payload ModelMessage) (string, error) {
	switch payload.(type) {
	case InstructionsMessage:
		return "instructions", nil
	case UserMessage:
		return "user", nil
	case AssistantMessage:
		return "assistant", nil
	case ToolResponse:
		return "tool_response", nil
	case nil:
		return "", fmt.Errorf("message has no payload")
	default:
		return "", fmt.Errorf("unknown message payload %T", payload)
	}
}

// MarshalJSON writes the payload fields and the envelope fields into one flat object.
func (m Message[T]) MarshalJSON() ([]byte, error) {
	var payload ModelMessage = m.Payload
	kind, err := Kind(payload)
	if err != nil {
		return nil, err
	}
	pb, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", kind, err)
	}

	result, err := sjson.SetBytes([]byte(`{}`), "type", kind)
	if err != nil {
		return nil, err
	}
	gjson.ParseBytes(pb).ForEach(func(key, value gjson.Result) bool {
		if value.Type == gjson.Null {
			return true
		}
		result, err = sjson.SetRawBytes(result, escapeKey(key.String()), []byte(value.Raw))
		return err == nil
	})
	if err != nil {
		return nil, err
	}

	if m.RunID != uuid.Nil {
		if result, err = sjson.SetBytes(result, "run_id", m.RunID.String()); err != nil {
			return nil, err
		}
	}
	if m.TurnID != uuid.Nil {
		if result, err = sjson.SetBytes(result, "turn_id", m.TurnID.String()); err != nil {
			return nil, err
		}
	}
	if m.Sender != "" {
		if result, err = sjson.SetBytes(result, "sender", m.Sender); err != nil {
			return nil, err
		}
	}
	if !m.Timestamp.IsZero() {
		if result, err = sjson.SetBytes(result, "timestamp", m.Timestamp.String()); err != nil {
			return nil, err
		}
	}
	if m.Meta.Exists() && m.Meta.Raw != "" {
		if result, err = sjson.SetRawBytes(result, "meta", []byte(m.Meta.Raw)); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// UnmarshalJSON reads a flat message object. When T is ModelMessage the payload kind
// is taken from the "type" field; otherwise the type must match T.
func (m *Message[T]) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}
	doc := gjson.ParseBytes(data)

	payload, err := decodePayload(doc.Get("type").String(), data)
	if err != nil {
		return err
	}
	typed, ok := payload.(T)
	if !ok {
		var want T
		return fmt.Errorf("message of type %q cannot be decoded into %T", doc.Get("type").String(), want)
	}
	m.Payload = typed

	if v := doc.Get("run_id"); v.Exists() {
		if m.RunID, err = uuid.Parse(v.String()); err != nil {
			return fmt.Errorf("invalid run_id: %w", err)
		}
	}
	if v := doc.Get("turn_id"); v.Exists() {
		if m.TurnID, err = uuid.Parse(v.String()); err != nil {
			return fmt.Errorf("invalid turn_id: %w", err)
		}
	}
	m.Sender = doc.Get("sender").String()
	if v := doc.Get("timestamp"); v.Exists() {
		if m.Timestamp, err = strfmt.ParseDateTime(v.String()); err != nil {
			return fmt.Errorf("invalid timestamp: %w", err)
		}
	}
	if v := doc.Get("meta"); v.Exists() {
		m.Meta = gjson.Parse(v.Raw)
	}
	return nil
}

func decodePayload(kind string, data []byte) (ModelMessage, error) {
	switch kind {
	case "instructions":
		var p InstructionsMessage
		err := json.Unmarshal(data, &p)
		return p, err
	case "user":
		var p UserMessage
		err := json.Unmarshal(data, &p)
		return p, err
	case "assistant":
		var p AssistantMessage
		err := json.Unmarshal(data, &p)
		return p, err
	case "tool_response":
		var p ToolResponse
		err := json.Unmarshal(data, &p)
		return p, err
	case "":
		return nil, fmt.Errorf("message is missing its type")
	default:
		return nil, fmt.Errorf("unknown message type %q", kind)
	}
}

func escapeKey(key string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`)
	return r.Replace(key)
}
