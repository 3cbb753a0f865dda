package messages

import (
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var jsonNull = []byte(`null`)

// ContentOrParts is either plain text content or a list of content parts.
type ContentOrParts struct {
	Content string        // Raw string content, used when the message is just text
	Parts   []ContentPart // Text and image parts
	_       struct{}      // require keyed usage
}

// MarshalJSON writes Content as a JSON string when set, otherwise the parts array.
func (c ContentOrParts) MarshalJSON() ([]byte, error) {
	if strings.TrimSpace(c.Content) != "" {
		return json.Marshal(c.Content)
	}
	if c.Parts == nil {
		return jsonNull, nil
	}
	return json.Marshal(c.Parts)
}

// UnmarshalJSON accepts a JSON string or an array of typed parts.
func (c *ContentOrParts) UnmarshalJSON(input []byte) error {
	if !gjson.ValidBytes(input) {
		return fmt.Errorf("invalid json: %s", input)
	}
	jv := gjson.ParseBytes(input)
	if !jv.IsArray() {
		c.Content = jv.String()
		return nil
	}
	aj := jv.Array()
	parts := make([]ContentPart, len(aj))
	for idx, ajv := range aj {
		switch tpe := ajv.Get("type").String(); tpe {
		case "text":
			var part TextContentPart
			if err := part.UnmarshalJSON([]byte(ajv.Raw)); err != nil {
				return fmt.Errorf("invalid text part at %d: %w", idx, err)
			}
			parts[idx] = part
		case "image":
			var part ImageContentPart
			if err := part.UnmarshalJSON([]byte(ajv.Raw)); err != nil {
				return fmt.Errorf("invalid image part at %d: %w", idx, err)
			}
			parts[idx] = part
		default:
			return fmt.Errorf("content part at %d has an unknown type %q", idx, tpe)
		}
	}
	c.Parts = parts
	return nil
}

// Text returns the text content, joining text parts when the content is multipart.
func (c ContentOrParts) Text() string {
	if c.Content != "" || len(c.Parts) == 0 {
		return c.Content
	}
	var sb strings.Builder
	for _, part := range c.Parts {
		if tp, ok := part.(TextContentPart); ok {
			sb.WriteString(tp.Text)
		}
	}
	return sb.String()
}

// AssistantContentOrParts is the content of an assistant turn: plain text or text/refusal parts.
type AssistantContentOrParts struct {
	Content string                 // Raw string content for simple text responses
	Parts   []AssistantContentPart // Text and refusal parts
	_       struct{}               // require keyed usage
}

// IsZero reports whether there is no content at all.
func (c AssistantContentOrParts) IsZero() bool {
	return strings.TrimSpace(c.Content) == "" && len(c.Parts) == 0
}

// Text returns the text content, joining text parts when the content is multipart.
func (c AssistantContentOrParts) Text() string {
	if c.Content != "" || len(c.Parts) == 0 {
		return c.Content
	}
	var sb strings.Builder
	for _, part := range c.Parts {
		if tp, ok := part.(TextContentPart); ok {
			sb.WriteString(tp.Text)
		}
	}
	return sb.String()
}

// MarshalJSON writes Content as a JSON string when set, otherwise the parts array.
func (c AssistantContentOrParts) MarshalJSON() ([]byte, error) {
	if strings.TrimSpace(c.Content) != "" {
		return json.Marshal(c.Content)
	}
	if c.Parts == nil {
		return jsonNull, nil
	}
	return json.Marshal(c.Parts)
}

// UnmarshalJSON accepts a JSON string or an array of text/refusal parts.
func (c *AssistantContentOrParts) UnmarshalJSON(input []byte) error {
	if !gjson.ValidBytes(input) {
		return fmt.Errorf("invalid json: %s", input)
	}
	jv := gjson.ParseBytes(input)
	if !jv.IsArray() {
		c.Content = jv.String()
		return nil
	}
	aj := jv.Array()
	parts := make([]AssistantContentPart, len(aj))
	for idx, ajv := range aj {
		switch tpe := ajv.Get("type").String(); tpe {
		case "text":
			var part TextContentPart
			if err := part.UnmarshalJSON([]byte(ajv.Raw)); err != nil {
				return fmt.Errorf("invalid assistant text part at %d: %w", idx, err)
			}
			parts[idx] = part
		case "refusal":
			var part RefusalContentPart
			if err := part.UnmarshalJSON([]byte(ajv.Raw)); err != nil {
				return fmt.Errorf("invalid assistant refusal part at %d: %w", idx, err)
			}
			parts[idx] = part
		default:
			return fmt.Errorf("content part at %d has an unknown type %q", idx, tpe)
		}
	}
	c.Parts = parts
	return nil
}

// ContentPart marks the parts a human turn may contain.
type ContentPart interface {
	contentPart()
}

// AssistantContentPart marks the parts an assistant turn may contain.
type AssistantContentPart interface {
	assistantContentPart()
}

// Text creates a TextContentPart.
func Text(text string) TextContentPart {
	return TextContentPart{Text: text}
}

// TextContentPart is a text-only content part, valid for both human and assistant turns.
type TextContentPart struct {
	Text string   `json:"text"`
	_    struct{} // require keyed usage
}

func (TextContentPart) contentPart()          {}
func (TextContentPart) assistantContentPart() {}

var tcpJSON = []byte(`{"type":"text"}`)

func (t TextContentPart) MarshalJSON() ([]byte, error) {
	return sjson.SetBytes(tcpJSON, "text", t.Text)
}

func (t *TextContentPart) UnmarshalJSON(input []byte) error {
	text := gjson.GetBytes(input, "text")
	if !text.Exists() {
		return errors.New("missing required field 'text'")
	}
	t.Text = text.String()
	return nil
}

// Refusal creates a RefusalContentPart.
func Refusal(reason string) RefusalContentPart {
	return RefusalContentPart{Refusal: reason}
}

// RefusalContentPart is the model declining to act.
type RefusalContentPart struct {
	Refusal string   `json:"refusal"`
	_       struct{} // require keyed usage
}

func (RefusalContentPart) assistantContentPart() {}

var rcpJSON = []byte(`{"type":"refusal"}`)

func (t RefusalContentPart) MarshalJSON() ([]byte, error) {
	return sjson.SetBytes(rcpJSON, "refusal", t.Refusal)
}

func (t *RefusalContentPart) UnmarshalJSON(input []byte) error {
	refusal := gjson.GetBytes(input, "refusal")
	if !refusal.Exists() {
		return errors.New("missing required field 'refusal'")
	}
	t.Refusal = refusal.String()
	return nil
}

// Image creates an ImageContentPart, typically a data URL of a device screenshot.
func Image(url string) ImageContentPart {
	return ImageContentPart{URL: url}
}

// ImageContentPart is an image reference with an optional detail hint ("low", "high", "auto").
type ImageContentPart struct {
	URL    string   `json:"image_url"`
	Detail string   `json:"detail,omitempty"`
	_      struct{} // require keyed usage
}

func (ImageContentPart) contentPart() {}

var icpJSON = []byte(`{"type":"image"}`)

func (i ImageContentPart) MarshalJSON() ([]byte, error) {
	b, err := sjson.SetBytes(icpJSON, "image_url", i.URL)
	if err != nil || i.Detail == "" {
		return b, err
	}
	return sjson.SetBytes(b, "detail", i.Detail)
}

func (i *ImageContentPart) UnmarshalJSON(input []byte) error {
	uri := gjson.GetBytes(input, "image_url")
	if !uri.Exists() {
		return errors.New("missing required field 'image_url'")
	}
	i.URL = uri.String()
	i.Detail = gjson.GetBytes(input, "detail").String()
	return nil
}
