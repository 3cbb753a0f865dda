package openai

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/casualjim/mobileuse/messages"
	"github.com/casualjim/mobileuse/provider"
	"github.com/casualjim/mobileuse/tool"
	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type staticModel struct {
	name string
	prov provider.Provider
}

func (m staticModel) Name() string                { return m.name }
func (m staticModel) Provider() provider.Provider { return m.prov }

type typeArgs struct {
	tool.Thought
	Text string `json:"text"`
}

var inputText = tool.Must(tool.Spec[typeArgs]{
	Name:        "input_text",
	Description: "Inputs the specified text into the UI.",
	Run: func(context.Context, tool.Env, typeArgs) (tool.Result, error) {
		return tool.Result{}, nil
	},
	OnSuccess: func(a typeArgs) string { return "Successfully typed " + a.Text },
	OnFailure: func(a typeArgs) string { return "Failed to input text " + a.Text },
})

func conversation() []messages.Message[messages.ModelMessage] {
	return []messages.Message[messages.ModelMessage]{
		messages.New().Instructions("You are the executor.").Erase(),
		messages.New().UserPrompt("Type hello").Erase(),
		messages.New().ToolCall(messages.ToolCallData{ID: "call_1", Name: "input_text", Arguments: `{"text":"hello"}`}).Erase(),
		messages.New().ToolResponse("call_1", "input_text", "Successfully typed hello", messages.StatusSuccess).Erase(),
		messages.New().UserPromptMultipart(messages.Text("screen"), messages.Image("data:image/png;base64,AA==")).Erase(),
	}
}

type capture struct {
	body gjson.Result
}

func newServer(t *testing.T, c *capture, response string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		b, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		c.body = gjson.ParseBytes(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(server.Close)
	return server
}

const toolCallResponse = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"created": 1700000000,
	"model": "gpt-4o-2024-08-06",
	"choices": [{
		"index": 0,
		"finish_reason": "tool_calls",
		"message": {
			"role": "assistant",
			"content": null,
			"refusal": null,
			"tool_calls": [{
				"id": "call_2",
				"type": "function",
				"function": {"name": "input_text", "arguments": "{\"agent_thought\":\"type it\",\"text\":\"world\"}"}
			}]
		}
	}]
}`

func TestNew(t *testing.T) {
	p := New(option.WithAPIKey("test"))
	assert.NotNil(t, p)
}

func TestChatCompletionWithTools(t *testing.T) {
	var c capture
	server := newServer(t, &c, toolCallResponse)
	p := New(option.WithBaseURL(server.URL+"/v1"), option.WithAPIKey("test"), option.WithMaxRetries(0))
	runID := uuid.New()

	reply, err := p.ChatCompletion(context.Background(), provider.CompletionParams{
		RunID:             runID,
		Model:             staticModel{name: "gpt-4o", prov: p},
		Messages:          conversation(),
		Tools:             []tool.Definition{inputText.Definition()},
		ToolChoice:        provider.ToolChoiceAuto,
		ParallelToolCalls: false,
	})
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", c.body.Get("model").String())
	assert.Equal(t, "auto", c.body.Get("tool_choice").String())
	require.True(t, c.body.Get("parallel_tool_calls").Exists())
	assert.False(t, c.body.Get("parallel_tool_calls").Bool())
	assert.Equal(t, "input_text", c.body.Get("tools.0.function.name").String())
	assert.Equal(t, "object", c.body.Get("tools.0.function.parameters.type").String())
	assert.True(t, c.body.Get("tools.0.function.parameters.properties.text").Exists())

	msgs := c.body.Get("messages").Array()
	require.Len(t, msgs, 5)
	assert.Equal(t, "system", msgs[0].Get("role").String())
	assert.Equal(t, "user", msgs[1].Get("role").String())
	assert.Equal(t, "Type hello", msgs[1].Get("content").String())
	assert.Equal(t, "assistant", msgs[2].Get("role").String())
	assert.Equal(t, "call_1", msgs[2].Get("tool_calls.0.id").String())
	assert.Equal(t, "tool", msgs[3].Get("role").String())
	assert.Equal(t, "call_1", msgs[3].Get("tool_call_id").String())
	assert.Equal(t, "image_url", msgs[4].Get("content.1.type").String())

	assert.Equal(t, runID, reply.RunID)
	assert.Equal(t, "gpt-4o-2024-08-06", reply.Sender)
	require.Len(t, reply.Payload.ToolCalls, 1)
	assert.Equal(t, messages.ToolCallData{
		ID:        "call_2",
		Name:      "input_text",
		Arguments: `{"agent_thought":"type it","text":"world"}`,
	}, reply.Payload.ToolCalls[0])
}

func TestChatCompletionStructuredOutput(t *testing.T) {
	var c capture
	server := newServer(t, &c, `{
		"id": "chatcmpl-2",
		"object": "chat.completion",
		"created": 1700000000,
		"model": "gpt-4o-mini",
		"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "{\"step\":\"a\",\"output\":\"b\"}", "refusal": null}}]
	}`)
	p := New(option.WithBaseURL(server.URL+"/v1"), option.WithAPIKey("test"), option.WithMaxRetries(0))

	type output struct {
		Step   string `json:"step"`
		Output string `json:"output"`
	}
	schema := (&jsonschema.Reflector{DoNotReference: true}).Reflect(output{})

	reply, err := p.ChatCompletion(context.Background(), provider.CompletionParams{
		Model:          staticModel{name: "gpt-4o-mini", prov: p},
		Messages:       conversation()[:2],
		ResponseSchema: &provider.StructuredOutput{Name: "insight", Description: "extracted insight", Schema: schema},
	})
	require.NoError(t, err)

	assert.Equal(t, "json_schema", c.body.Get("response_format.type").String())
	assert.Equal(t, "insight", c.body.Get("response_format.json_schema.name").String())
	assert.True(t, c.body.Get("response_format.json_schema.strict").Bool())
	assert.False(t, c.body.Get("tools").Exists())
	assert.False(t, c.body.Get("parallel_tool_calls").Exists())
	assert.Equal(t, `{"step":"a","output":"b"}`, reply.Payload.Content.Text())
	assert.False(t, reply.Payload.HasToolCalls())
}

func TestChatCompletionErrors(t *testing.T) {
	t.Run("no choices", func(t *testing.T) {
		var c capture
		server := newServer(t, &c, `{"id":"x","object":"chat.completion","created":1,"model":"gpt-4o","choices":[]}`)
		p := New(option.WithBaseURL(server.URL+"/v1"), option.WithAPIKey("test"), option.WithMaxRetries(0))
		_, err := p.ChatCompletion(context.Background(), provider.CompletionParams{
			Model:    staticModel{name: "gpt-4o", prov: p},
			Messages: conversation()[:1],
		})
		assert.Error(t, err)
	})

	t.Run("api error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
		}))
		defer server.Close()
		p := New(option.WithBaseURL(server.URL+"/v1"), option.WithAPIKey("test"), option.WithMaxRetries(0))
		_, err := p.ChatCompletion(context.Background(), provider.CompletionParams{
			Model:    staticModel{name: "gpt-4o", prov: p},
			Messages: conversation()[:1],
		})
		assert.Error(t, err)
	})

	t.Run("missing model", func(t *testing.T) {
		_, err := New().ChatCompletion(context.Background(), provider.CompletionParams{})
		assert.Error(t, err)
	})

	t.Run("payload without mapping", func(t *testing.T) {
		_, err := messagesToOpenAI(func(yield func(messages.Message[messages.ModelMessage]) bool) {
			yield(messages.Message[messages.ModelMessage]{})
		})
		assert.Error(t, err)
	})
}

func TestModelRegistry(t *testing.T) {
	m1 := Model("test-model-registry", option.WithAPIKey("one"))
	m2 := Model("test-model-registry")
	assert.Same(t, m1, m2)
	assert.Equal(t, "test-model-registry", m1.Name())
	assert.Same(t, m1.Provider(), m1.Provider())
	assert.Equal(t, "gpt-4o", GPT4o().Name())
}
