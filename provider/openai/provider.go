package openai

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/casualjim/mobileuse/messages"
	"github.com/casualjim/mobileuse/pkg/jsonx"
	"github.com/casualjim/mobileuse/provider"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const defaultTemperature = 0.1

var _ provider.Provider = (*Provider)(nil)

type Provider struct {
	client openai.Client
}

func New(options ...option.RequestOption) *Provider {
	return &Provider{
		client: openai.NewClient(options...),
	}
}

func (p *Provider) buildRequest(params *provider.CompletionParams) (openai.ChatCompletionNewParams, error) {
	if params.Model == nil {
		return openai.ChatCompletionNewParams{}, errors.New("no model in completion params")
	}
	msgs, err := messagesToOpenAI(slices.Values(params.Messages))
	if err != nil {
		return openai.ChatCompletionNewParams{}, err
	}

	temperature := defaultTemperature
	if params.Temperature != nil {
		temperature = *params.Temperature
	}
	req := openai.ChatCompletionNewParams{
		Messages:    msgs,
		Model:       params.Model.Name(),
		N:           openai.Int(1),
		Temperature: openai.Float(temperature),
	}

	if len(params.Tools) > 0 {
		tools := make([]openai.ChatCompletionToolParam, len(params.Tools))
		for i, tool := range params.Tools {
			jv, err := tool.ParametersJSON()
			if err != nil {
				return openai.ChatCompletionNewParams{}, fmt.Errorf("failed to convert schema of tool %s: %w", tool.Name, err)
			}
			def := shared.FunctionDefinitionParam{
				Name:       tool.Name,
				Parameters: shared.FunctionParameters(jv),
			}
			if strings.TrimSpace(tool.Description) != "" {
				def.Description = openai.String(tool.Description)
			}
			tools[i] = openai.ChatCompletionToolParam{Function: def}
		}
		req.Tools = tools
		req.ParallelToolCalls = openai.Bool(params.ParallelToolCalls)
		if params.ToolChoice != "" {
			req.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
				OfAuto: openai.String(string(params.ToolChoice)),
			}
		}
	}

	if rs := params.ResponseSchema; rs != nil {
		schema, err := jsonx.ToDynamicJSON(rs.Schema)
		if err != nil {
			return openai.ChatCompletionNewParams{}, fmt.Errorf("failed to convert response schema %s: %w", rs.Name, err)
		}
		jsonSchema := shared.ResponseFormatJSONSchemaJSONSchemaParam{
			Name:   rs.Name,
			Strict: openai.Bool(true),
			Schema: schema,
		}
		if strings.TrimSpace(rs.Description) != "" {
			jsonSchema.Description = openai.String(rs.Description)
		}
		req.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{JSONSchema: jsonSchema},
		}
	}
	return req, nil
}

// ChatCompletion sends the conversation and maps the first choice to an assistant message.
func (p *Provider) ChatCompletion(ctx context.Context, params provider.CompletionParams) (messages.Message[messages.AssistantMessage], error) {
	req, err := p.buildRequest(&params)
	if err != nil {
		return messages.Message[messages.AssistantMessage]{}, fmt.Errorf("failed to build request: %w", err)
	}

	chat, err := p.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return messages.Message[messages.AssistantMessage]{}, fmt.Errorf("chat completion failed: %w", err)
	}
	return completionToMessage(chat, &params)
}

func messagesToOpenAI(seq iter.Seq[messages.Message[messages.ModelMessage]]) ([]openai.ChatCompletionMessageParamUnion, error) {
	var result []openai.ChatCompletionMessageParamUnion
	for message := range seq {
		switch msg := message.Payload.(type) {
		case messages.InstructionsMessage:
			result = append(result, openai.SystemMessage(msg.Content))
		case messages.UserMessage:
			if len(msg.Content.Parts) == 0 {
				result = append(result, openai.UserMessage(msg.Content.Content))
				continue
			}
			parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(msg.Content.Parts))
			for _, part := range msg.Content.Parts {
				switch part := part.(type) {
				case messages.TextContentPart:
					parts = append(parts, openai.TextContentPart(part.Text))
				case messages.ImageContentPart:
					parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
						URL:    part.URL,
						Detail: part.Detail,
					}))
				}
			}
			result = append(result, openai.UserMessage(parts))
		case messages.AssistantMessage:
			am := openai.ChatCompletionAssistantMessageParam{}
			if text := msg.Content.Text(); text != "" {
				am.Content.OfString = openai.String(text)
			}
			if msg.Refusal != "" {
				am.Refusal = openai.String(msg.Refusal)
			}
			for _, tc := range msg.ToolCalls {
				am.ToolCalls = append(am.ToolCalls, openai.ChatCompletionMessageToolCallParam{
					ID: tc.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
			result = append(result, openai.ChatCompletionMessageParamUnion{OfAssistant: &am})
		case messages.ToolResponse:
			result = append(result, openai.ToolMessage(msg.Content, msg.ToolCallID))
		default:
			return nil, fmt.Errorf("cannot send message of type %T", message.Payload)
		}
	}
	return result, nil
}

func completionToMessage(chat *openai.ChatCompletion, params *provider.CompletionParams) (messages.Message[messages.AssistantMessage], error) {
	if len(chat.Choices) == 0 {
		return messages.Message[messages.AssistantMessage]{}, errors.New("chat completion returned no choices")
	}
	choice := chat.Choices[0].Message

	reply := messages.AssistantMessage{
		Content: messages.AssistantContentOrParts{Content: choice.Content},
		Refusal: choice.Refusal,
	}
	for _, tc := range choice.ToolCalls {
		reply.ToolCalls = append(reply.ToolCalls, messages.ToolCallData{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	sender := chat.Model
	if sender == "" {
		sender = params.Model.Name()
	}
	return messages.New().WithRunID(params.RunID).WithSender(sender).Assistant(reply), nil
}
