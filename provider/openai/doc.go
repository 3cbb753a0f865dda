/*
Package openai implements provider.Provider on top of the OpenAI chat completions API.

# Models

Models are created lazily and cached in the process wide registry of package models:

	model := openai.Model("gpt-4o",
		option.WithAPIKey(cfg.OpenAIAPIKey),
		option.WithBaseURL(cfg.OpenAIBaseURL),
	)

The first call for a name decides its request options. The underlying client is built on
first use of Provider().

# Requests

Conversation entries map onto chat messages as follows:

  - InstructionsMessage: system message
  - UserMessage: user message, text or text and image parts
  - AssistantMessage: assistant message with its tool calls
  - ToolResponse: tool message answering a tool call id

When tools are bound, parallel_tool_calls is always sent explicitly, so a caller asking
for sequential calls gets them even if the API default changes. A ResponseSchema is sent as
a strict json_schema response format.

# Responses

Only the first choice is used. Its text, refusal and tool calls become one
messages.AssistantMessage. No choices is an error.
*/
package openai
