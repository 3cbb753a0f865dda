// Package messages models the conversation a device-driving agent keeps with its model:
// system instructions, human turns (planner rationale, structured decisions), assistant
// turns that may request a tool, and the status-tagged tool responses that resolve them.
//
// Every payload travels inside a Message envelope that records which run and turn it
// belongs to, who sent it, when, and an optional free-form JSON metadata document.
// Logs that mix payload kinds hold Message[ModelMessage]; use Erase to widen a typed
// message and As to narrow it back.
//
// Envelopes encode to flat JSON objects with a "type" discriminator:
//
//	{"type":"tool_response","tool_name":"input_text","tool_call_id":"call_1",
//	 "content":"Successfully typed hi","status":"success","sender":"input_text", ...}
//
// An assistant message that carries tool calls and is the last entry of a log is an
// unresolved invocation; IsDanglingToolCall reports exactly that shape.
package messages
