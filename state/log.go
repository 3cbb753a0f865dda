package state

import (
	"iter"
	"slices"

	"github.com/casualjim/mobileuse/messages"
)

// Log is an ordered conversation log.
type Log []messages.Message[messages.ModelMessage]

func (l Log) Len() int {
	return len(l)
}

// Last returns the most recent entry.
func (l Log) Last() (messages.Message[messages.ModelMessage], bool) {
	if len(l) == 0 {
		return messages.Message[messages.ModelMessage]{}, false
	}
	return l[len(l)-1], true
}

// Iter yields the entries in order without copying the log.
func (l Log) Iter() iter.Seq[messages.Message[messages.ModelMessage]] {
	return slices.Values(l)
}

// Clone returns a copy that can be appended to without touching l.
func (l Log) Clone() Log {
	return slices.Clone(l)
}

// EndsWithDanglingToolCall reports whether the last entry requests a tool that never answered.
func (l Log) EndsWithDanglingToolCall() bool {
	last, ok := l.Last()
	return ok && messages.IsDanglingToolCall(last)
}

// PendingToolCalls returns the invocations of the trailing assistant turn that have no
// tool response after them yet.
func (l Log) PendingToolCalls() []messages.ToolCallData {
	resolved := make(map[string]struct{})
	for i := len(l) - 1; i >= 0; i-- {
		switch payload := l[i].Payload.(type) {
		case messages.ToolResponse:
			resolved[payload.ToolCallID] = struct{}{}
		case messages.AssistantMessage:
			var pending []messages.ToolCallData
			for _, tc := range payload.ToolCalls {
				if _, done := resolved[tc.ID]; !done {
					pending = append(pending, tc)
				}
			}
			return pending
		default:
			return nil
		}
	}
	return nil
}
