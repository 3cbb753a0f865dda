// Package msgfmt prints conversation logs for people.
package msgfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/casualjim/mobileuse/messages"
	"github.com/casualjim/mobileuse/state"
	"github.com/fatih/color"
)

// Transcript writes one line per entry of log.
func Transcript(w io.Writer, log state.Log) error {
	for m := range log.Iter() {
		if err := line(w, m); err != nil {
			return err
		}
	}
	return nil
}

func line(w io.Writer, m messages.Message[messages.ModelMessage]) error {
	var err error
	switch p := m.Payload.(type) {
	case messages.InstructionsMessage:
		_, err = fmt.Fprintf(w, "%s: %s\n", color.BlueString("System"), firstLine(p.Content))
	case messages.UserMessage:
		_, err = fmt.Fprintf(w, "%s: %s\n", color.CyanString(sender(m.Sender, "User")), p.Content.Text())
	case messages.AssistantMessage:
		name := color.MagentaString(sender(m.Sender, "Assistant"))
		if text := p.Content.Text(); text != "" {
			if _, err = fmt.Fprintf(w, "%s: %s\n", name, text); err != nil {
				return err
			}
		}
		if p.Refusal != "" {
			if _, err = fmt.Fprintf(w, "%s: %s\n", name, color.RedString("refused: "+p.Refusal)); err != nil {
				return err
			}
		}
		for _, tc := range p.ToolCalls {
			args := strings.ReplaceAll(tc.Arguments, ": ", "=")
			if _, err = fmt.Fprintf(w, "%s: %s%s\n", name, color.YellowString(tc.Name), args); err != nil {
				return err
			}
		}
	case messages.ToolResponse:
		status := color.GreenString(string(p.Status))
		if p.Failed() {
			status = color.RedString(string(p.Status))
		}
		_, err = fmt.Fprintf(w, "%s [%s]: %s\n", color.YellowString(p.ToolName), status, p.Content)
	}
	return err
}

// Summary writes the outcome of a run.
func Summary(w io.Writer, ticks, toolCalls int, failed bool, s *state.State) error {
	outcome := color.GreenString("settled")
	if failed {
		outcome = color.RedString("failed")
	}
	if _, err := fmt.Fprintf(w, "%s after %d ticks, %d tool calls\n", outcome, ticks, toolCalls); err != nil {
		return err
	}
	if thought, ok := s.LastThought(); ok {
		if _, err := fmt.Fprintf(w, "%s: %s\n", color.CyanString("Last thought"), thought); err != nil {
			return err
		}
	}
	return nil
}

func sender(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func firstLine(s string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return first
}
