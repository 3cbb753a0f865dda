// Package adb drives Android devices through the adb command line tool.
package adb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/casualjim/mobileuse/device"
	"github.com/casualjim/mobileuse/pkg/slogx"
	"github.com/fogfish/opts"
)

// Runner executes a command and returns what it wrote to stdout and stderr.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Failure is the payload reported when adb ran but the device rejected the command,
// or when the command could not be expressed at all.
type Failure struct {
	ExitCode int    `json:"exit_code"`
	Stderr   string `json:"stderr,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

func (f Failure) String() string {
	if f.Reason != "" {
		return f.Reason
	}
	return fmt.Sprintf("exit code %d: %s", f.ExitCode, f.Stderr)
}

// Option configures a Client.
type Option = opts.Option[Client]

// WithBinary overrides the adb executable, "adb" by default.
var WithBinary = opts.ForName[Client, string]("Binary")

// WithRunner replaces the process runner.
func WithRunner(r Runner) Option {
	return opts.Type[Client](func(c *Client) error {
		c.runner = r
		return nil
	})
}

// Client is a device.Transport and device.Bridge for one Android serial.
type Client struct {
	Binary string
	serial string
	runner Runner
}

var (
	_ device.Transport = (*Client)(nil)
	_ device.Bridge    = (*Client)(nil)
)

// New creates a client for the device with the given serial.
func New(serial string, options ...Option) (*Client, error) {
	if serial == "" {
		return nil, errors.New("adb: device serial is required")
	}
	c := &Client{Binary: "adb", serial: serial, runner: execRunner{}}
	if err := opts.Apply(c, options); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) run(ctx context.Context, args ...string) ([]byte, *Failure, error) {
	full := append([]string{"-s", c.serial}, args...)
	slog.DebugContext(ctx, "running adb", slog.String("serial", c.serial), slog.Any("args", args))
	stdout, stderr, err := c.runner.Run(ctx, c.Binary, full...)
	if err == nil {
		return stdout, nil, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return stdout, &Failure{ExitCode: exitErr.ExitCode(), Stderr: strings.TrimSpace(string(stderr))}, nil
	}
	return nil, nil, fmt.Errorf("adb: %w", err)
}

// Shell runs a command in the device shell and returns its trimmed output.
func (c *Client) Shell(ctx context.Context, args ...string) (string, error) {
	out, failure, err := c.run(ctx, append([]string{"shell"}, args...)...)
	if err != nil {
		return "", err
	}
	if failure != nil {
		return "", fmt.Errorf("adb shell: %s", failure)
	}
	return strings.TrimSpace(string(out)), nil
}

// InputText types text into whatever has focus. A rejected command is returned as a Failure.
// Text containing a literal "%s" is typed in several commands so it is not read as a space.
// Line breaks cannot be typed and are reported as a Failure.
func (c *Client) InputText(ctx context.Context, info device.Info, text string) (any, error) {
	if info.Platform != device.Android {
		return nil, fmt.Errorf("adb: cannot input text on %s", info.Platform)
	}
	if strings.ContainsAny(text, "\r\n") {
		return Failure{Reason: "input text cannot type line breaks, send each line separately"}, nil
	}
	for _, chunk := range textChunks(text) {
		_, failure, err := c.run(ctx, "shell", "input", "text", EscapeText(chunk))
		if err != nil {
			return nil, err
		}
		if failure != nil {
			slog.WarnContext(ctx, "input text rejected by device", slog.String("serial", c.serial), slogx.Stringer("failure", failure))
			return *failure, nil
		}
	}
	return nil, nil
}

// ListPackages returns the package list as printed by the package manager.
func (c *Client) ListPackages(ctx context.Context, info device.Info) (string, error) {
	if info.Platform != device.Android {
		return "", fmt.Errorf("adb: cannot list packages on %s", info.Platform)
	}
	return c.Shell(ctx, "pm", "list", "packages")
}

// EscapeText prepares text for "input text" on the device shell. Spaces become %s, which
// the input command types as a space, and the result is single quoted so the shell leaves
// every other character alone. The text must not contain a literal "%s", see textChunks.
func EscapeText(text string) string {
	return "'" + strings.ReplaceAll(strings.ReplaceAll(text, " ", "%s"), "'", `'\''`) + "'"
}

// textChunks splits text so that no chunk contains "%s". Typing "100%" and then "sale"
// produces "100%sale" on the device.
func textChunks(text string) []string {
	var chunks []string
	for {
		i := strings.Index(text, "%s")
		if i < 0 {
			break
		}
		chunks = append(chunks, text[:i+1])
		text = text[i+1:]
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}
