// Package device describes the mobile device a run executes against and the
// handles used to talk to it.
package device

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fogfish/opts"
	"github.com/go-playground/validator/v10"
)

var (
	ErrNoTransport = errors.New("device: no transport in execution context")
	ErrNoScreenAPI = errors.New("device: no screen api client in execution context")
	ErrNoBridge    = errors.New("device: no device bridge in execution context")
)

// Platform is the operating system of the mobile device.
type Platform string

const (
	Android Platform = "android"
	IOS     Platform = "ios"
)

// HostPlatform is the operating system of the machine driving the device.
type HostPlatform string

const (
	Windows HostPlatform = "WINDOWS"
	Linux   HostPlatform = "LINUX"
	MacOS   HostPlatform = "MACOS"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Info identifies a device and its screen.
type Info struct {
	HostPlatform HostPlatform `json:"host_platform" validate:"required,oneof=WINDOWS LINUX MACOS"`
	Platform     Platform     `json:"mobile_platform" validate:"required,oneof=android ios"`
	ID           string       `json:"device_id" validate:"required"`
	Width        int          `json:"device_width" validate:"gt=0"`
	Height       int          `json:"device_height" validate:"gt=0"`
}

// Validate checks that every field is present and in range.
func (i Info) Validate() error {
	if err := validate.Struct(i); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		errs := make([]error, 0, len(verrs))
		for _, fe := range verrs {
			errs = append(errs, fmt.Errorf("device info: %s fails %q", fe.Field(), fe.Tag()))
		}
		return errors.Join(errs...)
	}
	return nil
}

// String renders the device summary that is embedded in prompts.
func (i Info) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Host platform: %s\n", i.HostPlatform)
	fmt.Fprintf(&sb, "Mobile platform: %s\n", i.Platform)
	fmt.Fprintf(&sb, "Device ID: %s\n", i.ID)
	fmt.Fprintf(&sb, "Device width: %d\n", i.Width)
	fmt.Fprintf(&sb, "Device height: %d\n", i.Height)
	return sb.String()
}

// Transport sends commands to the device.
//
// InputText returns a non-nil failure when the device reported a problem with the
// command. A non-nil error means the call itself broke down and nothing can be said
// about the device.
type Transport interface {
	InputText(ctx context.Context, info Info, text string) (failure any, err error)
	ListPackages(ctx context.Context, info Info) (string, error)
}

// ScreenAPI is the auxiliary client used to observe the screen.
type ScreenAPI interface {
	Screenshot(ctx context.Context) ([]byte, error)
}

// Bridge is a low-level channel to the device, for example an adb shell.
type Bridge interface {
	Shell(ctx context.Context, args ...string) (string, error)
}

// Option configures a Context.
type Option = opts.Option[Context]

// WithTransport sets the command transport.
func WithTransport(t Transport) Option {
	return opts.Type[Context](func(c *Context) error {
		c.transport = t
		return nil
	})
}

// WithScreenAPI sets the screen api client.
func WithScreenAPI(s ScreenAPI) Option {
	return opts.Type[Context](func(c *Context) error {
		c.screen = s
		return nil
	})
}

// WithBridge sets the optional low-level bridge.
func WithBridge(b Bridge) Option {
	return opts.Type[Context](func(c *Context) error {
		c.bridge = b
		return nil
	})
}

// WithTraceID tags everything the run logs with an execution trace id.
func WithTraceID(id string) Option {
	return opts.Type[Context](func(c *Context) error {
		c.traceID = id
		return nil
	})
}

// Context is the execution context of one run. It is built once and only read afterwards,
// so it can be shared by every tick of the run.
type Context struct {
	info      Info
	transport Transport
	screen    ScreenAPI
	bridge    Bridge
	traceID   string
}

// New validates info and builds an execution context.
func New(info Info, options ...Option) (*Context, error) {
	if err := info.Validate(); err != nil {
		return nil, err
	}
	c := &Context{info: info}
	if err := opts.Apply(c, options); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Context) Info() Info {
	return c.info
}

// Transport returns the command transport or ErrNoTransport.
func (c *Context) Transport() (Transport, error) {
	if c == nil || c.transport == nil {
		return nil, ErrNoTransport
	}
	return c.transport, nil
}

// ScreenAPI returns the screen api client or ErrNoScreenAPI.
func (c *Context) ScreenAPI() (ScreenAPI, error) {
	if c == nil || c.screen == nil {
		return nil, ErrNoScreenAPI
	}
	return c.screen, nil
}

// Bridge returns the low-level bridge or ErrNoBridge.
func (c *Context) Bridge() (Bridge, error) {
	if c == nil || c.bridge == nil {
		return nil, ErrNoBridge
	}
	return c.bridge, nil
}

// TraceID returns the execution trace id, empty when the run is not traced.
func (c *Context) TraceID() string {
	if c == nil {
		return ""
	}
	return c.traceID
}
