// Package config loads the process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/casualjim/mobileuse/device"
	"github.com/joho/godotenv"
)

// Config stores environment-driven settings for the CLI.
type Config struct {
	// OpenAIAPIKey authenticates model calls.
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	// OpenAIBaseURL points the client at a compatible endpoint.
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	// ExecutorModel is the model the executor binds tools to.
	ExecutorModel string `env:"OPENAI_DEFAULT_MODEL" envDefault:"gpt-4.1"`
	// InsightModel extracts structured output from raw tool results.
	InsightModel string `env:"MOBILEUSE_INSIGHT_MODEL" envDefault:"gpt-4o-mini"`
	// MaxRetries is passed to the OpenAI client.
	MaxRetries int `env:"OPENAI_MAX_RETRIES" envDefault:"2"`

	// NATSURL enables the NATS tick hook when set.
	NATSURL string `env:"NATS_URL"`
	// EventsSubject prefixes the subjects tick events are published to.
	EventsSubject string `env:"MOBILEUSE_EVENTS_SUBJECT" envDefault:"mobileuse.ticks"`

	// LogLevel sets the logger level.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// ADBPath is the adb executable.
	ADBPath string `env:"ADB_PATH" envDefault:"adb"`
	Device  Device `envPrefix:"MOBILEUSE_DEVICE_"`

	// MaxTicks bounds a single run.
	MaxTicks int `env:"MOBILEUSE_MAX_TICKS" envDefault:"50"`
	// Timeout bounds a single run. Zero disables it.
	Timeout time.Duration `env:"MOBILEUSE_TIMEOUT" envDefault:"5m"`
}

// Device describes the device the CLI drives.
type Device struct {
	Serial   string          `env:"SERIAL"`
	Platform device.Platform `env:"PLATFORM" envDefault:"android"`
	Host     string          `env:"HOST_PLATFORM" envDefault:"LINUX"`
	Width    int             `env:"WIDTH" envDefault:"1080"`
	Height   int             `env:"HEIGHT" envDefault:"2400"`
}

// Info converts the settings into device info.
func (d Device) Info() device.Info {
	return device.Info{
		HostPlatform: device.HostPlatform(d.Host),
		Platform:     d.Platform,
		ID:           d.Serial,
		Width:        d.Width,
		Height:       d.Height,
	}
}

// Load reads the given dotenv files, .env when none are given, and parses the environment.
// Variables already set in the environment win over the files. Missing files are ignored.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load dotenv: %w", err)
	}
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings a run needs.
func (c Config) Validate() error {
	var errs []error
	if c.OpenAIAPIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required"))
	}
	if c.MaxTicks <= 0 {
		errs = append(errs, errors.New("MOBILEUSE_MAX_TICKS must be positive"))
	}
	if err := c.Device.Info().Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
