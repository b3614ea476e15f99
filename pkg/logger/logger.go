package logger

import (
	"io"
	"log/slog"
	"os"
)

// Option configures the logger built by New.
type Option func(*config)

type config struct {
	output io.Writer
	level  slog.Level
	text   bool
}

// WithLevel sets the minimum level. Defaults to Info.
func WithLevel(l slog.Level) Option {
	return func(c *config) {
		c.level = l
	}
}

// WithOutput redirects log output. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.output = w
		}
	}
}

// WithText switches from JSON to the human-readable text handler.
func WithText() Option {
	return func(c *config) {
		c.text = true
	}
}

// New creates a JSON-formatted logger writing to stdout.
func New(opts ...Option) *slog.Logger {
	cfg := &config{output: os.Stdout, level: slog.LevelInfo}
	for _, opt := range opts {
		opt(cfg)
	}

	ho := &slog.HandlerOptions{Level: cfg.level}
	if cfg.text {
		return slog.New(slog.NewTextHandler(cfg.output, ho))
	}
	return slog.New(slog.NewJSONHandler(cfg.output, ho))
}

// NewNope creates a no-op logger that discards all output.
// Use this as a default when logging is not configured.
func NewNope() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
