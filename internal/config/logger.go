package config

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// appName tags every log line so sasabot output can be told apart from
// the conversation layer's when both write to the same stream.
const appName = "sasabot"

// NewLogger creates the root logger all components derive from. The
// level is scoped to this logger rather than the global zerolog level,
// so tests and embedded use keep their own settings.
func NewLogger(cfg LoggerConfig) zerolog.Logger {
	return newLogger(os.Stdout, cfg)
}

func newLogger(out io.Writer, cfg LoggerConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("app", appName).
		Logger()
}
