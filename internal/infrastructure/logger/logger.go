package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gdugdh24/rider-seeker-backend/internal/config"
	"github.com/rs/zerolog"
)

type ctxKey struct{}

// New builds the application logger. Format "console" gives human readable
// output for local runs, anything else emits JSON.
func New(cfg *config.LoggingConfig) zerolog.Logger {
	return NewWithWriter(cfg, os.Stdout)
}

func NewWithWriter(cfg *config.LoggingConfig, w io.Writer) zerolog.Logger {
	if strings.EqualFold(cfg.Format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).
		Level(parseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("service", "rider-seeker").
		Logger()
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// WithContext stores l in ctx for request scoped logging.
func WithContext(ctx context.Context, l zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the request logger, or fallback when ctx has none.
func FromContext(ctx context.Context, fallback zerolog.Logger) zerolog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return l
	}
	return fallback
}
