package util

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger builds the process logger. Every record carries the service
// name and the component (server, worker, admin) that wrote it.
func NewLogger(env, component string) *slog.Logger {
	return newLogger(os.Stdout, env, component)
}

func newLogger(w io.Writer, env, component string) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if env == "development" {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler).With(
		slog.String("service", "blogit"),
		slog.String("component", component),
	)
}
