// Package observability provides the server's logger, metrics collector
// and the optional metrics HTTP listener.
package observability

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger. Output goes to stderr because
// stdout carries the protocol framing and must stay clean.
func NewLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
