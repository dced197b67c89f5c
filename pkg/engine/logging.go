package engine

import (
	"io"
	"log/slog"
)

// NewLogger returns a text logger for the CLIs' diagnostic stream. Replies go
// to stdout, so w is normally os.Stderr.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
