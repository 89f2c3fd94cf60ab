package main

import (
	"log/slog"
	"os"
)

// setupLogger creates a text logger on stdout at the given level.
func setupLogger(level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewTextHandler(os.Stdout, opts)
	return slog.New(handler)
}
