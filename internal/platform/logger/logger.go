package logger

import (
	"log/slog"
	"os"
)

// New returns the JSON slog logger used across handlers and services.
// Level defaults to info; CANVASS_LOG_LEVEL=debug enables debug logs.
func New() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("CANVASS_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
