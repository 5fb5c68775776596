package testutil

import (
	"bytes"
	"log/slog"
)

// NopLogger returns a logger that drops everything
func NopLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// NewCaptureLogger returns a debug-level JSON logger and the buffer it
// writes to, for tests that assert on diagnostics.
func NewCaptureLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}
