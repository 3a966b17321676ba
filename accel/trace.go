package accel

import (
	"context"
	"log/slog"
)

// LevelTrace is below Debug. Per-beat hardware traces are only emitted when
// the handler level is set this low.
const LevelTrace slog.Level = slog.LevelDebug - 4

// Trace logs a hardware event at LevelTrace.
func Trace(msg string, args ...any) {
	slog.Log(context.Background(), LevelTrace, msg, args...)
}
