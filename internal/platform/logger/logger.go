package logger

import (
	"log/slog"
	"os"
)

// New returns the root structured logger. Services receive it via options so
// tests can swap in a silent logger.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
