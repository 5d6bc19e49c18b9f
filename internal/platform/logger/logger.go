package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. Development gets readable
// text output; everything else gets JSON for log shipping.
func New(env string) *slog.Logger {
	if env == "development" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
