package telemetry

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// serviceName tags every record so census logs stay attributable when they
// are shipped alongside other services.
const serviceName = "ward-census"

// SetupLogger installs the census backend logger as the slog default, so
// slog.Info/Warn/Error calls elsewhere pick it up without carrying a
// *slog.Logger around.
//
// format: "json" → JSONHandler (machine readable; what production runs);
// anything else → TextHandler for local development.
// level: "debug", "info", "warn", "error" (case-insensitive); defaults to "info".
func SetupLogger(format, level string) {
	slog.SetDefault(NewLogger(os.Stdout, format, level))
	slog.Info("logger initialised", "format", format, "level", level)
}

// NewLogger builds the logger SetupLogger installs, writing to w. Split out
// so tests can capture output from the same code path.
func NewLogger(w io.Writer, format, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug, // include file:line only when debugging
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler).With("service", serviceName)
}
