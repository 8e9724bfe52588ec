// Package logging configures the process-wide slog logger.
//
// Debug logging is enabled by --verbose or by setting CALC_DEBUG:
//
//	export CALC_DEBUG=1
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// DebugEnv enables debug logging when set to anything but "", "0" or "false".
const DebugEnv = "CALC_DEBUG"

// Setup installs a text handler writing to w as the default slog logger.
func Setup(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose || debugFromEnv() {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func debugFromEnv() bool {
	v := strings.TrimSpace(os.Getenv(DebugEnv))
	return v != "" && v != "0" && strings.ToLower(v) != "false"
}
