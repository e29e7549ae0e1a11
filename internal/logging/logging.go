// Package logging builds the leveled logger shared by the adapters, the rule
// engine and the reconciler.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// New returns a logger writing to w at the given level name.
// An empty level falls back to LOG_LEVEL, then info.
func New(w io.Writer, level string) *log.Logger {
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	lvl := parseLevel(level)
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		ReportCaller:    lvl == log.DebugLevel,
	})
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

func parseLevel(s string) log.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
