// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pterm/pterm"
)

// EnvVerbose forces debug logging when set to 1 or true.
const EnvVerbose = "SQLEXPLORER_VERBOSE"

// Options configures New.
type Options struct {
	// Level is one of debug, info, warn, error. Unknown values mean info.
	Level   string
	Verbose bool
	// JSON switches pterm to its JSON formatter, for servers whose output is collected.
	JSON   bool
	Writer io.Writer
}

// New builds a slog logger printing through pterm.
func New(opts Options) *slog.Logger {
	level := ParseLevel(opts.Level)
	if opts.Verbose || IsVerbose() {
		level = pterm.LogLevelDebug
	}
	l := pterm.DefaultLogger.WithLevel(level)
	if opts.Writer != nil {
		l = l.WithWriter(opts.Writer)
	}
	if opts.JSON {
		l = l.WithFormatter(pterm.LogFormatterJSON)
	}
	return slog.New(pterm.NewSlogHandler(l))
}

// ParseLevel maps a configured level name to a pterm level.
func ParseLevel(s string) pterm.LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return pterm.LogLevelDebug
	case "warn", "warning":
		return pterm.LogLevelWarn
	case "error":
		return pterm.LogLevelError
	}
	return pterm.LogLevelInfo
}

// IsVerbose reports whether SQLEXPLORER_VERBOSE asks for debug output.
func IsVerbose() bool {
	v := strings.ToLower(os.Getenv(EnvVerbose))
	return v == "1" || v == "true"
}
