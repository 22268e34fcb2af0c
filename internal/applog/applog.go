// Package applog initialises the global slog logger for the application.
// Call Init once at startup; all other packages use log/slog directly.
package applog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options configures Init.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// Format is FormatText or FormatJSON. Empty means text.
	Format string
	// File additionally receives every record when set.
	File string
}

var debugMode atomic.Bool

// Init installs a charmbracelet/log handler as the slog default. Records go
// to stderr, and to opts.File when set. The returned func points the default
// back at stderr and closes the file; call it on shutdown.
func Init(opts Options) (func() error, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	stderr, err := New(os.Stderr, level, opts.Format)
	if err != nil {
		return nil, err
	}

	logger := stderr
	var file *os.File
	if opts.File != "" {
		if dir := filepath.Dir(opts.File); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create log directory: %w", err)
			}
		}
		file, err = os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		// New only fails on the format, which was checked above.
		logger, _ = New(io.MultiWriter(os.Stderr, file), level, opts.Format)
	}

	debugMode.Store(level == log.DebugLevel)
	slog.SetDefault(slog.New(logger))

	closeFn := func() error {
		if file == nil {
			return nil
		}
		slog.SetDefault(slog.New(stderr))
		err := file.Close()
		file = nil
		return err
	}
	return closeFn, nil
}

// New builds a logger writing to w.
func New(w io.Writer, level log.Level, format string) (*log.Logger, error) {
	lo := log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	}
	switch strings.ToLower(format) {
	case "", FormatText:
		lo.Formatter = log.TextFormatter
	case FormatJSON:
		lo.Formatter = log.JSONFormatter
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	return log.NewWithOptions(w, lo), nil
}

// ParseLevel maps a level name to a log level. Empty means info.
func ParseLevel(s string) (log.Level, error) {
	if strings.TrimSpace(s) == "" {
		return log.InfoLevel, nil
	}
	level, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return log.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// IsDebug reports whether debug mode is active.
func IsDebug() bool {
	return debugMode.Load()
}
