// Package logging builds the application logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

// Options controls where log records go.
type Options struct {
	Level string
	// File receives JSON records in addition to the terminal. Empty disables it.
	File string
}

// NormalizeLevel trims and lowercases a level name. Empty means info.
func NormalizeLevel(raw string) string {
	level := strings.ToLower(strings.TrimSpace(raw))
	if level == "" {
		return "info"
	}
	return level
}

// ParseLevel maps debug, info, warn or error to a slog level, ignoring case.
func ParseLevel(raw string) (slog.Level, error) {
	switch NormalizeLevel(raw) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", raw)
	}
}

// New creates a logger writing text records to stderr and, when opts.File is
// set, JSON records to that file. The returned close func releases the file.
func New(opts Options) (*slog.Logger, func() error, error) {
	return newLogger(os.Stderr, opts)
}

func newLogger(terminal io.Writer, opts Options) (*slog.Logger, func() error, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	handlerOpts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceAttr,
	}
	handlers := []slog.Handler{slog.NewTextHandler(terminal, handlerOpts)}
	closeFn := func() error { return nil }

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o700); err != nil {
			return nil, nil, err
		}
		file, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, err
		}
		handlers = append(handlers, slog.NewJSONHandler(file, handlerOpts))
		closeFn = file.Close
	}
	return slog.New(slogmulti.Fanout(handlers...)), closeFn, nil
}

// replaceAttr shortens the "error" key to "err".
func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Key == "error" {
		a.Key = "err"
	}
	return a
}
