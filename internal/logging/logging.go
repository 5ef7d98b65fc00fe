// Package logging sets up rotlog's own diagnostics log, kept apart from the
// logs it manages and rotated by lumberjack.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mcdonaldj/rotlog/internal/config"
)

// NewRotatingWriter creates a diagnostics writer with size- and age-based rotation.
func NewRotatingWriter(cfg config.Diagnostics) io.WriteCloser {
	return &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
}

// NewLogger creates a structured text logger writing to w.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// Open expands the diagnostics path, creates its directory and returns a
// logger writing there. An empty path disables diagnostics: the logger
// discards everything. The returned closer must be closed by the caller.
func Open(cfg config.Diagnostics, level slog.Level) (*slog.Logger, io.Closer, error) {
	if cfg.Path == "" {
		return NewLogger(io.Discard, level), nopCloser{}, nil
	}

	path, err := config.ExpandPath(cfg.Path)
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("creating diagnostics directory: %w", err)
	}

	cfg.Path = path
	w := NewRotatingWriter(cfg)
	return NewLogger(w, level), w, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
