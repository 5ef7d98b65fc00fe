package writer

import (
	"testing"
	"time"
)

func TestFormat(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name     string
		level    Level
		opts     FormatOptions
		expected string
	}{
		{"default layout", LevelInfo, FormatOptions{}, "[2026-01-02 03:04:05][INFO] hello"},
		{"custom layout", LevelError, FormatOptions{TimestampLayout: time.RFC3339}, "[2026-01-02T03:04:05Z][ERROR] hello"},
		{"raw", LevelWarn, FormatOptions{Raw: true}, "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(now, tt.level, "hello", tt.opts); got != tt.expected {
				t.Errorf("Format = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"info":    LevelInfo,
		"INFO":    LevelInfo,
		"Warning": LevelWarn,
		"warn":    LevelWarn,
		"error":   LevelError,
		"debug":   LevelDebug,
		"success": LevelSuccess,
	}
	for in, expected := range tests {
		got, err := ParseLevel(in)
		if err != nil {
			t.Errorf("ParseLevel(%q) failed: %v", in, err)
			continue
		}
		if got != expected {
			t.Errorf("ParseLevel(%q) = %q, expected %q", in, got, expected)
		}
	}

	if _, err := ParseLevel("loud"); err == nil {
		t.Error("ParseLevel should reject unknown levels")
	}
}
