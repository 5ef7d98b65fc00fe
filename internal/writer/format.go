package writer

import (
	"fmt"
	"strings"
	"time"
)

// Level is the severity tag written into a formatted line.
type Level string

const (
	LevelDebug   Level = "DEBUG"
	LevelInfo    Level = "INFO"
	LevelSuccess Level = "SUCCESS"
	LevelWarn    Level = "WARN"
	LevelError   Level = "ERROR"
)

var levels = map[string]Level{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"success": LevelSuccess,
	"warn":    LevelWarn,
	"warning": LevelWarn,
	"error":   LevelError,
}

// ParseLevel accepts level names case-insensitively; "warning" is an alias for WARN.
func ParseLevel(s string) (Level, error) {
	if l, ok := levels[strings.ToLower(strings.TrimSpace(s))]; ok {
		return l, nil
	}
	return "", fmt.Errorf("unknown level %q", s)
}

// FormatOptions controls how a message becomes a line.
type FormatOptions struct {
	// TimestampLayout is a time.Format layout.
	TimestampLayout string
	// Raw writes the message alone, without timestamp or level.
	Raw bool
}

// Format renders "[<timestamp>][<level>] <message>", or the bare message when Raw is set.
func Format(now time.Time, level Level, message string, opts FormatOptions) string {
	if opts.Raw {
		return message
	}
	layout := opts.TimestampLayout
	if layout == "" {
		layout = time.DateTime
	}
	return fmt.Sprintf("[%s][%s] %s", now.Format(layout), level, message)
}
