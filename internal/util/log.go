package util

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// LogTimeFormat stamps every log line.
const LogTimeFormat = "2006-01-02 15:04:05.000"

// NewLogger builds a timestamped logger on out. Unknown or empty levels fall back to info.
func NewLogger(out io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(out).With().Timestamp().Logger().Level(lvl)
}

// NewFileLogger appends plain-text log lines to path. The caller closes the
// returned file once the job is done.
func NewFileLogger(path, level string) (zerolog.Logger, io.Closer, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}
	return NewLogger(PlainWriter(file), level), file, nil
}

// PlainWriter renders events as "time LEVEL message key=value" lines without colour.
func PlainWriter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    true,
		TimeFormat: LogTimeFormat,
		FormatLevel: func(i any) string {
			if s, ok := i.(string); ok {
				return strings.ToUpper(s)
			}
			return "INFO"
		},
	}
}

