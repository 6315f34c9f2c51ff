package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tempandmajor/ottowrite-sub007/internal/interfaces"
)

// Aliases so callers can take loggers and fields from this package alone.
type (
	Logger = interfaces.Logger
	Field  = interfaces.Field
)

// Level gates which messages a logger emits.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a config string to a Level. Unknown values fall back
// to info rather than erroring, so a typo in config never silences logs.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// StdoutLogger implements interfaces.Logger by printing one JSON object
// per line to stdout. It is the default backend for the CLI commands.
type StdoutLogger struct {
	component string
	level     Level
}

// NewStdoutLogger creates a logger at info level. component is optional
// and is stamped on every line.
func NewStdoutLogger(component string) *StdoutLogger {
	return &StdoutLogger{component: component, level: LevelInfo}
}

// NewStdoutLoggerAt creates a logger filtered at the given level string.
func NewStdoutLoggerAt(component, level string) *StdoutLogger {
	return &StdoutLogger{component: component, level: ParseLevel(level)}
}

func (s *StdoutLogger) log(level Level, name string, msg string, fields ...interfaces.Field) {
	if level < s.level {
		return
	}
	type line struct {
		Level     string         `json:"level"`
		Msg       string         `json:"msg"`
		Component string         `json:"component,omitempty"`
		Time      string         `json:"time"`
		Fields    map[string]any `json:"fields,omitempty"`
	}
	m := make(map[string]any, len(fields))
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	entry := line{
		Level:     name,
		Msg:       msg,
		Component: s.component,
		Time:      time.Now().UTC().Format(time.RFC3339),
		Fields:    m,
	}
	enc, err := json.Marshal(entry)
	if err != nil {
		// A field value that cannot marshal should not lose the message.
		fmt.Fprintf(os.Stdout, "%s %s %v\n", name, msg, m)
		return
	}
	fmt.Fprintln(os.Stdout, string(enc))
}

func (s *StdoutLogger) Debug(msg string, fields ...interfaces.Field) {
	s.log(LevelDebug, "debug", msg, fields...)
}

func (s *StdoutLogger) Info(msg string, fields ...interfaces.Field) {
	s.log(LevelInfo, "info", msg, fields...)
}

func (s *StdoutLogger) Warn(msg string, fields ...interfaces.Field) {
	s.log(LevelWarn, "warn", msg, fields...)
}

func (s *StdoutLogger) Error(msg string, fields ...interfaces.Field) {
	s.log(LevelError, "error", msg, fields...)
}

// With returns a child logger at the same level. A "component" field
// renames the child; other persistent fields are not retained, callers
// pass them per message instead.
func (s *StdoutLogger) With(fields ...interfaces.Field) interfaces.Logger {
	child := &StdoutLogger{component: s.component, level: s.level}
	for _, f := range fields {
		if f.Key == "component" {
			if str, ok := f.Value.(string); ok {
				child.component = str
			}
		}
	}
	return child
}
