package interfaces

// Logger is the minimal structured-logging contract used across the
// pipeline. Implementations live outside internal consumers so the
// backend can be swapped without touching call sites.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With returns a child logger that attaches fields to every message.
	With(fields ...Field) Logger
}

// Field is a key/value attachment for a log message.
type Field struct {
	Key   string
	Value interface{}
}
