package xmodem

import (
	"os"

	charmlog "github.com/charmbracelet/log"
)

// Logger is the variadic key-value logging interface the engine calls
// when a transfer starts, on a mode downgrade, and on cancellation,
// completion and protocol failures; individual retries are reported
// only to the Recorder, not logged. The calling
// convention (message, then alternating key/value pairs) matches
// github.com/charmbracelet/log's Logger methods directly, so a
// *charmlog.Logger satisfies this interface with no adapter.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

// defaultLogger returns the package default: a charmbracelet/log logger
// writing to stderr at warn level, quiet unless something's wrong.
func defaultLogger() Logger {
	l := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		Level:           charmlog.WarnLevel,
		ReportTimestamp: true,
	})
	return l
}
