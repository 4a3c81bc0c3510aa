// Package rtlog is the thin logging seam used by generation and parsing when
// a caller's debug flags ask for tracing. It wraps the standard library log
// package rather than an ecosystem structured logger, matching the teacher
// corpus's own choice for its server and CLI entry points (see DESIGN.md).
package rtlog

import (
	"io"
	"log"
)

// Logger writes prefixed trace lines, gated by whether its facility is
// enabled. A disabled Logger discards everything at effectively no cost.
type Logger struct {
	enabled bool
	std     *log.Logger
}

// New returns a Logger that writes to w with the given prefix when enabled
// is true, and discards all output otherwise.
func New(w io.Writer, prefix string, enabled bool) *Logger {
	l := &Logger{enabled: enabled}
	if enabled {
		l.std = log.New(w, prefix, 0)
	}
	return l
}

// Enabled reports whether this facility is turned on.
func (l *Logger) Enabled() bool {
	return l != nil && l.enabled
}

// Tracef logs a formatted trace line if the facility is enabled.
func (l *Logger) Tracef(format string, args ...any) {
	if !l.Enabled() {
		return
	}
	l.std.Printf(format, args...)
}
