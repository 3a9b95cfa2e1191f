// Package logging provides the debug-gated diagnostic logger.
//
// Nothing is written unless debug mode is on, either through the stored
// troubleshoot settings or forced from the command line.
package logging

import (
	"io"
	"os"
	"sync/atomic"

	"github.com/pterm/pterm"
)

// Logger is safe for concurrent use. A nil *Logger discards everything.
type Logger struct {
	pl     *pterm.Logger
	stored atomic.Bool
	forced atomic.Bool
}

// New returns a logger writing to w.
func New(w io.Writer) *Logger {
	return &Logger{
		pl: pterm.DefaultLogger.
			WithWriter(w).
			WithLevel(pterm.LogLevelDebug).
			WithTime(false),
	}
}

// Stderr returns a logger writing to standard error.
func Stderr() *Logger {
	return New(os.Stderr)
}

// Discard returns a logger that never writes.
func Discard() *Logger {
	return New(io.Discard)
}

// SetDebug records the stored debug mode setting.
func (l *Logger) SetDebug(on bool) {
	if l == nil {
		return
	}
	l.stored.Store(on)
}

// Force turns debug output on regardless of the stored setting.
func (l *Logger) Force(on bool) {
	if l == nil {
		return
	}
	l.forced.Store(on)
}

// Enabled reports whether messages are currently written.
func (l *Logger) Enabled() bool {
	if l == nil {
		return false
	}
	return l.forced.Load() || l.stored.Load()
}

// Debug logs msg with alternating key/value args.
func (l *Logger) Debug(msg string, kv ...any) {
	if !l.Enabled() {
		return
	}
	l.pl.Debug(msg, l.pl.Args(kv...))
}

// Info logs msg with alternating key/value args.
func (l *Logger) Info(msg string, kv ...any) {
	if !l.Enabled() {
		return
	}
	l.pl.Info(msg, l.pl.Args(kv...))
}

// Warn logs msg with alternating key/value args.
func (l *Logger) Warn(msg string, kv ...any) {
	if !l.Enabled() {
		return
	}
	l.pl.Warn(msg, l.pl.Args(kv...))
}

// Error logs msg and err with alternating key/value args.
func (l *Logger) Error(msg string, err error, kv ...any) {
	if !l.Enabled() {
		return
	}
	l.pl.Error(msg, l.pl.Args(append([]any{"error", err}, kv...)...))
}
