// Package logging provides the small leveled wrapper around the standard
// library logger that this module uses at its call sites — no structured
// logging framework is pulled in for this.
package logging

import (
	"log"
	"os"
)

// Logger is a minimal leveled logger over the standard library's *log.Logger.
type Logger struct {
	std *log.Logger
}

// Default returns a Logger writing to stderr with the standard flags.
func Default() *Logger {
	return &Logger{std: log.New(os.Stderr, "", log.LstdFlags)}
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.std.Printf("INFO  "+format, args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.std.Printf("WARN  "+format, args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.std.Printf("ERROR "+format, args...)
}
