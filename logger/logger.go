// Package logger defines the minimal logging surface the loader emits
// debug traces through. Callers plug in their own implementation via
// loader.WithLogger.
package logger

import (
	"fmt"
	"log"
	"strings"
)

// Logger is the logging contract consumed by this module. Arguments
// following the message are alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Enabled silences every DefaultLogger when false.
var Enabled = true

// DefaultLogger writes through the standard library logger.
type DefaultLogger struct {
	name string
}

// NewDefaultLogger creates a named stdlib-backed logger.
func NewDefaultLogger(name string) *DefaultLogger {
	return &DefaultLogger{name: name}
}

func (d *DefaultLogger) Debug(msg string, args ...any) { d.emit("DEBUG", msg, args) }
func (d *DefaultLogger) Info(msg string, args ...any)  { d.emit("INFO", msg, args) }
func (d *DefaultLogger) Error(msg string, args ...any) { d.emit("ERROR", msg, args) }

func (d *DefaultLogger) emit(level, msg string, args []any) {
	if !Enabled {
		return
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s | %s", level, d.name, msg)
	for i := 0; i+1 < len(args); i += 2 {
		fmt.Fprintf(&sb, " %v=%v", args[i], args[i+1])
	}
	log.Println(sb.String())
}

// Nop discards everything; useful in tests.
type Nop struct{}

func (Nop) Debug(string, ...any) {}
func (Nop) Info(string, ...any)  {}
func (Nop) Error(string, ...any) {}
