// Package logging is a thin leveled wrapper over the standard log package.
// Info and Error always print; Debug prints only when enabled at startup.
package logging

import (
	"log"
	"os"
	"sync/atomic"
)

var (
	debugEnabled atomic.Bool
	out          = log.New(os.Stdout, "", log.LstdFlags)
)

// Initialize configures the package logger. Call once at startup before any
// goroutines log.
func Initialize(debugMode bool) {
	debugEnabled.Store(debugMode)
}

func Info(format string, args ...interface{}) {
	out.Printf(format, args...)
}

func Error(format string, args ...interface{}) {
	out.Printf("ERROR: "+format, args...)
}

func Debug(format string, args ...interface{}) {
	if debugEnabled.Load() {
		out.Printf("DEBUG: "+format, args...)
	}
}
