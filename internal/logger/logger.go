package logger

import (
	"io"
	"sync"
)

// Log levels used across the application.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

var (
	// globalLogger holds the singleton logger instance.
	globalLogger *Logger
	once         sync.Once
)

// Get returns a singleton logger configured with the provided level, writing to stdout.
// The first call initializes the logger; subsequent calls ignore the level
// and return the already initialized instance.
func Get(level string) *Logger {
	return GetTo(level, nil)
}

// GetTo is Get with an explicit sink, e.g. the serial diagnostic console.
// A nil writer means stdout. Only the first call decides the sink.
func GetTo(level string, w io.Writer) *Logger {
	once.Do(func() {
		globalLogger = newZapLogger(level, w)
	})
	return globalLogger
}

// New builds a standalone logger that is not shared through Get.
func New(level string, w io.Writer) *Logger {
	return newZapLogger(level, w)
}
