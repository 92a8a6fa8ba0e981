package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrorLevel represents the severity of an internal failure
type ErrorLevel int

const (
	// ErrorLevelLow is for failures that do not affect delivery
	ErrorLevelLow ErrorLevel = iota
	// ErrorLevelMedium is for failures that lose a single record
	ErrorLevelMedium
	// ErrorLevelHigh is for failures that disable a sink
	ErrorLevelHigh
)

// LogError describes a failure inside the logging machinery itself.
type LogError struct {
	Operation   string
	Destination string
	Message     string
	Err         error
	Level       ErrorLevel
	Timestamp   time.Time
}

// Error implements the error interface
func (e LogError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Operation, e.Destination, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Operation, e.Destination, e.Message)
}

// Unwrap returns the underlying error
func (e LogError) Unwrap() error {
	return e.Err
}

// ErrorHandler receives internal failures
type ErrorHandler func(LogError)

// StderrErrorHandler writes internal failures to stderr
func StderrErrorHandler(err LogError) {
	fmt.Fprintf(os.Stderr, "hierlog error: %s\n", err.Error())
}

// SilentErrorHandler discards internal failures
func SilentErrorHandler(LogError) {}

// isTestMode detects if we're running under go test
func isTestMode() bool {
	for _, arg := range os.Args {
		if strings.HasPrefix(arg, "-test.") {
			return true
		}
	}

	if exe, err := os.Executable(); err == nil {
		basename := filepath.Base(exe)
		if strings.HasSuffix(exe, ".test") || strings.Contains(basename, ".test") {
			return true
		}
	}

	return false
}

func defaultErrorHandler() ErrorHandler {
	if isTestMode() {
		return SilentErrorHandler
	}
	return StderrErrorHandler
}

// reportError hands a failure to the configured handler
func (l *Logger) reportError(op, dest, msg string, err error, level ErrorLevel) {
	if l.errorHandler == nil {
		return
	}
	l.errorHandler(LogError{
		Operation:   op,
		Destination: dest,
		Message:     msg,
		Err:         err,
		Level:       level,
		Timestamp:   l.now(),
	})
}
