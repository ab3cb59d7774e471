// Package testlogging implements logger that writes to testing.T log.
package testlogging

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/vfsr/vfsr/logging"
)

// Context returns a context with attached logger that emits all log entries to go testing.T log output.
func Context(t *testing.T) context.Context {
	t.Helper()

	return ContextWithLevel(t, zapcore.DebugLevel)
}

// ContextWithLevel returns a context with attached logger that emits all log entries with given log level or above.
func ContextWithLevel(t *testing.T, level zapcore.Level) context.Context {
	t.Helper()

	return logging.WithLogger(context.Background(), Factory(t, level))
}

// Factory returns a LoggerFactory writing to t.Logf.
func Factory(t *testing.T, level zapcore.Level) logging.LoggerFactory {
	t.Helper()

	return func(module string) logging.Logger {
		return PrintfLevel(t.Logf, "["+module+"] ", level)
	}
}

// Recorder captures formatted log lines for assertions.
type Recorder struct {
	mu    sync.Mutex
	lines []string
}

// Logger returns a logger that appends to the recorder.
func (r *Recorder) Logger() logging.Logger {
	return Printf(func(msg string, args ...interface{}) {
		r.mu.Lock()
		defer r.mu.Unlock()

		r.lines = append(r.lines, fmt.Sprintf(msg, args...))
	}, "")
}

// Lines returns a copy of the recorded lines.
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.lines...)
}
