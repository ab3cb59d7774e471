package logging_test

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/vfsr/vfsr/internal/testlogging"
	"github.com/vfsr/vfsr/logging"
)

func TestBroadcast(t *testing.T) {
	t.Parallel()

	var lines []string

	l0 := testlogging.Printf(func(msg string, args ...interface{}) {
		lines = append(lines, fmt.Sprintf(msg, args...))
	}, "[first] ")

	l1 := testlogging.Printf(func(msg string, args ...interface{}) {
		lines = append(lines, fmt.Sprintf(msg, args...))
	}, "[second] ")

	l := logging.Broadcast(l0, l1)
	l.Debug("A")
	l.Debugw("S", "b", 123)
	l.Warn("W")

	require.Equal(t, []string{
		"[first] A",
		"[second] A",
		"[first] S\t{\"b\": 123}",
		"[second] S\t{\"b\": 123}",
		"[first] W",
		"[second] W",
	}, lines)
}

func TestWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	l := logging.ToWriter(&buf)("module1")
	l.Debug("A")
	l.Info("B")
	l.Error("C")
	l.Warn("W")

	require.Equal(t, "A\nB\nC\nW\n", buf.String())
}

func TestNullWriterModule(t *testing.T) {
	t.Parallel()

	l := logging.Module("mod1")(context.Background())

	l.Debug("A")
	l.Debugw("S", "b", 123)
	l.Info("B")
	l.Error("C")
	l.Warn("W")
}

func TestNonNullWriterModule(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	ctx := logging.WithLogger(context.Background(), logging.ToWriter(&buf))
	l := logging.Module("mod1")(ctx)

	l.Debug("A")
	l.Info("B")

	require.Equal(t, "A\nB\n", buf.String())
}

func TestConsoleLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	l := logging.ConsoleLevel(&buf, zapcore.WarnLevel)("vfsr/test")
	l.Info("hidden")
	l.Warnw("shown", "path", "/tmp/x")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "WARN vfsr/test shown")
	require.True(t, strings.Contains(out, `"path": "/tmp/x"`), out)
}
