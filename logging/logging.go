// Package logging provides loggers for vfsr modules.
package logging

import (
	"context"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is used by vfsr to emit diagnostic output.
type Logger = *zap.SugaredLogger

// LoggerFactory retrieves a named logger for a given module.
type LoggerFactory func(module string) Logger

type contextKey string

const loggerKey contextKey = "logger"

// WithLogger returns a derived context with associated logger factory.
func WithLogger(ctx context.Context, l LoggerFactory) context.Context {
	if l == nil {
		l = getNullLogger
	}

	return context.WithValue(ctx, loggerKey, l)
}

// Module returns a function that returns a logger for a given module when provided with a context.
func Module(module string) func(ctx context.Context) Logger {
	return func(ctx context.Context) Logger {
		if l, ok := ctx.Value(loggerKey).(LoggerFactory); ok {
			return l(module)
		}

		return NullLogger()
	}
}

// NullLogger returns a logger that discards all log messages.
func NullLogger() Logger {
	return zap.NewNop().Sugar()
}

func getNullLogger(module string) Logger {
	return NullLogger()
}

// ToWriter returns a LoggerFactory that writes unadorned messages to the provided writer.
func ToWriter(w io.Writer) LoggerFactory {
	return func(module string) Logger {
		return zap.New(zapcore.NewCore(
			zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
				MessageKey: "m",
				LineEnding: zapcore.DefaultLineEnding,
			}),
			zapcore.AddSync(w),
			zapcore.DebugLevel,
		)).Sugar()
	}
}

// Console returns a logger that writes warnings and errors to stderr.
// It is the sink used when no logger has been configured.
func Console(module string) Logger {
	return ConsoleLevel(os.Stderr, zapcore.WarnLevel)(module)
}

// ConsoleLevel returns a LoggerFactory writing human-readable log entries at or above the given level to w.
func ConsoleLevel(w io.Writer, level zapcore.Level) LoggerFactory {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			TimeKey:          "t",
			LevelKey:         "l",
			NameKey:          "n",
			MessageKey:       "m",
			LineEnding:       zapcore.DefaultLineEnding,
			EncodeTime:       zapcore.RFC3339NanoTimeEncoder,
			EncodeLevel:      zapcore.CapitalLevelEncoder,
			EncodeName:       zapcore.FullNameEncoder,
			EncodeDuration:   zapcore.StringDurationEncoder,
			ConsoleSeparator: " ",
		}),
		zapcore.Lock(zapcore.AddSync(w)),
		level,
	)

	root := zap.New(core)

	return func(module string) Logger {
		return root.Named(module).Sugar()
	}
}

// Broadcast is a logger that broadcasts each log message to multiple loggers.
func Broadcast(logger ...Logger) Logger {
	var cores []zapcore.Core

	for _, l := range logger {
		cores = append(cores, l.Desugar().Core())
	}

	return zap.New(zapcore.NewTee(cores...)).Sugar()
}
