package cli

import (
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"

	"github.com/vfsr/vfsr/logging"
)

//nolint:gochecknoglobals
var logLevels = map[string]zapcore.Level{
	"debug":   zapcore.DebugLevel,
	"info":    zapcore.InfoLevel,
	"warning": zapcore.WarnLevel,
	"error":   zapcore.ErrorLevel,
}

const logFilePerm = 0o600

type loggingFlags struct {
	logLevel     string
	logFile      string
	fileLogLevel string
	forceColor   bool
	disableColor bool

	file *os.File

	app *App
}

func (c *loggingFlags) setup(app *App, ka *kingpin.Application) {
	ka.Flag("log-level", "Console log level").Envar("VFSR_LOG_LEVEL").Default("warning").EnumVar(&c.logLevel, "debug", "info", "warning", "error")
	ka.Flag("log-file", "Also append log entries to the given file").Envar("VFSR_LOG_FILE").StringVar(&c.logFile)
	ka.Flag("file-log-level", "File log level").Default("debug").EnumVar(&c.fileLogLevel, "debug", "info", "warning", "error")
	ka.Flag("force-color", "Force color output").Hidden().Envar("VFSR_FORCE_COLOR").BoolVar(&c.forceColor)
	ka.Flag("disable-color", "Disable color output").Hidden().Envar("VFSR_DISABLE_COLOR").BoolVar(&c.disableColor)

	ka.PreAction(c.initialize)
	c.app = app
}

func levelOrDefault(name string, def zapcore.Level) zapcore.Level {
	if level, ok := logLevels[name]; ok {
		return level
	}

	return def
}

func (c *loggingFlags) initialize(_ *kingpin.ParseContext) error {
	console := logging.ConsoleLevel(c.app.stderr(), levelOrDefault(c.logLevel, zapcore.WarnLevel))
	c.app.loggerFactory = console

	if c.logFile != "" {
		f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePerm) //nolint:gosec
		if err != nil {
			return errors.Wrap(err, "unable to open log file")
		}

		c.file = f
		toFile := logging.ConsoleLevel(f, levelOrDefault(c.fileLogLevel, zapcore.DebugLevel))

		c.app.loggerFactory = func(module string) logging.Logger {
			return logging.Broadcast(console(module), toFile(module))
		}
	}

	if c.forceColor {
		color.NoColor = false
	}

	if c.disableColor {
		color.NoColor = true
	}

	return nil
}

// close releases the log file, if one was opened.
func (c *loggingFlags) close() {
	if c.file == nil {
		return
	}

	c.file.Close() //nolint:errcheck
	c.file = nil
}
