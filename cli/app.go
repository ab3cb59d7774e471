// Package cli implements the vfsr command-line tool.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
	"github.com/pkg/errors"

	"github.com/vfsr/vfsr/internal/atexit"
	"github.com/vfsr/vfsr/logging"
)

var log = logging.Module("vfsr/cli")

//nolint:gochecknoglobals
var errorColor = color.New(color.FgRed)

type commandParent interface {
	Command(name, help string) *kingpin.CmdClause
}

// App contains per-invocation flags and state of the vfsr command-line tool.
type App struct {
	tempDir string

	logging       loggingFlags
	observability observabilityFlags

	replicate commandReplicate
	sanitize  commandSanitize

	loggerFactory logging.LoggerFactory
	stopSignals   func()

	stdoutWriter io.Writer
	stderrWriter io.Writer
}

// NewApp creates a new instance of App writing to the process stdout and stderr.
func NewApp() *App {
	return &App{
		stdoutWriter: os.Stdout,
		stderrWriter: os.Stderr,
		stopSignals:  func() {},
	}
}

func (c *App) stdout() io.Writer {
	return c.stdoutWriter
}

func (c *App) stderr() io.Writer {
	return c.stderrWriter
}

// SetOutput overrides the writers used for command output and logs.
func (c *App) SetOutput(stdout, stderr io.Writer) {
	c.stdoutWriter = stdout
	c.stderrWriter = stderr
}

// Attach attaches the flags and commands of the tool to the provided kingpin application.
func (c *App) Attach(app *kingpin.Application) {
	app.Flag("temp-dir", "Directory where replicas are created.").Envar("VFSR_TEMP_DIR").Default(defaultTempDir()).StringVar(&c.tempDir)

	c.logging.setup(c, app)
	c.observability.setup(c, app)

	c.replicate.setup(c, app)
	c.sanitize.setup(c, app)
}

// Run parses args and executes the selected command. Replicas registered for removal at
// exit are removed when it returns, and SIGINT/SIGTERM trigger the same removal.
func (c *App) Run(app *kingpin.Application, args []string) error {
	ctx := c.rootContext()

	c.stopSignals = atexit.HandleSignals(ctx, 1, nil)
	defer c.stopSignals()

	defer atexit.Run(ctx)
	defer c.logging.close()

	if _, err := app.Parse(args); err != nil {
		errorColor.Fprintf(c.stderr(), "ERROR: %v\n", err) //nolint:errcheck
		return errors.Wrap(err, "command failed")
	}

	return nil
}

func (c *App) rootContext() context.Context {
	return logging.WithLogger(context.Background(), c.getLoggerFactory())
}

func (c *App) getLoggerFactory() logging.LoggerFactory {
	if c.loggerFactory == nil {
		return logging.Console
	}

	return c.loggerFactory
}

// action wraps a command implementation into a kingpin action.
func (c *App) action(act func(ctx context.Context) error) func(*kingpin.ParseContext) error {
	return func(_ *kingpin.ParseContext) error {
		return act(c.rootContext())
	}
}

func defaultTempDir() string {
	return filepath.Join(os.TempDir(), "vfsr")
}
