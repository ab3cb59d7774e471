package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/vfsr/vfsr/fs"
	"github.com/vfsr/vfsr/fs/localfs"
	"github.com/vfsr/vfsr/fs/loggingfs"
	"github.com/vfsr/vfsr/replicator"
)

//nolint:gochecknoglobals
var replicaColor = color.New(color.FgGreen)

type commandReplicate struct {
	sources  []string
	include  []string
	maxDepth int
	parallel int
	hold     bool
	trace    bool

	app *App
}

func (c *commandReplicate) setup(app *App, parent commandParent) {
	cmd := parent.Command("replicate", "Copy files or directories into uniquely named replicas in the temporary directory.")
	cmd.Arg("source", "Files or directories to replicate").Required().ExistingFilesOrDirsVar(&c.sources)
	cmd.Flag("include", "Only copy files matching the given glob pattern (can be repeated)").StringsVar(&c.include)
	cmd.Flag("max-depth", "Maximum depth of directory entries to copy (-1 means unlimited)").Default("-1").IntVar(&c.maxDepth)
	cmd.Flag("parallel", "Number of sources replicated in parallel").Default("4").IntVar(&c.parallel)
	cmd.Flag("hold", "Keep replicas until interrupted").BoolVar(&c.hold)
	cmd.Flag("trace-sources", "Log every read of the sources at debug level").BoolVar(&c.trace)
	cmd.Action(app.action(c.run))

	c.app = app
}

func (c *commandReplicate) selector() (fs.Selector, error) {
	if len(c.include) > 0 {
		if c.maxDepth >= 0 {
			return nil, errors.New("--include and --max-depth cannot be combined")
		}

		return fs.Glob(c.include...) //nolint:wrapcheck
	}

	if c.maxDepth >= 0 {
		return fs.SelectDepth(0, c.maxDepth), nil
	}

	return fs.SelectAll, nil
}

func (c *commandReplicate) run(ctx context.Context) error {
	sel, err := c.selector()
	if err != nil {
		return err
	}

	r := replicator.New(c.app.tempDir)
	r.SetContext(localfs.Namespace{})
	r.SetLogger(log(ctx))

	if err := r.Init(); err != nil {
		return errors.Wrap(err, "unable to initialize replicator")
	}

	defer r.Close()

	replicas, err := c.replicateAll(ctx, r, sel)

	for i, src := range c.sources {
		if replicas[i] != "" {
			replicaColor.Fprintf(c.app.stdout(), "%v -> %v\n", src, replicas[i]) //nolint:errcheck
		}
	}

	if err != nil {
		return err
	}

	if c.hold {
		c.waitForInterrupt(ctx)
	}

	return c.app.observability.writeMetrics(ctx)
}

func (c *commandReplicate) replicateAll(ctx context.Context, r *replicator.UniqueFileReplicator, sel fs.Selector) ([]string, error) {
	replicas := make([]string, len(c.sources))

	eg, ctx := errgroup.WithContext(ctx)

	if c.parallel > 0 {
		eg.SetLimit(c.parallel)
	}

	for i, src := range c.sources {
		eg.Go(func() error {
			e, err := localfs.NewEntry(src)
			if err != nil {
				return errors.Wrapf(err, "unable to open %v", src)
			}

			if c.trace {
				e = loggingfs.Wrap(e, log(ctx))
			}

			p, err := r.ReplicateFile(ctx, e, sel)
			if err != nil {
				return errors.Wrapf(err, "unable to replicate %v", src)
			}

			replicas[i] = p

			return nil
		})
	}

	//nolint:wrapcheck
	return replicas, eg.Wait()
}

// waitForInterrupt blocks until SIGINT or SIGTERM, replacing the default handler which
// would exit the process without closing the replicator.
func (c *commandReplicate) waitForInterrupt(ctx context.Context) {
	c.app.stopSignals()

	stopMetrics := c.app.observability.startMetricsServer(ctx)
	defer stopMetrics()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintln(c.app.stderr(), "Holding replicas, press Ctrl-C to remove them and exit.") //nolint:errcheck

	<-ctx.Done()
}
