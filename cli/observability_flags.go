package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

// DirMode is the directory mode for output directories.
const DirMode = 0o700

type observabilityFlags struct {
	metricsListenAddr string
	metricsOutputDir  string
}

func (c *observabilityFlags) setup(_ *App, app *kingpin.Application) {
	app.Flag("metrics-listen-addr", "Expose Prometheus metrics on a given host:port while holding replicas").Envar("VFSR_METRICS_LISTEN_ADDR").StringVar(&c.metricsListenAddr)
	app.Flag("metrics-directory", "Directory where the metrics should be saved when the command completes").Hidden().StringVar(&c.metricsOutputDir)
}

// startMetricsServer starts serving metrics and returns a function that stops the server.
func (c *observabilityFlags) startMetricsServer(ctx context.Context) func() {
	if c.metricsListenAddr == "" {
		return func() {}
	}

	m := http.NewServeMux()
	m.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: c.metricsListenAddr, Handler: m} //nolint:gosec

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log(ctx).Warnf("unable to serve metrics: %v", err)
		}
	}()

	log(ctx).Infof("serving metrics on http://%v/metrics", c.metricsListenAddr)

	return func() {
		srv.Close() //nolint:errcheck
	}
}

// writeMetrics saves the current metrics in text format to a new file in the metrics directory.
func (c *observabilityFlags) writeMetrics(ctx context.Context) error {
	if c.metricsOutputDir == "" {
		return nil
	}

	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return errors.Wrap(err, "unable to gather metrics")
	}

	if err := os.MkdirAll(c.metricsOutputDir, DirMode); err != nil {
		return errors.Wrap(err, "unable to create metrics directory")
	}

	fname := filepath.Join(c.metricsOutputDir, fmt.Sprintf("vfsr-%v.prom", os.Getpid()))

	f, err := os.Create(fname) //nolint:gosec
	if err != nil {
		return errors.Wrap(err, "unable to create metrics file")
	}
	defer f.Close() //nolint:errcheck

	enc := expfmt.NewEncoder(f, expfmt.NewFormat(expfmt.TypeTextPlain))

	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return errors.Wrap(err, "unable to encode metrics")
		}
	}

	log(ctx).Debugf("metrics written to %v", fname)

	return nil
}
