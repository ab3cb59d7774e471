package replicator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals,promlinter
var (
	metricReplicateCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vfsr_replicate_count",
		Help: "Number of files successfully replicated",
	})

	metricReplicateErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vfsr_replicate_error_count",
		Help: "Number of failed replications by stage",
	}, []string{"stage"})

	metricReplicateBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vfsr_replicate_bytes",
		Help: "Number of bytes copied into replicas",
	})

	metricTrackedFiles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vfsr_tracked_files",
		Help: "Number of replicas awaiting removal",
	})

	metricCleanupErrorCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vfsr_cleanup_error_count",
		Help: "Number of replicas or directories that could not be removed on close",
	})
)
