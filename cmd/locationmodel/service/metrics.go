package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	buildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "locationmodel_build_duration_seconds",
		Help:    "Time to rebuild, annotate and persist the location model",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	})

	buildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "locationmodel_builds_total",
		Help: "Location model rebuilds by result",
	}, []string{"result"})

	snapshotRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "locationmodel_snapshot_records",
		Help: "Records in the last persisted snapshot",
	})

	skippedRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "locationmodel_skipped_records_total",
		Help: "Location rows left out of a snapshot, by reason",
	}, []string{"reason"})

	degradedPaths = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "locationmodel_degraded_paths_total",
		Help: "Records whose derived paths could not be fully resolved",
	}, []string{"path", "reason"})

	materializeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "locationmodel_materialize_duration_seconds",
		Help:    "Time to materialize a location subtree",
		Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1},
	})
)
