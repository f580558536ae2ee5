// Package iometrics exposes prometheus metrics of harvests and of
// verbatim batch writes.
package iometrics

import (
	"net/http"

	"github.com/gnames/gnsos/pkg/harvest"
	"github.com/gnames/gnsos/pkg/verbatim"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gnsos"

var (
	// HarvestRunsTotal counts finished harvests by provider and status.
	HarvestRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "harvest",
			Name:      "runs_total",
			Help:      "Total number of finished harvests",
		},
		[]string{"provider", "status"},
	)

	// HarvestRecordsTotal counts records of successful harvests.
	HarvestRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "harvest",
			Name:      "records_total",
			Help:      "Total number of harvested verbatim records",
		},
		[]string{"provider"},
	)

	// HarvestDuration is the duration of harvests.
	HarvestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "harvest",
			Name:      "duration_seconds",
			Help:      "Harvest duration in seconds",
			Buckets:   []float64{1, 10, 60, 300, 900, 1800, 3600, 7200, 14400},
		},
		[]string{"provider"},
	)

	// BatchSplitsTotal counts batches halved because of store congestion.
	BatchSplitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "verbatim",
			Name:      "batch_splits_total",
			Help:      "Total number of split verbatim batches",
		},
		[]string{"collection"},
	)

	// BatchesAbandonedTotal counts small batches that could not be
	// written.
	BatchesAbandonedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "verbatim",
			Name:      "batches_abandoned_total",
			Help:      "Total number of abandoned verbatim batches",
		},
		[]string{"collection"},
	)
)

// Observer reports batch splitting of verbatim repositories.
type Observer struct{}

var _ verbatim.Observer = Observer{}

func (Observer) BatchSplit(collection string, _ int) {
	BatchSplitsTotal.WithLabelValues(collection).Inc()
}

func (Observer) BatchAbandoned(collection string, _ int) {
	BatchesAbandonedTotal.WithLabelValues(collection).Inc()
}

// RecordHarvest updates harvest metrics with the result of a run.
func RecordHarvest(info *harvest.Info) {
	HarvestRunsTotal.WithLabelValues(info.ID, info.Status.String()).Inc()
	if info.Status == harvest.Success {
		HarvestRecordsTotal.WithLabelValues(info.ID).Add(float64(info.Count))
	}
	if d := info.Duration(); d > 0 {
		HarvestDuration.WithLabelValues(info.ID).Observe(d.Seconds())
	}
}

// Handler serves metrics of the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
