// Package observability exposes Prometheus metrics and the listener that
// serves them alongside the health endpoint.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the ingestion pipeline.
type Metrics struct {
	RecordsStored *prometheus.CounterVec   // labels: kind={water_level,monthly_mean,station}
	FetchErrors   *prometheus.CounterVec   // labels: product={water_level,monthly_mean}
	StoreErrors   *prometheus.CounterVec   // labels: kind
	TickDuration  *prometheus.HistogramVec // labels: job={water_level,monthly_mean}
	TicksSkipped  *prometheus.CounterVec   // labels: job
}

// NewMetrics creates and registers the pipeline metrics. A nil registerer
// uses the default Prometheus registry; tests pass their own to avoid
// duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RecordsStored: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coastwatch",
			Name:      "records_stored_total",
			Help:      "Total records written to the time-series store.",
		}, []string{"kind"}),
		FetchErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coastwatch",
			Name:      "fetch_errors_total",
			Help:      "Total failed fetches from the tide data provider.",
		}, []string{"product"}),
		StoreErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coastwatch",
			Name:      "store_errors_total",
			Help:      "Total failed batch writes to the time-series store.",
		}, []string{"kind"}),
		TickDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "coastwatch",
			Name:      "tick_duration_seconds",
			Help:      "Duration of one complete ingestion tick over all stations.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"job"}),
		TicksSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coastwatch",
			Name:      "ticks_skipped_total",
			Help:      "Scheduled ticks skipped because the previous run of the same job was still active.",
		}, []string{"job"}),
	}
}
