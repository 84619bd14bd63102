// Package observability registers the collector's Prometheus metrics.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"example.com/wellsync/internal/domain"
)

var (
	daysProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wellsync",
		Subsystem: "collector",
		Name:      "days_processed_total",
		Help:      "Per-day ingestion attempts by metric type and outcome.",
	}, []string{"metric_type", "outcome"})
	activitiesProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wellsync",
		Subsystem: "collector",
		Name:      "activities_processed_total",
		Help:      "Activity ingestion attempts by outcome.",
	}, []string{"outcome"})
	samplesWritten = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wellsync",
		Subsystem: "persistence",
		Name:      "detail_rows_written_total",
		Help:      "Detail rows handed to the store by metric type.",
	}, []string{"metric_type"})
	lastSuccessGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "wellsync",
		Subsystem: "collector",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successfully synced day.",
	})
)

func init() {
	prometheus.MustRegister(daysProcessed, activitiesProcessed, samplesWritten, lastSuccessGauge)
}

// Day outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
	OutcomeEmpty   = "empty"
)

// RecordDay counts one per-day ingestion attempt.
func RecordDay(metric domain.MetricType, outcome string) {
	daysProcessed.WithLabelValues(string(metric), outcome).Inc()
	if outcome == OutcomeSuccess {
		lastSuccessGauge.Set(float64(time.Now().Unix()))
	}
}

// RecordActivity counts one activity ingestion attempt.
func RecordActivity(outcome string) {
	activitiesProcessed.WithLabelValues(outcome).Inc()
}

// RecordSamples counts detail rows handed to the store.
func RecordSamples(metric domain.MetricType, n int) {
	if n <= 0 {
		return
	}
	samplesWritten.WithLabelValues(string(metric)).Add(float64(n))
}
