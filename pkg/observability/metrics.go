// Package observability provides metrics and tracing for the minutes stages.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values for the action item counters.
const (
	BucketTomorrow = "tomorrow"
	BucketNextWeek = "next_week"

	DropUnresolved   = "unresolved"
	DropPast         = "past"
	DropBeyondWindow = "beyond_window"
)

// Label values for summary and cache counters.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"

	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Metrics holds the Prometheus metrics recorded during a run. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	ActionItemsTotal        *prometheus.CounterVec
	ActionItemsDroppedTotal *prometheus.CounterVec
	ChunksTotal             prometheus.Counter
	SummariesTotal          *prometheus.CounterVec
	SummaryCacheTotal       *prometheus.CounterVec
	StageDurationSeconds    *prometheus.HistogramVec
}

// NewMetrics creates the run metrics on a fresh registry.
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.NewRegistry())
}

// NewMetricsWithRegistry creates the run metrics on reg.
func NewMetricsWithRegistry(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		ActionItemsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "minutes_action_items_total",
				Help: "Action items scheduled, by bucket",
			},
			[]string{"bucket"},
		),
		ActionItemsDroppedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "minutes_action_items_dropped_total",
				Help: "Action item candidates not scheduled, by reason",
			},
			[]string{"reason"},
		),
		ChunksTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "minutes_chunks_total",
				Help: "Topic chunks produced",
			},
		),
		SummariesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "minutes_summaries_total",
				Help: "Chunk summaries requested, by outcome",
			},
			[]string{"status"},
		),
		SummaryCacheTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "minutes_summary_cache_total",
				Help: "Summary cache lookups, by result",
			},
			[]string{"result"},
		),
		StageDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "minutes_stage_duration_seconds",
				Help:    "Wall time per stage",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 600, 1800, 3600, 7200},
			},
			[]string{"stage"},
		),
	}
}

// RecordActionItem records a scheduled action item.
func (m *Metrics) RecordActionItem(bucket string) {
	if m == nil {
		return
	}
	m.ActionItemsTotal.WithLabelValues(bucket).Inc()
}

// RecordActionItemDropped records a candidate that fell outside every bucket.
func (m *Metrics) RecordActionItemDropped(reason string) {
	if m == nil {
		return
	}
	m.ActionItemsDroppedTotal.WithLabelValues(reason).Inc()
}

// RecordChunks adds n produced chunks.
func (m *Metrics) RecordChunks(n int) {
	if m == nil {
		return
	}
	m.ChunksTotal.Add(float64(n))
}

// RecordSummary records a summarizer call outcome.
func (m *Metrics) RecordSummary(status string) {
	if m == nil {
		return
	}
	m.SummariesTotal.WithLabelValues(status).Inc()
}

// RecordCacheLookup records a summary cache lookup.
func (m *Metrics) RecordCacheLookup(result string) {
	if m == nil {
		return
	}
	m.SummaryCacheTotal.WithLabelValues(result).Inc()
}

// RecordStageDuration records how long a stage ran.
func (m *Metrics) RecordStageDuration(stage string, seconds float64) {
	if m == nil {
		return
	}
	m.StageDurationSeconds.WithLabelValues(stage).Observe(seconds)
}

// WriteTextfile writes every metric in the registry to path in the node
// exporter textfile format. A nil receiver or empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
