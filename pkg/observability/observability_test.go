package observability

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.RecordActionItem(BucketTomorrow)
	m.RecordActionItem(BucketNextWeek)
	m.RecordActionItem(BucketNextWeek)
	m.RecordActionItemDropped(DropUnresolved)
	m.RecordActionItemDropped(DropBeyondWindow)
	m.RecordChunks(4)
	m.RecordSummary(StatusSuccess)
	m.RecordCacheLookup(CacheHit)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActionItemsTotal.WithLabelValues(BucketTomorrow)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ActionItemsTotal.WithLabelValues(BucketNextWeek)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActionItemsDroppedTotal.WithLabelValues(DropUnresolved)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActionItemsDroppedTotal.WithLabelValues(DropPast)))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.ChunksTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SummariesTotal.WithLabelValues(StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SummaryCacheTotal.WithLabelValues(CacheHit)))
}

func TestMetrics_StageDuration(t *testing.T) {
	m := NewMetrics()
	m.RecordStageDuration("summarize", 1.5)
	assert.Equal(t, 1, testutil.CollectAndCount(m.StageDurationSeconds))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordActionItem(BucketTomorrow)
		m.RecordActionItemDropped(DropPast)
		m.RecordChunks(1)
		m.RecordSummary(StatusFailure)
		m.RecordCacheLookup(CacheMiss)
		m.RecordStageDuration("transcribe", 1)
	})
	assert.NoError(t, m.WriteTextfile("/nonexistent/metrics.prom"))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.RecordActionItemDropped(DropPast)

	path := filepath.Join(t.TempDir(), "minutes.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `minutes_action_items_dropped_total{reason="past"} 1`)
}

func TestTracer_NoopProvider(t *testing.T) {
	tr := NewTracer()
	ctx, span := tr.StartStageSpan(context.Background(), "summarize", "run-1")
	require.NotNil(t, span)

	_, child := tr.StartCallSpan(ctx, "summarizer")
	EndSpan(child, errors.New("boom"), "external_failure")
	EndSpan(span, nil, "")

	assert.Empty(t, GetTraceID(context.Background()))
}
