package archive

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolStatsCollector reports connection pool statistics as Prometheus gauges,
// read from the pool on each collection.
type PoolStatsCollector struct {
	pool *pgxpool.Pool

	totalConns    *prometheus.Desc
	acquiredConns *prometheus.Desc
	maxConns      *prometheus.Desc
}

// NewPoolStatsCollector creates a collector for pool.
func NewPoolStatsCollector(pool *pgxpool.Pool) *PoolStatsCollector {
	return &PoolStatsCollector{
		pool: pool,
		totalConns: prometheus.NewDesc(
			"minutes_archive_pool_total_conns",
			"Total number of connections currently open in the pool",
			nil, nil,
		),
		acquiredConns: prometheus.NewDesc(
			"minutes_archive_pool_acquired_conns",
			"Number of connections currently acquired from the pool",
			nil, nil,
		),
		maxConns: prometheus.NewDesc(
			"minutes_archive_pool_max_conns",
			"Maximum number of connections allowed in the pool",
			nil, nil,
		),
	}
}

// Describe sends all metric descriptors to the channel.
func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalConns
	ch <- c.acquiredConns
	ch <- c.maxConns
}

// Collect gathers current pool statistics.
func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	if c.pool == nil {
		return
	}

	stats := c.pool.Stat()
	ch <- prometheus.MustNewConstMetric(c.totalConns, prometheus.GaugeValue, float64(stats.TotalConns()))
	ch <- prometheus.MustNewConstMetric(c.acquiredConns, prometheus.GaugeValue, float64(stats.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(c.maxConns, prometheus.GaugeValue, float64(stats.MaxConns()))
}

// RegisterPoolStatsCollector registers a collector for pool with reg.
// Registering twice is not an error.
func RegisterPoolStatsCollector(pool *pgxpool.Pool, reg prometheus.Registerer) (*PoolStatsCollector, error) {
	collector := NewPoolStatsCollector(pool)
	if err := reg.Register(collector); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			return nil, err
		}
	}
	return collector, nil
}
