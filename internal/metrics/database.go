package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// DBCollector exposes pgx pool statistics, sampled at scrape time so the
// numbers are current without a background goroutine.
type DBCollector struct {
	pool *pgxpool.Pool

	open    *prometheus.Desc
	inUse   *prometheus.Desc
	idle    *prometheus.Desc
	maxOpen *prometheus.Desc
}

func NewDBCollector(pool *pgxpool.Pool) *DBCollector {
	return &DBCollector{
		pool: pool,
		open: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "db_connections_open"),
			"Total number of open database connections", nil, nil),
		inUse: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "db_connections_in_use"),
			"Number of database connections currently acquired", nil, nil),
		idle: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "db_connections_idle"),
			"Number of idle database connections", nil, nil),
		maxOpen: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "db_connections_max_open"),
			"Maximum number of open database connections allowed", nil, nil),
	}
}

func (c *DBCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.open
	ch <- c.inUse
	ch <- c.idle
	ch <- c.maxOpen
}

func (c *DBCollector) Collect(ch chan<- prometheus.Metric) {
	if c.pool == nil {
		return
	}

	stat := c.pool.Stat()
	ch <- prometheus.MustNewConstMetric(c.open, prometheus.GaugeValue, float64(stat.TotalConns()))
	ch <- prometheus.MustNewConstMetric(c.inUse, prometheus.GaugeValue, float64(stat.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(stat.IdleConns()))
	ch <- prometheus.MustNewConstMetric(c.maxOpen, prometheus.GaugeValue, float64(stat.MaxConns()))
}
