package metrics

import (
	"github.com/lk2023060901/pocketzot/pkg/database/postgres"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolCollector 采集时读取 pgx 连接池状态
type PoolCollector struct {
	stats func() *postgres.PoolStats

	acquiredConns *prometheus.Desc
	idleConns     *prometheus.Desc
	totalConns    *prometheus.Desc
	maxConns      *prometheus.Desc
	acquireCount  *prometheus.Desc
	canceledCount *prometheus.Desc
	acquireWait   *prometheus.Desc
}

// NewPoolCollector 创建连接池采集器，stats 通常为 (*postgres.Client).Stats
func NewPoolCollector(cfg *Config, stats func() *postgres.PoolStats) *PoolCollector {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(cfg.Namespace, "db_pool", name), help, nil, nil)
	}
	return &PoolCollector{
		stats:         stats,
		acquiredConns: desc("acquired_conns", "Connections currently checked out"),
		idleConns:     desc("idle_conns", "Idle connections"),
		totalConns:    desc("total_conns", "Open connections"),
		maxConns:      desc("max_conns", "Configured pool size"),
		acquireCount:  desc("acquire_total", "Successful connection acquisitions"),
		canceledCount: desc("acquire_canceled_total", "Acquisitions canceled by context"),
		acquireWait:   desc("acquire_seconds_total", "Cumulative time spent acquiring connections"),
	}
}

// Describe 实现 prometheus.Collector
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquiredConns
	ch <- c.idleConns
	ch <- c.totalConns
	ch <- c.maxConns
	ch <- c.acquireCount
	ch <- c.canceledCount
	ch <- c.acquireWait
}

// Collect 实现 prometheus.Collector
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()
	if s == nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.acquiredConns, prometheus.GaugeValue, float64(s.AcquiredConns))
	ch <- prometheus.MustNewConstMetric(c.idleConns, prometheus.GaugeValue, float64(s.IdleConns))
	ch <- prometheus.MustNewConstMetric(c.totalConns, prometheus.GaugeValue, float64(s.TotalConns))
	ch <- prometheus.MustNewConstMetric(c.maxConns, prometheus.GaugeValue, float64(s.MaxConns))
	ch <- prometheus.MustNewConstMetric(c.acquireCount, prometheus.CounterValue, float64(s.AcquireCount))
	ch <- prometheus.MustNewConstMetric(c.canceledCount, prometheus.CounterValue, float64(s.CanceledAcquireCount))
	ch <- prometheus.MustNewConstMetric(c.acquireWait, prometheus.CounterValue, s.AcquireDuration.Seconds())
}
