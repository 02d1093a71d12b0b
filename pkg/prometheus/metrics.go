package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

type (
	CounterVec   = prometheus.CounterVec
	GaugeVec     = prometheus.GaugeVec
	HistogramVec = prometheus.HistogramVec
	Collector    = prometheus.Collector
)

func (c *Client) register(name string, collector prometheus.Collector) error {
	if c.IsClosed() {
		return ErrClientClosed
	}
	if _, loaded := c.names.LoadOrStore(name, struct{}{}); loaded {
		return ErrMetricExists
	}
	if err := c.registry.Register(collector); err != nil {
		c.names.Delete(name)
		return err
	}
	return nil
}

// NewCounter 创建并注册 Counter
func (c *Client) NewCounter(name, help string, labels []string) (*CounterVec, error) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: c.config.Namespace,
		Subsystem: c.config.Subsystem,
		Name:      name,
		Help:      help,
	}, labels)
	if err := c.register(name, counter); err != nil {
		return nil, err
	}
	return counter, nil
}

// MustNewCounter 创建 Counter，失败则 panic
func (c *Client) MustNewCounter(name, help string, labels []string) *CounterVec {
	counter, err := c.NewCounter(name, help, labels)
	if err != nil {
		panic(err)
	}
	return counter
}

// NewGauge 创建并注册 Gauge
func (c *Client) NewGauge(name, help string, labels []string) (*GaugeVec, error) {
	gauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: c.config.Namespace,
		Subsystem: c.config.Subsystem,
		Name:      name,
		Help:      help,
	}, labels)
	if err := c.register(name, gauge); err != nil {
		return nil, err
	}
	return gauge, nil
}

// MustNewGauge 创建 Gauge，失败则 panic
func (c *Client) MustNewGauge(name, help string, labels []string) *GaugeVec {
	gauge, err := c.NewGauge(name, help, labels)
	if err != nil {
		panic(err)
	}
	return gauge
}

// NewHistogram 创建并注册 Histogram，buckets 为空时使用默认桶
func (c *Client) NewHistogram(name, help string, labels []string, buckets []float64) (*HistogramVec, error) {
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}
	histogram := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: c.config.Namespace,
		Subsystem: c.config.Subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}, labels)
	if err := c.register(name, histogram); err != nil {
		return nil, err
	}
	return histogram, nil
}

// MustNewHistogram 创建 Histogram，失败则 panic
func (c *Client) MustNewHistogram(name, help string, labels []string, buckets []float64) *HistogramVec {
	histogram, err := c.NewHistogram(name, help, labels, buckets)
	if err != nil {
		panic(err)
	}
	return histogram
}

// RegisterCollector 注册自定义采集器
func (c *Client) RegisterCollector(collector Collector) error {
	if c.IsClosed() {
		return ErrClientClosed
	}
	return c.registry.Register(collector)
}
