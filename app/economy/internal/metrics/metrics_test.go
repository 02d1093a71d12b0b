package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/lk2023060901/pocketzot/pkg/database/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUsesDefaults(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)
	assert.Equal(t, "pocketzot", m.GetConfig().Namespace)
	assert.Equal(t, "economy", m.GetConfig().Subsystem)

	m, err = New(&Config{Namespace: "test"})
	require.NoError(t, err)
	assert.Equal(t, "test", m.GetConfig().Namespace)
	assert.Equal(t, "economy", m.GetConfig().Subsystem)
}

func TestRegisterTwiceFails(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))
	assert.Error(t, m.Register(reg))
}

func TestRecorders(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)

	m.RecordConversion("ant_step", true)
	m.RecordConversion("ant_step", true)
	m.RecordConversion("health_edit", false)
	m.RecordPurchase("insufficient")
	m.RecordAntsSpent(5)
	m.RecordAntsSpent(-1)
	m.RecordTxRetry("purchase")
	m.RecordDBQuery("user.get", true, 0.002)
	m.RecordCacheHit("redis")
	m.RecordCacheMiss("local")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ConversionTotal.WithLabelValues("ant_step", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConversionTotal.WithLabelValues("health_edit", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PurchaseTotal.WithLabelValues("insufficient")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.AntsSpent))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TxRetryTotal.WithLabelValues("purchase")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DBQueryTotal.WithLabelValues("user.get", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitTotal.WithLabelValues("redis")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMissTotal.WithLabelValues("local")))
}

func TestPoolCollector(t *testing.T) {
	stats := &postgres.PoolStats{
		AcquireCount:    12,
		AcquireDuration: 1500 * time.Millisecond,
		AcquiredConns:   3,
		IdleConns:       2,
		MaxConns:        25,
		TotalConns:      5,
	}
	c := NewPoolCollector(nil, func() *postgres.PoolStats { return stats })

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(c))
	assert.Equal(t, 7, testutil.CollectAndCount(c))

	expected := `
# HELP pocketzot_db_pool_acquired_conns Connections currently checked out
# TYPE pocketzot_db_pool_acquired_conns gauge
pocketzot_db_pool_acquired_conns 3
# HELP pocketzot_db_pool_acquire_seconds_total Cumulative time spent acquiring connections
# TYPE pocketzot_db_pool_acquire_seconds_total counter
pocketzot_db_pool_acquire_seconds_total 1.5
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"pocketzot_db_pool_acquired_conns", "pocketzot_db_pool_acquire_seconds_total"))

	empty := NewPoolCollector(nil, func() *postgres.PoolStats { return nil })
	assert.Equal(t, 0, testutil.CollectAndCount(empty))
}
