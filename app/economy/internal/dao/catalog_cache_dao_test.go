package dao

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/lk2023060901/pocketzot/app/economy/internal/metrics"
	"github.com/lk2023060901/pocketzot/app/economy/internal/model"
	"github.com/lk2023060901/pocketzot/pkg/database/redis"
	"github.com/lk2023060901/pocketzot/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCatalog = []*model.Accessory{
	{ID: 1, Name: "Plumber", Price: 5, Type: "hat"},
	{ID: 2, Name: "Merrier", Price: 5, Type: "hat"},
	{ID: 3, Name: "Egg", Price: 10, Type: "hat"},
	{ID: 4, Name: "Crown", Price: 25, Type: "hat"},
}

func newCacheDAO(t *testing.T, cfg *CatalogCacheConfig) (*CatalogCacheDAO, *miniredis.Miniredis, *metrics.EconomyMetrics) {
	t.Helper()
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	rdb, err := redis.NewClient(&redis.Config{
		Enabled:    true,
		Standalone: &redis.NodeConfig{Host: mr.Host(), Port: port},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	m, err := metrics.New(nil)
	require.NoError(t, err)

	d := NewCatalogCacheDAO(cfg, rdb, logger.NewNoop(), m)
	t.Cleanup(func() { _ = d.Close() })
	return d, mr, m
}

func TestCatalogCacheMissThenHit(t *testing.T) {
	ctx := context.Background()
	d, mr, m := newCacheDAO(t, nil)

	list, err := d.GetList(ctx)
	require.NoError(t, err)
	assert.Nil(t, list)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMissTotal.WithLabelValues("redis")))

	require.NoError(t, d.SetList(ctx, testCatalog))
	assert.Equal(t, 10*time.Minute, mr.TTL(catalogListKey))

	list, err = d.GetList(ctx)
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, "Plumber", list[0].Name)
	assert.Equal(t, "Crown", list[3].Name)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitTotal.WithLabelValues("redis")))

	item, err := d.GetItem(ctx, 3)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, int64(10), item.Price)

	item, err = d.GetItem(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestCatalogCacheExpires(t *testing.T) {
	ctx := context.Background()
	d, mr, _ := newCacheDAO(t, &CatalogCacheConfig{Enabled: true, TTL: time.Second})

	require.NoError(t, d.SetList(ctx, testCatalog))
	mr.FastForward(2 * time.Second)

	list, err := d.GetList(ctx)
	require.NoError(t, err)
	assert.Nil(t, list)
}

func TestCatalogCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultCatalogCacheConfig()
	cfg.LocalEnabled = true
	d, mr, m := newCacheDAO(t, cfg)

	require.NoError(t, d.SetList(ctx, testCatalog))
	list, err := d.GetList(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 4)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitTotal.WithLabelValues("local")))

	require.NoError(t, d.Invalidate(ctx))
	assert.False(t, mr.Exists(catalogListKey))
	assert.False(t, mr.Exists(catalogItemKey))

	list, err = d.GetList(ctx)
	require.NoError(t, err)
	assert.Nil(t, list)
}

func TestCatalogCacheDisabled(t *testing.T) {
	ctx := context.Background()
	m, err := metrics.New(nil)
	require.NoError(t, err)

	d := NewCatalogCacheDAO(&CatalogCacheConfig{Enabled: false}, nil, logger.NewNoop(), m)
	assert.False(t, d.Enabled())
	require.NoError(t, d.SetList(ctx, testCatalog))

	list, err := d.GetList(ctx)
	require.NoError(t, err)
	assert.Nil(t, list)
	require.NoError(t, d.Invalidate(ctx))
	require.NoError(t, d.Close())
}
