package dao

import (
	"context"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/pocketzot/app/economy/internal/metrics"
	"github.com/lk2023060901/pocketzot/app/economy/internal/model"
	"github.com/lk2023060901/pocketzot/pkg/cache/lru"
	"github.com/lk2023060901/pocketzot/pkg/database/redis"
	"github.com/lk2023060901/pocketzot/pkg/logger"
)

const (
	// Redis key
	catalogListKey = "pocketzot:catalog:v1:list"
	catalogItemKey = "pocketzot:catalog:v1:items"

	localCatalogKey = "catalog"
)

// CatalogCacheConfig 商品目录缓存配置
type CatalogCacheConfig struct {
	// Enabled 关闭后所有读取直接落库
	Enabled bool `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
	// TTL Redis 中目录的过期时间
	TTL time.Duration `mapstructure:"ttl" json:"ttl" yaml:"ttl"`
	// LocalEnabled 是否在 Redis 前再加一层进程内缓存
	LocalEnabled bool `mapstructure:"local_enabled" json:"local_enabled" yaml:"local_enabled"`
	// Local 进程内缓存配置，跨进程失效依赖其 TTL
	Local lru.Config `mapstructure:"local" json:"local" yaml:"local"`
}

// DefaultCatalogCacheConfig 默认配置
func DefaultCatalogCacheConfig() *CatalogCacheConfig {
	return &CatalogCacheConfig{
		Enabled: true,
		TTL:     10 * time.Minute,
		Local: lru.Config{
			MaxSize:         16,
			DefaultTTL:      30 * time.Second,
			CleanupInterval: time.Minute,
		},
	}
}

// CatalogCacheDAO 商品目录缓存。redis 为 nil 时只使用进程内缓存（若开启）
type CatalogCacheDAO struct {
	cfg     *CatalogCacheConfig
	redis   *redis.Client
	local   *lru.LRU[string, []*model.Accessory]
	logger  logger.Logger
	metrics *metrics.EconomyMetrics
}

// NewCatalogCacheDAO 创建目录缓存 DAO
func NewCatalogCacheDAO(cfg *CatalogCacheConfig, rdb *redis.Client, l logger.Logger, m *metrics.EconomyMetrics) *CatalogCacheDAO {
	if cfg == nil {
		cfg = DefaultCatalogCacheConfig()
	}
	d := &CatalogCacheDAO{
		cfg:     cfg,
		redis:   rdb,
		logger:  l.Named("dao.catalog_cache"),
		metrics: m,
	}
	if cfg.Enabled && cfg.LocalEnabled {
		d.local = lru.New[string, []*model.Accessory](&cfg.Local)
	}
	return d
}

// Enabled 是否有任何一层缓存可用
func (d *CatalogCacheDAO) Enabled() bool {
	return d.cfg.Enabled && (d.redis != nil || d.local != nil)
}

// GetList 读取完整目录，未命中返回 nil, nil
func (d *CatalogCacheDAO) GetList(ctx context.Context) ([]*model.Accessory, error) {
	if !d.cfg.Enabled {
		return nil, nil
	}

	if d.local != nil {
		if list, ok := d.local.Get(localCatalogKey); ok {
			d.metrics.RecordCacheHit("local")
			return list, nil
		}
		d.metrics.RecordCacheMiss("local")
	}

	if d.redis == nil {
		return nil, nil
	}

	list, err := redis.GetObject[[]*model.Accessory](ctx, d.redis, catalogListKey)
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			d.metrics.RecordCacheMiss("redis")
			return nil, nil
		}
		d.logger.Error("failed to get catalog from cache", "error", err)
		return nil, errors.Wrap(err, "failed to get catalog from cache")
	}

	d.metrics.RecordCacheHit("redis")
	if d.local != nil {
		d.local.Set(localCatalogKey, *list)
	}
	return *list, nil
}

// GetItem 读取单个目录条目，未命中返回 nil, nil
func (d *CatalogCacheDAO) GetItem(ctx context.Context, id int64) (*model.Accessory, error) {
	if !d.cfg.Enabled {
		return nil, nil
	}

	if d.local != nil {
		if list, ok := d.local.Get(localCatalogKey); ok {
			for _, a := range list {
				if a.ID == id {
					d.metrics.RecordCacheHit("local")
					return a, nil
				}
			}
		}
	}

	if d.redis == nil {
		return nil, nil
	}

	a, err := redis.HGetObject[model.Accessory](ctx, d.redis, catalogItemKey, strconv.FormatInt(id, 10))
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			d.metrics.RecordCacheMiss("redis")
			return nil, nil
		}
		d.logger.Error("failed to get catalog item from cache",
			"accessory_id", id,
			"error", err,
		)
		return nil, errors.Wrap(err, "failed to get catalog item from cache")
	}

	d.metrics.RecordCacheHit("redis")
	return a, nil
}

// SetList 写入完整目录（列表与按 id 的哈希）
func (d *CatalogCacheDAO) SetList(ctx context.Context, list []*model.Accessory) error {
	if !d.cfg.Enabled {
		return nil
	}

	if d.local != nil {
		d.local.Set(localCatalogKey, list)
	}
	if d.redis == nil {
		return nil
	}

	if err := redis.SetObject(ctx, d.redis, catalogListKey, list, d.cfg.TTL); err != nil {
		d.logger.Error("failed to set catalog cache", "error", err)
		return errors.Wrap(err, "failed to set catalog cache")
	}

	items := make(map[string]*model.Accessory, len(list))
	for _, a := range list {
		items[strconv.FormatInt(a.ID, 10)] = a
	}
	if err := redis.ReplaceHashObjects(ctx, d.redis, catalogItemKey, items, d.cfg.TTL); err != nil {
		d.logger.Error("failed to set catalog items cache", "error", err)
		return errors.Wrap(err, "failed to set catalog items cache")
	}
	return nil
}

// Invalidate 删除目录缓存
func (d *CatalogCacheDAO) Invalidate(ctx context.Context) error {
	if d.local != nil {
		d.local.Delete(localCatalogKey)
	}
	if !d.cfg.Enabled || d.redis == nil {
		return nil
	}

	if _, err := d.redis.Del(ctx, catalogListKey, catalogItemKey); err != nil {
		d.logger.Error("failed to invalidate catalog cache", "error", err)
		return errors.Wrap(err, "failed to invalidate catalog cache")
	}
	return nil
}

// Close 释放进程内缓存
func (d *CatalogCacheDAO) Close() error {
	if d.local != nil {
		return d.local.Close()
	}
	return nil
}
