package redis

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
)

// redisClient 内部使用的命令子集，隐藏 go-redis 类型
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	TxPipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error)
	PoolStats() *redis.PoolStats
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// Client Redis 客户端，主从模式下读走从库
type Client struct {
	master     redisClient
	slaves     []redisClient
	cfg        *Config
	slaveIndex uint64
	rng        *rand.Rand
}

// PoolStats 连接池统计
type PoolStats struct {
	Hits       uint32
	Misses     uint32
	Timeouts   uint32
	TotalConns uint32
	IdleConns  uint32
	StaleConns uint32
}

// NewClient 创建 Redis 客户端
func NewClient(cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		cfg: cfg,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if cfg.IsStandalone() {
		c.master = redis.NewClient(c.nodeOptions(cfg.Standalone))
		return c, nil
	}

	c.master = redis.NewClient(c.nodeOptions(cfg.Master))
	c.slaves = make([]redisClient, len(cfg.Slaves))
	for i := range cfg.Slaves {
		c.slaves[i] = redis.NewClient(c.nodeOptions(&cfg.Slaves[i]))
	}
	return c, nil
}

func (c *Client) nodeOptions(node *NodeConfig) *redis.Options {
	return &redis.Options{
		Addr:            fmt.Sprintf("%s:%d", node.Host, node.Port),
		Password:        node.Password,
		DB:              node.DB,
		MaxIdleConns:    c.cfg.Pool.MaxIdleConns,
		MaxActiveConns:  c.cfg.Pool.MaxOpenConns,
		ConnMaxLifetime: c.cfg.Pool.ConnMaxLifetime,
		ConnMaxIdleTime: c.cfg.Pool.ConnMaxIdleTime,
		DialTimeout:     c.cfg.Pool.DialTimeout,
		ReadTimeout:     c.cfg.Pool.ReadTimeout,
		WriteTimeout:    c.cfg.Pool.WriteTimeout,
		PoolTimeout:     c.cfg.Pool.PoolTimeout,
	}
}

func (c *Client) getMaster() redisClient {
	return c.master
}

// getSlave 读节点，无从库时返回主库
func (c *Client) getSlave() redisClient {
	if len(c.slaves) == 0 {
		return c.master
	}
	if c.cfg.SlaveLoadBalance == "round_robin" {
		return c.slaves[atomic.AddUint64(&c.slaveIndex, 1)%uint64(len(c.slaves))]
	}
	return c.slaves[c.rng.Intn(len(c.slaves))]
}

// Ping 测试所有节点
func (c *Client) Ping(ctx context.Context) error {
	if err := c.master.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, "master ping failed")
	}
	for i, slave := range c.slaves {
		if err := slave.Ping(ctx).Err(); err != nil {
			return errors.Wrapf(err, "slave[%d] ping failed", i)
		}
	}
	return nil
}

// PoolStats 主库连接池统计
func (c *Client) PoolStats() PoolStats {
	stats := c.master.PoolStats()
	return PoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
		StaleConns: stats.StaleConns,
	}
}

// Close 关闭所有节点
func (c *Client) Close() error {
	err := errors.Wrap(c.master.Close(), "close master")
	for i, slave := range c.slaves {
		err = errors.CombineErrors(err, errors.Wrapf(slave.Close(), "close slave[%d]", i))
	}
	return err
}
