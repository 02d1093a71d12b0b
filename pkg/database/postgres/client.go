package postgres

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Client PostgreSQL 客户端
type Client struct {
	master *pgxpool.Pool   // 主库连接池（单机模式或主从模式的写库）
	slaves []*pgxpool.Pool // 从库连接池（仅主从模式）
	cfg    *Config

	slaveIndex uint64 // round_robin 计数器
	closed     atomic.Bool
}

// New 创建 PostgreSQL 客户端
func New(cfg *Config) (*Client, error) {
	newCfg, err := MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to merge config")
	}

	if err := validateConfig(newCfg); err != nil {
		return nil, err
	}

	client := &Client{
		cfg:    newCfg,
		slaves: make([]*pgxpool.Pool, 0),
	}

	switch {
	case newCfg.IsDSNMode():
		pool, err := createPool(newCfg, newCfg.DSN)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create dsn pool")
		}
		client.master = pool
	case newCfg.IsStandaloneMode():
		pool, err := createPool(newCfg, buildConnString(newCfg, newCfg.Standalone))
		if err != nil {
			return nil, errors.Wrap(err, "failed to create standalone pool")
		}
		client.master = pool
	default:
		pool, err := createPool(newCfg, buildConnString(newCfg, newCfg.Master))
		if err != nil {
			return nil, errors.Wrap(err, "failed to create master pool")
		}
		client.master = pool

		// 从库不可用时读流量回落到主库
		for i := range newCfg.Slaves {
			slavePool, err := createPool(newCfg, buildConnString(newCfg, &newCfg.Slaves[i]))
			if err != nil {
				continue
			}
			client.slaves = append(client.slaves, slavePool)
		}
	}

	return client, nil
}

// Config 返回合并后的配置
func (c *Client) Config() *Config {
	return c.cfg
}

func (c *Client) getMaster() *pgxpool.Pool {
	return c.master
}

func (c *Client) getSlave() *pgxpool.Pool {
	if len(c.slaves) == 0 {
		return c.master
	}

	switch c.cfg.SlaveLoadBalance {
	case "round_robin":
		idx := atomic.AddUint64(&c.slaveIndex, 1)
		return c.slaves[idx%uint64(len(c.slaves))]
	default:
		return c.slaves[rand.Intn(len(c.slaves))]
	}
}

// Close 关闭客户端
func (c *Client) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}

	if c.master != nil {
		c.master.Close()
	}
	for _, slave := range c.slaves {
		slave.Close()
	}
}

// Ping 检查主库连接
func (c *Client) Ping(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	if err := c.master.Ping(ctx); err != nil {
		return errors.Wrap(err, "master ping failed")
	}
	return nil
}

// Stats 获取主库连接池状态
func (c *Client) Stats() *PoolStats {
	stat := c.master.Stat()
	return &PoolStats{
		AcquireCount:         stat.AcquireCount(),
		AcquireDuration:      stat.AcquireDuration(),
		AcquiredConns:        stat.AcquiredConns(),
		CanceledAcquireCount: stat.CanceledAcquireCount(),
		IdleConns:            stat.IdleConns(),
		MaxConns:             stat.MaxConns(),
		TotalConns:           stat.TotalConns(),
	}
}

func validateConfig(cfg *Config) error {
	if cfg == nil {
		return ErrNilConfig
	}

	switch {
	case cfg.IsDSNMode():
	case cfg.IsStandaloneMode():
		if err := validateDBConfig(cfg.Standalone); err != nil {
			return errors.Wrap(err, "invalid standalone config")
		}
	case cfg.IsMasterSlaveMode():
		if err := validateDBConfig(cfg.Master); err != nil {
			return errors.Wrap(err, "invalid master config")
		}
		for i := range cfg.Slaves {
			if err := validateDBConfig(&cfg.Slaves[i]); err != nil {
				return errors.Wrapf(err, "invalid slave %d config", i)
			}
		}
	default:
		return errors.Wrap(ErrInvalidConfig, "must configure dsn, standalone or master-slave mode")
	}

	if cfg.Pool.MaxConns <= 0 {
		return errors.Wrap(ErrInvalidConfig, "max_conns must be positive")
	}
	if cfg.Pool.MinConns < 0 || cfg.Pool.MinConns > cfg.Pool.MaxConns {
		return errors.Wrap(ErrInvalidConfig, "min_conns must be within [0, max_conns]")
	}
	if cfg.Retry.MaxAttempts == 0 {
		return errors.Wrap(ErrInvalidConfig, "retry.max_attempts must be positive")
	}

	return nil
}

func validateDBConfig(cfg *DBConfig) error {
	if cfg == nil {
		return errors.Wrap(ErrInvalidConfig, "db config is nil")
	}
	if cfg.Host == "" {
		return errors.Wrap(ErrInvalidConfig, "host is empty")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return errors.Wrapf(ErrInvalidConfig, "invalid port %d", cfg.Port)
	}
	if cfg.User == "" {
		return errors.Wrap(ErrInvalidConfig, "user is empty")
	}
	if cfg.DBName == "" {
		return errors.Wrap(ErrInvalidConfig, "db_name is empty")
	}
	return nil
}

func createPool(cfg *Config, connString string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse pool config")
	}

	poolConfig.MaxConns = cfg.Pool.MaxConns
	poolConfig.MinConns = cfg.Pool.MinConns
	poolConfig.MaxConnLifetime = cfg.Pool.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Pool.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = cfg.Pool.HealthCheckPeriod

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	return pool, nil
}

func buildConnString(cfg *Config, dbCfg *DBConfig) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		dbCfg.Host,
		dbCfg.Port,
		dbCfg.User,
		dbCfg.Password,
		dbCfg.DBName,
		dbCfg.SSLMode,
		int(cfg.ConnectTimeout.Seconds()),
	)
}
