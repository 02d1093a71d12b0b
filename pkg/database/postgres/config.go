package postgres

import (
	"time"

	"github.com/lk2023060901/pocketzot/pkg/config"
)

// DBConfig 单个数据库实例配置
type DBConfig struct {
	Host     string `mapstructure:"host" json:"host" yaml:"host"`
	Port     int    `mapstructure:"port" json:"port" yaml:"port"`
	User     string `mapstructure:"user" json:"user" yaml:"user"`
	Password string `mapstructure:"password" json:"password" yaml:"password"`
	DBName   string `mapstructure:"db_name" json:"db_name" yaml:"db_name"`
	SSLMode  string `mapstructure:"ssl_mode" json:"ssl_mode" yaml:"ssl_mode"` // disable, require, verify-ca, verify-full
}

// PoolConfig 连接池配置
type PoolConfig struct {
	MaxConns          int32         `mapstructure:"max_conns" json:"max_conns" yaml:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns" json:"min_conns" yaml:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime" json:"max_conn_lifetime" yaml:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time" json:"max_conn_idle_time" yaml:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period" json:"health_check_period" yaml:"health_check_period"`
}

// RetryConfig 序列化冲突重试配置
type RetryConfig struct {
	MaxAttempts  uint          `mapstructure:"max_attempts" json:"max_attempts" yaml:"max_attempts"`    // 最大尝试次数（含首次）
	InitialDelay time.Duration `mapstructure:"initial_delay" json:"initial_delay" yaml:"initial_delay"` // 首次退避
	MaxDelay     time.Duration `mapstructure:"max_delay" json:"max_delay" yaml:"max_delay"`             // 退避上限
}

// Config PostgreSQL 配置
type Config struct {
	// DSN 完整连接串，设置后优先于 Standalone
	DSN string `mapstructure:"dsn" json:"dsn,omitempty" yaml:"dsn,omitempty"`

	// 单机模式配置（与主从模式互斥）
	Standalone *DBConfig `mapstructure:"standalone" json:"standalone,omitempty" yaml:"standalone,omitempty"`

	// 主从模式配置（与单机模式互斥）
	Master *DBConfig  `mapstructure:"master" json:"master,omitempty" yaml:"master,omitempty"`
	Slaves []DBConfig `mapstructure:"slaves" json:"slaves,omitempty" yaml:"slaves,omitempty"`

	Pool PoolConfig `mapstructure:"pool" json:"pool" yaml:"pool"`

	ConnectTimeout time.Duration `mapstructure:"connect_timeout" json:"connect_timeout" yaml:"connect_timeout"`
	QueryTimeout   time.Duration `mapstructure:"query_timeout" json:"query_timeout" yaml:"query_timeout"`

	// 从库负载均衡策略（仅主从模式有效）: random, round_robin
	SlaveLoadBalance string `mapstructure:"slave_load_balance" json:"slave_load_balance,omitempty" yaml:"slave_load_balance,omitempty"`

	Retry RetryConfig `mapstructure:"retry" json:"retry" yaml:"retry"`
}

// DefaultRetryConfig 默认重试配置
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  8,
		InitialDelay: 75 * time.Millisecond,
		MaxDelay:     1200 * time.Millisecond,
	}
}

// DefaultConfig 返回默认配置（单机模式）
func DefaultConfig() *Config {
	return &Config{
		Standalone: &DBConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			DBName:  "pocketzot",
			SSLMode: "disable",
		},
		Pool: PoolConfig{
			MaxConns:          25,
			MinConns:          2,
			MaxConnLifetime:   time.Hour,
			MaxConnIdleTime:   30 * time.Minute,
			HealthCheckPeriod: time.Minute,
		},
		ConnectTimeout: 10 * time.Second,
		QueryTimeout:   5 * time.Second,
		Retry:          DefaultRetryConfig(),
	}
}

// MergeConfig 合并配置
func MergeConfig(dst, src *Config) (*Config, error) {
	return config.MergeConfig(dst, src)
}

// IsDSNMode 是否直接使用连接串
func (c *Config) IsDSNMode() bool {
	return c.DSN != ""
}

// IsStandaloneMode 判断是否为单机模式
func (c *Config) IsStandaloneMode() bool {
	return c.Standalone != nil && c.Master == nil
}

// IsMasterSlaveMode 判断是否为主从模式
func (c *Config) IsMasterSlaveMode() bool {
	return c.Master != nil
}
