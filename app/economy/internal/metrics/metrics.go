package metrics

import (
	"fmt"

	"github.com/lk2023060901/pocketzot/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
)

// Config 指标配置
type Config struct {
	// Namespace 指标命名空间
	Namespace string `mapstructure:"namespace" json:"namespace" yaml:"namespace"`
	// Subsystem 指标子系统
	Subsystem string `mapstructure:"subsystem" json:"subsystem" yaml:"subsystem"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Namespace: "pocketzot",
		Subsystem: "economy",
	}
}

// EconomyMetrics 经济服务指标
type EconomyMetrics struct {
	config *Config

	// 资源换算
	ConversionTotal *prometheus.CounterVec // 换算次数（按适配器、结果）
	AnteaterDeaths  *prometheus.CounterVec // 食蚁兽死亡（按原因）

	// 商店与装备
	PurchaseTotal *prometheus.CounterVec // 购买（按结果）
	EquipTotal    *prometheus.CounterVec // 装备变更（按动作）
	AntsSpent     prometheus.Counter     // 消费的 ants 总量

	// 事务
	TxRetryTotal    *prometheus.CounterVec // 冲突重试（按操作）
	TxConflictTotal *prometheus.CounterVec // 重试耗尽（按操作）

	// 数据库
	DBQueryTotal    *prometheus.CounterVec
	DBQueryDuration *prometheus.HistogramVec

	// 缓存
	CacheHitTotal  *prometheus.CounterVec
	CacheMissTotal *prometheus.CounterVec
}

// New 创建经济服务指标
func New(cfg *Config) (*EconomyMetrics, error) {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to merge metrics config: %w", err)
	}

	ns, sub := newCfg.Namespace, newCfg.Subsystem
	m := &EconomyMetrics{
		config: newCfg,

		ConversionTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: sub,
				Name:      "conversions_total",
				Help:      "Resource conversions by adapter and result",
			},
			[]string{"adapter", "result"},
		),
		AnteaterDeaths: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: sub,
				Name:      "anteater_deaths_total",
				Help:      "Anteaters that died, by cause",
			},
			[]string{"cause"},
		),
		PurchaseTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: sub,
				Name:      "purchases_total",
				Help:      "Accessory purchases by result",
			},
			[]string{"result"},
		),
		EquipTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: sub,
				Name:      "equip_changes_total",
				Help:      "Equip state transitions by action",
			},
			[]string{"action"},
		),
		AntsSpent: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: sub,
				Name:      "ants_spent_total",
				Help:      "Ants debited by purchases and spends",
			},
		),
		TxRetryTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: sub,
				Name:      "tx_retries_total",
				Help:      "Serializable transaction retries by operation",
			},
			[]string{"operation"},
		),
		TxConflictTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: sub,
				Name:      "tx_conflicts_total",
				Help:      "Transactions that exhausted their retries, by operation",
			},
			[]string{"operation"},
		),
		DBQueryTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: sub,
				Name:      "db_queries_total",
				Help:      "Database queries by operation and result",
			},
			[]string{"operation", "result"},
		),
		DBQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Subsystem: sub,
				Name:      "db_query_duration_seconds",
				Help:      "Database query latency",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation"},
		),
		CacheHitTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: sub,
				Name:      "cache_hits_total",
				Help:      "Cache hits by cache type",
			},
			[]string{"cache_type"},
		),
		CacheMissTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: sub,
				Name:      "cache_misses_total",
				Help:      "Cache misses by cache type",
			},
			[]string{"cache_type"},
		),
	}

	return m, nil
}

// Register 注册指标到 Prometheus Registry
func (m *EconomyMetrics) Register(registerer prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.ConversionTotal,
		m.AnteaterDeaths,
		m.PurchaseTotal,
		m.EquipTotal,
		m.AntsSpent,
		m.TxRetryTotal,
		m.TxConflictTotal,
		m.DBQueryTotal,
		m.DBQueryDuration,
		m.CacheHitTotal,
		m.CacheMissTotal,
	}

	for _, c := range collectors {
		if err := registerer.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}

// RecordConversion 记录一次换算，adapter 为 health_edit 或 ant_step
func (m *EconomyMetrics) RecordConversion(adapter string, success bool) {
	m.ConversionTotal.WithLabelValues(adapter, result(success)).Inc()
}

// RecordDeath 记录食蚁兽死亡
func (m *EconomyMetrics) RecordDeath(cause string) {
	m.AnteaterDeaths.WithLabelValues(cause).Inc()
}

// RecordPurchase 记录购买结果，outcome 如 success、insufficient、not_found
func (m *EconomyMetrics) RecordPurchase(outcome string) {
	m.PurchaseTotal.WithLabelValues(outcome).Inc()
}

// RecordEquip 记录装备变更
func (m *EconomyMetrics) RecordEquip(action string) {
	m.EquipTotal.WithLabelValues(action).Inc()
}

// RecordAntsSpent 记录消费
func (m *EconomyMetrics) RecordAntsSpent(amount int64) {
	if amount > 0 {
		m.AntsSpent.Add(float64(amount))
	}
}

// RecordTxRetry 记录事务冲突重试
func (m *EconomyMetrics) RecordTxRetry(operation string) {
	m.TxRetryTotal.WithLabelValues(operation).Inc()
}

// RecordTxConflict 记录重试耗尽
func (m *EconomyMetrics) RecordTxConflict(operation string) {
	m.TxConflictTotal.WithLabelValues(operation).Inc()
}

// RecordDBQuery 记录数据库查询
func (m *EconomyMetrics) RecordDBQuery(operation string, success bool, duration float64) {
	m.DBQueryTotal.WithLabelValues(operation, result(success)).Inc()
	m.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// RecordCacheHit 记录缓存命中
func (m *EconomyMetrics) RecordCacheHit(cacheType string) {
	m.CacheHitTotal.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss 记录缓存未命中
func (m *EconomyMetrics) RecordCacheMiss(cacheType string) {
	m.CacheMissTotal.WithLabelValues(cacheType).Inc()
}

// GetConfig 获取配置
func (m *EconomyMetrics) GetConfig() *Config {
	return m.config
}
