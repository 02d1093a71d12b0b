package main

import (
	"github.com/lk2023060901/pocketzot/app/economy/internal/dao"
	"github.com/lk2023060901/pocketzot/app/economy/internal/metrics"
	"github.com/lk2023060901/pocketzot/pkg/app"
	"github.com/lk2023060901/pocketzot/pkg/config"
	"github.com/lk2023060901/pocketzot/pkg/database/postgres"
	"github.com/lk2023060901/pocketzot/pkg/database/redis"
	"github.com/lk2023060901/pocketzot/pkg/logger"
	"github.com/lk2023060901/pocketzot/pkg/otel"
	"github.com/lk2023060901/pocketzot/pkg/prometheus"
	"github.com/lk2023060901/pocketzot/pkg/sentry"
	"github.com/lk2023060901/pocketzot/pkg/web"
	"github.com/lk2023060901/pocketzot/pkg/web/middleware"
)

// AppConfig 应用标识
type AppConfig struct {
	Name string `mapstructure:"name"`
}

// EconomyConfig 经济系统事务配置
type EconomyConfig struct {
	// Retry 序列化冲突重试策略，未设置的字段沿用 database.retry
	Retry postgres.RetryConfig `mapstructure:"retry"`
}

// Config 定义 Economy 服务的完整配置结构
type Config struct {
	App AppConfig     `mapstructure:"app"`
	Log logger.Config `mapstructure:"log"`

	// HTTP 服务
	Web       web.Config                 `mapstructure:"web"`
	RateLimit middleware.RateLimitConfig `mapstructure:"rate_limit"`

	// 存储
	Database     postgres.Config        `mapstructure:"database"`
	Redis        redis.Config           `mapstructure:"redis"`
	CatalogCache dao.CatalogCacheConfig `mapstructure:"catalog_cache"`

	Economy EconomyConfig `mapstructure:"economy"`

	// 可观测性
	Prometheus prometheus.Config `mapstructure:"prometheus"`
	Metrics    metrics.Config    `mapstructure:"metrics"`
	OTel       otel.Config       `mapstructure:"otel"`
	Sentry     sentry.Config     `mapstructure:"sentry"`
}

func main() {
	var cfg Config

	// 1. 加载配置
	if err := app.LoadConfig(&cfg); err != nil {
		panic(err)
	}

	// 2. 错误上报，日志的 error 级别同样转发
	reporter, err := provideSentry(&cfg)
	if err != nil {
		panic(err)
	}

	// 3. 初始化主日志
	l, err := logger.New(&cfg.Log,
		logger.WithHooks(logger.ErrorReportHook(reporter.ReportLogEntry)),
		logger.WithGlobalFields("service", appName(&cfg)),
	)
	if err != nil {
		panic(err)
	}

	// 4. 通过 Wire 初始化应用
	application, cleanup, err := InitApp(&cfg, l, reporter)
	if err != nil {
		l.Error("failed to initialize application", "error", err)
		_ = reporter.Close()
		return
	}
	defer cleanup()

	// 5. 运行服务
	if err := application.Run(); err != nil {
		l.Error("application exited with error", "error", err)
	}
}

// provideSentry 按默认值补齐后创建 Sentry 客户端，DSN 为空时只计数
func provideSentry(cfg *Config) (*sentry.Client, error) {
	sentryCfg, err := config.MergeConfig(sentry.DefaultConfig(), &cfg.Sentry)
	if err != nil {
		return nil, err
	}
	if sentryCfg.Release == "" {
		sentryCfg.Release = app.Version
	}
	return sentry.New(sentryCfg)
}

func appName(cfg *Config) string {
	if cfg.App.Name != "" {
		return cfg.App.Name
	}
	return app.AppName
}
