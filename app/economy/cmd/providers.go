package main

import (
	"context"


	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/pocketzot/app/economy/internal/dao"
	"github.com/lk2023060901/pocketzot/app/economy/internal/handler"
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
	webMetrics "github.com/lk2023060901/pocketzot/pkg/web/metrics"
	"github.com/lk2023060901/pocketzot/pkg/web/middleware"
)

// provideOTelConfig 提供追踪配置
func provideOTelConfig(cfg *Config) *otel.Config {
	if cfg.OTel.ServiceName == "" {
		cfg.OTel.ServiceName = appName(cfg)
	}
	return &cfg.OTel
}

// providePostgresConfig 提供 PostgreSQL 配置，economy.retry 中设置的字段覆盖 database.retry
func providePostgresConfig(cfg *Config) (*postgres.Config, error) {
	retry, err := config.MergeConfig(&cfg.Database.Retry, &cfg.Economy.Retry)
	if err != nil {
		return nil, err
	}
	cfg.Database.Retry = *retry
	return &cfg.Database, nil
}

// provideRedisClient 提供 Redis 客户端，未启用时返回 nil，目录缓存退化为直接读库
func provideRedisClient(cfg *Config, l logger.Logger) (*redis.Client, error) {
	if !cfg.Redis.Enabled {
		l.Info("redis disabled, catalog cache falls back to database")
		return nil, nil
	}
	return redis.NewClient(&cfg.Redis)
}

// provideCatalogCacheConfig 提供目录缓存配置
func provideCatalogCacheConfig(cfg *Config) (*dao.CatalogCacheConfig, error) {
	merged, err := config.MergeConfig(dao.DefaultCatalogCacheConfig(), &cfg.CatalogCache)
	if err != nil {
		return nil, err
	}
	// 开关以配置文件为准
	merged.Enabled = cfg.CatalogCache.Enabled
	merged.LocalEnabled = cfg.CatalogCache.LocalEnabled
	return merged, nil
}

// provideMetricsConfig 提供指标配置
func provideMetricsConfig(cfg *Config) *metrics.Config {
	return &cfg.Metrics
}

// providePrometheusConfig 提供 Prometheus 配置
func providePrometheusConfig(cfg *Config) *prometheus.Config {
	return &cfg.Prometheus
}

// provideHTTPMetrics 提供 HTTP 请求指标，注册到 Prometheus 客户端
func provideHTTPMetrics(promClient *prometheus.Client) (*webMetrics.HTTPMetrics, error) {
	return webMetrics.NewHTTPMetrics(promClient.Config().Namespace, promClient.Registry())
}

// provideRateLimiter 提供限流器，未启用时返回 nil
func provideRateLimiter(cfg *Config, l logger.Logger) (*middleware.RateLimiter, error) {
	if !cfg.RateLimit.Enabled {
		return nil, nil
	}
	merged, err := config.MergeConfig(middleware.DefaultRateLimitConfig(), &cfg.RateLimit)
	if err != nil {
		return nil, err
	}
	return middleware.NewRateLimiter(l, merged), nil
}

// provideWebConfig 提供 HTTP 服务配置
func provideWebConfig(cfg *Config) (*web.Config, error) {
	merged, err := config.MergeConfig(web.DefaultConfig(), &cfg.Web)
	if err != nil {
		return nil, err
	}
	if cfg.Web.ServiceName == "" {
		merged.ServiceName = appName(cfg)
	}
	return merged, nil
}

// provideWebOptions 提供 HTTP 服务选项
func provideWebOptions(
	httpMetrics *webMetrics.HTTPMetrics,
	limiter *middleware.RateLimiter,
	reporter *sentry.Client,
) []web.Option {
	opts := []web.Option{
		web.WithHTTPMetrics(httpMetrics),
		web.WithPanicReporter(func(ctx context.Context, recovered interface{}) {
			reporter.RecoverPanic(ctx, recovered)
		}),
		web.WithErrorReporter(func(ctx context.Context, err error, tags map[string]string) {
			reporter.CaptureError(ctx, err, tags)
		}),
	}
	if limiter != nil {
		opts = append(opts, web.WithRateLimiter(limiter))
	}
	return opts
}

// provideAppOptions 提供应用选项
func provideAppOptions(cfg *Config, l logger.Logger) []app.Option {
	return []app.Option{
		app.WithName(appName(cfg)),
		app.WithLogger(l),
	}
}

// provideAppComponents 提供应用组件
func provideAppComponents(
	webServer *web.Server,
	router *handler.Router,
	promClient *prometheus.Client,
	economyMetrics *metrics.EconomyMetrics,
	tracer *otel.TracerProvider,
	postgresClient *postgres.Client,
	redisClient *redis.Client,
	catalogCache *dao.CatalogCacheDAO,
	limiter *middleware.RateLimiter,
	reporter *sentry.Client,
) (app.AppComponents, error) {
	// 注册路由
	router.Register(webServer.Router())

	// 注册经济系统指标到 Prometheus
	if err := economyMetrics.Register(promClient.Registry()); err != nil {
		return app.AppComponents{}, err
	}
	if err := promClient.RegisterCollector(metrics.NewPoolCollector(economyMetrics.GetConfig(), postgresClient.Stats)); err != nil {
		return app.AppComponents{}, err
	}
	info := app.GetInfo()
	promClient.MustNewGauge("build_info", "Build information of the running binary", []string{"version", "commit", "go_version"}).
		WithLabelValues(info.Version, info.GitCommit, info.GoVersion).Set(1)

	servers := []app.Server{webServer}
	if promClient.Config().HTTPServer.Enabled {
		servers = append(servers, promClient)
	} else {
		webServer.Router().GET(promClient.Config().HTTPServer.Path, gin.WrapH(promClient.Handler()))
	}

	// 逆序关闭：先停 HTTP 依赖的资源，最后冲刷错误上报与追踪
	closers := []app.Closer{
		reporter,
		tracer,
		app.CloserFunc(func() error {
			postgresClient.Close()
			return nil
		}),
	}
	if redisClient != nil {
		closers = append(closers, redisClient)
	}
	closers = append(closers, catalogCache, promClient)
	if limiter != nil {
		closers = append(closers, limiter)
	}

	return app.AppComponents{
		Servers: servers,
		Closers: closers,
	}, nil
}
