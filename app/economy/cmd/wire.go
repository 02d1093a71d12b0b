//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/lk2023060901/pocketzot/app/economy/internal/dao"
	"github.com/lk2023060901/pocketzot/app/economy/internal/handler"
	"github.com/lk2023060901/pocketzot/app/economy/internal/metrics"
	"github.com/lk2023060901/pocketzot/app/economy/internal/repository"
	"github.com/lk2023060901/pocketzot/app/economy/internal/service"
	"github.com/lk2023060901/pocketzot/pkg/app"
	"github.com/lk2023060901/pocketzot/pkg/database/postgres"
	"github.com/lk2023060901/pocketzot/pkg/logger"
	"github.com/lk2023060901/pocketzot/pkg/otel"
	"github.com/lk2023060901/pocketzot/pkg/prometheus"
	"github.com/lk2023060901/pocketzot/pkg/sentry"
	"github.com/lk2023060901/pocketzot/pkg/web"
)

func InitApp(cfg *Config, l logger.Logger, reporter *sentry.Client) (*app.BaseApp, func(), error) {
	panic(wire.Build(
		// 1. 基础框架 (BaseApp)
		app.ProviderSet,

		// 2. 追踪
		provideOTelConfig,
		otel.New,

		// 3. PostgreSQL 配置和客户端
		providePostgresConfig,
		postgres.New,

		// 4. Redis 客户端（可关闭）
		provideRedisClient,

		// 5. 指标收集
		provideMetricsConfig,
		metrics.New,
		providePrometheusConfig,
		prometheus.New,
		provideHTTPMetrics,

		// 6. 数据层 (DAO / Repository)
		dao.NewUserDAO,
		dao.NewAnteaterDAO,
		dao.NewAccessoryDAO,
		dao.NewOwnershipDAO,
		provideCatalogCacheConfig,
		dao.NewCatalogCacheDAO,
		repository.NewDAOs,
		repository.NewPostgresStore,
		wire.Bind(new(repository.Store), new(*repository.PostgresStore)),

		// 7. 服务层 (Service)
		service.NewUserService,
		service.NewEconomyService,
		service.NewAnteaterService,
		service.NewAccessoryService,

		// 8. 接口层 (Handler)
		handler.NewHealthHandler,
		handler.NewUserHandler,
		handler.NewAntsHandler,
		handler.NewAnteaterHandler,
		handler.NewAccessoryHandler,
		handler.NewRouter,

		// 9. HTTP Server 配置和选项
		provideRateLimiter,
		provideWebConfig,
		provideWebOptions,
		web.NewServer,

		// 10. 组装与应用配置
		provideAppOptions,
		provideAppComponents,
		app.InitApp,
	))
}
