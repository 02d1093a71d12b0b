package main

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/pocketzot/app/economy/internal/dao"
	"github.com/lk2023060901/pocketzot/app/economy/internal/metrics"
	"github.com/lk2023060901/pocketzot/app/economy/internal/repository"
	"github.com/lk2023060901/pocketzot/app/economy/internal/service"
	"github.com/lk2023060901/pocketzot/pkg/app"
	"github.com/lk2023060901/pocketzot/pkg/config"
	"github.com/lk2023060901/pocketzot/pkg/database/postgres"
	"github.com/lk2023060901/pocketzot/pkg/database/redis"
	"github.com/lk2023060901/pocketzot/pkg/logger"
	"github.com/spf13/cobra"
)

// ctlConfig economy 服务配置的子集，与服务共用同一份 config.yaml
type ctlConfig struct {
	Log          logger.Config          `mapstructure:"log"`
	Database     postgres.Config        `mapstructure:"database"`
	Redis        redis.Config           `mapstructure:"redis"`
	CatalogCache dao.CatalogCacheConfig `mapstructure:"catalog_cache"`
	Metrics      metrics.Config         `mapstructure:"metrics"`
}

type rootOptions struct {
	configPath string
	envFile    string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "economyctl",
		Short: "Administration tool for the PocketZot economy service",
		Long: `economyctl runs operator tasks against the economy database:

  migrate - apply, roll back or inspect schema migrations
  seed    - (re)write the initial accessory catalog
  price   - revise an accessory price
  inventory clear - delete every ownership of a user`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "config.yaml", "path to config file")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded into the environment")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(
		newMigrateCmd(opts),
		newSeedCmd(opts),
		newPriceCmd(opts),
		newInventoryCmd(opts),
	)
	return cmd
}

// env 一次命令执行所需的连接与服务
type env struct {
	logger logger.Logger
	db     *postgres.Client
	redis  *redis.Client
	cache  *dao.CatalogCacheDAO
	shop   *service.AccessoryService
}

func loadConfig(opts *rootOptions) (*ctlConfig, error) {
	mgr := config.NewManager(config.WithEnvPrefix(app.EnvPrefix))
	if err := mgr.LoadDotEnv(opts.envFile); err != nil {
		return nil, err
	}
	if err := mgr.LoadFile(opts.configPath); err != nil {
		return nil, err
	}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" && os.Getenv(app.EnvPrefix+"_DATABASE_DSN") == "" {
		mgr.Set("database.dsn", dsn)
	}

	var cfg ctlConfig
	if err := mgr.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	// 命令行工具只输出到控制台
	cfg.Log.EnableFile = false
	cfg.Log.EnableConsole = true
	if opts.verbose {
		cfg.Log.Level = logger.DebugLevel
	}
	return &cfg, nil
}

func openEnv(ctx context.Context, opts *rootOptions) (*env, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, err
	}

	db, err := postgres.New(&cfg.Database)
	if err != nil {
		return nil, errors.Wrap(err, "connect database")
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping database")
	}

	e := &env{logger: l, db: db}
	if cfg.Redis.Enabled {
		if e.redis, err = redis.NewClient(&cfg.Redis); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "connect redis")
		}
	}

	m, err := metrics.New(&cfg.Metrics)
	if err != nil {
		e.Close()
		return nil, err
	}
	// 不开进程内缓存，只需使共享的 Redis 目录失效
	cacheCfg := cfg.CatalogCache
	cacheCfg.LocalEnabled = false
	e.cache = dao.NewCatalogCacheDAO(&cacheCfg, e.redis, l, m)

	store := repository.NewPostgresStore(db, repository.NewDAOs(
		dao.NewUserDAO(l, m),
		dao.NewAnteaterDAO(l, m),
		dao.NewAccessoryDAO(l, m),
		dao.NewOwnershipDAO(l, m),
	), l, m)
	e.shop = service.NewAccessoryService(l, store, e.cache, m)
	return e, nil
}

// Close 释放连接
func (e *env) Close() {
	if e.cache != nil {
		_ = e.cache.Close()
	}
	if e.redis != nil {
		_ = e.redis.Close()
	}
	e.db.Close()
	_ = e.logger.Sync()
}

// withEnv 打开连接执行 fn 后关闭
func withEnv(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, e *env) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	e, err := openEnv(ctx, opts)
	if err != nil {
		return err
	}
	defer e.Close()
	return fn(ctx, e)
}
