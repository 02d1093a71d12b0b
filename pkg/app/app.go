package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/pocketzot/pkg/logger"
	"golang.org/x/sync/errgroup"
)

var ErrAppAlreadyRunning = errors.New("application is already running")

// Application 应用接口
type Application interface {
	Run() error
	Shutdown() error
}

// Server 服务接口（HTTP、指标等），Start 阻塞直到 ctx 结束或出错
type Server interface {
	Start(ctx context.Context) error
}

// Closer 资源清理接口（DB、Redis、Tracer）
type Closer interface {
	Close() error
}

// BaseApp 提供了 Application 接口的基础实现
type BaseApp struct {
	opts    Options
	logger  logger.Logger
	servers []Server
	closers []Closer

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex

	started atomic.Bool
	closed  atomic.Bool
}

// NewBaseApp 创建 BaseApp
func NewBaseApp(opts ...Option) *BaseApp {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	return &BaseApp{
		opts:   o,
		logger: o.Logger.Named("app"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Context 应用生命周期 context，收到退出信号或 Shutdown 时取消
func (a *BaseApp) Context() context.Context {
	return a.ctx
}

// Run 启动全部服务并阻塞，任一服务失败即整体退出
func (a *BaseApp) Run() error {
	if !a.started.CompareAndSwap(false, true) {
		return ErrAppAlreadyRunning
	}

	info := GetInfo()
	a.logger.Info("application starting",
		"name", a.opts.Name,
		"id", a.opts.ID,
		"version", info.Version,
		"commit", info.GitCommit,
		"go_version", info.GoVersion,
		"pid", os.Getpid(),
	)

	g, ctx := errgroup.WithContext(a.ctx)
	for _, srv := range a.servers {
		srv := srv
		g.Go(func() error {
			return srv.Start(ctx)
		})
	}

	err := g.Wait()
	if err != nil {
		a.logger.Error("server exited with error", "error", err)
	}
	if shutdownErr := a.Shutdown(); shutdownErr != nil && err == nil {
		err = shutdownErr
	}
	return err
}

// Shutdown 取消服务并逆序关闭资源
func (a *BaseApp) Shutdown() error {
	if !a.closed.CompareAndSwap(false, true) {
		return nil
	}
	a.cancel()

	a.mu.Lock()
	defer a.mu.Unlock()

	var errs error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Error("failed to close component", "error", err)
			errs = errors.CombineErrors(errs, err)
		}
	}

	a.logger.Info("application exited")
	_ = a.logger.Sync()
	return errs
}

// AppendServer 添加服务
func (a *BaseApp) AppendServer(srv ...Server) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.servers = append(a.servers, srv...)
}

// AppendCloser 添加资源清理组件
func (a *BaseApp) AppendCloser(closer ...Closer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closers = append(a.closers, closer...)
}
