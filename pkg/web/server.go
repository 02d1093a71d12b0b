package web

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/pocketzot/pkg/logger"
	"github.com/lk2023060901/pocketzot/pkg/web/metrics"
	"github.com/lk2023060901/pocketzot/pkg/web/middleware"
	"github.com/lk2023060901/pocketzot/pkg/web/validator"
)

// Server Web 服务，实现 app.Server
type Server struct {
	engine  *gin.Engine
	config  *Config
	logger  logger.Logger
	server  *http.Server
	started atomic.Bool
}

// Option 服务选项
type Option func(*serverOptions)

type serverOptions struct {
	httpMetrics  *metrics.HTTPMetrics
	panicReport  middleware.PanicReportFunc
	errorReport  middleware.ErrorReportFunc
	rateLimiter  *middleware.RateLimiter
	extraHandles []gin.HandlerFunc
}

// WithHTTPMetrics 挂载请求指标中间件
func WithHTTPMetrics(m *metrics.HTTPMetrics) Option {
	return func(o *serverOptions) { o.httpMetrics = m }
}

// WithPanicReporter panic 恢复后额外上报
func WithPanicReporter(fn middleware.PanicReportFunc) Option {
	return func(o *serverOptions) { o.panicReport = fn }
}

// WithErrorReporter 5xx 响应附带的错误上报
func WithErrorReporter(fn middleware.ErrorReportFunc) Option {
	return func(o *serverOptions) { o.errorReport = fn }
}

// WithRateLimiter 挂载限流中间件
func WithRateLimiter(rl *middleware.RateLimiter) Option {
	return func(o *serverOptions) { o.rateLimiter = rl }
}

// WithMiddleware 追加自定义中间件
func WithMiddleware(h ...gin.HandlerFunc) Option {
	return func(o *serverOptions) { o.extraHandles = append(o.extraHandles, h...) }
}

// NewServer 创建 Web 服务
func NewServer(cfg *Config, l logger.Logger, opts ...Option) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if l == nil {
		l = logger.NewNoop()
	}
	var o serverOptions
	for _, opt := range opts {
		opt(&o)
	}

	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	validator.Init()

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.Tracing(cfg.ServiceName),
		middleware.Logger(l.Named("web.access")),
		middleware.Recovery(l.Named("web.recovery"), o.panicReport),
		middleware.CORS(cfg.CORS),
	)
	if o.httpMetrics != nil {
		engine.Use(middleware.Metrics(o.httpMetrics))
	}
	if o.errorReport != nil {
		engine.Use(middleware.ReportErrors(o.errorReport))
	}
	if o.rateLimiter != nil {
		engine.Use(middleware.RateLimit(o.rateLimiter))
	}
	if len(o.extraHandles) > 0 {
		engine.Use(o.extraHandles...)
	}

	return &Server{
		engine: engine,
		config: cfg,
		logger: l.Named("web.server"),
	}
}

// Router 返回 Gin 引擎，用于注册路由
func (s *Server) Router() *gin.Engine {
	return s.engine
}

// Handler 返回 http.Handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start 启动监听，ctx 取消后优雅关闭
func (s *Server) Start(ctx context.Context) error {
	if s.started.Swap(true) {
		return ErrServerAlreadyStarted
	}

	addr := fmt.Sprintf(":%d", s.config.Port)
	s.server = &http.Server{
		Addr:           addr,
		Handler:        s.engine,
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if s.config.EnableTLS {
			s.logger.Info("starting https server", "addr", addr)
			err = s.server.ListenAndServeTLS(s.config.CertFile, s.config.KeyFile)
		} else {
			s.logger.Info("starting http server", "addr", addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- errors.Wrapf(err, "listen on %s", addr)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.logger.Error("http server failed", "error", err)
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down http server")
	}

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().ShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "server forced to shutdown")
	}
	s.logger.Info("http server exited")
	return nil
}
