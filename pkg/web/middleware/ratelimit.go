package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/pocketzot/pkg/cache/lru"
	"github.com/lk2023060901/pocketzot/pkg/logger"
	"github.com/lk2023060901/pocketzot/pkg/web/errors"
	"golang.org/x/time/rate"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
	// PerIP 按客户端 IP 分桶，否则全局一个桶
	PerIP bool `mapstructure:"per_ip"`
	// PerPath 按路由模板分桶
	PerPath   bool     `mapstructure:"per_path"`
	SkipPaths []string `mapstructure:"skip_paths"`
	// WaitMode 为 true 时排队等待令牌，否则直接拒绝
	WaitMode    bool          `mapstructure:"wait_mode"`
	WaitTimeout time.Duration `mapstructure:"wait_timeout"`

	MaxLimiters     int           `mapstructure:"max_limiters"`
	LimiterTTL      time.Duration `mapstructure:"limiter_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`

	KeyFunc func(*gin.Context) string `mapstructure:"-"`
}

// DefaultRateLimitConfig 默认限流配置
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerSecond: 50,
		Burst:             100,
		PerIP:             true,
		SkipPaths:         []string{"/health"},
		MaxLimiters:       10000,
		LimiterTTL:        10 * time.Minute,
		CleanupInterval:   time.Minute,
	}
}

// RateLimiter 令牌桶限流器，分桶限流器存放在 LRU 中
type RateLimiter struct {
	cfg      *RateLimitConfig
	global   *rate.Limiter
	limiters *lru.LRU[string, *rate.Limiter]
	logger   logger.Logger
}

// NewRateLimiter 创建限流器
func NewRateLimiter(l logger.Logger, cfg *RateLimitConfig) *RateLimiter {
	if cfg == nil {
		cfg = DefaultRateLimitConfig()
	}
	if l == nil {
		l = logger.NewNoop()
	}
	l = l.Named("web.ratelimit")

	return &RateLimiter{
		cfg:    cfg,
		global: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger: l,
		limiters: lru.New[string, *rate.Limiter](
			&lru.Config{
				MaxSize:         cfg.MaxLimiters,
				DefaultTTL:      cfg.LimiterTTL,
				CleanupInterval: cfg.CleanupInterval,
			},
			lru.WithOnEvict(func(key string, _ *rate.Limiter) {
				l.Debug("rate limiter evicted", "key", key)
			}),
		),
	}
}

// Allow 检查是否允许请求，key 为空时使用全局桶
func (rl *RateLimiter) Allow(key string) bool {
	if key == "" {
		return rl.global.Allow()
	}
	return rl.getLimiter(key).Allow()
}

// Wait 等待直到获得令牌
func (rl *RateLimiter) Wait(ctx context.Context, key string) error {
	if key == "" {
		return rl.global.Wait(ctx)
	}
	return rl.getLimiter(key).Wait(ctx)
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	return rl.limiters.GetOrCreate(key, func() *rate.Limiter {
		return rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.Burst)
	})
}

// Close 停止分桶清理
func (rl *RateLimiter) Close() error {
	return rl.limiters.Close()
}

// RateLimit 限流中间件
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	skipPaths := make(map[string]struct{}, len(limiter.cfg.SkipPaths))
	for _, path := range limiter.cfg.SkipPaths {
		skipPaths[path] = struct{}{}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if _, skip := skipPaths[path]; skip {
			c.Next()
			return
		}

		key := generateKey(c, limiter.cfg)
		if limiter.cfg.WaitMode {
			ctx := c.Request.Context()
			if limiter.cfg.WaitTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, limiter.cfg.WaitTimeout)
				defer cancel()
			}
			if err := limiter.Wait(ctx, key); err != nil {
				limiter.logger.WarnContext(c.Request.Context(), "rate limit wait timeout",
					"key", key,
					"path", path,
					"error", err,
				)
				abortWithRateLimitError(c)
				return
			}
		} else if !limiter.Allow(key) {
			limiter.logger.WarnContext(c.Request.Context(), "rate limit exceeded",
				"key", key,
				"path", path,
			)
			abortWithRateLimitError(c)
			return
		}

		c.Next()
	}
}

func generateKey(c *gin.Context, cfg *RateLimitConfig) string {
	if cfg.KeyFunc != nil {
		return cfg.KeyFunc(c)
	}

	var key string
	if cfg.PerIP {
		key = "ip:" + c.ClientIP()
	}
	if cfg.PerPath {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		if key != "" {
			key += ":"
		}
		key += "path:" + route
	}
	return key
}

func abortWithRateLimitError(c *gin.Context) {
	c.Header("Retry-After", strconv.Itoa(1))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"code":    errors.CodeRateLimited,
		"message": "too many requests",
		"data":    nil,
	})
}
