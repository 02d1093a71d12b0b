package sentry

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap/zapcore"
)

// Client Sentry 客户端，持有独立 Hub
type Client struct {
	hub    *sentry.Hub
	config  *Config
	enabled bool
	closed  atomic.Bool

	stats struct {
		eventsTotal    atomic.Uint64
		eventsCaptured atomic.Uint64
		eventsDropped  atomic.Uint64
	}
}

// Option 客户端选项
type Option func(*sentry.ClientOptions)

// WithTransport 替换事件传输层
func WithTransport(t sentry.Transport) Option {
	return func(o *sentry.ClientOptions) {
		o.Transport = t
	}
}

// New 创建 Sentry 客户端
func New(cfg *Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clientOpts := cfg.toClientOptions()
	for _, opt := range opts {
		opt(&clientOpts)
	}

	client, err := sentry.NewClient(clientOpts)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "create sentry client"), ErrInvalidDSN)
	}

	hub := sentry.NewHub(client, sentry.NewScope())
	hub.ConfigureScope(func(scope *sentry.Scope) {
		for key, value := range cfg.Tags {
			scope.SetTag(key, value)
		}
	})

	return &Client{
		hub:     hub,
		config:  cfg,
		enabled: clientOpts.Dsn != "" || clientOpts.Transport != nil,
	}, nil
}

// Enabled 是否真正上报事件
func (c *Client) Enabled() bool {
	return c.enabled
}

// CaptureError 带标签上报错误
func (c *Client) CaptureError(ctx context.Context, err error, tags map[string]string) *sentry.EventID {
	if err == nil || c.closed.Load() {
		return nil
	}

	var eventID *sentry.EventID
	c.hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		scope.SetContext("error", map[string]interface{}{
			"verbose": fmt.Sprintf("%+v", err),
		})
		eventID = c.hub.CaptureException(err)
	})
	return c.count(eventID)
}

// CaptureMessage 上报消息
func (c *Client) CaptureMessage(message string, level Level, extra map[string]interface{}) *sentry.EventID {
	if c.closed.Load() {
		return nil
	}

	var eventID *sentry.EventID
	c.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(level.toSentryLevel())
		if len(extra) > 0 {
			scope.SetContext("fields", extra)
		}
		eventID = c.hub.CaptureMessage(message)
	})
	return c.count(eventID)
}

// RecoverPanic 上报已 recover 的 panic，不重新抛出
func (c *Client) RecoverPanic(ctx context.Context, recovered interface{}) *sentry.EventID {
	if recovered == nil || c.closed.Load() {
		return nil
	}
	return c.count(c.hub.RecoverWithContext(ctx, recovered))
}

// ReportLogEntry 将错误日志转为事件，供 logger.ErrorReportHook 使用
func (c *Client) ReportLogEntry(entry zapcore.Entry, fields []zapcore.Field) {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}
	extra := enc.Fields
	if entry.LoggerName != "" {
		extra["logger"] = entry.LoggerName
	}
	if entry.Caller.Defined {
		extra["caller"] = entry.Caller.TrimmedPath()
	}
	c.CaptureMessage(entry.Message, levelFromZap(entry.Level), extra)
}

func (c *Client) count(eventID *sentry.EventID) *sentry.EventID {
	c.stats.eventsTotal.Add(1)
	if eventID != nil && *eventID != "" {
		c.stats.eventsCaptured.Add(1)
	} else {
		c.stats.eventsDropped.Add(1)
	}
	return eventID
}

// Close 刷新并关闭客户端
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return ErrClientClosed
	}
	c.hub.Flush(c.config.ShutdownTimeout)
	return nil
}

// Stats 获取统计信息
func (c *Client) Stats() Stats {
	return Stats{
		EventsTotal:    c.stats.eventsTotal.Load(),
		EventsCaptured: c.stats.eventsCaptured.Load(),
		EventsDropped:  c.stats.eventsDropped.Load(),
	}
}
