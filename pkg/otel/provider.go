package otel

import (
	"context"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/pocketzot/pkg/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerProvider 封装 sdk TracerProvider，未启用时退化为全局 provider
type TracerProvider struct {
	config   *Config
	provider *sdktrace.TracerProvider
	closed   atomic.Bool
}

// New 创建追踪提供者并注册为全局 provider
func New(cfg *Config) (*TracerProvider, error) {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, err
	}
	// 合并会跳过零值，显式关闭需单独处理
	if cfg != nil && !cfg.Enabled {
		newCfg.Enabled = false
	}
	if err := newCfg.Validate(); err != nil {
		return nil, err
	}

	otel.SetTextMapPropagator(NewCompositeTextMapPropagator())
	if !newCfg.Enabled {
		return &TracerProvider{config: newCfg}, nil
	}

	exporter, err := createExporter(context.Background(), newCfg)
	if err != nil {
		return nil, err
	}
	if exporter == nil {
		return &TracerProvider{config: newCfg}, nil
	}

	res := createResource(newCfg)
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(newCfg.BatchExport.BatchTimeout),
			sdktrace.WithExportTimeout(newCfg.BatchExport.ExportTimeout),
			sdktrace.WithMaxExportBatchSize(newCfg.BatchExport.BatchSize),
			sdktrace.WithMaxQueueSize(newCfg.BatchExport.MaxQueueSize),
		),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(createSampler(newCfg.Sampler)),
	)
	otel.SetTracerProvider(provider)

	return &TracerProvider{
		config:   newCfg,
		provider: provider,
	}, nil
}

func createResource(cfg *Config) *resource.Resource {
	attrs := []attribute.KeyValue{semconv.ServiceName(cfg.ServiceName)}
	for k, v := range cfg.Attributes {
		attrs = append(attrs, attribute.String(k, v))
	}
	return resource.NewWithAttributes(semconv.SchemaURL, attrs...)
}

func createSampler(cfg SamplerConfig) sdktrace.Sampler {
	switch cfg.Type {
	case SamplerTypeAlways:
		return sdktrace.AlwaysSample()
	case SamplerTypeNever:
		return sdktrace.NeverSample()
	case SamplerTypeRatio:
		return sdktrace.TraceIDRatioBased(cfg.Ratio)
	default:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
}

// Tracer 获取指定名称的 Tracer
func (p *TracerProvider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	if p.provider == nil {
		return otel.GetTracerProvider().Tracer(name, opts...)
	}
	return p.provider.Tracer(name, opts...)
}

// Shutdown 刷新并关闭，重复调用返回 ErrProviderClosed
func (p *TracerProvider) Shutdown(ctx context.Context) error {
	if p.closed.Swap(true) {
		return ErrProviderClosed
	}
	if p.provider == nil {
		return nil
	}
	return errors.Wrap(p.provider.Shutdown(ctx), "shutdown tracer provider")
}

// Close 使用配置的超时关闭
func (p *TracerProvider) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.ShutdownTimeout)
	defer cancel()

	err := p.Shutdown(ctx)
	if errors.Is(err, ErrProviderClosed) {
		return nil
	}
	return err
}

// IsEnabled 是否真正导出 span
func (p *TracerProvider) IsEnabled() bool {
	return p.config.Enabled && p.provider != nil
}

// Config 获取配置
func (p *TracerProvider) Config() *Config {
	return p.config
}
