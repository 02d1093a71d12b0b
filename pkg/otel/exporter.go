package otel

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// createExporter 按类型创建导出器，noop 返回 nil
func createExporter(ctx context.Context, cfg *Config) (sdktrace.SpanExporter, error) {
	switch cfg.ExporterType {
	case ExporterTypeOTLPGRPC:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		return newOTLPExporter(ctx, otlptracegrpc.NewClient(opts...))
	case ExporterTypeStdout:
		exp, err := stdouttrace.New(stdouttrace.WithWriter(os.Stdout))
		if err != nil {
			return nil, errors.Mark(errors.Wrap(err, "stdout exporter"), ErrExporterFailed)
		}
		return exp, nil
	case ExporterTypeNoop, "":
		return nil, nil
	default:
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return newOTLPExporter(ctx, otlptracehttp.NewClient(opts...))
	}
}

func newOTLPExporter(ctx context.Context, client otlptrace.Client) (*otlptrace.Exporter, error) {
	exp, err := otlptrace.New(ctx, client)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "otlp exporter"), ErrExporterFailed)
	}
	return exp, nil
}
