package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// instrumentationName 业务 span 使用的 tracer 名称
const instrumentationName = "github.com/lk2023060901/pocketzot"

// 重导出常用类型，业务代码不直接依赖 go.opentelemetry.io/otel
type (
	Span            = trace.Span
	SpanKind        = trace.SpanKind
	SpanStartOption = trace.SpanStartOption
	Attribute       = attribute.KeyValue
)

const (
	SpanKindInternal = trace.SpanKindInternal
	SpanKindServer   = trace.SpanKindServer
)

const (
	CodeError = codes.Error
	CodeOk    = codes.Ok
)

// 属性构造函数
var (
	String = attribute.String
	Int    = attribute.Int
	Int64  = attribute.Int64
	Bool   = attribute.Bool
)

// 经济系统 span 属性键
const (
	AttrUserID      = "economy.uid"
	AttrAnteaterID  = "economy.anteater_id"
	AttrAccessoryID = "economy.accessory_id"
	AttrOwnershipID = "economy.ownership_id"
	AttrDelta       = "economy.delta"
	AttrAttempt     = "economy.tx_attempt"
)

// GetTracerProvider 获取全局 TracerProvider
func GetTracerProvider() trace.TracerProvider {
	return otel.GetTracerProvider()
}

// WithSpanKind 设置 span 类型
func WithSpanKind(kind SpanKind) SpanStartOption {
	return trace.WithSpanKind(kind)
}

// WithAttributes 设置 span 属性
func WithAttributes(attrs ...Attribute) SpanStartOption {
	return trace.WithAttributes(attrs...)
}

// StartSpan 以内部 span 包裹一次业务操作
func StartSpan(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// EndSpan 记录错误后结束 span
func EndSpan(span Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// TraceIDFromContext 返回当前 span 的 trace id，没有有效 span 时返回空串
func TraceIDFromContext(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
