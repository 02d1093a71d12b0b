package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// TextMapPropagator 文本映射传播器
type TextMapPropagator = propagation.TextMapPropagator

// HeaderCarrier HTTP 头载体
type HeaderCarrier = propagation.HeaderCarrier

// GetTextMapPropagator 获取全局文本传播器
func GetTextMapPropagator() propagation.TextMapPropagator {
	return otel.GetTextMapPropagator()
}

// NewCompositeTextMapPropagator W3C TraceContext + Baggage
func NewCompositeTextMapPropagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
}
