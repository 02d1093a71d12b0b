package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"default", func(*Config) {}, nil},
		{"empty service name", func(c *Config) { c.ServiceName = "" }, ErrInvalidServiceName},
		{"bad ratio", func(c *Config) {
			c.Sampler = SamplerConfig{Type: SamplerTypeRatio, Ratio: 1.5}
		}, ErrInvalidSamplerRatio},
		{"unknown exporter", func(c *Config) { c.ExporterType = "zipkin" }, ErrUnsupportedExporter},
		{"disabled skips checks", func(c *Config) {
			c.Enabled = false
			c.ServiceName = ""
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewDisabled(t *testing.T) {
	p, err := New(&Config{Enabled: false})
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NotNil(t, p.Tracer("test"))
	require.NoError(t, p.Close())
}

func TestNewStdoutExporter(t *testing.T) {
	p, err := New(&Config{
		Enabled:      true,
		ServiceName:  "otel-test",
		ExporterType: ExporterTypeStdout,
		Sampler:      SamplerConfig{Type: SamplerTypeAlways},
	})
	require.NoError(t, err)
	assert.True(t, p.IsEnabled())

	ctx, span := StartSpan(context.Background(), "convert", Int64(AttrDelta, 12))
	assert.NotEmpty(t, TraceIDFromContext(ctx))
	EndSpan(span, nil)

	require.NoError(t, p.Shutdown(context.Background()))
	assert.ErrorIs(t, p.Shutdown(context.Background()), ErrProviderClosed)
	assert.NoError(t, p.Close())
}

func TestTraceIDFromContextWithoutSpan(t *testing.T) {
	assert.Empty(t, TraceIDFromContext(context.Background()))
}
