package otel

import "time"

// Config 追踪配置
type Config struct {
	// Enabled 关闭后使用全局 noop provider
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	ServiceName string `json:"service_name" yaml:"service_name" mapstructure:"service_name"`

	// Endpoint OTLP 端点，HTTP 默认 localhost:4318，gRPC 默认 localhost:4317
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`

	ExporterType ExporterType `json:"exporter_type" yaml:"exporter_type" mapstructure:"exporter_type"`

	Sampler     SamplerConfig     `json:"sampler" yaml:"sampler" mapstructure:"sampler"`
	BatchExport BatchExportConfig `json:"batch_export" yaml:"batch_export" mapstructure:"batch_export"`

	// Attributes 附加到 Resource 的属性
	Attributes map[string]string `json:"attributes" yaml:"attributes" mapstructure:"attributes"`

	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`

	// Insecure 不使用 TLS
	Insecure bool `json:"insecure" yaml:"insecure" mapstructure:"insecure"`
}

// ExporterType 导出器类型
type ExporterType string

const (
	ExporterTypeOTLPHTTP ExporterType = "otlp-http"
	ExporterTypeOTLPGRPC ExporterType = "otlp-grpc"
	ExporterTypeStdout   ExporterType = "stdout"
	ExporterTypeNoop     ExporterType = "noop"
)

// SamplerConfig 采样配置
type SamplerConfig struct {
	Type SamplerType `json:"type" yaml:"type" mapstructure:"type"`

	// Ratio 仅 Type 为 ratio 时生效，取值 [0, 1]
	Ratio float64 `json:"ratio" yaml:"ratio" mapstructure:"ratio"`
}

// SamplerType 采样类型
type SamplerType string

const (
	SamplerTypeAlways SamplerType = "always"
	SamplerTypeNever  SamplerType = "never"
	SamplerTypeRatio  SamplerType = "ratio"
	SamplerTypeParent SamplerType = "parent"
)

// BatchExportConfig 批量导出配置
type BatchExportConfig struct {
	BatchSize     int           `json:"batch_size" yaml:"batch_size" mapstructure:"batch_size"`
	ExportTimeout time.Duration `json:"export_timeout" yaml:"export_timeout" mapstructure:"export_timeout"`
	MaxQueueSize  int           `json:"max_queue_size" yaml:"max_queue_size" mapstructure:"max_queue_size"`
	BatchTimeout  time.Duration `json:"batch_timeout" yaml:"batch_timeout" mapstructure:"batch_timeout"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Enabled:      true,
		ServiceName:  "pocketzot-economy",
		Endpoint:     "localhost:4318",
		ExporterType: ExporterTypeNoop,
		Sampler: SamplerConfig{
			Type:  SamplerTypeParent,
			Ratio: 1.0,
		},
		BatchExport: BatchExportConfig{
			BatchSize:     512,
			ExportTimeout: 30 * time.Second,
			MaxQueueSize:  2048,
			BatchTimeout:  5 * time.Second,
		},
		Attributes:      make(map[string]string),
		ShutdownTimeout: 5 * time.Second,
		Insecure:        true,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.ServiceName == "" {
		return ErrInvalidServiceName
	}
	switch c.ExporterType {
	case "", ExporterTypeOTLPHTTP, ExporterTypeOTLPGRPC, ExporterTypeStdout, ExporterTypeNoop:
	default:
		return ErrUnsupportedExporter
	}
	if c.Sampler.Type == SamplerTypeRatio && (c.Sampler.Ratio < 0 || c.Sampler.Ratio > 1) {
		return ErrInvalidSamplerRatio
	}
	return nil
}
