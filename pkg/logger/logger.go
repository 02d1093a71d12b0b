package logger

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/pocketzot/pkg/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ Logger = (*BaseLogger)(nil)

// BaseLogger 基于 zap 的日志记录器实现
type BaseLogger struct {
	zl               *zap.Logger
	config           *Config
	globalFields     map[string]interface{}
	hooks            []Hook
	contextExtractor ContextFieldExtractor
	closers          []func() error
}

// New 创建新的 BaseLogger，cfg 可只填写需要覆盖的字段
func New(cfg *Config, opts ...Option) (*BaseLogger, error) {
	merged, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to merge logger config")
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	l := &BaseLogger{
		config:           merged,
		globalFields:     make(map[string]interface{}),
		contextExtractor: DefaultContextExtractor,
	}
	if merged.EnableTraceContext {
		l.contextExtractor = TraceContextExtractor
	}
	for k, v := range merged.GlobalFields {
		l.globalFields[k] = v
	}
	for _, opt := range opts {
		opt(l)
	}

	zl, err := l.build()
	if err != nil {
		return nil, err
	}
	l.zl = zl
	return l, nil
}

// Zap 返回底层 zap.Logger，供需要原生 zap 的第三方组件使用
func (l *BaseLogger) Zap() *zap.Logger {
	return l.zl
}

func (l *BaseLogger) build() (*zap.Logger, error) {
	encCfg := l.encoderConfig()

	var encoder zapcore.Encoder
	if l.config.Format == ConsoleFormat {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	writers := make([]zapcore.WriteSyncer, 0, 2)
	if l.config.EnableConsole {
		writers = append(writers, zapcore.Lock(os.Stdout))
	}
	if l.config.EnableFile {
		w, err := NewRotationWriter(&l.config.Rotation, l.config.OutputPath)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create rotation writer")
		}
		writers = append(writers, zapcore.AddSync(w))
	}

	ws := zapcore.NewMultiWriteSyncer(writers...)
	if l.config.EnableAsync {
		buffered := &zapcore.BufferedWriteSyncer{WS: ws, Size: l.config.BufferSize}
		l.closers = append(l.closers, buffered.Stop)
		ws = buffered
	}

	var core zapcore.Core = zapcore.NewCore(encoder, ws, toZapLevel(l.config.Level))
	if len(l.hooks) > 0 {
		core = NewHookedCore(core, l.hooks...)
	}
	if l.config.EnableSampling {
		core = zapcore.NewSamplerWithOptions(core, 1, l.config.SamplingInitial, l.config.SamplingThereafter)
	}

	options := []zap.Option{zap.AddCaller(), zap.AddCallerSkip(1)}
	if l.config.EnableStacktrace {
		options = append(options, zap.AddStacktrace(toZapLevel(l.config.StacktraceLevel)))
	}
	if l.config.Development {
		options = append(options, zap.Development())
	}

	zl := zap.New(core, options...)
	if len(l.globalFields) > 0 {
		fields := make([]zap.Field, 0, len(l.globalFields))
		for k, v := range l.globalFields {
			fields = append(fields, zap.Any(k, v))
		}
		zl = zl.With(fields...)
	}
	return zl, nil
}

func (l *BaseLogger) encoderConfig() zapcore.EncoderConfig {
	cfg := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		TimeKey:        "time",
		NameKey:        "logger",
		CallerKey:      "caller",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if l.config.TimeFormat != "" {
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout(l.config.TimeFormat)
	}
	if l.config.Development && l.config.Format == ConsoleFormat {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return cfg
}

func toZapLevel(level Level) zapcore.Level {
	switch level {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case PanicLevel:
		return zapcore.PanicLevel
	case FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *BaseLogger) log(lvl zapcore.Level, msg string, keysAndValues []interface{}) {
	if ce := l.zl.Check(lvl, msg); ce != nil {
		ce.Write(toZapFields(keysAndValues)...)
	}
}

func (l *BaseLogger) logContext(ctx context.Context, lvl zapcore.Level, msg string, keysAndValues []interface{}) {
	if ce := l.zl.Check(lvl, msg); ce != nil {
		ce.Write(append(l.contextExtractor(ctx), toZapFields(keysAndValues)...)...)
	}
}

// Debug 记录 debug 级别日志
func (l *BaseLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log(zapcore.DebugLevel, msg, keysAndValues)
}

// Info 记录 info 级别日志
func (l *BaseLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log(zapcore.InfoLevel, msg, keysAndValues)
}

// Warn 记录 warn 级别日志
func (l *BaseLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log(zapcore.WarnLevel, msg, keysAndValues)
}

// Error 记录 error 级别日志
func (l *BaseLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log(zapcore.ErrorLevel, msg, keysAndValues)
}

// DebugContext 记录 debug 级别日志，并附带 context 字段
func (l *BaseLogger) DebugContext(ctx context.Context, msg string, keysAndValues ...interface{}) {
	l.logContext(ctx, zapcore.DebugLevel, msg, keysAndValues)
}

// InfoContext 记录 info 级别日志，并附带 context 字段
func (l *BaseLogger) InfoContext(ctx context.Context, msg string, keysAndValues ...interface{}) {
	l.logContext(ctx, zapcore.InfoLevel, msg, keysAndValues)
}

// WarnContext 记录 warn 级别日志，并附带 context 字段
func (l *BaseLogger) WarnContext(ctx context.Context, msg string, keysAndValues ...interface{}) {
	l.logContext(ctx, zapcore.WarnLevel, msg, keysAndValues)
}

// ErrorContext 记录 error 级别日志，并附带 context 字段
func (l *BaseLogger) ErrorContext(ctx context.Context, msg string, keysAndValues ...interface{}) {
	l.logContext(ctx, zapcore.ErrorLevel, msg, keysAndValues)
}

func (l *BaseLogger) derive(zl *zap.Logger) *BaseLogger {
	return &BaseLogger{
		zl:               zl,
		config:           l.config,
		globalFields:     l.globalFields,
		hooks:            l.hooks,
		contextExtractor: l.contextExtractor,
		closers:          l.closers,
	}
}

// Named 创建具名子 logger，名称以 "." 级联
func (l *BaseLogger) Named(name string) Logger {
	return l.derive(l.zl.Named(name))
}

// WithFields 返回附带固定字段的子 logger
func (l *BaseLogger) WithFields(keysAndValues ...interface{}) Logger {
	fields := toZapFields(keysAndValues)
	if len(fields) == 0 {
		return l
	}
	return l.derive(l.zl.With(fields...))
}

// Sync 刷新缓冲并停止异步写入
func (l *BaseLogger) Sync() error {
	err := l.zl.Sync()
	for _, c := range l.closers {
		err = errors.CombineErrors(err, c())
	}
	return err
}

// toZapFields 将 key-value 对转换为 zap.Field，也接受直接传入的 zap.Field
func toZapFields(keysAndValues []interface{}) []zap.Field {
	if len(keysAndValues) == 0 {
		return nil
	}

	fields := make([]zap.Field, 0, len(keysAndValues)/2+1)
	for i := 0; i < len(keysAndValues); i++ {
		switch v := keysAndValues[i].(type) {
		case zap.Field:
			fields = append(fields, v)
		case string:
			if i+1 >= len(keysAndValues) {
				fields = append(fields, zap.Any("!BADKEY", v))
				continue
			}
			val := keysAndValues[i+1]
			if err, ok := val.(error); ok {
				fields = append(fields, zap.NamedError(v, err))
			} else {
				fields = append(fields, zap.Any(v, val))
			}
			i++
		default:
			fields = append(fields, zap.Any("!BADKEY", v))
		}
	}
	return fields
}
