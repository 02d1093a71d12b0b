package sentry

import (
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap/zapcore"
)

// Level 事件级别
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelFatal   Level = "fatal"
)

func (l Level) toSentryLevel() sentry.Level {
	switch l {
	case LevelDebug:
		return sentry.LevelDebug
	case LevelInfo:
		return sentry.LevelInfo
	case LevelWarning:
		return sentry.LevelWarning
	case LevelFatal:
		return sentry.LevelFatal
	default:
		return sentry.LevelError
	}
}

// levelFromZap 日志级别映射到事件级别
func levelFromZap(l zapcore.Level) Level {
	switch {
	case l >= zapcore.DPanicLevel:
		return LevelFatal
	case l >= zapcore.ErrorLevel:
		return LevelError
	case l == zapcore.WarnLevel:
		return LevelWarning
	case l == zapcore.InfoLevel:
		return LevelInfo
	default:
		return LevelDebug
	}
}

// Stats 统计信息
type Stats struct {
	EventsTotal    uint64
	EventsCaptured uint64
	EventsDropped  uint64
}
