package logger

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap/zapcore"
)

// captureHook 记录写入的日志条目
type captureHook struct {
	mu      sync.Mutex
	entries []zapcore.Entry
	fields  [][]zapcore.Field
}

func (h *captureHook) OnWrite(entry zapcore.Entry, fields []zapcore.Field) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, entry)
	h.fields = append(h.fields, append([]zapcore.Field(nil), fields...))
	return true
}

func (h *captureHook) fieldMap(i int) map[string]zapcore.Field {
	h.mu.Lock()
	defer h.mu.Unlock()
	m := make(map[string]zapcore.Field)
	for _, f := range h.fields[i] {
		m[f.Key] = f
	}
	return m
}

func newCaptured(t *testing.T, cfg *Config) (*BaseLogger, *captureHook) {
	t.Helper()
	hook := &captureHook{}
	l, err := New(cfg, WithHooks(hook))
	require.NoError(t, err)
	return l, hook
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr error
	}{
		{name: "nil config uses default", config: nil},
		{name: "json console", config: &Config{Format: JSONFormat, EnableConsole: true}},
		{name: "file without path", config: &Config{EnableFile: true}, wantErr: ErrInvalidOutputPath},
		{name: "unknown level", config: &Config{Level: "verbose"}, wantErr: ErrInvalidLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.config)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	l, hook := newCaptured(t, &Config{Level: WarnLevel})

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown", "k", 1)
	l.Error("shown too")

	require.Len(t, hook.entries, 2)
	assert.Equal(t, zapcore.WarnLevel, hook.entries[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, hook.entries[1].Level)
}

func TestKeyValueFields(t *testing.T) {
	l, hook := newCaptured(t, &Config{Level: DebugLevel})

	l.Info("purchase", "uid", int64(7), "err", errors.New("boom"), "dangling")

	require.Len(t, hook.entries, 1)
	fields := hook.fieldMap(0)
	assert.Equal(t, int64(7), fields["uid"].Integer)
	assert.Contains(t, fields, "err")
	assert.Contains(t, fields, "!BADKEY")
}

func TestContextFields(t *testing.T) {
	l, hook := newCaptured(t, &Config{Level: DebugLevel})

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	ctx = ContextWithRequestID(ctx, "req-1")

	l.InfoContext(ctx, "with trace")

	fields := hook.fieldMap(0)
	assert.Equal(t, traceID.String(), fields["trace_id"].String)
	assert.Equal(t, spanID.String(), fields["span_id"].String)
	assert.Equal(t, "req-1", fields["request_id"].String)
}

func TestNamedAndWithFields(t *testing.T) {
	l, hook := newCaptured(t, nil)

	l.Named("dao").Named("user").WithFields("table", "users").Info("query")

	require.Len(t, hook.entries, 1)
	assert.Equal(t, "dao.user", hook.entries[0].LoggerName)
}

func TestSensitiveDataHook(t *testing.T) {
	capture := &captureHook{}
	l, err := New(nil, WithHooks(SensitiveDataHook([]string{"password"}), capture))
	require.NoError(t, err)

	l.Info("login", "password", "hunter2")

	assert.Equal(t, "***REDACTED***", capture.fieldMap(0)["password"].String)
}

func TestFileOutputAsync(t *testing.T) {
	path := filepath.Join(t.TempDir(), "economy.log")
	l, err := New(&Config{
		EnableFile:  true,
		OutputPath:  path,
		EnableAsync: true,
		BufferSize:  4096,
	})
	require.NoError(t, err)

	l.Info("persisted")
	_ = l.Sync()
	assert.FileExists(t, path)
}

func TestNoop(t *testing.T) {
	var l Logger = NewNoop()
	assert.NotPanics(t, func() {
		l.Named("x").WithFields("a", 1).ErrorContext(context.Background(), "nothing")
	})
	assert.NoError(t, l.Sync())
}

func TestErrorReportHook(t *testing.T) {
	var reported []string
	l, err := New(nil, WithHooks(ErrorReportHook(func(entry zapcore.Entry, _ []zapcore.Field) {
		reported = append(reported, entry.Message)
	})))
	require.NoError(t, err)

	l.Warn("not reported")
	l.Error("tx conflict")

	assert.Equal(t, []string{"tx conflict"}, reported)
}

func TestTimeRotationInvalidDuration(t *testing.T) {
	_, err := NewRotationWriter(&RotationConfig{Type: RotationByTime, RotationTime: "daily"}, filepath.Join(t.TempDir(), "a.log"))
	assert.Error(t, err)
}
