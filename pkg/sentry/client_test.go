package sentry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type recordingTransport struct {
	mu     sync.Mutex
	events []*sentry.Event
}

func (t *recordingTransport) Configure(sentry.ClientOptions) {}

func (t *recordingTransport) SendEvent(event *sentry.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, event)
}

func (t *recordingTransport) Flush(time.Duration) bool { return true }

func (t *recordingTransport) Events() []*sentry.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*sentry.Event(nil), t.events...)
}

func newTestClient(t *testing.T) (*Client, *recordingTransport) {
	t.Helper()
	tr := &recordingTransport{}
	cfg := DefaultConfig()
	cfg.Tags = map[string]string{"service": "economy"}
	c, err := New(cfg, WithTransport(tr))
	require.NoError(t, err)
	return c, tr
}

func TestConfigValidate(t *testing.T) {
	var nilCfg *Config
	assert.ErrorIs(t, nilCfg.Validate(), ErrNilConfig)

	cfg := DefaultConfig()
	cfg.SampleRate = 2
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	assert.NoError(t, DefaultConfig().Validate())
}

func TestNewWithoutDSNIsDisabled(t *testing.T) {
	c, err := New(DefaultConfig())
	require.NoError(t, err)
	assert.False(t, c.Enabled())
	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Close(), ErrClientClosed)
}

func TestNewInvalidDSN(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DSN = "not a dsn"
	_, err := New(cfg)
	assert.True(t, errors.Is(err, ErrInvalidDSN))
}

func TestCaptureError(t *testing.T) {
	c, tr := newTestClient(t)
	assert.True(t, c.Enabled())

	id := c.CaptureError(context.Background(), errors.New("ledger write failed"), map[string]string{"route": "/api/v1/ants"})
	require.NotNil(t, id)

	events := tr.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "/api/v1/ants", events[0].Tags["route"])
	assert.Equal(t, "economy", events[0].Tags["service"])
	assert.Equal(t, uint64(1), c.Stats().EventsCaptured)

	assert.Nil(t, c.CaptureError(context.Background(), nil, nil))
}

func TestRecoverPanic(t *testing.T) {
	c, tr := newTestClient(t)

	func() {
		defer func() {
			c.RecoverPanic(context.Background(), recover())
		}()
		panic("boom")
	}()

	require.Len(t, tr.Events(), 1)
	assert.Equal(t, sentry.LevelFatal, tr.Events()[0].Level)
}

func TestReportLogEntry(t *testing.T) {
	c, tr := newTestClient(t)

	c.ReportLogEntry(zapcore.Entry{Level: zapcore.ErrorLevel, Message: "tx retries exhausted", LoggerName: "economy"},
		[]zapcore.Field{zap.Int64("uid", 7)})

	events := tr.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "tx retries exhausted", events[0].Message)
	assert.Equal(t, sentry.LevelError, events[0].Level)
	assert.Equal(t, int64(7), events[0].Contexts["fields"]["uid"])
}

func TestClosedClientDropsEvents(t *testing.T) {
	c, tr := newTestClient(t)
	require.NoError(t, c.Close())

	assert.Nil(t, c.CaptureError(context.Background(), errors.New("late"), nil))
	assert.Empty(t, tr.Events())
}
