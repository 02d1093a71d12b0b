package prometheus

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := New(&Config{Namespace: "test"})
	require.NoError(t, err)
	return c
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{"default", DefaultConfig(), false},
		{"empty namespace", &Config{}, true},
		{"http enabled without addr", &Config{Namespace: "x", HTTPServer: HTTPServerConfig{Enabled: true}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	cfg := &Config{Namespace: "x", HTTPServer: HTTPServerConfig{Enabled: true, Addr: ":0"}}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "/metrics", cfg.HTTPServer.Path)
	assert.Equal(t, 10*time.Second, cfg.HTTPServer.Timeout)
}

func TestCounterRegistration(t *testing.T) {
	c := newTestClient(t)

	counter, err := c.NewCounter("conversions_total", "conversions", []string{"direction"})
	require.NoError(t, err)
	counter.WithLabelValues("heal").Add(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(counter.WithLabelValues("heal")))

	_, err = c.NewCounter("conversions_total", "dup", nil)
	assert.ErrorIs(t, err, ErrMetricExists)

	assert.Panics(t, func() { c.MustNewGauge("conversions_total", "dup", nil) })
}

func TestHistogramAndGauge(t *testing.T) {
	c := newTestClient(t)

	h := c.MustNewHistogram("tx_seconds", "tx latency", []string{"op"}, nil)
	h.WithLabelValues("purchase").Observe(0.01)
	g := c.MustNewGauge("alive", "alive anteaters", nil)
	g.WithLabelValues().Set(2)

	n, err := testutil.GatherAndCount(c.Registry(), "test_tx_seconds", "test_alive")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestHandlerServesMetrics(t *testing.T) {
	c := newTestClient(t)
	c.MustNewCounter("hits_total", "hits", nil).WithLabelValues().Inc()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "test_hits_total 1")
}

func TestClosedClientRejectsMetrics(t *testing.T) {
	c := newTestClient(t)
	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Close(), ErrClientClosed)

	_, err := c.NewCounter("late_total", "late", nil)
	assert.ErrorIs(t, err, ErrClientClosed)
}

func TestStartDisabledWaitsForContext(t *testing.T) {
	c := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
