package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/pocketzot/pkg/logger"
	"github.com/lk2023060901/pocketzot/pkg/web/errors"
	"github.com/lk2023060901/pocketzot/pkg/web/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type deltaRequest struct {
	Delta *int   `json:"delta" binding:"required"`
	Name  string `json:"name" binding:"omitempty,nonblank"`
}

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Mode = gin.TestMode
	return NewServer(cfg, logger.NewNoop(), opts...)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestCodeToStatus(t *testing.T) {
	tests := map[int]int{
		errors.CodeOK:                   http.StatusOK,
		errors.CodeInvalidParams:        http.StatusBadRequest,
		errors.CodeNotFound:             http.StatusNotFound,
		errors.CodeConflict:             http.StatusConflict,
		errors.CodeInsufficientResource: http.StatusBadRequest,
		errors.CodeRateLimited:          http.StatusTooManyRequests,
		errors.CodeInternalError:        http.StatusInternalServerError,
		errors.CodeUnavailable:          http.StatusServiceUnavailable,
	}
	for code, status := range tests {
		assert.Equal(t, status, errors.CodeToStatus(code), "code %d", code)
	}
}

func TestBindAndValidate(t *testing.T) {
	s := newTestServer(t)
	s.Router().PATCH("/delta", func(c *gin.Context) {
		var req deltaRequest
		if !BindAndValidate(c, &req) {
			return
		}
		Success(c, *req.Delta)
	})

	tests := []struct {
		name    string
		body    string
		status  int
		code    int
		message string
	}{
		{"ok", `{"delta":-5}`, http.StatusOK, errors.CodeOK, "ok"},
		{"zero is present", `{"delta":0}`, http.StatusOK, errors.CodeOK, "ok"},
		{"missing", `{}`, http.StatusBadRequest, errors.CodeInvalidParams, "delta is required"},
		{"blank name", `{"delta":1,"name":"  "}`, http.StatusBadRequest, errors.CodeInvalidParams, "name failed on nonblank"},
		{"malformed", `{"delta":`, http.StatusBadRequest, errors.CodeInvalidParams, "invalid request parameters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPatch, "/delta", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			resp := decode(t, rec)
			assert.Equal(t, tt.code, resp.Code)
			assert.Contains(t, resp.Message, tt.message)
		})
	}
}

func TestParamInt64(t *testing.T) {
	s := newTestServer(t)
	s.Router().GET("/users/:uid", func(c *gin.Context) {
		uid, ok := ParamInt64(c, "uid")
		if !ok {
			return
		}
		Success(c, uid)
	})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/12", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 12, decode(t, rec).Data)

	for _, bad := range []string{"abc", "0", "-3"} {
		rec = httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/"+bad, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
}

func TestFailAndCreated(t *testing.T) {
	s := newTestServer(t)
	s.Router().POST("/things", func(c *gin.Context) { Created(c, gin.H{"id": 1}) })
	s.Router().GET("/missing", func(c *gin.Context) { Fail(c, errors.CodeNotFound, "user 9 not found") })

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/things", nil))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, errors.CodeNotFound, resp.Code)
	assert.Nil(t, resp.Data)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.NewHTTPMetrics("test", reg)
	require.NoError(t, err)

	s := newTestServer(t, WithHTTPMetrics(m))
	s.Router().GET("/ping", func(c *gin.Context) { Success(c, "pong") })

	for i := 0; i < 3; i++ {
		s.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))
	}

	n, err := testutil.GatherAndCount(reg, "test_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = metrics.NewHTTPMetrics("test", reg)
	assert.Error(t, err)
}

func TestStartStopsOnCancel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = gin.TestMode
	cfg.Port = 0
	s := NewServer(cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}

	assert.ErrorIs(t, s.Start(context.Background()), ErrServerAlreadyStarted)
}
