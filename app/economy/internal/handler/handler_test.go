package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/pocketzot/app/economy/internal/dao"
	"github.com/lk2023060901/pocketzot/app/economy/internal/metrics"
	"github.com/lk2023060901/pocketzot/app/economy/internal/repository/repotest"
	"github.com/lk2023060901/pocketzot/app/economy/internal/service"
	"github.com/lk2023060901/pocketzot/pkg/database/postgres"
	"github.com/lk2023060901/pocketzot/pkg/logger"
	"github.com/lk2023060901/pocketzot/pkg/web"
	webErrors "github.com/lk2023060901/pocketzot/pkg/web/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	store  *repotest.Store
	engine *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	l := logger.NewNoop()
	m, err := metrics.New(nil)
	require.NoError(t, err)

	store := repotest.NewStore()
	cache := dao.NewCatalogCacheDAO(&dao.CatalogCacheConfig{Enabled: false}, nil, l, m)
	economy := service.NewEconomyService(l, store, m)

	cfg := web.DefaultConfig()
	cfg.Mode = gin.TestMode
	srv := web.NewServer(cfg, l)

	NewRouter(
		NewHealthHandler(store, l),
		NewUserHandler(service.NewUserService(l, store), l),
		NewAntsHandler(economy, l),
		NewAnteaterHandler(service.NewAnteaterService(l, store, m), economy, l),
		NewAccessoryHandler(service.NewAccessoryService(l, store, cache, m), l),
	).Register(srv.Router())

	return &testServer{store: store, engine: srv.Router()}
}

func (s *testServer) do(t *testing.T, method, path, body string) (int, envelope) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

type userData struct {
	ID   int64 `json:"id"`
	Ants int64 `json:"ants"`
}

type poolData struct {
	Ants       int64  `json:"ants"`
	Health     int64  `json:"health"`
	AnteaterID *int64 `json:"anteater_id"`
	IsDead     bool   `json:"is_dead"`
}

type ownedData struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	AnteaterID *int64 `json:"anteater_id"`
}

// createUser 注册用户并建好食蚁兽，返回 uid
func (s *testServer) createUser(t *testing.T, email string, ants int64) int64 {
	t.Helper()
	status, env := s.do(t, http.MethodPost, "/api/v1/users", `{"name":"zot fan","email":"`+email+`"}`)
	require.Equal(t, http.StatusCreated, status)
	u := decodeData[userData](t, env)
	require.NoError(t, s.store.UpdateUserAnts(context.Background(), u.ID, ants))

	status, _ = s.do(t, http.MethodPost, "/api/v1/anteaters", `{"uid":`+itoa(u.ID)+`,"name":"zot"}`)
	require.Equal(t, http.StatusCreated, status)
	return u.ID
}

func itoa(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func TestHealthAndEcho(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", decodeData[HealthResponse](t, env).Status)

	status, env = s.do(t, http.MethodGet, "/api/echo?msg=hello", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]string{"msg": "hello"}, decodeData[map[string]string](t, env))
}

func TestUserRoutes(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, http.MethodPost, "/api/v1/users", `{"name":"ann","email":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, webErrors.CodeInvalidParams, env.Code)

	uid := s.createUser(t, "ann@example.com", 7)

	status, env = s.do(t, http.MethodGet, "/api/v1/users/"+itoa(uid), "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(7), decodeData[userData](t, env).Ants)

	status, env = s.do(t, http.MethodGet, "/api/v1/users/email/ann@example.com", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, uid, decodeData[userData](t, env).ID)

	status, env = s.do(t, http.MethodGet, "/api/v1/users/999", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, webErrors.CodeNotFound, env.Code)

	status, env = s.do(t, http.MethodGet, "/api/v1/users/abc", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, webErrors.CodeInvalidParams, env.Code)

	status, env = s.do(t, http.MethodGet, "/api/v1/users", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, decodeData[[]userData](t, env), 1)
}

func TestAntsRoutes(t *testing.T) {
	s := newTestServer(t)
	uid := s.createUser(t, "ants@example.com", 3)
	base := "/api/v1/ants/user/" + itoa(uid)

	// 满血时 ant-step 全部溢出到 ants
	status, env := s.do(t, http.MethodPatch, base+"/count", `{"delta":1}`)
	require.Equal(t, http.StatusOK, status)
	ps := decodeData[poolData](t, env)
	assert.Equal(t, int64(15), ps.Ants)
	assert.Equal(t, int64(100), ps.Health)

	status, env = s.do(t, http.MethodPatch, base+"/count", `{"delta":3}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, webErrors.CodeInvalidParams, env.Code)

	status, env = s.do(t, http.MethodPatch, base+"/purchase", `{"delta":10}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(5), decodeData[poolData](t, env).Ants)

	status, env = s.do(t, http.MethodPatch, base+"/purchase", `{"delta":6}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, webErrors.CodeInsufficientResource, env.Code)

	status, env = s.do(t, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(5), decodeData[poolData](t, env).Ants)
}

func TestAnteaterRoutes(t *testing.T) {
	s := newTestServer(t)
	uid := s.createUser(t, "zot@example.com", 0)

	status, env := s.do(t, http.MethodPost, "/api/v1/anteaters", `{"uid":`+itoa(uid)+`,"name":"again"}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, webErrors.CodeConflict, env.Code)

	status, env = s.do(t, http.MethodPatch, "/api/v1/anteaters/user/"+itoa(uid)+"/health", `{"delta":7}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, webErrors.CodeInvalidParams, env.Code)

	status, env = s.do(t, http.MethodPatch, "/api/v1/anteaters/user/"+itoa(uid)+"/health", `{"delta":-20}`)
	require.Equal(t, http.StatusOK, status)
	ps := decodeData[poolData](t, env)
	assert.Equal(t, int64(80), ps.Health)
	require.NotNil(t, ps.AnteaterID)
	id := itoa(*ps.AnteaterID)

	status, _ = s.do(t, http.MethodGet, "/api/v1/anteaters/"+id, "")
	assert.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, http.MethodPost, "/api/v1/anteaters/"+id+"/dead", "")
	assert.Equal(t, http.StatusOK, status)

	status, env = s.do(t, http.MethodPatch, "/api/v1/anteaters/user/"+itoa(uid)+"/health", `{"delta":5}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, webErrors.CodeConflict, env.Code)

	status, env = s.do(t, http.MethodGet, "/api/v1/anteaters/user/"+itoa(uid), "")
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, decodeData[[]json.RawMessage](t, env), 1)
}

func TestAccessoryRoutes(t *testing.T) {
	s := newTestServer(t)
	uid := s.createUser(t, "shop@example.com", 14)
	user := "/api/v1/accessories/user/" + itoa(uid)

	status, env := s.do(t, http.MethodGet, "/api/v1/accessories", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decodeData[[]json.RawMessage](t, env), 4)

	status, env = s.do(t, http.MethodPost, user+"/buy/4", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, webErrors.CodeInsufficientResource, env.Code)

	status, env = s.do(t, http.MethodPost, user+"/buy/1", "")
	require.Equal(t, http.StatusCreated, status)
	plumber := decodeData[ownedData](t, env)
	status, env = s.do(t, http.MethodPost, user+"/buy/2", "")
	require.Equal(t, http.StatusCreated, status)
	merrier := decodeData[ownedData](t, env)

	status, _ = s.do(t, http.MethodPatch, "/api/v1/accessories/owned/"+itoa(plumber.ID)+"/equip", "")
	require.Equal(t, http.StatusOK, status)
	status, _ = s.do(t, http.MethodPatch, "/api/v1/accessories/owned/"+itoa(merrier.ID)+"/equip", "")
	require.Equal(t, http.StatusOK, status)

	status, env = s.do(t, http.MethodGet, user+"/equipped", "")
	require.Equal(t, http.StatusOK, status)
	equipped := decodeData[[]ownedData](t, env)
	require.Len(t, equipped, 1)
	assert.Equal(t, "Merrier", equipped[0].Name)

	status, env = s.do(t, http.MethodGet, "/api/v1/accessories/owned/"+itoa(plumber.ID), "")
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, decodeData[ownedData](t, env).AnteaterID)

	status, _ = s.do(t, http.MethodPatch, "/api/v1/accessories/owned/"+itoa(merrier.ID)+"/unequip", "")
	assert.Equal(t, http.StatusOK, status)

	status, env = s.do(t, http.MethodGet, user+"/shop", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decodeData[[]json.RawMessage](t, env), 4)

	status, _ = s.do(t, http.MethodDelete, "/api/v1/accessories/owned/"+itoa(plumber.ID), "")
	assert.Equal(t, http.StatusOK, status)
	status, env = s.do(t, http.MethodDelete, "/api/v1/accessories/owned/"+itoa(plumber.ID), "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, webErrors.CodeNotFound, env.Code)

	status, env = s.do(t, http.MethodPost, user+"/clear-inventory", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(1), decodeData[ClearInventoryResponse](t, env).Deleted)

	status, env = s.do(t, http.MethodGet, user+"/inventory", "")
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decodeData[[]json.RawMessage](t, env))

	status, env = s.do(t, http.MethodGet, "/api/v1/accessories/99", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, webErrors.CodeNotFound, env.Code)
}

func TestInternalErrorsAreOpaque(t *testing.T) {
	s := newTestServer(t)
	uid := s.createUser(t, "tx@example.com", 10)

	s.store.FailNextTx(errors.Mark(errors.New("serialization retries exhausted"), postgres.ErrTxConflict))
	status, env := s.do(t, http.MethodPatch, "/api/v1/ants/user/"+itoa(uid)+"/count", `{"delta":1}`)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, webErrors.CodeInternalError, env.Code)
	assert.Equal(t, "internal server error", env.Message)
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{errors.Mark(errors.New("bad"), service.ErrValidation), webErrors.CodeInvalidParams},
		{errors.Wrap(errors.Mark(errors.New("gone"), service.ErrNotFound), "ctx"), webErrors.CodeNotFound},
		{errors.Mark(errors.New("poor"), service.ErrInsufficientResource), webErrors.CodeInsufficientResource},
		{errors.Mark(errors.New("dead"), service.ErrPreconditionFailed), webErrors.CodeConflict},
		{postgres.ErrTxConflict, webErrors.CodeInternalError},
		{errors.New("boom"), webErrors.CodeInternalError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, errorCode(tt.err), tt.err.Error())
	}
}
