package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/pocketzot/app/economy/internal/repository"
	"github.com/lk2023060901/pocketzot/pkg/logger"
	"github.com/lk2023060901/pocketzot/pkg/web"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse 健康检查结果
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// HealthHandler 健康检查与 echo
type HealthHandler struct {
	store  repository.Store
	logger logger.Logger
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(store repository.Store, l logger.Logger) *HealthHandler {
	return &HealthHandler{
		store:  store,
		logger: l.Named("handler.health"),
	}
}

// Register 注册路由
func (h *HealthHandler) Register(r gin.IRouter) {
	r.GET("/health", h.Health)
	r.GET("/api/echo", h.Echo)
}

// Health 数据库不可用时返回 degraded，状态码始终为 200
func (h *HealthHandler) Health(c *gin.Context) {
	resp := HealthResponse{Status: statusHealthy, Database: "up"}
	if err := h.store.Ping(c.Request.Context()); err != nil {
		h.logger.WarnContext(c.Request.Context(), "database ping failed", "error", err)
		resp = HealthResponse{Status: statusDegraded, Database: "down"}
	}
	web.Success(c, resp)
}

// Echo 原样返回 msg
func (h *HealthHandler) Echo(c *gin.Context) {
	web.Success(c, gin.H{"msg": web.GetQuery(c, "msg", "")})
}
