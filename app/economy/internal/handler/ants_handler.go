package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/pocketzot/app/economy/internal/model"
	"github.com/lk2023060901/pocketzot/app/economy/internal/service"
	"github.com/lk2023060901/pocketzot/pkg/logger"
	"github.com/lk2023060901/pocketzot/pkg/web"
)

// AntsHandler 资源池接口
type AntsHandler struct {
	economy *service.EconomyService
	logger  logger.Logger
}

// NewAntsHandler 创建资源池处理器
func NewAntsHandler(economy *service.EconomyService, l logger.Logger) *AntsHandler {
	return &AntsHandler{
		economy: economy,
		logger:  l.Named("handler.ants"),
	}
}

// Register 注册路由
func (h *AntsHandler) Register(r gin.IRouter) {
	g := r.Group("/ants/user/:uid")
	{
		g.GET("", h.GetPool)
		g.PATCH("/count", h.Step)
		g.PATCH("/purchase", h.Spend)
	}
}

// GetPool 查询资源池
// @Summary 查询 ants 与食蚁兽 health
// @Tags ants
// @Produce json
// @Param uid path int true "用户 ID"
// @Success 200 {object} web.Response{data=model.PoolState}
// @Failure 404 {object} web.Response
// @Router /api/v1/ants/user/{uid} [get]
func (h *AntsHandler) GetPool(c *gin.Context) {
	uid, ok := web.ParamInt64(c, "uid")
	if !ok {
		return
	}

	ps, err := h.economy.GetPool(c.Request.Context(), uid)
	if err != nil {
		respondError(c, h.logger, "get_pool", err)
		return
	}
	web.Success(c, ps)
}

// Step ant-step 调整
// @Summary 按步数调整 ants，每步 12
// @Tags ants
// @Accept json
// @Produce json
// @Param uid path int true "用户 ID"
// @Param request body model.AntStepRequest true "步数"
// @Success 200 {object} web.Response{data=model.PoolState}
// @Failure 400 {object} web.Response
// @Failure 404 {object} web.Response
// @Router /api/v1/ants/user/{uid}/count [patch]
func (h *AntsHandler) Step(c *gin.Context) {
	uid, ok := web.ParamInt64(c, "uid")
	if !ok {
		return
	}
	var req model.AntStepRequest
	if !web.BindAndValidate(c, &req) {
		return
	}

	ps, err := h.economy.ApplyAntStep(c.Request.Context(), uid, *req.Delta)
	if err != nil {
		respondError(c, h.logger, "ant_step", err)
		return
	}
	web.Success(c, ps)
}

// Spend 直接消费 ants
func (h *AntsHandler) Spend(c *gin.Context) {
	uid, ok := web.ParamInt64(c, "uid")
	if !ok {
		return
	}
	var req model.SpendAntsRequest
	if !web.BindAndValidate(c, &req) {
		return
	}

	ps, err := h.economy.SpendAnts(c.Request.Context(), uid, *req.Delta)
	if err != nil {
		respondError(c, h.logger, "spend_ants", err)
		return
	}
	web.Success(c, ps)
}
