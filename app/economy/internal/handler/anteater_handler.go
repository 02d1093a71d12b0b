package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/pocketzot/app/economy/internal/model"
	"github.com/lk2023060901/pocketzot/app/economy/internal/service"
	"github.com/lk2023060901/pocketzot/pkg/logger"
	"github.com/lk2023060901/pocketzot/pkg/web"
)

// AnteaterHandler 食蚁兽接口
type AnteaterHandler struct {
	anteaters *service.AnteaterService
	economy   *service.EconomyService
	logger    logger.Logger
}

// NewAnteaterHandler 创建食蚁兽处理器
func NewAnteaterHandler(anteaters *service.AnteaterService, economy *service.EconomyService, l logger.Logger) *AnteaterHandler {
	return &AnteaterHandler{
		anteaters: anteaters,
		economy:   economy,
		logger:    l.Named("handler.anteater"),
	}
}

// Register 注册路由
func (h *AnteaterHandler) Register(r gin.IRouter) {
	g := r.Group("/anteaters")
	{
		g.POST("", h.Create)
		g.GET("/:id", h.Get)
		g.POST("/:id/dead", h.MarkDead)
		g.GET("/user/:uid", h.ListByUser)
		g.PATCH("/user/:uid/health", h.EditHealth)
	}
}

// Create 创建食蚁兽
// @Summary 为用户创建满血食蚁兽
// @Tags anteaters
// @Accept json
// @Produce json
// @Param request body model.CreateAnteaterRequest true "食蚁兽信息"
// @Success 201 {object} web.Response{data=model.Anteater}
// @Failure 404 {object} web.Response
// @Failure 409 {object} web.Response
// @Router /api/v1/anteaters [post]
func (h *AnteaterHandler) Create(c *gin.Context) {
	var req model.CreateAnteaterRequest
	if !web.BindAndValidate(c, &req) {
		return
	}

	a, err := h.anteaters.CreateAnteater(c.Request.Context(), req.UID, req.Name)
	if err != nil {
		respondError(c, h.logger, "create_anteater", err)
		return
	}
	web.Created(c, a)
}

// Get 获取食蚁兽
func (h *AnteaterHandler) Get(c *gin.Context) {
	id, ok := web.ParamInt64(c, "id")
	if !ok {
		return
	}

	a, err := h.anteaters.GetAnteater(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "get_anteater", err)
		return
	}
	web.Success(c, a)
}

// ListByUser 用户的全部食蚁兽
func (h *AnteaterHandler) ListByUser(c *gin.Context) {
	uid, ok := web.ParamInt64(c, "uid")
	if !ok {
		return
	}

	list, err := h.anteaters.ListAnteaters(c.Request.Context(), uid)
	if err != nil {
		respondError(c, h.logger, "list_anteaters", err)
		return
	}
	web.Success(c, list)
}

// MarkDead 标记死亡
func (h *AnteaterHandler) MarkDead(c *gin.Context) {
	id, ok := web.ParamInt64(c, "id")
	if !ok {
		return
	}

	a, err := h.anteaters.MarkDead(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "mark_dead", err)
		return
	}
	web.Success(c, a)
}

// EditHealth health-edit 调整
// @Summary 调整存活食蚁兽的 health，溢出部分转为 ants
// @Tags anteaters
// @Accept json
// @Produce json
// @Param uid path int true "用户 ID"
// @Param request body model.HealthEditRequest true "调整量"
// @Success 200 {object} web.Response{data=model.PoolState}
// @Failure 400 {object} web.Response
// @Failure 409 {object} web.Response
// @Router /api/v1/anteaters/user/{uid}/health [patch]
func (h *AnteaterHandler) EditHealth(c *gin.Context) {
	uid, ok := web.ParamInt64(c, "uid")
	if !ok {
		return
	}
	var req model.HealthEditRequest
	if !web.BindAndValidate(c, &req) {
		return
	}

	ps, err := h.economy.ApplyHealthEdit(c.Request.Context(), uid, *req.Delta)
	if err != nil {
		respondError(c, h.logger, "health_edit", err)
		return
	}
	web.Success(c, ps)
}
