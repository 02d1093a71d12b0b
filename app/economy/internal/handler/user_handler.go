package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/pocketzot/app/economy/internal/model"
	"github.com/lk2023060901/pocketzot/app/economy/internal/service"
	"github.com/lk2023060901/pocketzot/pkg/logger"
	"github.com/lk2023060901/pocketzot/pkg/web"
)

// UserHandler 用户接口
type UserHandler struct {
	users  *service.UserService
	logger logger.Logger
}

// NewUserHandler 创建用户处理器
func NewUserHandler(users *service.UserService, l logger.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		logger: l.Named("handler.user"),
	}
}

// Register 注册路由
func (h *UserHandler) Register(r gin.IRouter) {
	g := r.Group("/users")
	{
		g.GET("", h.List)
		g.POST("", h.Create)
		g.GET("/:uid", h.Get)
		g.GET("/email/:email", h.GetByEmail)
	}
}

// List 用户列表
// @Summary 用户列表
// @Tags users
// @Produce json
// @Success 200 {object} web.Response{data=[]model.User}
// @Router /api/v1/users [get]
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "list_users", err)
		return
	}
	web.Success(c, users)
}

// Create 注册用户，email 已存在时更新名称
// @Summary 注册用户
// @Tags users
// @Accept json
// @Produce json
// @Param request body model.CreateUserRequest true "用户信息"
// @Success 201 {object} web.Response{data=model.User}
// @Failure 400 {object} web.Response
// @Router /api/v1/users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req model.CreateUserRequest
	if !web.BindAndValidate(c, &req) {
		return
	}

	u, err := h.users.CreateUser(c.Request.Context(), req.Name, req.Email)
	if err != nil {
		respondError(c, h.logger, "create_user", err)
		return
	}
	web.Created(c, u)
}

// Get 获取用户
func (h *UserHandler) Get(c *gin.Context) {
	uid, ok := web.ParamInt64(c, "uid")
	if !ok {
		return
	}

	u, err := h.users.GetUser(c.Request.Context(), uid)
	if err != nil {
		respondError(c, h.logger, "get_user", err)
		return
	}
	web.Success(c, u)
}

// GetByEmail 根据 email 获取用户
func (h *UserHandler) GetByEmail(c *gin.Context) {
	u, err := h.users.GetUserByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		respondError(c, h.logger, "get_user_by_email", err)
		return
	}
	web.Success(c, u)
}
