package handler

import "github.com/gin-gonic/gin"

// Router 汇总全部路由
type Router struct {
	health      *HealthHandler
	users       *UserHandler
	ants        *AntsHandler
	anteaters   *AnteaterHandler
	accessories *AccessoryHandler
}

// NewRouter 创建路由
func NewRouter(
	health *HealthHandler,
	users *UserHandler,
	ants *AntsHandler,
	anteaters *AnteaterHandler,
	accessories *AccessoryHandler,
) *Router {
	return &Router{
		health:      health,
		users:       users,
		ants:        ants,
		anteaters:   anteaters,
		accessories: accessories,
	}
}

// Register 挂载到 gin 引擎
func (r *Router) Register(engine *gin.Engine) {
	r.health.Register(engine)

	v1 := engine.Group("/api/v1")
	r.users.Register(v1)
	r.ants.Register(v1)
	r.anteaters.Register(v1)
	r.accessories.Register(v1)
}
