package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/pocketzot/app/economy/internal/service"
	"github.com/lk2023060901/pocketzot/pkg/logger"
	"github.com/lk2023060901/pocketzot/pkg/web"
)

// AccessoryHandler 商品目录、持有与装备接口
type AccessoryHandler struct {
	shop   *service.AccessoryService
	logger logger.Logger
}

// NewAccessoryHandler 创建装备处理器
func NewAccessoryHandler(shop *service.AccessoryService, l logger.Logger) *AccessoryHandler {
	return &AccessoryHandler{
		shop:   shop,
		logger: l.Named("handler.accessory"),
	}
}

// ClearInventoryResponse 清空背包结果
type ClearInventoryResponse struct {
	UID     int64 `json:"uid"`
	Deleted int64 `json:"deleted"`
}

// Register 注册路由
func (h *AccessoryHandler) Register(r gin.IRouter) {
	g := r.Group("/accessories")
	{
		g.GET("", h.List)
		g.GET("/:id", h.Get)

		user := g.Group("/user/:uid")
		user.GET("/inventory", h.Inventory)
		user.GET("/shop", h.Shop)
		user.GET("/equipped", h.Equipped)
		user.POST("/buy/:accessoryId", h.Buy)
		user.POST("/clear-inventory", h.ClearInventory)

		owned := g.Group("/owned/:id")
		owned.GET("", h.GetOwned)
		owned.PATCH("/equip", h.Equip)
		owned.PATCH("/unequip", h.Unequip)
		owned.DELETE("", h.Sell)
	}
}

// List 商品目录
func (h *AccessoryHandler) List(c *gin.Context) {
	list, err := h.shop.ListAccessories(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "list_accessories", err)
		return
	}
	web.Success(c, list)
}

// Get 单个商品
func (h *AccessoryHandler) Get(c *gin.Context) {
	id, ok := web.ParamInt64(c, "id")
	if !ok {
		return
	}

	a, err := h.shop.GetAccessory(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "get_accessory", err)
		return
	}
	web.Success(c, a)
}

// Inventory 用户背包
func (h *AccessoryHandler) Inventory(c *gin.Context) {
	uid, ok := web.ParamInt64(c, "uid")
	if !ok {
		return
	}

	list, err := h.shop.ListInventory(c.Request.Context(), uid)
	if err != nil {
		respondError(c, h.logger, "list_inventory", err)
		return
	}
	web.Success(c, list)
}

// Shop 商店视图
func (h *AccessoryHandler) Shop(c *gin.Context) {
	uid, ok := web.ParamInt64(c, "uid")
	if !ok {
		return
	}

	entries, err := h.shop.ShopView(c.Request.Context(), uid)
	if err != nil {
		respondError(c, h.logger, "shop_view", err)
		return
	}
	web.Success(c, entries)
}

// Equipped 存活食蚁兽当前的装备
func (h *AccessoryHandler) Equipped(c *gin.Context) {
	uid, ok := web.ParamInt64(c, "uid")
	if !ok {
		return
	}

	list, err := h.shop.ListEquipped(c.Request.Context(), uid)
	if err != nil {
		respondError(c, h.logger, "list_equipped", err)
		return
	}
	web.Success(c, list)
}

// Buy 购买
// @Summary 以当前价格购买，扣款与发放在同一事务中
// @Tags accessories
// @Produce json
// @Param uid path int true "用户 ID"
// @Param accessoryId path int true "商品 ID"
// @Success 201 {object} web.Response{data=model.OwnedAccessory}
// @Failure 400 {object} web.Response "ants 不足"
// @Failure 404 {object} web.Response
// @Router /api/v1/accessories/user/{uid}/buy/{accessoryId} [post]
func (h *AccessoryHandler) Buy(c *gin.Context) {
	uid, ok := web.ParamInt64(c, "uid")
	if !ok {
		return
	}
	accessoryID, ok := web.ParamInt64(c, "accessoryId")
	if !ok {
		return
	}

	owned, err := h.shop.Purchase(c.Request.Context(), uid, accessoryID)
	if err != nil {
		respondError(c, h.logger, "purchase", err)
		return
	}
	web.Created(c, owned)
}

// ClearInventory 清空背包
func (h *AccessoryHandler) ClearInventory(c *gin.Context) {
	uid, ok := web.ParamInt64(c, "uid")
	if !ok {
		return
	}

	n, err := h.shop.ClearInventory(c.Request.Context(), uid)
	if err != nil {
		respondError(c, h.logger, "clear_inventory", err)
		return
	}
	web.Success(c, ClearInventoryResponse{UID: uid, Deleted: n})
}

// GetOwned 持有记录详情
func (h *AccessoryHandler) GetOwned(c *gin.Context) {
	id, ok := web.ParamInt64(c, "id")
	if !ok {
		return
	}

	o, err := h.shop.GetOwnership(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "get_ownership", err)
		return
	}
	web.Success(c, o)
}

// Equip 装备
// @Summary 装备到持有者的存活食蚁兽，同类型已装备的被卸下
// @Tags accessories
// @Produce json
// @Param id path int true "持有记录 ID"
// @Success 200 {object} web.Response{data=model.OwnedAccessory}
// @Failure 404 {object} web.Response
// @Failure 409 {object} web.Response "没有存活食蚁兽"
// @Router /api/v1/accessories/owned/{id}/equip [patch]
func (h *AccessoryHandler) Equip(c *gin.Context) {
	id, ok := web.ParamInt64(c, "id")
	if !ok {
		return
	}

	o, err := h.shop.Equip(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "equip", err)
		return
	}
	web.Success(c, o)
}

// Unequip 卸下
func (h *AccessoryHandler) Unequip(c *gin.Context) {
	id, ok := web.ParamInt64(c, "id")
	if !ok {
		return
	}

	o, err := h.shop.Unequip(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "unequip", err)
		return
	}
	web.Success(c, o)
}

// Sell 删除持有记录
func (h *AccessoryHandler) Sell(c *gin.Context) {
	id, ok := web.ParamInt64(c, "id")
	if !ok {
		return
	}

	if err := h.shop.Sell(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, "sell", err)
		return
	}
	web.Success(c, gin.H{"id": id})
}
