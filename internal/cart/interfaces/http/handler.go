// Package http 提供购物车的 HTTP 接口
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/ecommerce/internal/cart/application"
	cartdomain "github.com/wyfcoding/ecommerce/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	coupondomain "github.com/wyfcoding/ecommerce/internal/coupon/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/metrics"
	"github.com/wyfcoding/ecommerce/pkg/middleware"
	"github.com/wyfcoding/pkg/response"
)

// CartHandler 购物车 HTTP 处理器
type CartHandler struct {
	cmd     *application.CartCommandService
	query   *application.CartQueryService
	metrics *metrics.Metrics
}

// NewCartHandler 创建购物车 HTTP 处理器实例
func NewCartHandler(cmd *application.CartCommandService, query *application.CartQueryService, m *metrics.Metrics) *CartHandler {
	return &CartHandler{cmd: cmd, query: query, metrics: m}
}

// RegisterRoutes 注册路由
func (h *CartHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/v1/cart")
	api.Use(middleware.RequireUser())
	{
		api.GET("", h.GetCart)                    // 查询购物车
		api.POST("/items", h.AddItem)             // 添加商品
		api.PATCH("/items/:itemId", h.UpdateItem) // 调整数量
		api.DELETE("/items/:itemId", h.RemoveItem)
		api.POST("/coupon", h.ApplyCoupon)
		api.DELETE("/coupon", h.RemoveCoupon)
		api.DELETE("", h.ClearCart)
	}
}

// GetCart 查询当前用户购物车
func (h *CartHandler) GetCart(c *gin.Context) {
	cart, err := h.query.GetCart(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		logger.Error(c.Request.Context(), "查询购物车失败", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, "failed to get cart", "")
		return
	}
	response.Success(c, cart)
}

// AddItemRequest 添加商品请求
type AddItemRequest struct {
	ProductID  uint   `json:"product_id" binding:"required"`
	VariantSKU string `json:"variant_sku"`
	Quantity   int    `json:"quantity" binding:"required,min=1"`
}

// AddItem 添加商品到购物车
func (h *CartHandler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	cart, err := h.cmd.AddItem(c.Request.Context(), application.AddItemCommand{
		UserID:     middleware.UserID(c),
		ProductID:  req.ProductID,
		VariantSKU: req.VariantSKU,
		Quantity:   req.Quantity,
	})
	if err != nil {
		h.renderError(c, "add_item", err)
		return
	}
	h.metrics.CartMutationsTotal.Inc()
	response.Success(c, cart)
}

// UpdateItemRequest 调整数量请求，数量 0 表示删除该行
type UpdateItemRequest struct {
	Quantity *int `json:"quantity" binding:"required,min=0"`
}

// UpdateItem 调整行项目数量
func (h *CartHandler) UpdateItem(c *gin.Context) {
	itemID, err := strconv.ParseUint(c.Param("itemId"), 10, 64)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid item id", "")
		return
	}
	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	cart, err := h.cmd.UpdateItem(c.Request.Context(), application.UpdateItemCommand{
		UserID:   middleware.UserID(c),
		ItemID:   uint(itemID),
		Quantity: *req.Quantity,
	})
	if err != nil {
		h.renderError(c, "update_item", err)
		return
	}
	h.metrics.CartMutationsTotal.Inc()
	response.Success(c, cart)
}

// RemoveItem 删除行项目
func (h *CartHandler) RemoveItem(c *gin.Context) {
	itemID, err := strconv.ParseUint(c.Param("itemId"), 10, 64)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid item id", "")
		return
	}
	cart, err := h.cmd.RemoveItem(c.Request.Context(), middleware.UserID(c), uint(itemID))
	if err != nil {
		h.renderError(c, "remove_item", err)
		return
	}
	h.metrics.CartMutationsTotal.Inc()
	response.Success(c, cart)
}

// ApplyCouponRequest 应用券码请求
type ApplyCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

// ApplyCoupon 应用券码
func (h *CartHandler) ApplyCoupon(c *gin.Context) {
	var req ApplyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	cart, err := h.cmd.ApplyCoupon(c.Request.Context(), middleware.UserID(c), req.Code)
	if err != nil {
		h.renderError(c, "apply_coupon", err)
		return
	}
	h.metrics.CouponApplied.Inc()
	response.Success(c, cart)
}

// RemoveCoupon 移除券码
func (h *CartHandler) RemoveCoupon(c *gin.Context) {
	cart, err := h.cmd.RemoveCoupon(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.renderError(c, "remove_coupon", err)
		return
	}
	response.Success(c, cart)
}

// ClearCart 清空购物车
func (h *CartHandler) ClearCart(c *gin.Context) {
	if err := h.cmd.Clear(c.Request.Context(), middleware.UserID(c)); err != nil {
		h.renderError(c, "clear", err)
		return
	}
	h.metrics.CartMutationsTotal.Inc()
	response.Success(c, gin.H{"cleared": true})
}

// renderError 领域错误到 HTTP 状态码的映射
func (h *CartHandler) renderError(c *gin.Context, op string, err error) {
	var stockErr *catalogdomain.InsufficientStockError
	var minErr *coupondomain.MinimumOrderError
	switch {
	case errors.Is(err, cartdomain.ErrCartNotFound),
		errors.Is(err, cartdomain.ErrItemNotFound),
		errors.Is(err, catalogdomain.ErrProductNotFound),
		errors.Is(err, catalogdomain.ErrVariantNotFound),
		errors.Is(err, coupondomain.ErrCouponNotFound),
		errors.Is(err, coupondomain.ErrCouponNotStarted),
		errors.Is(err, coupondomain.ErrCouponExpired):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
	case errors.As(err, &stockErr),
		errors.As(err, &minErr),
		errors.Is(err, cartdomain.ErrEmptyCart),
		errors.Is(err, coupondomain.ErrUsageLimitReached):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
	default:
		logger.Error(c.Request.Context(), "购物车操作失败", "op", op, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, "cart operation failed", "")
	}
}
