// Package http 提供商品目录的 HTTP 接口
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/ecommerce/internal/catalog/application"
	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/middleware"
	"github.com/wyfcoding/pkg/response"
)

// ProductHandler 商品 HTTP 处理器
type ProductHandler struct {
	query *application.ProductQueryService
	cmd   *application.ProductCommandService
}

// NewProductHandler 创建商品 HTTP 处理器实例
func NewProductHandler(query *application.ProductQueryService, cmd *application.ProductCommandService) *ProductHandler {
	return &ProductHandler{query: query, cmd: cmd}
}

// RegisterRoutes 注册路由
func (h *ProductHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/v1/products")
	{
		api.GET("", h.ListProducts)     // 商品列表
		api.GET("/:slug", h.GetProduct) // 商品详情
	}

	admin := router.Group("/api/v1/admin/products")
	admin.Use(middleware.RequireUser(), middleware.RequireRole(middleware.RoleAdmin))
	{
		admin.POST("", h.UpsertProduct)
		admin.PUT("/:id", h.UpsertProduct)
		admin.DELETE("/:id", h.DeactivateProduct)
	}
}

// ListProducts 分页查询在售商品
func (h *ProductHandler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	result, err := h.query.List(c.Request.Context(), c.Query("category"), page, pageSize)
	if err != nil {
		logger.Error(c.Request.Context(), "查询商品列表失败", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, "failed to list products", "")
		return
	}
	response.Success(c, result)
}

// GetProduct 按 slug 查询商品详情
func (h *ProductHandler) GetProduct(c *gin.Context) {
	p, err := h.query.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, "product not found", "")
			return
		}
		logger.Error(c.Request.Context(), "查询商品失败", "slug", c.Param("slug"), "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, "failed to get product", "")
		return
	}
	response.Success(c, p)
}

// UpsertProductRequest 创建/更新商品请求
type UpsertProductRequest struct {
	Title          string           `json:"title" binding:"required"`
	Slug           string           `json:"slug" binding:"required"`
	Description    string           `json:"description"`
	Image          string           `json:"image"`
	Category       string           `json:"category"`
	Price          decimal.Decimal  `json:"price" binding:"required"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price"`
	Stock          int              `json:"stock"`
	IsActive       *bool            `json:"is_active"`
	Variants       []VariantRequest `json:"variants"`
}

// VariantRequest 商品规格请求
type VariantRequest struct {
	ID         uint            `json:"id"`
	SKU        string          `json:"sku" binding:"required"`
	Name       string          `json:"name" binding:"required"`
	PriceDelta decimal.Decimal `json:"price_delta"`
	Stock      int             `json:"stock"`
}

// UpsertProduct 创建或更新商品（管理端）
func (h *ProductHandler) UpsertProduct(c *gin.Context) {
	var req UpsertProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	cmd := application.UpsertProductCommand{
		Title:          req.Title,
		Slug:           req.Slug,
		Description:    req.Description,
		Image:          req.Image,
		Category:       req.Category,
		Price:          req.Price,
		CompareAtPrice: req.CompareAtPrice,
		Stock:          req.Stock,
		IsActive:       true,
	}
	if req.IsActive != nil {
		cmd.IsActive = *req.IsActive
	}
	if idStr := c.Param("id"); idStr != "" {
		id, err := strconv.ParseUint(idStr, 10, 64)
		if err != nil {
			response.ErrorWithStatus(c, http.StatusBadRequest, "invalid product id", "")
			return
		}
		cmd.ID = uint(id)
	}
	for _, v := range req.Variants {
		cmd.Variants = append(cmd.Variants, application.UpsertVariantCommand{
			ID: v.ID, SKU: v.SKU, Name: v.Name, PriceDelta: v.PriceDelta, Stock: v.Stock,
		})
	}

	p, err := h.cmd.Upsert(c.Request.Context(), cmd)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, "product not found", "")
			return
		}
		logger.Error(c.Request.Context(), "保存商品失败", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, "failed to save product", "")
		return
	}
	response.Success(c, p)
}

// DeactivateProduct 下架商品（管理端）
func (h *ProductHandler) DeactivateProduct(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid product id", "")
		return
	}
	if err := h.cmd.Deactivate(c.Request.Context(), uint(id)); err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, "product not found", "")
			return
		}
		logger.Error(c.Request.Context(), "下架商品失败", "product_id", id, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, "failed to deactivate product", "")
		return
	}
	response.Success(c, gin.H{"id": id})
}
