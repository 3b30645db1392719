// Package http 提供订单的 HTTP 接口（用户端与管理端）
package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	cartdomain "github.com/wyfcoding/ecommerce/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	coupondomain "github.com/wyfcoding/ecommerce/internal/coupon/domain"
	"github.com/wyfcoding/ecommerce/internal/order/application"
	"github.com/wyfcoding/ecommerce/internal/order/domain"
	paymentdomain "github.com/wyfcoding/ecommerce/internal/payment/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/metrics"
	"github.com/wyfcoding/ecommerce/pkg/middleware"
	"github.com/wyfcoding/pkg/response"
)

// OrderHandler 订单 HTTP 处理器
type OrderHandler struct {
	cmd     *application.OrderCommandService
	query   *application.OrderQueryService
	metrics *metrics.Metrics
}

// NewOrderHandler 创建订单 HTTP 处理器实例
func NewOrderHandler(cmd *application.OrderCommandService, query *application.OrderQueryService, m *metrics.Metrics) *OrderHandler {
	return &OrderHandler{cmd: cmd, query: query, metrics: m}
}

// RegisterRoutes 注册路由
func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/v1/orders")
	api.Use(middleware.RequireUser())
	{
		api.POST("", h.PlaceOrder)                   // 下单
		api.POST("/verify-payment", h.VerifyPayment) // 支付核验
		api.GET("/my", h.ListMyOrders)               // 我的订单
		api.GET("/:orderNo", h.GetOrder)             // 订单详情
	}

	admin := router.Group("/api/v1/admin/orders")
	admin.Use(middleware.RequireUser(), middleware.RequireRole(middleware.RoleAdmin))
	{
		admin.GET("", h.AdminListOrders)
		admin.GET("/:orderNo", h.AdminGetOrder)
		admin.PATCH("/:orderNo/status", h.AdminUpdateStatus)
		admin.PATCH("/:orderNo/payment-status", h.AdminUpdatePaymentStatus)
		admin.PATCH("/:orderNo/tracking", h.AdminAddTracking)
		admin.POST("/:orderNo/cancel", h.AdminCancelOrder)
	}
}

// AddressRequest 收货地址请求
type AddressRequest struct {
	Name       string `json:"name" binding:"required"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1" binding:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code" binding:"required"`
	Country    string `json:"country" binding:"required,len=2"`
}

func (r AddressRequest) toDomain() domain.Address {
	return domain.Address{
		Name:       r.Name,
		Phone:      r.Phone,
		Line1:      r.Line1,
		Line2:      r.Line2,
		City:       r.City,
		State:      r.State,
		PostalCode: r.PostalCode,
		Country:    r.Country,
	}
}

// PlaceOrderRequest 下单请求
type PlaceOrderRequest struct {
	PaymentMethod   string         `json:"payment_method" binding:"required,oneof=razorpay stripe cod"`
	ShippingAddress AddressRequest `json:"shipping_address" binding:"required"`
	Notes           string         `json:"notes"`
}

// PlaceOrder 下单
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	start := time.Now()
	result, err := h.cmd.PlaceOrder(c.Request.Context(), application.PlaceOrderCommand{
		UserID:          middleware.UserID(c),
		Email:           middleware.UserEmail(c),
		PaymentMethod:   req.PaymentMethod,
		ShippingAddress: req.ShippingAddress.toDomain(),
		Notes:           req.Notes,
	})
	h.metrics.CheckoutDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		h.metrics.CheckoutFailures.Inc()
		h.renderError(c, "place_order", err)
		return
	}
	h.metrics.OrdersTotal.Inc()
	response.Success(c, result)
}

// VerifyPaymentRequest 支付核验请求
type VerifyPaymentRequest struct {
	OrderNo           string `json:"order_no" binding:"required"`
	ProviderPaymentID string `json:"provider_payment_id" binding:"required"`
	Signature         string `json:"signature" binding:"required"`
}

// VerifyPayment 在线支付回传核验
func (h *OrderHandler) VerifyPayment(c *gin.Context) {
	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	order, err := h.cmd.VerifyPayment(c.Request.Context(), application.VerifyPaymentCommand{
		UserID:            middleware.UserID(c),
		OrderNo:           req.OrderNo,
		ProviderPaymentID: req.ProviderPaymentID,
		Signature:         req.Signature,
	})
	if err != nil {
		if errors.Is(err, domain.ErrPaymentVerificationFailed) {
			h.metrics.PaymentFailed.Inc()
		}
		h.renderError(c, "verify_payment", err)
		return
	}
	h.metrics.PaymentVerified.Inc()
	response.Success(c, order)
}

// ListMyOrders 当前用户订单列表
func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	result, err := h.query.ListByUser(c.Request.Context(), middleware.UserID(c), page, pageSize)
	if err != nil {
		h.renderError(c, "list_my_orders", err)
		return
	}
	response.Success(c, result)
}

// GetOrder 订单详情（本人或管理员）
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.query.GetByOrderNo(c.Request.Context(), middleware.UserID(c), c.Param("orderNo"), middleware.IsAdmin(c))
	if err != nil {
		h.renderError(c, "get_order", err)
		return
	}
	response.Success(c, order)
}

// AdminListOrders 管理端订单列表
func (h *OrderHandler) AdminListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	q := application.AdminListQuery{
		Status:        c.Query("status"),
		PaymentStatus: c.Query("payment_status"),
		Search:        c.Query("search"),
		Sort:          c.Query("sort"),
		Page:          page,
		PageSize:      pageSize,
	}
	if from := c.Query("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			q.From = &t
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			q.To = &t
		}
	}

	result, err := h.query.AdminList(c.Request.Context(), q)
	if err != nil {
		h.renderError(c, "admin_list_orders", err)
		return
	}
	response.Success(c, result)
}

// AdminGetOrder 管理端订单详情
func (h *OrderHandler) AdminGetOrder(c *gin.Context) {
	order, err := h.query.GetByOrderNo(c.Request.Context(), "", c.Param("orderNo"), true)
	if err != nil {
		h.renderError(c, "admin_get_order", err)
		return
	}
	response.Success(c, order)
}

// UpdateStatusRequest 状态推进请求
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

// AdminUpdateStatus 管理端推进订单状态
func (h *OrderHandler) AdminUpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	if !domain.ValidStatus(req.Status) {
		response.ErrorWithStatus(c, http.StatusBadRequest, "unknown status", "")
		return
	}

	order, err := h.cmd.UpdateStatus(c.Request.Context(), c.Param("orderNo"), domain.Status(req.Status), req.Note, middleware.UserID(c))
	if err != nil {
		h.renderError(c, "admin_update_status", err)
		return
	}
	response.Success(c, order)
}

// UpdatePaymentStatusRequest 支付状态直改请求
type UpdatePaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required"`
}

// AdminUpdatePaymentStatus 管理端直改支付状态
func (h *OrderHandler) AdminUpdatePaymentStatus(c *gin.Context) {
	var req UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	if !domain.ValidPaymentStatus(req.PaymentStatus) {
		response.ErrorWithStatus(c, http.StatusBadRequest, "unknown payment status", "")
		return
	}

	order, err := h.cmd.UpdatePaymentStatus(c.Request.Context(), c.Param("orderNo"), req.PaymentStatus, middleware.UserID(c))
	if err != nil {
		h.renderError(c, "admin_update_payment_status", err)
		return
	}
	response.Success(c, order)
}

// AddTrackingRequest 物流信息请求
type AddTrackingRequest struct {
	Carrier        string `json:"carrier" binding:"required"`
	TrackingNumber string `json:"tracking_number" binding:"required"`
	TrackingURL    string `json:"tracking_url"`
}

// AdminAddTracking 管理端录入物流信息
func (h *OrderHandler) AdminAddTracking(c *gin.Context) {
	var req AddTrackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	order, err := h.cmd.AddTracking(c.Request.Context(), c.Param("orderNo"), req.Carrier, req.TrackingNumber, req.TrackingURL, middleware.UserID(c))
	if err != nil {
		h.renderError(c, "admin_add_tracking", err)
		return
	}
	response.Success(c, order)
}

// CancelOrderRequest 取消订单请求
type CancelOrderRequest struct {
	Reason       string           `json:"reason" binding:"required"`
	RefundAmount *decimal.Decimal `json:"refund_amount"`
}

// AdminCancelOrder 管理端取消订单（归还库存，可选退款）
func (h *OrderHandler) AdminCancelOrder(c *gin.Context) {
	var req CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	order, err := h.cmd.CancelOrder(c.Request.Context(), c.Param("orderNo"), req.Reason, req.RefundAmount, middleware.UserID(c))
	if err != nil {
		h.renderError(c, "admin_cancel_order", err)
		return
	}
	response.Success(c, order)
}

// renderError 领域错误到 HTTP 状态码的映射
func (h *OrderHandler) renderError(c *gin.Context, op string, err error) {
	var stockErr *catalogdomain.InsufficientStockError
	var minErr *coupondomain.MinimumOrderError
	switch {
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, catalogdomain.ErrProductNotFound),
		errors.Is(err, catalogdomain.ErrVariantNotFound),
		errors.Is(err, coupondomain.ErrCouponNotFound),
		errors.Is(err, coupondomain.ErrCouponNotStarted),
		errors.Is(err, coupondomain.ErrCouponExpired):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, domain.ErrForbidden):
		response.ErrorWithStatus(c, http.StatusForbidden, err.Error(), "")
	case errors.Is(err, domain.ErrInvalidTransition):
		response.ErrorWithStatus(c, http.StatusConflict, err.Error(), "")
	case errors.As(err, &stockErr),
		errors.As(err, &minErr),
		errors.Is(err, cartdomain.ErrEmptyCart),
		errors.Is(err, coupondomain.ErrUsageLimitReached),
		errors.Is(err, paymentdomain.ErrUnsupportedMethod),
		errors.Is(err, paymentdomain.ErrProviderOrderFailed),
		errors.Is(err, domain.ErrPaymentVerificationFailed):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
	default:
		logger.Error(c.Request.Context(), "订单操作失败", "op", op, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, "order operation failed", "")
	}
}
