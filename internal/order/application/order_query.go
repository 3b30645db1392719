package application

import (
	"context"
	"time"

	"github.com/wyfcoding/ecommerce/internal/order/domain"
)

// 管理端列表允许的排序字段
var allowedSorts = map[string]string{
	"created_at":  "created_at ASC",
	"-created_at": "created_at DESC",
	"total":       "total ASC",
	"-total":      "total DESC",
}

// OrderListResult 订单列表查询结果
type OrderListResult struct {
	Orders   []*domain.Order `json:"orders"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// AdminListQuery 管理端订单列表查询条件
type AdminListQuery struct {
	Status        string
	PaymentStatus string
	Search        string
	From          *time.Time
	To            *time.Time
	Sort          string
	Page          int
	PageSize      int
}

// OrderQueryService 订单查询服务
type OrderQueryService struct {
	orders domain.OrderRepository
}

// NewOrderQueryService 创建订单查询服务实例
func NewOrderQueryService(orders domain.OrderRepository) *OrderQueryService {
	return &OrderQueryService{orders: orders}
}

// GetByOrderNo 查询订单详情，非管理员只能查自己的
func (s *OrderQueryService) GetByOrderNo(ctx context.Context, userID, orderNo string, isAdmin bool) (*domain.Order, error) {
	order, err := s.orders.GetByOrderNo(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	if !isAdmin && order.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return order, nil
}

// ListByUser 用户订单列表，按创建时间倒序
func (s *OrderQueryService) ListByUser(ctx context.Context, userID string, page, pageSize int) (*OrderListResult, error) {
	page, pageSize = normalizePage(page, pageSize)
	orders, total, err := s.orders.ListByUser(ctx, userID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}
	return &OrderListResult{Orders: orders, Total: total, Page: page, PageSize: pageSize}, nil
}

// AdminList 管理端条件查询
func (s *OrderQueryService) AdminList(ctx context.Context, q AdminListQuery) (*OrderListResult, error) {
	page, pageSize := normalizePage(q.Page, q.PageSize)
	sort, ok := allowedSorts[q.Sort]
	if !ok {
		sort = "created_at DESC"
	}
	orders, total, err := s.orders.List(ctx, domain.ListFilter{
		Status:        q.Status,
		PaymentStatus: q.PaymentStatus,
		Search:        q.Search,
		From:          q.From,
		To:            q.To,
		Sort:          sort,
		Offset:        (page - 1) * pageSize,
		Limit:         pageSize,
	})
	if err != nil {
		return nil, err
	}
	return &OrderListResult{Orders: orders, Total: total, Page: page, PageSize: pageSize}, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
