package domain

import (
	"context"
	"time"
)

// ListFilter 管理端订单列表过滤条件
type ListFilter struct {
	Status        string
	PaymentStatus string
	// Search 匹配订单号或下单邮箱
	Search string
	From   *time.Time
	To     *time.Time
	// Sort 形如 "created_at DESC"
	Sort   string
	Offset int
	Limit  int
}

// OrderRepository 订单仓储接口
type OrderRepository interface {
	Save(ctx context.Context, order *Order) error
	GetByOrderNo(ctx context.Context, orderNo string) (*Order, error)
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]*Order, int64, error)
	List(ctx context.Context, filter ListFilter) ([]*Order, int64, error)
}
