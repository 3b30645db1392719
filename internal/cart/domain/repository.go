package domain

import "context"

// CartRepository 购物车仓储接口
type CartRepository interface {
	// GetByUserID 查询用户购物车，不存在时返回 ErrCartNotFound
	GetByUserID(ctx context.Context, userID string) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
	// Delete 删除购物车及其行项目
	Delete(ctx context.Context, userID string) error
	// DeleteItem 删除单个行项目（聚合内删行后持久化用）
	DeleteItem(ctx context.Context, itemID uint) error
}
