package domain

import "context"

// CouponRepository 优惠券仓储接口
type CouponRepository interface {
	Save(ctx context.Context, coupon *Coupon) error
	// GetByCode 按券码查询（调用方传入前已转大写）
	GetByCode(ctx context.Context, code string) (*Coupon, error)
	List(ctx context.Context, offset, limit int) ([]*Coupon, int64, error)
	// IncrementUsage 原子递增使用次数，次数已用完时返回 ErrUsageLimitReached
	IncrementUsage(ctx context.Context, code string) error
}
