// Package domain 定义优惠券上下文的领域模型
package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 优惠券类型
const (
	TypePercentage = "percentage" // 按比例折扣
	TypeFixed      = "fixed"      // 固定面额
)

var (
	// ErrCouponNotFound 券码不存在或未启用
	ErrCouponNotFound = errors.New("coupon not found")
	// ErrCouponNotStarted 活动尚未开始
	ErrCouponNotStarted = errors.New("coupon not started")
	// ErrCouponExpired 活动已结束
	ErrCouponExpired = errors.New("coupon expired")
	// ErrUsageLimitReached 总使用次数已用完
	ErrUsageLimitReached = errors.New("coupon usage limit reached")
)

// MinimumOrderError 未达到最低消费门槛
type MinimumOrderError struct {
	Code     string
	MinOrder decimal.Decimal
}

func (e *MinimumOrderError) Error() string {
	return fmt.Sprintf("coupon %s requires a minimum order of %s", e.Code, e.MinOrder)
}

// Coupon 优惠券聚合根
// 券码统一大写存储，查询前先转大写
type Coupon struct {
	gorm.Model
	Code        string           `gorm:"column:code;type:varchar(32);uniqueIndex;not null" json:"code"`
	Type        string           `gorm:"column:type;type:varchar(20);not null" json:"type"`
	Value       decimal.Decimal  `gorm:"column:value;type:decimal(20,2);not null" json:"value"`
	MinOrder    decimal.Decimal  `gorm:"column:min_order;type:decimal(20,2)" json:"min_order"`
	MaxDiscount *decimal.Decimal `gorm:"column:max_discount;type:decimal(20,2)" json:"max_discount,omitempty"`
	StartsAt    time.Time        `gorm:"column:starts_at;not null" json:"starts_at"`
	EndsAt      time.Time        `gorm:"column:ends_at;not null" json:"ends_at"`
	UsageLimit  int              `gorm:"column:usage_limit;not null;default:0" json:"usage_limit"`
	UsageCount  int              `gorm:"column:usage_count;not null;default:0" json:"usage_count"`
	IsActive    bool             `gorm:"column:is_active;not null;default:true" json:"is_active"`
}

// TableName 指定表名
func (Coupon) TableName() string { return "coupons" }

// CheckUsable 校验券在当前时刻对给定小计是否可用
// 时间窗口两端均为闭区间
func (c *Coupon) CheckUsable(now time.Time, subtotal decimal.Decimal) error {
	if !c.IsActive {
		return ErrCouponNotFound
	}
	if now.Before(c.StartsAt) {
		return ErrCouponNotStarted
	}
	if now.After(c.EndsAt) {
		return ErrCouponExpired
	}
	if c.UsageLimit > 0 && c.UsageCount >= c.UsageLimit {
		return ErrUsageLimitReached
	}
	if subtotal.LessThan(c.MinOrder) {
		return &MinimumOrderError{Code: c.Code, MinOrder: c.MinOrder}
	}
	return nil
}

// DiscountFor 计算券对给定小计的抵扣金额
// percentage 按比例计算并受 max_discount 封顶；fixed 为固定面额不封顶，
// 超出部分由计价器在总额处兜底归零
func (c *Coupon) DiscountFor(subtotal decimal.Decimal) decimal.Decimal {
	switch c.Type {
	case TypePercentage:
		discount := subtotal.Mul(c.Value).Div(decimal.NewFromInt(100)).Round(2)
		if c.MaxDiscount != nil && discount.GreaterThan(*c.MaxDiscount) {
			discount = *c.MaxDiscount
		}
		return discount
	case TypeFixed:
		return c.Value
	default:
		return decimal.Zero
	}
}
