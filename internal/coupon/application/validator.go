// Package application 实现优惠券上下文的应用服务
package application

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/ecommerce/internal/coupon/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
)

// ValidationResult 券校验结果
// Value/MaxDiscount 随结果返回，便于调用方留存快照后自行重算
type ValidationResult struct {
	Code        string           `json:"code"`
	Type        string           `json:"type"`
	Value       decimal.Decimal  `json:"value"`
	MaxDiscount *decimal.Decimal `json:"max_discount,omitempty"`
	Discount    decimal.Decimal  `json:"discount"`
}

// CouponValidator 券校验服务
// 校验只读，不消耗使用次数；次数在下单成功时由订单流程递增
type CouponValidator struct {
	repo domain.CouponRepository
	now  func() time.Time
}

// NewCouponValidator 创建券校验服务实例
func NewCouponValidator(repo domain.CouponRepository) *CouponValidator {
	return &CouponValidator{repo: repo, now: time.Now}
}

// Validate 校验券码并计算对给定小计的抵扣
func (v *CouponValidator) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*ValidationResult, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, domain.ErrCouponNotFound
	}

	coupon, err := v.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := coupon.CheckUsable(v.now(), subtotal); err != nil {
		logger.Debug(ctx, "优惠券不可用", "code", code, "error", err)
		return nil, err
	}

	return &ValidationResult{
		Code:        coupon.Code,
		Type:        coupon.Type,
		Value:       coupon.Value,
		MaxDiscount: coupon.MaxDiscount,
		Discount:    coupon.DiscountFor(subtotal),
	}, nil
}

// Consume 消耗一次使用次数（下单成功时调用，需在订单事务内）
func (v *CouponValidator) Consume(ctx context.Context, code string) error {
	return v.repo.IncrementUsage(ctx, strings.ToUpper(strings.TrimSpace(code)))
}
