// Package mysql 提供了优惠券仓储接口的 MySQL GORM 实现。
package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/ecommerce/internal/coupon/domain"
	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/gorm"
)

// couponRepositoryImpl 是 domain.CouponRepository 接口的 GORM 实现。
type couponRepositoryImpl struct {
	db *gorm.DB
}

// NewCouponRepository 创建优惠券仓储实例
func NewCouponRepository(db *gorm.DB) domain.CouponRepository {
	return &couponRepositoryImpl{db: db}
}

func (r *couponRepositoryImpl) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok {
		return tx
	}
	return r.db.WithContext(ctx)
}

func (r *couponRepositoryImpl) Save(ctx context.Context, coupon *domain.Coupon) error {
	return r.getDB(ctx).Save(coupon).Error
}

func (r *couponRepositoryImpl) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	var c domain.Coupon
	err := r.getDB(ctx).Where("code = ?", code).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrCouponNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *couponRepositoryImpl) List(ctx context.Context, offset, limit int) ([]*domain.Coupon, int64, error) {
	var coupons []*domain.Coupon
	var total int64
	q := r.getDB(ctx).Model(&domain.Coupon{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("id DESC").Offset(offset).Limit(limit).Find(&coupons).Error
	return coupons, total, err
}

// IncrementUsage 原子递增使用次数
// usage_limit 为 0 表示不限次数；条件更新保证并发下不会超发
func (r *couponRepositoryImpl) IncrementUsage(ctx context.Context, code string) error {
	res := r.getDB(ctx).Model(&domain.Coupon{}).
		Where("code = ? AND (usage_limit = 0 OR usage_count < usage_limit)", code).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var c domain.Coupon
		if err := r.getDB(ctx).Where("code = ?", code).First(&c).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrCouponNotFound
			}
			return err
		}
		return domain.ErrUsageLimitReached
	}
	return nil
}
