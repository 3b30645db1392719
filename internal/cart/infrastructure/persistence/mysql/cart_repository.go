// Package mysql 提供了购物车仓储接口的 MySQL GORM 实现。
package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/ecommerce/internal/cart/domain"
	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/gorm"
)

// cartRepositoryImpl 是 domain.CartRepository 接口的 GORM 实现。
type cartRepositoryImpl struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓储实例
func NewCartRepository(db *gorm.DB) domain.CartRepository {
	return &cartRepositoryImpl{db: db}
}

func (r *cartRepositoryImpl) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok {
		return tx
	}
	return r.db.WithContext(ctx)
}

func (r *cartRepositoryImpl) GetByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart
	err := r.getDB(ctx).Preload("Items").Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrCartNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// Save 保存聚合及全部行项目
func (r *cartRepositoryImpl) Save(ctx context.Context, cart *domain.Cart) error {
	return r.getDB(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(cart).Error
}

func (r *cartRepositoryImpl) Delete(ctx context.Context, userID string) error {
	db := r.getDB(ctx)
	var cart domain.Cart
	err := db.Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := db.Where("cart_id = ?", cart.ID).Delete(&domain.CartItem{}).Error; err != nil {
		return err
	}
	return db.Delete(&cart).Error
}

func (r *cartRepositoryImpl) DeleteItem(ctx context.Context, itemID uint) error {
	return r.getDB(ctx).Delete(&domain.CartItem{}, itemID).Error
}
