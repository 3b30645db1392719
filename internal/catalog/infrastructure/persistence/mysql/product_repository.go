// Package mysql 提供了商品仓储接口的 MySQL GORM 实现。
package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/gorm"
)

// productRepositoryImpl 是 domain.ProductRepository 接口的 GORM 实现。
type productRepositoryImpl struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储实例
func NewProductRepository(db *gorm.DB) domain.ProductRepository {
	return &productRepositoryImpl{db: db}
}

// getDB 优先使用上下文中的事务句柄
func (r *productRepositoryImpl) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok {
		return tx
	}
	return r.db.WithContext(ctx)
}

func (r *productRepositoryImpl) Save(ctx context.Context, product *domain.Product) error {
	return r.getDB(ctx).Save(product).Error
}

func (r *productRepositoryImpl) GetByID(ctx context.Context, id uint) (*domain.Product, error) {
	var p domain.Product
	err := r.getDB(ctx).Preload("Variants").First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepositoryImpl) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	var p domain.Product
	err := r.getDB(ctx).Preload("Variants").Where("slug = ?", slug).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepositoryImpl) ListActive(ctx context.Context, category string, offset, limit int) ([]*domain.Product, int64, error) {
	var products []*domain.Product
	var total int64
	q := r.getDB(ctx).Model(&domain.Product{}).Where("is_active = ?", true)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Preload("Variants").Order("id DESC").Offset(offset).Limit(limit).Find(&products).Error
	return products, total, err
}

// Reserve 原子扣减库存
// 条件更新保证并发下不会超卖：WHERE stock >= qty，影响行数为 0 即库存不足
func (r *productRepositoryImpl) Reserve(ctx context.Context, productID uint, variantSKU string, qty int) error {
	db := r.getDB(ctx)
	if variantSKU != "" {
		res := db.Model(&domain.ProductVariant{}).
			Where("sku = ? AND product_id = ? AND stock >= ?", variantSKU, productID, qty).
			UpdateColumn("stock", gorm.Expr("stock - ?", qty))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return r.stockError(ctx, productID, variantSKU)
		}
		return nil
	}
	res := db.Model(&domain.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.stockError(ctx, productID, "")
	}
	return nil
}

// Release 归还库存
func (r *productRepositoryImpl) Release(ctx context.Context, productID uint, variantSKU string, qty int) error {
	db := r.getDB(ctx)
	if variantSKU != "" {
		return db.Model(&domain.ProductVariant{}).
			Where("sku = ? AND product_id = ?", variantSKU, productID).
			UpdateColumn("stock", gorm.Expr("stock + ?", qty)).Error
	}
	return db.Model(&domain.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty)).Error
}

// stockError 查询当前可售量，区分商品不存在与库存不足
func (r *productRepositoryImpl) stockError(ctx context.Context, productID uint, variantSKU string) error {
	db := r.getDB(ctx)
	var available int
	if variantSKU != "" {
		var v domain.ProductVariant
		if err := db.Select("stock").Where("sku = ? AND product_id = ?", variantSKU, productID).First(&v).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrVariantNotFound
			}
			return err
		}
		available = v.Stock
	} else {
		var p domain.Product
		if err := db.Select("stock").First(&p, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrProductNotFound
			}
			return err
		}
		available = p.Stock
	}
	return &domain.InsufficientStockError{ProductID: productID, VariantSKU: variantSKU, Available: available}
}
