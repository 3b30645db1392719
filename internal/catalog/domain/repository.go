package domain

import "context"

// ProductRepository 商品仓储接口
type ProductRepository interface {
	Save(ctx context.Context, product *Product) error
	GetByID(ctx context.Context, id uint) (*Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	ListActive(ctx context.Context, category string, offset, limit int) ([]*Product, int64, error)
	// Reserve 原子扣减库存，库存不足时返回 InsufficientStockError
	// 指定 SKU 时扣规格库存，否则扣主商品库存
	Reserve(ctx context.Context, productID uint, variantSKU string, qty int) error
	// Release 归还 Reserve 扣减的库存
	Release(ctx context.Context, productID uint, variantSKU string, qty int) error
}
