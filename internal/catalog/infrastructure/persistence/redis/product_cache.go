// Package redis 为商品仓储提供 Redis 读缓存装饰器。
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/pkg/cache"
	"github.com/wyfcoding/ecommerce/pkg/logger"
)

// CachedProductRepository 在 MySQL 仓储之上叠加 Redis 缓存
// 只缓存单品读取，列表与库存操作直接穿透；库存变更后删除缓存，读路径回源重建
type CachedProductRepository struct {
	inner domain.ProductRepository
	cache *cache.RedisCache
	ttl   time.Duration
}

// NewCachedProductRepository 创建带缓存的商品仓储
func NewCachedProductRepository(inner domain.ProductRepository, c *cache.RedisCache, ttl time.Duration) domain.ProductRepository {
	return &CachedProductRepository{inner: inner, cache: c, ttl: ttl}
}

func idKey(id uint) string      { return fmt.Sprintf("catalog:product:id:%d", id) }
func slugKey(slug string) string { return fmt.Sprintf("catalog:product:slug:%s", slug) }

func (r *CachedProductRepository) GetByID(ctx context.Context, id uint) (*domain.Product, error) {
	var p domain.Product
	if hit, err := r.cache.GetJSON(ctx, idKey(id), &p); err == nil && hit {
		return &p, nil
	}
	got, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.fill(ctx, got)
	return got, nil
}

func (r *CachedProductRepository) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	var p domain.Product
	if hit, err := r.cache.GetJSON(ctx, slugKey(slug), &p); err == nil && hit {
		return &p, nil
	}
	got, err := r.inner.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	r.fill(ctx, got)
	return got, nil
}

func (r *CachedProductRepository) ListActive(ctx context.Context, category string, offset, limit int) ([]*domain.Product, int64, error) {
	return r.inner.ListActive(ctx, category, offset, limit)
}

func (r *CachedProductRepository) Save(ctx context.Context, product *domain.Product) error {
	if err := r.inner.Save(ctx, product); err != nil {
		return err
	}
	r.invalidate(ctx, product.ID, product.Slug)
	return nil
}

func (r *CachedProductRepository) Reserve(ctx context.Context, productID uint, variantSKU string, qty int) error {
	if err := r.inner.Reserve(ctx, productID, variantSKU, qty); err != nil {
		return err
	}
	r.invalidate(ctx, productID, "")
	return nil
}

func (r *CachedProductRepository) Release(ctx context.Context, productID uint, variantSKU string, qty int) error {
	if err := r.inner.Release(ctx, productID, variantSKU, qty); err != nil {
		return err
	}
	r.invalidate(ctx, productID, "")
	return nil
}

// fill 回填缓存，失败只记日志不影响主流程
func (r *CachedProductRepository) fill(ctx context.Context, p *domain.Product) {
	if err := r.cache.SetJSON(ctx, idKey(p.ID), p, r.ttl); err != nil {
		logger.Warn(ctx, "填充商品缓存失败", "product_id", p.ID, "error", err)
		return
	}
	if err := r.cache.SetJSON(ctx, slugKey(p.Slug), p, r.ttl); err != nil {
		logger.Warn(ctx, "填充商品缓存失败", "slug", p.Slug, "error", err)
	}
}

func (r *CachedProductRepository) invalidate(ctx context.Context, id uint, slug string) {
	if err := r.cache.Delete(ctx, idKey(id)); err != nil {
		logger.Warn(ctx, "删除商品缓存失败", "product_id", id, "error", err)
	}
	if slug != "" {
		if err := r.cache.Delete(ctx, slugKey(slug)); err != nil {
			logger.Warn(ctx, "删除商品缓存失败", "slug", slug, "error", err)
		}
	}
}
