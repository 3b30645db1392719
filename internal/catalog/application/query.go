// Package application 实现商品目录上下文的应用服务
package application

import (
	"context"

	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
)

// ProductListResult 商品列表查询结果
type ProductListResult struct {
	Products []*domain.Product `json:"products"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// ProductQueryService 商品查询服务
type ProductQueryService struct {
	repo domain.ProductRepository
}

// NewProductQueryService 创建商品查询服务实例
func NewProductQueryService(repo domain.ProductRepository) *ProductQueryService {
	return &ProductQueryService{repo: repo}
}

// List 分页查询在售商品
func (s *ProductQueryService) List(ctx context.Context, category string, page, pageSize int) (*ProductListResult, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	products, total, err := s.repo.ListActive(ctx, category, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}
	return &ProductListResult{Products: products, Total: total, Page: page, PageSize: pageSize}, nil
}

// GetBySlug 按 slug 查询单个商品
func (s *ProductQueryService) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	p, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, domain.ErrProductNotFound
	}
	return p, nil
}
