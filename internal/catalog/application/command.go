package application

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
)

// UpsertProductCommand 创建或更新商品命令（管理端）
type UpsertProductCommand struct {
	ID             uint
	Title          string
	Slug           string
	Description    string
	Image          string
	Category       string
	Price          decimal.Decimal
	CompareAtPrice *decimal.Decimal
	Stock          int
	IsActive       bool
	Variants       []UpsertVariantCommand
}

// UpsertVariantCommand 商品规格命令
type UpsertVariantCommand struct {
	ID         uint
	SKU        string
	Name       string
	PriceDelta decimal.Decimal
	Stock      int
}

// ProductCommandService 商品命令服务（管理端）
type ProductCommandService struct {
	repo domain.ProductRepository
}

// NewProductCommandService 创建商品命令服务实例
func NewProductCommandService(repo domain.ProductRepository) *ProductCommandService {
	return &ProductCommandService{repo: repo}
}

// Upsert 创建或更新商品
func (s *ProductCommandService) Upsert(ctx context.Context, cmd UpsertProductCommand) (*domain.Product, error) {
	p := &domain.Product{
		Title:          cmd.Title,
		Slug:           cmd.Slug,
		Description:    cmd.Description,
		Image:          cmd.Image,
		Category:       cmd.Category,
		Price:          cmd.Price,
		CompareAtPrice: cmd.CompareAtPrice,
		Stock:          cmd.Stock,
		IsActive:       cmd.IsActive,
	}
	if cmd.ID != 0 {
		existing, err := s.repo.GetByID(ctx, cmd.ID)
		if err != nil {
			return nil, err
		}
		p.Model = existing.Model
	}
	for _, v := range cmd.Variants {
		variant := domain.ProductVariant{
			SKU:        v.SKU,
			Name:       v.Name,
			PriceDelta: v.PriceDelta,
			Stock:      v.Stock,
		}
		variant.ID = v.ID
		p.Variants = append(p.Variants, variant)
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}
	logger.Info(ctx, "商品已保存", "product_id", p.ID, "slug", p.Slug)
	return p, nil
}

// Deactivate 下架商品
func (s *ProductCommandService) Deactivate(ctx context.Context, id uint) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	p.IsActive = false
	return s.repo.Save(ctx, p)
}
