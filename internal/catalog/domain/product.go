// Package domain 定义商品目录上下文的领域模型
package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrProductNotFound 商品不存在或已下架
	ErrProductNotFound = errors.New("product not found")
	// ErrVariantNotFound 商品规格不存在
	ErrVariantNotFound = errors.New("product variant not found")
)

// InsufficientStockError 库存不足
type InsufficientStockError struct {
	ProductID  uint
	VariantSKU string
	Available  int
}

func (e *InsufficientStockError) Error() string {
	if e.VariantSKU != "" {
		return fmt.Sprintf("insufficient stock for sku %s: %d available", e.VariantSKU, e.Available)
	}
	return fmt.Sprintf("insufficient stock for product %d: %d available", e.ProductID, e.Available)
}

// Product 商品聚合根
type Product struct {
	gorm.Model
	Title          string           `gorm:"column:title;type:varchar(255);not null" json:"title"`
	Slug           string           `gorm:"column:slug;type:varchar(255);uniqueIndex;not null" json:"slug"`
	Description    string           `gorm:"column:description;type:text" json:"description"`
	Image          string           `gorm:"column:image;type:varchar(512)" json:"image"`
	Category       string           `gorm:"column:category;type:varchar(100);index" json:"category"`
	Price          decimal.Decimal  `gorm:"column:price;type:decimal(20,2);not null" json:"price"`
	CompareAtPrice *decimal.Decimal `gorm:"column:compare_at_price;type:decimal(20,2)" json:"compare_at_price,omitempty"`
	Stock          int              `gorm:"column:stock;not null;default:0" json:"stock"`
	IsActive       bool             `gorm:"column:is_active;not null;default:true;index" json:"is_active"`
	Variants       []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"`
}

// TableName 指定表名
func (Product) TableName() string { return "products" }

// ProductVariant 商品规格（如颜色、尺码），价格与库存相对主商品独立
type ProductVariant struct {
	gorm.Model
	ProductID  uint            `gorm:"column:product_id;index;not null" json:"product_id"`
	SKU        string          `gorm:"column:sku;type:varchar(64);uniqueIndex;not null" json:"sku"`
	Name       string          `gorm:"column:name;type:varchar(100);not null" json:"name"`
	PriceDelta decimal.Decimal `gorm:"column:price_delta;type:decimal(20,2)" json:"price_delta"`
	Stock      int             `gorm:"column:stock;not null;default:0" json:"stock"`
}

// TableName 指定表名
func (ProductVariant) TableName() string { return "product_variants" }

// FindVariant 按 SKU 查找规格
func (p *Product) FindVariant(sku string) (*ProductVariant, error) {
	for i := range p.Variants {
		if p.Variants[i].SKU == sku {
			return &p.Variants[i], nil
		}
	}
	return nil, ErrVariantNotFound
}

// EffectivePrice 实际售价：规格价 = 主商品价 + 价差
func (p *Product) EffectivePrice(sku string) (decimal.Decimal, error) {
	if sku == "" {
		return p.Price, nil
	}
	v, err := p.FindVariant(sku)
	if err != nil {
		return decimal.Zero, err
	}
	return p.Price.Add(v.PriceDelta), nil
}

// AvailableStock 可售库存：选中规格时以规格库存为准
func (p *Product) AvailableStock(sku string) (int, error) {
	if sku == "" {
		return p.Stock, nil
	}
	v, err := p.FindVariant(sku)
	if err != nil {
		return 0, err
	}
	return v.Stock, nil
}
