// Package domain 定义购物车上下文的领域模型
package domain

import (
	"errors"

	"github.com/shopspring/decimal"
	pricing "github.com/wyfcoding/ecommerce/internal/pricing/domain"
	"gorm.io/gorm"
)

var (
	// ErrCartNotFound 购物车不存在
	ErrCartNotFound = errors.New("cart not found")
	// ErrItemNotFound 购物车行项目不存在
	ErrItemNotFound = errors.New("cart item not found")
	// ErrEmptyCart 购物车为空
	ErrEmptyCart = errors.New("cart is empty")
)

// AppliedCoupon 购物车上生效的券快照
// 记录计算抵扣所需的最小字段，下单时再整体复核一次
type AppliedCoupon struct {
	Code        string           `gorm:"column:coupon_code;type:varchar(32)" json:"code,omitempty"`
	Type        string           `gorm:"column:coupon_type;type:varchar(20)" json:"type,omitempty"`
	Value       decimal.Decimal  `gorm:"column:coupon_value;type:decimal(20,2)" json:"value,omitempty"`
	MaxDiscount *decimal.Decimal `gorm:"column:coupon_max_discount;type:decimal(20,2)" json:"max_discount,omitempty"`
}

// IsZero 是否未应用券
func (a AppliedCoupon) IsZero() bool { return a.Code == "" }

// DiscountFor 按快照计算对给定小计的抵扣
func (a AppliedCoupon) DiscountFor(subtotal decimal.Decimal) decimal.Decimal {
	if a.IsZero() {
		return decimal.Zero
	}
	switch a.Type {
	case "percentage":
		discount := subtotal.Mul(a.Value).Div(decimal.NewFromInt(100)).Round(2)
		if a.MaxDiscount != nil && discount.GreaterThan(*a.MaxDiscount) {
			discount = *a.MaxDiscount
		}
		return discount
	case "fixed":
		return a.Value
	default:
		return decimal.Zero
	}
}

// Cart 购物车聚合根，每个用户至多一个
type Cart struct {
	gorm.Model
	UserID string     `gorm:"column:user_id;type:varchar(36);uniqueIndex;not null" json:"user_id"`
	Items  []CartItem `gorm:"foreignKey:CartID" json:"items"`
	Coupon AppliedCoupon  `gorm:"embedded" json:"coupon,omitempty"`
	Totals pricing.Totals `gorm:"embedded" json:"totals"`
}

// TableName 指定表名
func (Cart) TableName() string { return "carts" }

// CartItem 购物车行项目，单价在加入时锁定
type CartItem struct {
	gorm.Model
	CartID     uint            `gorm:"column:cart_id;index;not null" json:"cart_id"`
	ProductID  uint            `gorm:"column:product_id;not null" json:"product_id"`
	VariantSKU string          `gorm:"column:variant_sku;type:varchar(64)" json:"variant_sku,omitempty"`
	Title      string          `gorm:"column:title;type:varchar(255);not null" json:"title"`
	Image      string          `gorm:"column:image;type:varchar(512)" json:"image,omitempty"`
	UnitPrice  decimal.Decimal `gorm:"column:price_at_add;type:decimal(20,2);not null" json:"unit_price"`
	Quantity   int             `gorm:"column:quantity;not null" json:"quantity"`
}

// TableName 指定表名
func (CartItem) TableName() string { return "cart_items" }

// AddItem 添加行项目，(商品, 规格) 相同的行合并数量
// 返回合并后该行的总数量，供调用方做库存校验
func (c *Cart) AddItem(item CartItem) int {
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID && c.Items[i].VariantSKU == item.VariantSKU {
			c.Items[i].Quantity += item.Quantity
			return c.Items[i].Quantity
		}
	}
	c.Items = append(c.Items, item)
	return item.Quantity
}

// FindItem 按行项目 ID 查找
func (c *Cart) FindItem(itemID uint) (*CartItem, error) {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i], nil
		}
	}
	return nil, ErrItemNotFound
}

// RemoveItem 删除行项目，返回被删除的行
func (c *Cart) RemoveItem(itemID uint) (CartItem, error) {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			removed := c.Items[i]
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return removed, nil
		}
	}
	return CartItem{}, ErrItemNotFound
}

// IsEmpty 是否没有任何行项目
func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }

// Lines 转换为计价行
func (c *Cart) Lines() []pricing.Line {
	lines := make([]pricing.Line, 0, len(c.Items))
	for _, it := range c.Items {
		lines = append(lines, pricing.Line{UnitPrice: it.UnitPrice, Quantity: it.Quantity})
	}
	return lines
}

// Recalculate 整体重算金额，每次变更后必须调用
func (c *Cart) Recalculate(calc *pricing.Calculator) {
	subtotal := decimal.Zero
	for _, l := range c.Lines() {
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	c.Totals = calc.Calculate(c.Lines(), c.Coupon.DiscountFor(subtotal.Round(2)))
}
