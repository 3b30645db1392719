// Package domain 包含购物车与订单共用的金额计算逻辑
package domain

import "github.com/shopspring/decimal"

// Line 参与计价的行项目
type Line struct {
	// 单价（加入购物车时锁定的价格）
	UnitPrice decimal.Decimal
	// 数量
	Quantity int
}

// Totals 一次计价的完整结果
type Totals struct {
	Subtotal decimal.Decimal `gorm:"column:subtotal;type:decimal(20,2)" json:"subtotal"`
	Discount decimal.Decimal `gorm:"column:discount;type:decimal(20,2)" json:"discount"`
	Tax      decimal.Decimal `gorm:"column:tax;type:decimal(20,2)" json:"tax"`
	Shipping decimal.Decimal `gorm:"column:shipping;type:decimal(20,2)" json:"shipping"`
	Total    decimal.Decimal `gorm:"column:total;type:decimal(20,2)" json:"total"`
}

// Calculator 金额计算器
// 纯函数：相同输入总是产生相同结果，购物车每次变更后必须整体重算，禁止增量修补
type Calculator struct {
	taxRate           decimal.Decimal
	freeShipThreshold decimal.Decimal
	shippingFlatRate  decimal.Decimal
}

// NewCalculator 创建金额计算器
func NewCalculator(taxRate, freeShippingThreshold, shippingFlatRate float64) *Calculator {
	return &Calculator{
		taxRate:           decimal.NewFromFloat(taxRate),
		freeShipThreshold: decimal.NewFromFloat(freeShippingThreshold),
		shippingFlatRate:  decimal.NewFromFloat(shippingFlatRate),
	}
}

// Calculate 计算小计、税费、运费与总额
// total = subtotal - discount + tax + shipping，下限为 0（固定面额券可能超过小计）
func (c *Calculator) Calculate(lines []Line, discount decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	subtotal = subtotal.Round(2)

	if discount.IsNegative() {
		discount = decimal.Zero
	}
	discount = discount.Round(2)

	tax := subtotal.Mul(c.taxRate).Round(2)

	shipping := c.shippingFlatRate
	if subtotal.GreaterThan(c.freeShipThreshold) {
		shipping = decimal.Zero
	}

	total := subtotal.Sub(discount).Add(tax).Add(shipping).Round(2)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Tax:      tax,
		Shipping: shipping,
		Total:    total,
	}
}
