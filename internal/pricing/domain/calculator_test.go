package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, _ := decimal.NewFromString(s)
	return v
}

func TestCalculate(t *testing.T) {
	calc := NewCalculator(0.18, 500, 40)

	t.Run("basic totals", func(t *testing.T) {
		lines := []Line{
			{UnitPrice: d("100.00"), Quantity: 2},
			{UnitPrice: d("49.50"), Quantity: 1},
		}
		got := calc.Calculate(lines, decimal.Zero)
		if !got.Subtotal.Equal(d("249.50")) {
			t.Fatalf("subtotal = %s, want 249.50", got.Subtotal)
		}
		if !got.Tax.Equal(d("44.91")) {
			t.Fatalf("tax = %s, want 44.91", got.Tax)
		}
		if !got.Shipping.Equal(d("40")) {
			t.Fatalf("shipping = %s, want 40", got.Shipping)
		}
		if !got.Total.Equal(d("334.41")) {
			t.Fatalf("total = %s, want 334.41", got.Total)
		}
	})

	t.Run("free shipping above threshold", func(t *testing.T) {
		got := calc.Calculate([]Line{{UnitPrice: d("500.01"), Quantity: 1}}, decimal.Zero)
		if !got.Shipping.IsZero() {
			t.Fatalf("shipping = %s, want 0", got.Shipping)
		}
	})

	t.Run("flat shipping at exact threshold", func(t *testing.T) {
		got := calc.Calculate([]Line{{UnitPrice: d("500.00"), Quantity: 1}}, decimal.Zero)
		if !got.Shipping.Equal(d("40")) {
			t.Fatalf("shipping = %s, want 40", got.Shipping)
		}
	})

	t.Run("discount reduces total", func(t *testing.T) {
		got := calc.Calculate([]Line{{UnitPrice: d("200"), Quantity: 1}}, d("50"))
		// 200 - 50 + 36 + 40 = 226
		if !got.Total.Equal(d("226")) {
			t.Fatalf("total = %s, want 226", got.Total)
		}
	})

	t.Run("total floored at zero", func(t *testing.T) {
		got := calc.Calculate([]Line{{UnitPrice: d("10"), Quantity: 1}}, d("100"))
		if !got.Total.IsZero() {
			t.Fatalf("total = %s, want 0", got.Total)
		}
	})

	t.Run("negative discount treated as zero", func(t *testing.T) {
		got := calc.Calculate([]Line{{UnitPrice: d("10"), Quantity: 1}}, d("-5"))
		if !got.Discount.IsZero() {
			t.Fatalf("discount = %s, want 0", got.Discount)
		}
	})

	t.Run("empty cart", func(t *testing.T) {
		got := calc.Calculate(nil, decimal.Zero)
		if !got.Subtotal.IsZero() || !got.Total.Equal(d("40")) {
			t.Fatalf("subtotal = %s total = %s", got.Subtotal, got.Total)
		}
	})
}
