package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func testProduct() *Product {
	return &Product{
		Title: "Trail Runner",
		Slug:  "trail-runner",
		Price: decimal.NewFromInt(100),
		Stock: 10,
		Variants: []ProductVariant{
			{SKU: "TR-42", Name: "Size 42", PriceDelta: decimal.NewFromInt(20), Stock: 3},
		},
	}
}

func TestEffectivePrice(t *testing.T) {
	p := testProduct()

	price, err := p.EffectivePrice("")
	if err != nil {
		t.Fatalf("EffectivePrice base error: %v", err)
	}
	if !price.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("base price = %s, want 100", price)
	}

	price, err = p.EffectivePrice("TR-42")
	if err != nil {
		t.Fatalf("EffectivePrice variant error: %v", err)
	}
	if !price.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("variant price = %s, want 120", price)
	}

	if _, err := p.EffectivePrice("NO-SUCH"); !errors.Is(err, ErrVariantNotFound) {
		t.Fatalf("unknown variant error = %v, want ErrVariantNotFound", err)
	}
}

func TestAvailableStock(t *testing.T) {
	p := testProduct()

	stock, err := p.AvailableStock("")
	if err != nil || stock != 10 {
		t.Fatalf("base stock = %d err = %v, want 10", stock, err)
	}

	stock, err = p.AvailableStock("TR-42")
	if err != nil || stock != 3 {
		t.Fatalf("variant stock = %d err = %v, want 3", stock, err)
	}

	if _, err := p.AvailableStock("NO-SUCH"); !errors.Is(err, ErrVariantNotFound) {
		t.Fatalf("unknown variant error = %v, want ErrVariantNotFound", err)
	}
}
