package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, _ := decimal.NewFromString(s)
	return v
}

func activeCoupon() *Coupon {
	return &Coupon{
		Code:     "SAVE10",
		Type:     TypePercentage,
		Value:    d("10"),
		StartsAt: time.Now().Add(-time.Hour),
		EndsAt:   time.Now().Add(time.Hour),
		IsActive: true,
	}
}

func TestCheckUsable(t *testing.T) {
	now := time.Now()

	t.Run("inactive", func(t *testing.T) {
		c := activeCoupon()
		c.IsActive = false
		if err := c.CheckUsable(now, d("100")); !errors.Is(err, ErrCouponNotFound) {
			t.Fatalf("err = %v, want ErrCouponNotFound", err)
		}
	})

	t.Run("not started", func(t *testing.T) {
		c := activeCoupon()
		c.StartsAt = now.Add(time.Minute)
		if err := c.CheckUsable(now, d("100")); !errors.Is(err, ErrCouponNotStarted) {
			t.Fatalf("err = %v, want ErrCouponNotStarted", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		c := activeCoupon()
		c.EndsAt = now.Add(-time.Minute)
		if err := c.CheckUsable(now, d("100")); !errors.Is(err, ErrCouponExpired) {
			t.Fatalf("err = %v, want ErrCouponExpired", err)
		}
	})

	t.Run("window endpoints inclusive", func(t *testing.T) {
		c := activeCoupon()
		c.StartsAt = now
		c.EndsAt = now
		if err := c.CheckUsable(now, d("100")); err != nil {
			t.Fatalf("err = %v, want nil at window endpoints", err)
		}
	})

	t.Run("usage limit reached", func(t *testing.T) {
		c := activeCoupon()
		c.UsageLimit = 5
		c.UsageCount = 5
		if err := c.CheckUsable(now, d("100")); !errors.Is(err, ErrUsageLimitReached) {
			t.Fatalf("err = %v, want ErrUsageLimitReached", err)
		}
	})

	t.Run("zero limit means unlimited", func(t *testing.T) {
		c := activeCoupon()
		c.UsageCount = 10000
		if err := c.CheckUsable(now, d("100")); err != nil {
			t.Fatalf("err = %v, want nil", err)
		}
	})

	t.Run("minimum order", func(t *testing.T) {
		c := activeCoupon()
		c.MinOrder = d("200")
		err := c.CheckUsable(now, d("199.99"))
		var minErr *MinimumOrderError
		if !errors.As(err, &minErr) {
			t.Fatalf("err = %v, want MinimumOrderError", err)
		}
		if !minErr.MinOrder.Equal(d("200")) {
			t.Fatalf("MinOrder = %s, want 200", minErr.MinOrder)
		}
		if err := c.CheckUsable(now, d("200")); err != nil {
			t.Fatalf("at threshold err = %v, want nil", err)
		}
	})
}

func TestDiscountFor(t *testing.T) {
	t.Run("percentage", func(t *testing.T) {
		c := activeCoupon()
		got := c.DiscountFor(d("249.50"))
		if !got.Equal(d("24.95")) {
			t.Fatalf("discount = %s, want 24.95", got)
		}
	})

	t.Run("percentage capped by max discount", func(t *testing.T) {
		c := activeCoupon()
		maxD := d("15")
		c.MaxDiscount = &maxD
		got := c.DiscountFor(d("1000"))
		if !got.Equal(d("15")) {
			t.Fatalf("discount = %s, want 15", got)
		}
	})

	t.Run("fixed uncapped", func(t *testing.T) {
		c := activeCoupon()
		c.Type = TypeFixed
		c.Value = d("50")
		got := c.DiscountFor(d("30"))
		if !got.Equal(d("50")) {
			t.Fatalf("discount = %s, want 50", got)
		}
	})

	t.Run("unknown type yields zero", func(t *testing.T) {
		c := activeCoupon()
		c.Type = "bogus"
		if !c.DiscountFor(d("100")).IsZero() {
			t.Fatal("discount for unknown type should be zero")
		}
	})
}
