// Package application 实现购物车上下文的应用服务
package application

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/ecommerce/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	couponapp "github.com/wyfcoding/ecommerce/internal/coupon/application"
	pricing "github.com/wyfcoding/ecommerce/internal/pricing/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
)

// CouponService 券校验能力，由优惠券上下文提供
type CouponService interface {
	Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*couponapp.ValidationResult, error)
}

// EventTracker 行为埋点能力，失败不影响主流程
type EventTracker interface {
	Track(ctx context.Context, eventType, userID string, metadata map[string]any)
}

// AddItemCommand 添加商品到购物车命令
type AddItemCommand struct {
	UserID     string
	ProductID  uint
	VariantSKU string
	Quantity   int
}

// UpdateItemCommand 调整行项目数量命令，数量为 0 表示删除该行
type UpdateItemCommand struct {
	UserID   string
	ItemID   uint
	Quantity int
}

// CartCommandService 购物车命令服务
type CartCommandService struct {
	carts    domain.CartRepository
	products catalogdomain.ProductRepository
	coupons  CouponService
	calc     *pricing.Calculator
	tracker  EventTracker
}

// NewCartCommandService 创建购物车命令服务实例
func NewCartCommandService(
	carts domain.CartRepository,
	products catalogdomain.ProductRepository,
	coupons CouponService,
	calc *pricing.Calculator,
	tracker EventTracker,
) *CartCommandService {
	return &CartCommandService{
		carts:    carts,
		products: products,
		coupons:  coupons,
		calc:     calc,
		tracker:  tracker,
	}
}

// loadOrCreate 加载用户购物车，不存在时返回新聚合
func (s *CartCommandService) loadOrCreate(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.carts.GetByUserID(ctx, userID)
	if errors.Is(err, domain.ErrCartNotFound) {
		return &domain.Cart{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// AddItem 添加商品，(商品, 规格) 相同的行合并数量
func (s *CartCommandService) AddItem(ctx context.Context, cmd AddItemCommand) (*domain.Cart, error) {
	product, err := s.products.GetByID(ctx, cmd.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, catalogdomain.ErrProductNotFound
	}

	price, err := product.EffectivePrice(cmd.VariantSKU)
	if err != nil {
		return nil, err
	}
	available, err := product.AvailableStock(cmd.VariantSKU)
	if err != nil {
		return nil, err
	}

	cart, err := s.loadOrCreate(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	merged := cart.AddItem(domain.CartItem{
		ProductID:  product.ID,
		VariantSKU: cmd.VariantSKU,
		Title:      product.Title,
		Image:      product.Image,
		UnitPrice:  price,
		Quantity:   cmd.Quantity,
	})
	if merged > available {
		return nil, &catalogdomain.InsufficientStockError{
			ProductID:  product.ID,
			VariantSKU: cmd.VariantSKU,
			Available:  available,
		}
	}

	cart.Recalculate(s.calc)
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// UpdateItem 调整行项目数量，0 等价于删除
func (s *CartCommandService) UpdateItem(ctx context.Context, cmd UpdateItemCommand) (*domain.Cart, error) {
	if cmd.Quantity <= 0 {
		return s.RemoveItem(ctx, cmd.UserID, cmd.ItemID)
	}

	cart, err := s.carts.GetByUserID(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	item, err := cart.FindItem(cmd.ItemID)
	if err != nil {
		return nil, err
	}

	product, err := s.products.GetByID(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}
	available, err := product.AvailableStock(item.VariantSKU)
	if err != nil {
		return nil, err
	}
	if cmd.Quantity > available {
		return nil, &catalogdomain.InsufficientStockError{
			ProductID:  product.ID,
			VariantSKU: item.VariantSKU,
			Available:  available,
		}
	}

	item.Quantity = cmd.Quantity
	cart.Recalculate(s.calc)
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveItem 删除行项目
func (s *CartCommandService) RemoveItem(ctx context.Context, userID string, itemID uint) (*domain.Cart, error) {
	cart, err := s.carts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	removed, err := cart.RemoveItem(itemID)
	if err != nil {
		return nil, err
	}
	if err := s.carts.DeleteItem(ctx, removed.ID); err != nil {
		return nil, err
	}

	cart.Recalculate(s.calc)
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// ApplyCoupon 应用券码，校验失败时购物车保持不变
func (s *CartCommandService) ApplyCoupon(ctx context.Context, userID, code string) (*domain.Cart, error) {
	cart, err := s.carts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}

	result, err := s.coupons.Validate(ctx, code, cart.Totals.Subtotal)
	if err != nil {
		return nil, err
	}

	// 快照抵扣参数，后续变更只按小计重算，下单时再整体复核
	cart.Coupon = domain.AppliedCoupon{
		Code:        result.Code,
		Type:        result.Type,
		Value:       result.Value,
		MaxDiscount: result.MaxDiscount,
	}

	cart.Recalculate(s.calc)
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}

	if s.tracker != nil {
		s.tracker.Track(ctx, "coupon_applied", userID, map[string]any{
			"code":     result.Code,
			"discount": result.Discount.String(),
		})
	}
	logger.Info(ctx, "购物车已应用优惠券", "user_id", userID, "code", result.Code)
	return cart, nil
}

// RemoveCoupon 移除券码
func (s *CartCommandService) RemoveCoupon(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.carts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	cart.Coupon = domain.AppliedCoupon{}
	cart.Recalculate(s.calc)
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Clear 清空购物车（删除聚合及行项目）
func (s *CartCommandService) Clear(ctx context.Context, userID string) error {
	return s.carts.Delete(ctx, userID)
}
