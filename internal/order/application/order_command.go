// Package application 实现订单上下文的应用服务，编排下单、支付核验与履约流转
package application

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	cartdomain "github.com/wyfcoding/ecommerce/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	couponapp "github.com/wyfcoding/ecommerce/internal/coupon/application"
	notificationapp "github.com/wyfcoding/ecommerce/internal/notification/application"
	"github.com/wyfcoding/ecommerce/internal/order/domain"
	paymentdomain "github.com/wyfcoding/ecommerce/internal/payment/domain"
	pricing "github.com/wyfcoding/ecommerce/internal/pricing/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
)

// TxRunner 事务执行器，fn 内通过上下文携带事务句柄
type TxRunner interface {
	Transact(ctx context.Context, fn func(context.Context) error) error
}

// CouponService 券校验与核销能力，由优惠券上下文提供
type CouponService interface {
	Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*couponapp.ValidationResult, error)
	Consume(ctx context.Context, code string) error
}

// EventTracker 行为埋点能力
type EventTracker interface {
	Track(ctx context.Context, eventType, userID string, metadata map[string]any)
}

// PlaceOrderCommand 下单命令
type PlaceOrderCommand struct {
	UserID          string
	Email           string
	PaymentMethod   string
	ShippingAddress domain.Address
	Notes           string
}

// PlaceOrderResult 下单结果
type PlaceOrderResult struct {
	Order *domain.Order `json:"order"`
	// ProviderOrderID 在线支付时返回给前端用于唤起收银台
	ProviderOrderID string `json:"provider_order_id,omitempty"`
}

// VerifyPaymentCommand 支付核验命令
type VerifyPaymentCommand struct {
	UserID            string
	OrderNo           string
	ProviderPaymentID string
	Signature         string
}

// OrderCommandService 订单命令服务
type OrderCommandService struct {
	orders        domain.OrderRepository
	carts         cartdomain.CartRepository
	products      catalogdomain.ProductRepository
	coupons       CouponService
	calc          *pricing.Calculator
	provider      paymentdomain.Provider
	paymentSecret string
	currency      string
	tx            TxRunner
	publisher     domain.EventPublisher
	notifications *notificationapp.NotificationService
	tracker       EventTracker
}

// NewOrderCommandService 创建订单命令服务实例
func NewOrderCommandService(
	orders domain.OrderRepository,
	carts cartdomain.CartRepository,
	products catalogdomain.ProductRepository,
	coupons CouponService,
	calc *pricing.Calculator,
	provider paymentdomain.Provider,
	paymentSecret string,
	currency string,
	tx TxRunner,
	publisher domain.EventPublisher,
	notifications *notificationapp.NotificationService,
	tracker EventTracker,
) *OrderCommandService {
	return &OrderCommandService{
		orders:        orders,
		carts:         carts,
		products:      products,
		coupons:       coupons,
		calc:          calc,
		provider:      provider,
		paymentSecret: paymentSecret,
		currency:      currency,
		tx:            tx,
		publisher:     publisher,
		notifications: notifications,
		tracker:       tracker,
	}
}

// PlaceOrder 下单主流程
// 读取校验与金额冻结在事务外完成；落单、扣库存、核销券、删购物车在同一事务内，
// 任一步失败整体回滚。在线支付先在网关创建预订单，网关失败时不产生任何持久化变更。
func (s *OrderCommandService) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (*PlaceOrderResult, error) {
	cart, err := s.carts.GetByUserID(ctx, cmd.UserID)
	if errors.Is(err, cartdomain.ErrCartNotFound) {
		return nil, cartdomain.ErrEmptyCart
	}
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, cartdomain.ErrEmptyCart
	}

	// 冻结商品快照并复核上架状态与现价
	items := make([]domain.OrderItem, 0, len(cart.Items))
	for _, ci := range cart.Items {
		product, err := s.products.GetByID(ctx, ci.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.IsActive {
			return nil, catalogdomain.ErrProductNotFound
		}
		if _, err := product.AvailableStock(ci.VariantSKU); err != nil {
			return nil, err
		}
		items = append(items, domain.OrderItem{
			ProductID:  ci.ProductID,
			VariantSKU: ci.VariantSKU,
			Title:      ci.Title,
			Image:      ci.Image,
			UnitPrice:  ci.UnitPrice,
			Quantity:   ci.Quantity,
			LineTotal:  ci.UnitPrice.Mul(decimal.NewFromInt(int64(ci.Quantity))).Round(2),
		})
	}

	// 券整体复核，失效即拒单
	discount := decimal.Zero
	couponCode := ""
	if !cart.Coupon.IsZero() {
		result, err := s.coupons.Validate(ctx, cart.Coupon.Code, cart.Totals.Subtotal)
		if err != nil {
			return nil, err
		}
		discount = result.Discount
		couponCode = result.Code
	}

	totals := s.calc.Calculate(cart.Lines(), discount)

	order := domain.NewOrder(cmd.UserID, cmd.Email, s.currency, cmd.PaymentMethod, couponCode, cmd.Notes, cmd.ShippingAddress, items, totals)

	switch cmd.PaymentMethod {
	case paymentdomain.MethodCOD:
		if err := order.TransitionTo(ctx, domain.StatusConfirmed, "cash on delivery", "system"); err != nil {
			return nil, err
		}
	case paymentdomain.MethodRazorpay:
		providerOrderID, err := s.provider.CreateOrder(ctx, totals.Total, s.currency, order.OrderNo)
		if err != nil {
			return nil, err
		}
		order.ProviderOrderID = providerOrderID
	default:
		return nil, paymentdomain.ErrUnsupportedMethod
	}

	err = s.tx.Transact(ctx, func(txCtx context.Context) error {
		if err := s.orders.Save(txCtx, order); err != nil {
			return err
		}
		for _, item := range order.Items {
			if err := s.products.Reserve(txCtx, item.ProductID, item.VariantSKU, item.Quantity); err != nil {
				return err
			}
		}
		if couponCode != "" {
			if err := s.coupons.Consume(txCtx, couponCode); err != nil {
				return err
			}
		}
		return s.carts.Delete(txCtx, cmd.UserID)
	})
	if err != nil {
		return nil, err
	}

	s.afterPlaced(ctx, order)

	result := &PlaceOrderResult{Order: order}
	if cmd.PaymentMethod == paymentdomain.MethodRazorpay {
		result.ProviderOrderID = order.ProviderOrderID
	}
	return result, nil
}

// afterPlaced 下单后的尽力而为动作：事件、埋点、确认邮件
func (s *OrderCommandService) afterPlaced(ctx context.Context, order *domain.Order) {
	if s.publisher != nil {
		event := domain.OrderCreatedEvent{
			OrderNo:       order.OrderNo,
			UserID:        order.UserID,
			Total:         order.Totals.Total,
			Currency:      order.Currency,
			PaymentMethod: order.PaymentMethod,
			ItemCount:     len(order.Items),
			Timestamp:     time.Now(),
		}
		if err := s.publisher.Publish(ctx, domain.OrderCreatedEventType, order.OrderNo, event); err != nil {
			logger.Warn(ctx, "订单创建事件发布失败", "order_no", order.OrderNo, "error", err)
		}
	}
	if s.tracker != nil {
		s.tracker.Track(ctx, "purchase", order.UserID, map[string]any{
			"order_no": order.OrderNo,
			"total":    order.Totals.Total.String(),
			"method":   order.PaymentMethod,
		})
	}
	if order.Status == domain.StatusConfirmed {
		s.sendConfirmation(ctx, order)
	}
}

// sendConfirmation 异步发送订单确认邮件
func (s *OrderCommandService) sendConfirmation(ctx context.Context, order *domain.Order) {
	if s.notifications == nil {
		return
	}
	data := notificationapp.OrderConfirmation{
		OrderNo:  order.OrderNo,
		Email:    order.Email,
		Name:     order.ShippingAddress.Name,
		Total:    order.Totals.Total,
		Currency: order.Currency,
	}
	for _, it := range order.Items {
		data.Items = append(data.Items, notificationapp.ConfirmationItem{
			Title:     it.Title,
			Quantity:  it.Quantity,
			LineTotal: it.LineTotal,
		})
	}
	go s.notifications.SendOrderConfirmation(context.WithoutCancel(ctx), data)
}

// VerifyPayment 在线支付回传核验
// 签名不匹配只标记支付失败，订单状态、库存与券均不回滚
func (s *OrderCommandService) VerifyPayment(ctx context.Context, cmd VerifyPaymentCommand) (*domain.Order, error) {
	order, err := s.orders.GetByOrderNo(ctx, cmd.OrderNo)
	if err != nil {
		return nil, err
	}
	if order.UserID != cmd.UserID {
		return nil, domain.ErrForbidden
	}

	if !paymentdomain.VerifySignature(order.ProviderOrderID, cmd.ProviderPaymentID, cmd.Signature, s.paymentSecret) {
		order.MarkPaymentFailed("payment signature mismatch")
		if err := s.orders.Save(ctx, order); err != nil {
			return nil, err
		}
		logger.Warn(ctx, "支付签名校验失败", "order_no", order.OrderNo, "user_id", cmd.UserID)
		return nil, domain.ErrPaymentVerificationFailed
	}

	if err := order.MarkPaid(ctx, cmd.ProviderPaymentID); err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}

	s.sendConfirmation(ctx, order)
	logger.Info(ctx, "支付核验通过", "order_no", order.OrderNo)
	return order, nil
}

// UpdateStatus 管理端推进订单状态
func (s *OrderCommandService) UpdateStatus(ctx context.Context, orderNo string, target domain.Status, note, actor string) (*domain.Order, error) {
	order, err := s.orders.GetByOrderNo(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	from := order.Status
	if err := order.TransitionTo(ctx, target, note, actor); err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}
	s.publishStatusChanged(ctx, order, string(from), string(target), actor)
	return order, nil
}

// UpdatePaymentStatus 管理端直改支付状态，独立于订单状态
func (s *OrderCommandService) UpdatePaymentStatus(ctx context.Context, orderNo, paymentStatus, actor string) (*domain.Order, error) {
	order, err := s.orders.GetByOrderNo(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	order.SetPaymentStatus(paymentStatus, actor)
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// AddTracking 记录物流信息并在必要时推进到 shipped
func (s *OrderCommandService) AddTracking(ctx context.Context, orderNo, carrier, number, url, actor string) (*domain.Order, error) {
	order, err := s.orders.GetByOrderNo(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	from := order.Status
	if err := order.SetTracking(ctx, carrier, number, url, actor); err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}
	if order.Status == domain.StatusShipped && from != domain.StatusShipped {
		s.publishStatusChanged(ctx, order, string(from), string(order.Status), actor)
		if s.notifications != nil {
			go s.notifications.SendShippingUpdate(context.WithoutCancel(ctx), order.Email, order.OrderNo, carrier, number)
		}
	}
	return order, nil
}

// CancelOrder 取消订单：状态流转、库存归还与可选退款在同一事务内
func (s *OrderCommandService) CancelOrder(ctx context.Context, orderNo, reason string, refundAmount *decimal.Decimal, actor string) (*domain.Order, error) {
	order, err := s.orders.GetByOrderNo(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	from := order.Status
	if err := order.Cancel(ctx, reason, actor); err != nil {
		return nil, err
	}
	if refundAmount != nil {
		order.RecordRefund(*refundAmount, reason)
	}

	err = s.tx.Transact(ctx, func(txCtx context.Context) error {
		if err := s.orders.Save(txCtx, order); err != nil {
			return err
		}
		for _, item := range order.Items {
			if err := s.products.Release(txCtx, item.ProductID, item.VariantSKU, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishStatusChanged(ctx, order, string(from), string(domain.StatusCancelled), actor)
	return order, nil
}

func (s *OrderCommandService) publishStatusChanged(ctx context.Context, order *domain.Order, from, to, actor string) {
	if s.publisher == nil {
		return
	}
	event := domain.OrderStatusChangedEvent{
		OrderNo:   order.OrderNo,
		UserID:    order.UserID,
		From:      from,
		To:        to,
		Actor:     actor,
		Timestamp: time.Now(),
	}
	if err := s.publisher.Publish(ctx, domain.OrderStatusChangedEventType, order.OrderNo, event); err != nil {
		logger.Warn(ctx, "订单状态事件发布失败", "order_no", order.OrderNo, "error", err)
	}
}
