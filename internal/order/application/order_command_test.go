package application

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	cartdomain "github.com/wyfcoding/ecommerce/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	couponapp "github.com/wyfcoding/ecommerce/internal/coupon/application"
	coupondomain "github.com/wyfcoding/ecommerce/internal/coupon/domain"
	"github.com/wyfcoding/ecommerce/internal/order/domain"
	paymentdomain "github.com/wyfcoding/ecommerce/internal/payment/domain"
	pricing "github.com/wyfcoding/ecommerce/internal/pricing/domain"
	"golang.org/x/sync/errgroup"
)

func d(s string) decimal.Decimal {
	v, _ := decimal.NewFromString(s)
	return v
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*domain.Order)}
}

func (r *fakeOrderRepo) Save(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.orders[o.OrderNo] = &cp
	return nil
}

func (r *fakeOrderRepo) GetByOrderNo(_ context.Context, orderNo string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderNo]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *o
	cp.InitFSM()
	return &cp, nil
}

func (r *fakeOrderRepo) ListByUser(_ context.Context, userID string, _, _ int) ([]*domain.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeOrderRepo) List(_ context.Context, _ domain.ListFilter) ([]*domain.Order, int64, error) {
	return nil, 0, nil
}

type fakeCartRepo struct {
	mu    sync.Mutex
	carts map[string]*cartdomain.Cart
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{carts: make(map[string]*cartdomain.Cart)}
}

func (r *fakeCartRepo) GetByUserID(_ context.Context, userID string) (*cartdomain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[userID]
	if !ok {
		return nil, cartdomain.ErrCartNotFound
	}
	cp := *c
	cp.Items = append([]cartdomain.CartItem(nil), c.Items...)
	return &cp, nil
}

func (r *fakeCartRepo) Save(_ context.Context, cart *cartdomain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *cart
	r.carts[cart.UserID] = &cp
	return nil
}

func (r *fakeCartRepo) Delete(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, userID)
	return nil
}

func (r *fakeCartRepo) DeleteItem(_ context.Context, _ uint) error { return nil }

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[uint]*catalogdomain.Product
}

func (r *fakeProductRepo) GetByID(_ context.Context, id uint) (*catalogdomain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, catalogdomain.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) GetBySlug(_ context.Context, _ string) (*catalogdomain.Product, error) {
	return nil, catalogdomain.ErrProductNotFound
}

func (r *fakeProductRepo) Save(_ context.Context, p *catalogdomain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) ListActive(_ context.Context, _ string, _, _ int) ([]*catalogdomain.Product, int64, error) {
	return nil, 0, nil
}

// Reserve 模拟条件更新：同一把锁内检查并扣减
func (r *fakeProductRepo) Reserve(_ context.Context, productID uint, sku string, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[productID]
	if !ok {
		return catalogdomain.ErrProductNotFound
	}
	if sku != "" {
		v, err := p.FindVariant(sku)
		if err != nil {
			return err
		}
		if v.Stock < qty {
			return &catalogdomain.InsufficientStockError{ProductID: productID, VariantSKU: sku, Available: v.Stock}
		}
		v.Stock -= qty
		return nil
	}
	if p.Stock < qty {
		return &catalogdomain.InsufficientStockError{ProductID: productID, Available: p.Stock}
	}
	p.Stock -= qty
	return nil
}

func (r *fakeProductRepo) Release(_ context.Context, productID uint, sku string, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[productID]
	if !ok {
		return catalogdomain.ErrProductNotFound
	}
	if sku != "" {
		v, err := p.FindVariant(sku)
		if err != nil {
			return err
		}
		v.Stock += qty
		return nil
	}
	p.Stock += qty
	return nil
}

type fakeCouponSvc struct {
	mu      sync.Mutex
	coupons map[string]*coupondomain.Coupon
}

func (s *fakeCouponSvc) Validate(_ context.Context, code string, subtotal decimal.Decimal) (*couponapp.ValidationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.coupons[strings.ToUpper(code)]
	if !ok {
		return nil, coupondomain.ErrCouponNotFound
	}
	if err := c.CheckUsable(time.Now(), subtotal); err != nil {
		return nil, err
	}
	return &couponapp.ValidationResult{
		Code: c.Code, Type: c.Type, Value: c.Value, MaxDiscount: c.MaxDiscount,
		Discount: c.DiscountFor(subtotal),
	}, nil
}

func (s *fakeCouponSvc) Consume(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.coupons[strings.ToUpper(code)]
	if !ok {
		return coupondomain.ErrCouponNotFound
	}
	if c.UsageLimit > 0 && c.UsageCount >= c.UsageLimit {
		return coupondomain.ErrUsageLimitReached
	}
	c.UsageCount++
	return nil
}

type fakeProvider struct {
	orderID string
	err     error
	calls   int
}

func (p *fakeProvider) CreateOrder(_ context.Context, _ decimal.Decimal, _, _ string) (string, error) {
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	return p.orderID, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(_ context.Context, eventType, _ string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	return nil
}

type recordingTracker struct {
	mu     sync.Mutex
	events []string
}

func (t *recordingTracker) Track(_ context.Context, eventType, _ string, _ map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, eventType)
}

// fakeTx 模拟事务：失败时恢复各仓储的快照
type fakeTx struct {
	orders   *fakeOrderRepo
	carts    *fakeCartRepo
	products *fakeProductRepo
	coupons  *fakeCouponSvc
}

func (t *fakeTx) Transact(ctx context.Context, fn func(context.Context) error) error {
	orderSnap := t.snapshotOrders()
	cartSnap := t.snapshotCarts()
	stockSnap := t.snapshotStocks()
	usageSnap := t.snapshotUsage()
	if err := fn(ctx); err != nil {
		t.restore(orderSnap, cartSnap, stockSnap, usageSnap)
		return err
	}
	return nil
}

func (t *fakeTx) snapshotOrders() map[string]*domain.Order {
	t.orders.mu.Lock()
	defer t.orders.mu.Unlock()
	snap := make(map[string]*domain.Order, len(t.orders.orders))
	for k, v := range t.orders.orders {
		snap[k] = v
	}
	return snap
}

func (t *fakeTx) snapshotCarts() map[string]*cartdomain.Cart {
	t.carts.mu.Lock()
	defer t.carts.mu.Unlock()
	snap := make(map[string]*cartdomain.Cart, len(t.carts.carts))
	for k, v := range t.carts.carts {
		snap[k] = v
	}
	return snap
}

func (t *fakeTx) snapshotStocks() map[uint]int {
	t.products.mu.Lock()
	defer t.products.mu.Unlock()
	snap := make(map[uint]int, len(t.products.products))
	for id, p := range t.products.products {
		snap[id] = p.Stock
	}
	return snap
}

func (t *fakeTx) snapshotUsage() map[string]int {
	t.coupons.mu.Lock()
	defer t.coupons.mu.Unlock()
	snap := make(map[string]int, len(t.coupons.coupons))
	for code, c := range t.coupons.coupons {
		snap[code] = c.UsageCount
	}
	return snap
}

func (t *fakeTx) restore(orders map[string]*domain.Order, carts map[string]*cartdomain.Cart, stocks map[uint]int, usage map[string]int) {
	t.orders.mu.Lock()
	t.orders.orders = orders
	t.orders.mu.Unlock()

	t.carts.mu.Lock()
	t.carts.carts = carts
	t.carts.mu.Unlock()

	t.products.mu.Lock()
	for id, stock := range stocks {
		if p, ok := t.products.products[id]; ok {
			p.Stock = stock
		}
	}
	t.products.mu.Unlock()

	t.coupons.mu.Lock()
	for code, count := range usage {
		if c, ok := t.coupons.coupons[code]; ok {
			c.UsageCount = count
		}
	}
	t.coupons.mu.Unlock()
}

type testEnv struct {
	svc       *OrderCommandService
	orders    *fakeOrderRepo
	carts     *fakeCartRepo
	products  *fakeProductRepo
	coupons   *fakeCouponSvc
	provider  *fakeProvider
	publisher *recordingPublisher
	tracker   *recordingTracker
}

func newTestEnv() *testEnv {
	products := &fakeProductRepo{products: map[uint]*catalogdomain.Product{}}
	shoe := &catalogdomain.Product{
		Title: "Trail Runner", Slug: "trail-runner",
		Price: d("100"), Stock: 10, IsActive: true,
	}
	shoe.ID = 1
	products.products[1] = shoe

	orders := newFakeOrderRepo()
	carts := newFakeCartRepo()
	coupons := &fakeCouponSvc{coupons: map[string]*coupondomain.Coupon{}}
	provider := &fakeProvider{orderID: "rzp_order_1"}
	publisher := &recordingPublisher{}
	tracker := &recordingTracker{}
	tx := &fakeTx{orders: orders, carts: carts, products: products, coupons: coupons}
	calc := pricing.NewCalculator(0.18, 500, 40)

	svc := NewOrderCommandService(
		orders, carts, products, coupons, calc,
		provider, "test-secret", "INR",
		tx, publisher, nil, tracker,
	)
	return &testEnv{
		svc: svc, orders: orders, carts: carts, products: products,
		coupons: coupons, provider: provider, publisher: publisher, tracker: tracker,
	}
}

func seedCart(env *testEnv, userID string, qty int) {
	cart := &cartdomain.Cart{UserID: userID}
	cart.ID = 1
	item := cartdomain.CartItem{
		CartID: 1, ProductID: 1, Title: "Trail Runner",
		UnitPrice: d("100"), Quantity: qty,
	}
	item.ID = 11
	cart.Items = []cartdomain.CartItem{item}
	cart.Recalculate(pricing.NewCalculator(0.18, 500, 40))
	_ = env.carts.Save(context.Background(), cart)
}

func codCommand(userID string) PlaceOrderCommand {
	return PlaceOrderCommand{
		UserID:        userID,
		Email:         userID + "@example.com",
		PaymentMethod: paymentdomain.MethodCOD,
		ShippingAddress: domain.Address{
			Name: "Asha", Line1: "1 MG Road", City: "Bengaluru", PostalCode: "560001", Country: "IN",
		},
	}
}

func TestPlaceOrderCOD(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	seedCart(env, "u1", 2)

	result, err := env.svc.PlaceOrder(ctx, codCommand("u1"))
	if err != nil {
		t.Fatalf("PlaceOrder error: %v", err)
	}
	order := result.Order

	if order.Status != domain.StatusConfirmed {
		t.Fatalf("status = %s, want confirmed (COD)", order.Status)
	}
	if order.PaymentStatus != domain.PaymentPending {
		t.Fatalf("payment status = %s, want pending", order.PaymentStatus)
	}
	if len(order.Timeline) != 2 {
		t.Fatalf("timeline = %d entries, want 2 (placed + confirmed)", len(order.Timeline))
	}
	// 200 + 36 + 40
	if !order.Totals.Total.Equal(d("276")) {
		t.Fatalf("total = %s, want 276", order.Totals.Total)
	}
	if !strings.HasPrefix(order.OrderNo, "ORD") {
		t.Fatalf("order no = %s", order.OrderNo)
	}

	// 库存已扣、购物车已删
	p, _ := env.products.GetByID(ctx, 1)
	if p.Stock != 8 {
		t.Fatalf("stock = %d, want 8", p.Stock)
	}
	if _, err := env.carts.GetByUserID(ctx, "u1"); !errors.Is(err, cartdomain.ErrCartNotFound) {
		t.Fatalf("cart err = %v, want ErrCartNotFound", err)
	}

	// 事件与埋点
	if len(env.publisher.events) != 1 || env.publisher.events[0] != domain.OrderCreatedEventType {
		t.Fatalf("published = %v", env.publisher.events)
	}
	if len(env.tracker.events) != 1 || env.tracker.events[0] != "purchase" {
		t.Fatalf("tracked = %v", env.tracker.events)
	}
	// COD 不触网关
	if env.provider.calls != 0 {
		t.Fatalf("provider calls = %d, want 0", env.provider.calls)
	}
}

func TestPlaceOrderRazorpay(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	seedCart(env, "u1", 1)

	cmd := codCommand("u1")
	cmd.PaymentMethod = paymentdomain.MethodRazorpay
	result, err := env.svc.PlaceOrder(ctx, cmd)
	if err != nil {
		t.Fatalf("PlaceOrder error: %v", err)
	}

	if result.Order.Status != domain.StatusPending {
		t.Fatalf("status = %s, want pending until verified", result.Order.Status)
	}
	if result.ProviderOrderID != "rzp_order_1" {
		t.Fatalf("provider order id = %s", result.ProviderOrderID)
	}
	if result.Order.ProviderOrderID != "rzp_order_1" {
		t.Fatalf("order provider id = %s", result.Order.ProviderOrderID)
	}
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	if _, err := env.svc.PlaceOrder(ctx, codCommand("u1")); !errors.Is(err, cartdomain.ErrEmptyCart) {
		t.Fatalf("err = %v, want ErrEmptyCart (no cart)", err)
	}

	_ = env.carts.Save(ctx, &cartdomain.Cart{UserID: "u1"})
	if _, err := env.svc.PlaceOrder(ctx, codCommand("u1")); !errors.Is(err, cartdomain.ErrEmptyCart) {
		t.Fatalf("err = %v, want ErrEmptyCart (zero items)", err)
	}
}

func TestPlaceOrderUnsupportedMethod(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	seedCart(env, "u1", 1)

	cmd := codCommand("u1")
	cmd.PaymentMethod = paymentdomain.MethodStripe
	if _, err := env.svc.PlaceOrder(ctx, cmd); !errors.Is(err, paymentdomain.ErrUnsupportedMethod) {
		t.Fatalf("err = %v, want ErrUnsupportedMethod", err)
	}
	if len(env.orders.orders) != 0 {
		t.Fatal("no order must be persisted")
	}
}

func TestPlaceOrderProviderFailureAbortsEarly(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	seedCart(env, "u1", 1)
	env.provider.err = paymentdomain.ErrProviderOrderFailed

	cmd := codCommand("u1")
	cmd.PaymentMethod = paymentdomain.MethodRazorpay
	if _, err := env.svc.PlaceOrder(ctx, cmd); !errors.Is(err, paymentdomain.ErrProviderOrderFailed) {
		t.Fatalf("err = %v, want ErrProviderOrderFailed", err)
	}

	if len(env.orders.orders) != 0 {
		t.Fatal("no order must be persisted on gateway failure")
	}
	if _, err := env.carts.GetByUserID(ctx, "u1"); err != nil {
		t.Fatal("cart must survive gateway failure")
	}
	p, _ := env.products.GetByID(ctx, 1)
	if p.Stock != 10 {
		t.Fatalf("stock = %d, want untouched 10", p.Stock)
	}
}

func TestPlaceOrderStockFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	seedCart(env, "u1", 20) // 超出库存 10

	_, err := env.svc.PlaceOrder(ctx, codCommand("u1"))
	var stockErr *catalogdomain.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("err = %v, want InsufficientStockError", err)
	}

	if len(env.orders.orders) != 0 {
		t.Fatal("order must be rolled back")
	}
	if _, err := env.carts.GetByUserID(ctx, "u1"); err != nil {
		t.Fatal("cart must survive rollback")
	}
	p, _ := env.products.GetByID(ctx, 1)
	if p.Stock != 10 {
		t.Fatalf("stock = %d, want 10 after rollback", p.Stock)
	}
	if len(env.publisher.events) != 0 {
		t.Fatal("no events on failed checkout")
	}
}

func TestPlaceOrderCouponFlow(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	env.coupons.coupons["SAVE10"] = &coupondomain.Coupon{
		Code: "SAVE10", Type: coupondomain.TypePercentage, Value: d("10"),
		StartsAt: time.Now().Add(-time.Hour), EndsAt: time.Now().Add(time.Hour),
		UsageLimit: 1, IsActive: true,
	}

	seedWithCoupon := func(userID string) {
		cart := &cartdomain.Cart{UserID: userID}
		item := cartdomain.CartItem{ProductID: 1, Title: "Trail Runner", UnitPrice: d("100"), Quantity: 2}
		cart.Items = []cartdomain.CartItem{item}
		cart.Coupon = cartdomain.AppliedCoupon{Code: "SAVE10", Type: "percentage", Value: d("10")}
		cart.Recalculate(pricing.NewCalculator(0.18, 500, 40))
		_ = env.carts.Save(ctx, cart)
	}

	seedWithCoupon("u1")
	result, err := env.svc.PlaceOrder(ctx, codCommand("u1"))
	if err != nil {
		t.Fatalf("PlaceOrder error: %v", err)
	}
	if !result.Order.Totals.Discount.Equal(d("20")) {
		t.Fatalf("discount = %s, want 20", result.Order.Totals.Discount)
	}
	if result.Order.CouponCode != "SAVE10" {
		t.Fatalf("coupon code = %s", result.Order.CouponCode)
	}
	if env.coupons.coupons["SAVE10"].UsageCount != 1 {
		t.Fatalf("usage count = %d, want 1", env.coupons.coupons["SAVE10"].UsageCount)
	}

	// 次数用完后第二单被拒
	seedWithCoupon("u2")
	if _, err := env.svc.PlaceOrder(ctx, codCommand("u2")); !errors.Is(err, coupondomain.ErrUsageLimitReached) {
		t.Fatalf("second order err = %v, want ErrUsageLimitReached", err)
	}
}

func TestConcurrentReservation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	env.products.products[1].Stock = 1
	seedCart(env, "u1", 1)
	seedCart(env, "u2", 1)

	var g errgroup.Group
	results := make([]error, 2)
	for i, userID := range []string{"u1", "u2"} {
		g.Go(func() error {
			_, err := env.svc.PlaceOrder(ctx, codCommand(userID))
			results[i] = err
			return nil
		})
	}
	_ = g.Wait()

	var wins, stockFails int
	for _, err := range results {
		var stockErr *catalogdomain.InsufficientStockError
		switch {
		case err == nil:
			wins++
		case errors.As(err, &stockErr):
			stockFails++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || stockFails != 1 {
		t.Fatalf("wins = %d stockFails = %d, want exactly one winner", wins, stockFails)
	}
	p, _ := env.products.GetByID(ctx, 1)
	if p.Stock != 0 {
		t.Fatalf("stock = %d, want 0", p.Stock)
	}
}

func placedOrder(t *testing.T, env *testEnv, userID, method string) *domain.Order {
	t.Helper()
	seedCart(env, userID, 1)
	cmd := codCommand(userID)
	cmd.PaymentMethod = method
	result, err := env.svc.PlaceOrder(context.Background(), cmd)
	if err != nil {
		t.Fatalf("PlaceOrder error: %v", err)
	}
	return result.Order
}

func razorpaySignature(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("valid signature confirms order", func(t *testing.T) {
		env := newTestEnv()
		order := placedOrder(t, env, "u1", paymentdomain.MethodRazorpay)

		sig := razorpaySignature("rzp_order_1", "pay_1", "test-secret")
		verified, err := env.svc.VerifyPayment(ctx, VerifyPaymentCommand{
			UserID: "u1", OrderNo: order.OrderNo, ProviderPaymentID: "pay_1", Signature: sig,
		})
		if err != nil {
			t.Fatalf("VerifyPayment error: %v", err)
		}
		if verified.Status != domain.StatusConfirmed || verified.PaymentStatus != domain.PaymentPaid {
			t.Fatalf("status = %s payment = %s", verified.Status, verified.PaymentStatus)
		}
		if verified.ProviderPaymentID != "pay_1" {
			t.Fatalf("provider payment id = %s", verified.ProviderPaymentID)
		}
	})

	t.Run("tampered signature marks failed only", func(t *testing.T) {
		env := newTestEnv()
		order := placedOrder(t, env, "u1", paymentdomain.MethodRazorpay)

		_, err := env.svc.VerifyPayment(ctx, VerifyPaymentCommand{
			UserID: "u1", OrderNo: order.OrderNo, ProviderPaymentID: "pay_1", Signature: "bogus",
		})
		if !errors.Is(err, domain.ErrPaymentVerificationFailed) {
			t.Fatalf("err = %v, want ErrPaymentVerificationFailed", err)
		}

		saved, _ := env.orders.GetByOrderNo(ctx, order.OrderNo)
		if saved.PaymentStatus != domain.PaymentFailed {
			t.Fatalf("payment status = %s, want failed", saved.PaymentStatus)
		}
		if saved.Status != domain.StatusPending {
			t.Fatalf("order status = %s, want pending untouched", saved.Status)
		}
		// 库存不回滚
		p, _ := env.products.GetByID(ctx, 1)
		if p.Stock != 9 {
			t.Fatalf("stock = %d, want 9", p.Stock)
		}
	})

	t.Run("foreign order forbidden", func(t *testing.T) {
		env := newTestEnv()
		order := placedOrder(t, env, "u1", paymentdomain.MethodRazorpay)

		_, err := env.svc.VerifyPayment(ctx, VerifyPaymentCommand{
			UserID: "u2", OrderNo: order.OrderNo, ProviderPaymentID: "pay_1", Signature: "x",
		})
		if !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("err = %v, want ErrForbidden", err)
		}
	})

	t.Run("unknown order", func(t *testing.T) {
		env := newTestEnv()
		_, err := env.svc.VerifyPayment(ctx, VerifyPaymentCommand{
			UserID: "u1", OrderNo: "ORD0", ProviderPaymentID: "pay_1", Signature: "x",
		})
		if !errors.Is(err, domain.ErrOrderNotFound) {
			t.Fatalf("err = %v, want ErrOrderNotFound", err)
		}
	})
}

func TestCancelOrderReleasesStock(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	order := placedOrder(t, env, "u1", paymentdomain.MethodCOD)

	p, _ := env.products.GetByID(ctx, 1)
	if p.Stock != 9 {
		t.Fatalf("stock = %d, want 9 after checkout", p.Stock)
	}

	refund := d("276")
	cancelled, err := env.svc.CancelOrder(ctx, order.OrderNo, "customer request", &refund, "admin-1")
	if err != nil {
		t.Fatalf("CancelOrder error: %v", err)
	}
	if cancelled.Status != domain.StatusCancelled {
		t.Fatalf("status = %s, want cancelled", cancelled.Status)
	}
	if cancelled.PaymentStatus != domain.PaymentRefunded {
		t.Fatalf("payment status = %s, want refunded", cancelled.PaymentStatus)
	}

	p, _ = env.products.GetByID(ctx, 1)
	if p.Stock != 10 {
		t.Fatalf("stock = %d, want 10 back", p.Stock)
	}

	// 终态后再取消被拒
	if _, err := env.svc.CancelOrder(ctx, order.OrderNo, "again", nil, "admin-1"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("second cancel err = %v, want ErrInvalidTransition", err)
	}
}

func TestAddTracking(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	order := placedOrder(t, env, "u1", paymentdomain.MethodCOD)

	updated, err := env.svc.AddTracking(ctx, order.OrderNo, "BlueDart", "BD123", "https://track/BD123", "admin-1")
	if err != nil {
		t.Fatalf("AddTracking error: %v", err)
	}
	if updated.Status != domain.StatusShipped {
		t.Fatalf("status = %s, want shipped", updated.Status)
	}
	if updated.TrackingNumber != "BD123" {
		t.Fatalf("tracking number = %s", updated.TrackingNumber)
	}
}

func TestUpdatePaymentStatusIndependent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	order := placedOrder(t, env, "u1", paymentdomain.MethodCOD)

	if _, err := env.svc.UpdateStatus(ctx, order.OrderNo, domain.StatusDelivered, "delivered", "admin-1"); err != nil {
		t.Fatalf("UpdateStatus error: %v", err)
	}

	// 终态订单仍可改支付状态
	updated, err := env.svc.UpdatePaymentStatus(ctx, order.OrderNo, domain.PaymentPaid, "admin-1")
	if err != nil {
		t.Fatalf("UpdatePaymentStatus error: %v", err)
	}
	if updated.PaymentStatus != domain.PaymentPaid {
		t.Fatalf("payment status = %s, want paid", updated.PaymentStatus)
	}
	if updated.Status != domain.StatusDelivered {
		t.Fatalf("order status = %s, want delivered", updated.Status)
	}
}
