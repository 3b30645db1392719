// Package domain 定义订单上下文的领域模型与状态机
package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	pricing "github.com/wyfcoding/ecommerce/internal/pricing/domain"
	"github.com/wyfcoding/pkg/fsm"
	"github.com/wyfcoding/pkg/idgen"
	"gorm.io/gorm"
)

// Status 订单状态
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// 支付状态，独立于订单状态流转
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

var (
	// ErrOrderNotFound 订单不存在
	ErrOrderNotFound = errors.New("order not found")
	// ErrForbidden 无权访问该订单
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidTransition 非法状态流转
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrPaymentVerificationFailed 支付签名校验失败
	ErrPaymentVerificationFailed = errors.New("payment verification failed")
)

// forwardChain 正向流转链，允许跳跃推进
var forwardChain = []Status{StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered}

// ValidStatus 是否为已知订单状态
func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// ValidPaymentStatus 是否为已知支付状态
func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// Address 收货地址
type Address struct {
	Name       string `gorm:"column:name;type:varchar(100)" json:"name"`
	Phone      string `gorm:"column:phone;type:varchar(32)" json:"phone"`
	Line1      string `gorm:"column:line1;type:varchar(255)" json:"line1"`
	Line2      string `gorm:"column:line2;type:varchar(255)" json:"line2,omitempty"`
	City       string `gorm:"column:city;type:varchar(100)" json:"city"`
	State      string `gorm:"column:state;type:varchar(100)" json:"state"`
	PostalCode string `gorm:"column:postal_code;type:varchar(20)" json:"postal_code"`
	Country    string `gorm:"column:country;type:varchar(2)" json:"country"`
}

// OrderItem 订单行，下单时冻结的商品快照
type OrderItem struct {
	gorm.Model
	OrderID    uint            `gorm:"column:order_id;index;not null" json:"order_id"`
	ProductID  uint            `gorm:"column:product_id;not null" json:"product_id"`
	VariantSKU string          `gorm:"column:variant_sku;type:varchar(64)" json:"variant_sku,omitempty"`
	Title      string          `gorm:"column:title;type:varchar(255);not null" json:"title"`
	Image      string          `gorm:"column:image;type:varchar(512)" json:"image,omitempty"`
	UnitPrice  decimal.Decimal `gorm:"column:unit_price;type:decimal(20,2);not null" json:"unit_price"`
	Quantity   int             `gorm:"column:quantity;not null" json:"quantity"`
	LineTotal  decimal.Decimal `gorm:"column:line_total;type:decimal(20,2);not null" json:"line_total"`
}

// TableName 指定表名
func (OrderItem) TableName() string { return "order_items" }

// TimelineEntry 订单时间线，每次状态变化追加一条
type TimelineEntry struct {
	gorm.Model
	OrderID uint   `gorm:"column:order_id;index;not null" json:"order_id"`
	Status  string `gorm:"column:status;type:varchar(20);not null" json:"status"`
	Note    string `gorm:"column:note;type:varchar(255)" json:"note,omitempty"`
	Actor   string `gorm:"column:actor;type:varchar(64)" json:"actor,omitempty"`
}

// TableName 指定表名
func (TimelineEntry) TableName() string { return "order_timeline" }

// Order 订单聚合根
type Order struct {
	gorm.Model
	OrderNo           string           `gorm:"column:order_no;type:varchar(32);uniqueIndex;not null" json:"order_no"`
	UserID            string           `gorm:"column:user_id;type:varchar(36);index;not null" json:"user_id"`
	Email             string           `gorm:"column:email;type:varchar(255)" json:"email"`
	Items             []OrderItem      `gorm:"foreignKey:OrderID" json:"items"`
	Totals            pricing.Totals   `gorm:"embedded" json:"totals"`
	Currency          string           `gorm:"column:currency;type:varchar(3);not null" json:"currency"`
	CouponCode        string           `gorm:"column:coupon_code;type:varchar(32)" json:"coupon_code,omitempty"`
	PaymentMethod     string           `gorm:"column:payment_method;type:varchar(20);not null" json:"payment_method"`
	PaymentStatus     string           `gorm:"column:payment_status;type:varchar(20);index;not null" json:"payment_status"`
	Status            Status           `gorm:"column:status;type:varchar(20);index;not null" json:"status"`
	ProviderOrderID   string           `gorm:"column:provider_order_id;type:varchar(64);index" json:"provider_order_id,omitempty"`
	ProviderPaymentID string           `gorm:"column:provider_payment_id;type:varchar(64)" json:"provider_payment_id,omitempty"`
	ShippingAddress   Address          `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	Carrier           string           `gorm:"column:carrier;type:varchar(64)" json:"carrier,omitempty"`
	TrackingNumber    string           `gorm:"column:tracking_number;type:varchar(64)" json:"tracking_number,omitempty"`
	TrackingURL       string           `gorm:"column:tracking_url;type:varchar(512)" json:"tracking_url,omitempty"`
	RefundAmount      *decimal.Decimal `gorm:"column:refund_amount;type:decimal(20,2)" json:"refund_amount,omitempty"`
	RefundReason      string           `gorm:"column:refund_reason;type:varchar(255)" json:"refund_reason,omitempty"`
	RefundedAt        *time.Time       `gorm:"column:refunded_at" json:"refunded_at,omitempty"`
	Notes             string           `gorm:"column:notes;type:varchar(512)" json:"notes,omitempty"`
	Timeline          []TimelineEntry  `gorm:"foreignKey:OrderID" json:"timeline"`
	fsm               *fsm.Machine[string, string]
}

// TableName 指定表名
func (Order) TableName() string { return "orders" }

// NewOrder 创建待支付订单并写入首条时间线
func NewOrder(userID, email, currency, paymentMethod, couponCode, notes string, addr Address, items []OrderItem, totals pricing.Totals) *Order {
	o := &Order{
		OrderNo:         fmt.Sprintf("ORD%d", idgen.GenID()),
		UserID:          userID,
		Email:           email,
		Items:           items,
		Totals:          totals,
		Currency:        currency,
		CouponCode:      couponCode,
		PaymentMethod:   paymentMethod,
		PaymentStatus:   PaymentPending,
		Status:          StatusPending,
		ShippingAddress: addr,
		Notes:           notes,
	}
	o.appendTimeline(string(StatusPending), "order placed", "system")
	o.initFSM()
	return o
}

// initFSM 按当前持久化状态重建状态机
// 正向允许跳跃推进（管理端可直接从 pending 标记 shipped），
// CANCEL 可从任意非终态触发，delivered/cancelled 为终态
func (o *Order) initFSM() {
	m := fsm.NewMachine[string, string](string(o.Status))
	for i, from := range forwardChain {
		for _, to := range forwardChain[i+1:] {
			m.AddTransition(string(from), "TO_"+string(to), string(to))
		}
	}
	for _, from := range forwardChain[:len(forwardChain)-1] {
		m.AddTransition(string(from), "CANCEL", string(StatusCancelled))
	}
	o.fsm = m
}

// InitFSM 确保状态机已初始化（仓储加载后调用）
func (o *Order) InitFSM() {
	if o.fsm == nil {
		o.initFSM()
	}
}

func (o *Order) appendTimeline(status, note, actor string) {
	o.Timeline = append(o.Timeline, TimelineEntry{OrderID: o.ID, Status: status, Note: note, Actor: actor})
}

// IsTerminal 是否处于终态
func (o *Order) IsTerminal() bool {
	return o.Status == StatusDelivered || o.Status == StatusCancelled
}

// TransitionTo 沿正向链推进订单状态
func (o *Order) TransitionTo(ctx context.Context, target Status, note, actor string) error {
	o.InitFSM()
	if target == StatusCancelled {
		return o.Cancel(ctx, note, actor)
	}
	if err := o.fsm.Trigger(ctx, "TO_"+string(target)); err != nil {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, target)
	}
	o.Status = target
	o.appendTimeline(string(target), note, actor)
	return nil
}

// Cancel 取消订单，库存归还与退款由应用层编排
func (o *Order) Cancel(ctx context.Context, reason, actor string) error {
	o.InitFSM()
	if err := o.fsm.Trigger(ctx, "CANCEL"); err != nil {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, StatusCancelled)
	}
	o.Status = StatusCancelled
	o.appendTimeline(string(StatusCancelled), reason, actor)
	return nil
}

// MarkPaid 支付成功：记录网关支付号并确认订单
func (o *Order) MarkPaid(ctx context.Context, providerPaymentID string) error {
	if err := o.TransitionTo(ctx, StatusConfirmed, "payment verified", "system"); err != nil {
		return err
	}
	o.PaymentStatus = PaymentPaid
	o.ProviderPaymentID = providerPaymentID
	return nil
}

// MarkPaymentFailed 签名校验失败：只改支付状态，不动订单状态
func (o *Order) MarkPaymentFailed(note string) {
	o.PaymentStatus = PaymentFailed
	o.appendTimeline(string(o.Status), note, "system")
}

// SetPaymentStatus 管理端直改支付状态，独立于订单状态，总是允许
func (o *Order) SetPaymentStatus(status, actor string) {
	o.PaymentStatus = status
	o.appendTimeline(string(o.Status), "payment status set to "+status, actor)
}

// SetTracking 记录物流信息，未发货时自动推进到 shipped
func (o *Order) SetTracking(ctx context.Context, carrier, number, url, actor string) error {
	o.Carrier = carrier
	o.TrackingNumber = number
	o.TrackingURL = url
	switch o.Status {
	case StatusShipped, StatusDelivered, StatusCancelled:
		o.appendTimeline(string(o.Status), "tracking updated", actor)
		return nil
	default:
		return o.TransitionTo(ctx, StatusShipped, "tracking added, order shipped", actor)
	}
}

// RecordRefund 记录退款并将支付状态置为 refunded
func (o *Order) RecordRefund(amount decimal.Decimal, reason string) {
	now := time.Now()
	o.RefundAmount = &amount
	o.RefundReason = reason
	o.RefundedAt = &now
	o.PaymentStatus = PaymentRefunded
}
