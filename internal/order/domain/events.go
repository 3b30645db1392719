package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// 订单领域事件类型
const (
	OrderCreatedEventType       = "order.created"
	OrderStatusChangedEventType = "order.status_changed"
	OrderCancelledEventType     = "order.cancelled"
)

// EventPublisher 领域事件发布接口
type EventPublisher interface {
	Publish(ctx context.Context, eventType, key string, payload any) error
}

// OrderCreatedEvent 订单创建事件
type OrderCreatedEvent struct {
	OrderNo       string          `json:"order_no"`
	UserID        string          `json:"user_id"`
	Total         decimal.Decimal `json:"total"`
	Currency      string          `json:"currency"`
	PaymentMethod string          `json:"payment_method"`
	ItemCount     int             `json:"item_count"`
	Timestamp     time.Time       `json:"timestamp"`
}

// OrderStatusChangedEvent 订单状态变化事件
type OrderStatusChangedEvent struct {
	OrderNo   string    `json:"order_no"`
	UserID    string    `json:"user_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Actor     string    `json:"actor,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
