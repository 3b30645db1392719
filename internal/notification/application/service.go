// Package application 实现通知上下文的应用服务
package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/ecommerce/internal/notification/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
)

// OrderConfirmation 订单确认邮件所需数据
type OrderConfirmation struct {
	OrderNo  string
	Email    string
	Name     string
	Total    decimal.Decimal
	Currency string
	Items    []ConfirmationItem
}

// ConfirmationItem 邮件中的订单行
type ConfirmationItem struct {
	Title     string
	Quantity  int
	LineTotal decimal.Decimal
}

// NotificationService 通知服务
// 所有发送都是尽力而为：失败只记日志，绝不向调用方传播
type NotificationService struct {
	sender domain.Sender
}

// NewNotificationService 创建通知服务实例
func NewNotificationService(sender domain.Sender) *NotificationService {
	return &NotificationService{sender: sender}
}

// SendOrderConfirmation 发送订单确认邮件
func (s *NotificationService) SendOrderConfirmation(ctx context.Context, data OrderConfirmation) {
	if data.Email == "" {
		return
	}

	subject := fmt.Sprintf("订单确认 - %s", data.OrderNo)
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>感谢您的订单，%s</h2>", data.Name)
	fmt.Fprintf(&b, "<p>订单号：%s</p><ul>", data.OrderNo)
	for _, it := range data.Items {
		fmt.Fprintf(&b, "<li>%s × %d — %s %s</li>", it.Title, it.Quantity, data.Currency, it.LineTotal)
	}
	fmt.Fprintf(&b, "</ul><p>合计：%s %s</p>", data.Currency, data.Total)

	if err := s.sender.Send(ctx, data.Email, subject, b.String()); err != nil {
		logger.Warn(ctx, "订单确认邮件发送失败", "order_no", data.OrderNo, "error", err)
	}
}

// SendShippingUpdate 发送发货通知邮件
func (s *NotificationService) SendShippingUpdate(ctx context.Context, email, orderNo, carrier, trackingNumber string) {
	if email == "" {
		return
	}
	subject := fmt.Sprintf("订单已发货 - %s", orderNo)
	content := fmt.Sprintf("<p>您的订单 %s 已通过 %s 发出，运单号 %s。</p>", orderNo, carrier, trackingNumber)
	if err := s.sender.Send(ctx, email, subject, content); err != nil {
		logger.Warn(ctx, "发货通知邮件发送失败", "order_no", orderNo, "error", err)
	}
}
