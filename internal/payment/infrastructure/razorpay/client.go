// Package razorpay 对接 Razorpay 支付网关。
package razorpay

import (
	"context"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/ecommerce/internal/payment/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
)

// Client Razorpay 网关客户端，实现 domain.Provider
type Client struct {
	api *razorpay.Client
}

// NewClient 创建 Razorpay 客户端
func NewClient(keyID, keySecret string) *Client {
	return &Client{api: razorpay.NewClient(keyID, keySecret)}
}

// CreateOrder 在 Razorpay 创建预订单
// 金额按最小货币单位（paise）上送
func (c *Client) CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (string, error) {
	data := map[string]interface{}{
		"amount":   amount.Mul(decimal.NewFromInt(100)).IntPart(),
		"currency": currency,
		"receipt":  receipt,
	}
	order, err := c.api.Order.Create(data, nil)
	if err != nil {
		logger.Error(ctx, "Razorpay 创建预订单失败", "receipt", receipt, "error", err)
		return "", fmt.Errorf("%w: %v", domain.ErrProviderOrderFailed, err)
	}
	id, ok := order["id"].(string)
	if !ok || id == "" {
		return "", domain.ErrProviderOrderFailed
	}
	return id, nil
}
