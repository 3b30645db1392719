// Package domain 定义支付上下文的领域模型
package domain

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnsupportedMethod 未接入的支付方式
	ErrUnsupportedMethod = errors.New("unsupported payment method")
	// ErrProviderOrderFailed 在支付网关创建预订单失败
	ErrProviderOrderFailed = errors.New("failed to create provider order")
)

// 支付方式
const (
	MethodRazorpay = "razorpay"
	MethodStripe   = "stripe"
	MethodCOD      = "cod"
)

// Provider 支付网关接口
type Provider interface {
	// CreateOrder 在网关侧创建预订单，返回网关订单号
	CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (string, error)
}

// VerifySignature 校验支付回传签名
// 对 "orderID|paymentID" 做 HMAC-SHA256，常量时间比较
func VerifySignature(providerOrderID, providerPaymentID, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(providerOrderID + "|" + providerPaymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
