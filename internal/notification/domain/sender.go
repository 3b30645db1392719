// Package domain 定义通知上下文的领域模型
package domain

import "context"

// Sender 通知发送接口
type Sender interface {
	Send(ctx context.Context, to, subject, content string) error
}
