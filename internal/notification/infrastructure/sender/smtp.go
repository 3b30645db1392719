// Package sender 提供通知发送接口的具体实现。
package sender

import (
	"context"

	"github.com/wyfcoding/ecommerce/internal/notification/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"gopkg.in/gomail.v2"
)

// SMTPSender 基于 gomail 的邮件发送实现
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender 创建 SMTP 邮件发送器
func NewSMTPSender(host string, port int, username, password, from string) domain.Sender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, content string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", content)

	if err := s.dialer.DialAndSend(m); err != nil {
		logger.Error(ctx, "发送邮件失败", "to", to, "subject", subject, "error", err)
		return err
	}
	logger.Info(ctx, "邮件已发送", "to", to, "subject", subject)
	return nil
}

// NoopSender SMTP 未配置时的空实现，只记日志
type NoopSender struct{}

// NewNoopSender 创建空发送器
func NewNoopSender() domain.Sender { return &NoopSender{} }

func (s *NoopSender) Send(ctx context.Context, to, subject, _ string) error {
	logger.Info(ctx, "SMTP 未配置，跳过邮件发送", "to", to, "subject", subject)
	return nil
}
