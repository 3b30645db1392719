// Package messaging 将订单领域事件投递到 Kafka。
package messaging

import (
	"context"

	"github.com/wyfcoding/ecommerce/internal/order/domain"
	"github.com/wyfcoding/ecommerce/pkg/mq"
)

// KafkaEventPublisher 基于 Kafka 的领域事件发布实现
type KafkaEventPublisher struct {
	producer *mq.KafkaProducer
	topic    string
}

// NewKafkaEventPublisher 创建订单事件发布器
func NewKafkaEventPublisher(producer *mq.KafkaProducer, topic string) domain.EventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, eventType, key string, payload any) error {
	envelope := map[string]any{
		"type":    eventType,
		"payload": payload,
	}
	return p.producer.SendMessage(ctx, p.topic, key, envelope)
}
