// Package analytics 将用户行为事件投递到 Kafka 供离线分析。
package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/mq"
)

// Event 行为事件载荷
type Event struct {
	EventID   string         `json:"event_id"`
	Type      string         `json:"type"`
	UserID    string         `json:"user_id"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Tracker 行为埋点接口
type Tracker interface {
	Track(ctx context.Context, eventType, userID string, metadata map[string]any)
}

// KafkaTracker 基于 Kafka 的埋点实现
// 投递失败只记日志，绝不影响业务主流程
type KafkaTracker struct {
	producer *mq.KafkaProducer
	topic    string
}

// NewKafkaTracker 创建 Kafka 埋点实例
func NewKafkaTracker(producer *mq.KafkaProducer, topic string) *KafkaTracker {
	return &KafkaTracker{producer: producer, topic: topic}
}

func (t *KafkaTracker) Track(ctx context.Context, eventType, userID string, metadata map[string]any) {
	event := Event{
		EventID:   uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Metadata:  metadata,
		Timestamp: time.Now(),
	}
	if err := t.producer.SendMessage(ctx, t.topic, userID, event); err != nil {
		logger.Warn(ctx, "行为事件投递失败", "type", eventType, "user_id", userID, "error", err)
	}
}

// NoopTracker Kafka 未配置时的空实现
type NoopTracker struct{}

func (NoopTracker) Track(context.Context, string, string, map[string]any) {}
