package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"ms-campus/internal/logger"

	"github.com/segmentio/kafka-go"
)

// LoopbackPublisher delivers messages to in-process handlers instead of a
// broker. It keeps cross-module reactions such as refunds on event
// cancellation working when Kafka is disabled. Topics without a handler are
// dropped.
type LoopbackPublisher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *logger.Logger
}

func NewLoopbackPublisher(log *logger.Logger) *LoopbackPublisher {
	return &LoopbackPublisher{handlers: make(map[string][]Handler), logger: log}
}

// Subscribe registers handle for topic.
func (l *LoopbackPublisher) Subscribe(topic string, handle Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers[topic] = append(l.handlers[topic], handle)
}

// Publish runs every handler for topic synchronously. Handler errors are
// logged, matching Consumer.Run.
func (l *LoopbackPublisher) Publish(ctx context.Context, topic, key string, value interface{}) error {
	l.mu.RLock()
	handlers := l.handlers[topic]
	l.mu.RUnlock()

	if len(handlers) == 0 {
		l.logger.Debug("KAFKA", fmt.Sprintf("kafka disabled, dropping %s message %s", topic, key))
		return nil
	}

	msgBytes, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s message: %w", topic, err)
	}
	msg := kafka.Message{Topic: topic, Key: []byte(key), Value: msgBytes, Time: time.Now()}

	l.logger.LogKafka("LOOPBACK", topic, key)
	for _, handle := range handlers {
		if err := handle(ctx, msg); err != nil {
			l.logger.Error("KAFKA", fmt.Sprintf("handler failed for %s/%s: %v", topic, key, err))
		}
	}
	return nil
}
