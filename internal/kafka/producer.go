package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ms-campus/internal/logger"

	"github.com/segmentio/kafka-go"
)

// Publisher sends domain events. Services depend on this rather than on
// Producer so tests and Kafka-less deployments can swap it out.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	Writer messageWriter
	logger *logger.Logger
}

// NewProducer returns a producer that picks the topic per message.
func NewProducer(brokers []string, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &Producer{Writer: writer, logger: log}
}

// Publish JSON-encodes value and writes it to topic keyed by key.
func (p *Producer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	msgBytes, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s message: %w", topic, err)
	}

	p.logger.LogKafka("PUBLISH", topic, key)

	err = p.Writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: msgBytes,
	})
	if err != nil {
		p.logger.Error("KAFKA", fmt.Sprintf("publish to %s failed: %v", topic, err))
		return err
	}
	return nil
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}

// NopPublisher drops every message. Used when Kafka is disabled.
type NopPublisher struct {
	logger *logger.Logger
}

func NewNopPublisher(log *logger.Logger) *NopPublisher {
	return &NopPublisher{logger: log}
}

func (n *NopPublisher) Publish(_ context.Context, topic, key string, _ interface{}) error {
	n.logger.Debug("KAFKA", fmt.Sprintf("kafka disabled, dropping %s message %s", topic, key))
	return nil
}
