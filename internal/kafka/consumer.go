package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"ms-campus/internal/logger"

	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Handler processes one message. A returned error is logged and the message
// is still committed so a poison message cannot stall the group.
type Handler func(ctx context.Context, msg kafka.Message) error

const (
	minReadBackoff = time.Second
	maxReadBackoff = 30 * time.Second
)

type Consumer struct {
	reader messageReader
	logger *logger.Logger

	// read errors are retried after backoff, doubling up to maxBackoff
	backoff    time.Duration
	maxBackoff time.Duration
}

// NewConsumer creates a new Kafka consumer for the given topic and group
func NewConsumer(brokers []string, topic, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, logger: log, backoff: minReadBackoff, maxBackoff: maxReadBackoff}
}

// Run consumes until ctx is cancelled or the reader is closed. Failed reads
// are logged and retried with exponential backoff.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	wait := c.backoff
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return err
			}
			c.logger.Error("KAFKA", fmt.Sprintf("error reading message, retrying in %s: %v", wait, err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(wait):
			}
			wait = min(wait*2, c.maxBackoff)
			continue
		}
		wait = c.backoff

		c.logger.LogKafka("RECEIVE", msg.Topic, string(msg.Key))
		if err := handle(ctx, msg); err != nil {
			c.logger.Error("KAFKA", fmt.Sprintf("handler failed for %s/%s: %v", msg.Topic, string(msg.Key), err))
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Error("KAFKA", fmt.Sprintf("commit failed for %s: %v", msg.Topic, err))
		}
	}
}

// Close gracefully shuts down the Kafka reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}
