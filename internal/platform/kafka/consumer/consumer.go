package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Message is the broker-agnostic shape handed to topic handlers.
type Message struct {
	Topic     string
	Key       []byte
	Value     []byte
	Timestamp time.Time
}

// Handler processes one message. Returning an error leaves the offset
// uncommitted so the message is redelivered.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// Consumer polls the subscribed topics and feeds messages to the handler.
type Consumer struct {
	client  *kgo.Client
	handler Handler
	logger  *slog.Logger
}

// New joins the consumer group for the given topics.
func New(brokers []string, group string, topics []string, handler Handler, logger *slog.Logger) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topics...),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	return &Consumer{client: client, handler: handler, logger: logger}, nil
}

// Run polls until the context is cancelled. Offsets commit only after the
// handler succeeds, giving at-least-once processing.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.client.Close()
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return ctx.Err()
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.Error("kafka fetch error",
				"topic", topic,
				"partition", partition,
				"error", err.Error(),
			)
		})

		var processed []*kgo.Record
		fetches.EachRecord(func(record *kgo.Record) {
			msg := &Message{
				Topic:     record.Topic,
				Key:       record.Key,
				Value:     record.Value,
				Timestamp: record.Timestamp,
			}
			if err := c.handler.Handle(ctx, msg); err != nil {
				c.logger.Error("message handler failed, offset not committed",
					"topic", record.Topic,
					"error", err.Error(),
				)
				return
			}
			processed = append(processed, record)
		})

		if len(processed) > 0 {
			if err := c.client.CommitRecords(ctx, processed...); err != nil {
				c.logger.Error("commit offsets failed", "error", err.Error())
			}
		}
	}
}
