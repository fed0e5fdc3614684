// Package kafka wraps the franz-go client for the event relay. Topics map
// one-to-one onto event categories so downstream consumers subscribe only to
// the streams they care about.
package kafka

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"prophecy/pkg/platform/events"
)

// Config captures broker connection settings.
type Config struct {
	Brokers     []string
	LedgerTopic string
	MintTopic   string
}

// Producer publishes event payloads keyed by event type so per-market
// ordering within a partition follows the log order.
type Producer struct {
	client *kgo.Client
	topics map[events.Category]string
}

// NewProducer connects a producer. The caller owns Close.
func NewProducer(cfg Config) (*Producer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Producer{
		client: client,
		topics: map[events.Category]string{
			events.CategoryLedger: cfg.LedgerTopic,
			events.CategoryMint:   cfg.MintTopic,
		},
	}, nil
}

// Publish produces one payload synchronously to the category's topic.
func (p *Producer) Publish(ctx context.Context, category events.Category, key string, payload []byte) error {
	topic, ok := p.topics[category]
	if !ok || topic == "" {
		return fmt.Errorf("no topic configured for category %q", category)
	}
	record := &kgo.Record{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", topic, err)
	}
	return nil
}

func (p *Producer) Close() {
	p.client.Close()
}
