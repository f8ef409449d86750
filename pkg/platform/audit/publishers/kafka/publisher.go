// Package kafka publishes audit events to a Kafka (or Redpanda) topic,
// keyed by unit so one unit's trail stays ordered within a partition.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"offboard/pkg/platform/audit"
)

// Publisher writes audit events to a topic via franz-go.
type Publisher struct {
	client *kgo.Client
	topic  string
}

// New dials the brokers and returns a Publisher. Close releases the client.
func New(brokers []string, topic string) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka: %w", err)
	}
	return &Publisher{client: client, topic: topic}, nil
}

func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.UnitID.String()),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

func (p *Publisher) Close() {
	p.client.Close()
}
