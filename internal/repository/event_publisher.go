package repository

import (
	"context"
	"fmt"

	"MarketBrief/internal/domain/models"
	domrepo "MarketBrief/internal/domain/repository"
	pkgkafka "MarketBrief/pkg/kafka"
)

// KafkaEventPublisher broadcasts context lifecycle events so sibling
// instances can drop their local caches. Events are keyed by tier, keeping
// per-tier ordering within a partition.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaEventPublisher creates the publisher.
func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) domrepo.EventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, ev *models.ContextEvent) error {
	if ev == nil {
		return fmt.Errorf("nil context event")
	}
	return p.producer.Publish(ctx, p.topic, []byte(ev.Tier), ev)
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
