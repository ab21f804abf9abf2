package kafka

import (
	"context"

	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/kafka"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/logger"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/pubsub"
	"github.com/ThreeDotsLabs/watermill/message"
)

type PubSub struct {
	producer *kafka.Producer
	consumer *kafka.Consumer
	logger   *logger.Logger
}

// NewPubSub creates a new kafka-based pubsub
func NewPubSub(
	producer *kafka.Producer,
	consumer *kafka.Consumer,
	logger *logger.Logger,
) pubsub.PubSub {
	return &PubSub{
		producer: producer,
		consumer: consumer,
		logger:   logger,
	}
}

// Publish publishes a record change event
func (p *PubSub) Publish(ctx context.Context, topic string, msg *message.Message) error {
	return p.producer.Publish(topic, msg)
}

// Subscribe starts consuming record change events
func (p *PubSub) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return p.consumer.Subscribe(ctx, topic)
}

// Close closes the pubsub
func (p *PubSub) Close() error {
	if err := p.producer.Close(); err != nil {
		p.logger.Errorw("error closing kafka producer", "error", err)
	}
	if err := p.consumer.Close(); err != nil {
		p.logger.Errorw("error closing kafka consumer", "error", err)
	}
	return nil
}
