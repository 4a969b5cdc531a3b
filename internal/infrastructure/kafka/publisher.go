package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-product-service/internal/domain"
	"github.com/segmentio/kafka-go"
)

// DefaultKafkaPublisher publishes through a kafka-go Writer. The writer has
// no fixed topic; every message carries its own.
type DefaultKafkaPublisher struct {
	writer *kafka.Writer
}

func NewDefaultKafkaPublisher(cfg ClientConfig) (*DefaultKafkaPublisher, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	transport, err := cfg.transport()
	if err != nil {
		return nil, fmt.Errorf("kafka transport: %w", err)
	}

	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}

	return &DefaultKafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Balancer:               &kafka.LeastBytes{},
			RequiredAcks:           kafka.RequireOne,
			WriteTimeout:           writeTimeout,
			BatchTimeout:           10 * time.Millisecond,
			AllowAutoTopicCreation: true,
			Transport:              transport,
		},
	}, nil
}

func (k *DefaultKafkaPublisher) Publish(ctx context.Context, topic string, msgs ...domain.Message) error {
	km := make([]kafka.Message, 0, len(msgs))
	now := time.Now()
	for _, m := range msgs {
		km = append(km, kafka.Message{
			Topic: topic,
			Key:   m.Key,
			Value: m.Value,
			Time:  now,
		})
	}

	if err := k.writer.WriteMessages(ctx, km...); err != nil {
		return fmt.Errorf("failed to write messages to %s: %w", topic, err)
	}
	return nil
}

func (k *DefaultKafkaPublisher) Close() error {
	return k.writer.Close()
}
