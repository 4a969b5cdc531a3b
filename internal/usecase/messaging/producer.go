// Package messaging implements the asynchronous hand-off between the
// producer and the consumer that feeds the delivered-message buffer.
package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-product-service/internal/domain"
	"github.com/LavaJover/shvark-product-service/internal/infrastructure/metrics"
)

// Producer sends text payloads to a single fixed topic. It returns once the
// channel has accepted the message and never waits for a consumer.
type Producer struct {
	publisher domain.PublisherPort
	topic     string
	log       *slog.Logger
	metrics   *metrics.MessagingMetrics
}

func NewProducer(publisher domain.PublisherPort, topic string, log *slog.Logger, m *metrics.MessagingMetrics) *Producer {
	return &Producer{
		publisher: publisher,
		topic:     topic,
		log:       log,
		metrics:   m,
	}
}

func (p *Producer) Topic() string {
	return p.topic
}

// SendMessage publishes payload without a key. A channel failure is
// returned wrapped in domain.ErrSubmissionFailed and is not retried.
func (p *Producer) SendMessage(ctx context.Context, payload string) error {
	start := time.Now()
	if err := p.publisher.Publish(ctx, p.topic, domain.Message{Value: []byte(payload)}); err != nil {
		p.metrics.RecordProduceError(p.topic)
		p.log.Error("failed to produce message", "topic", p.topic, "error", err)
		return fmt.Errorf("%w: topic %s: %w", domain.ErrSubmissionFailed, p.topic, err)
	}
	p.metrics.RecordProduced(p.topic, time.Since(start).Seconds())

	p.log.Info("producing message", "payload", payload, "topic", p.topic)
	return nil
}
