package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/LavaJover/shvark-product-service/internal/domain"
	"github.com/segmentio/kafka-go"
)

// DefaultKafkaSubscriber hands out one consumer-group reader per
// Subscribe call. Messages are read sequentially per reader, so the channel
// preserves the order in which the group receives them.
type DefaultKafkaSubscriber struct {
	cfg    ClientConfig
	dialer *kafka.Dialer
	log    *slog.Logger

	mu      sync.Mutex
	readers map[string]*kafka.Reader
	closed  bool
}

func NewDefaultKafkaSubscriber(cfg ClientConfig, log *slog.Logger) (*DefaultKafkaSubscriber, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	dialer, err := cfg.dialer()
	if err != nil {
		return nil, fmt.Errorf("kafka dialer: %w", err)
	}
	return &DefaultKafkaSubscriber{
		cfg:     cfg,
		dialer:  dialer,
		log:     log,
		readers: make(map[string]*kafka.Reader),
	}, nil
}

func (k *DefaultKafkaSubscriber) Subscribe(ctx context.Context, topic, groupID string) (<-chan domain.Message, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.closed {
		return nil, domain.ErrBrokerClosed
	}
	readerKey := topic + ":" + groupID
	if _, exists := k.readers[readerKey]; exists {
		return nil, fmt.Errorf("reader already exists for topic %s and group %s", topic, groupID)
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        k.cfg.Brokers,
		Topic:          topic,
		GroupID:        groupID,
		Dialer:         k.dialer,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        250 * time.Millisecond,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: 0,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			k.log.Warn(fmt.Sprintf(msg, args...), "topic", topic, "group_id", groupID)
		}),
	})
	k.readers[readerKey] = reader

	out := make(chan domain.Message)
	go func() {
		defer close(out)
		defer k.release(readerKey, reader)
		for {
			m, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() == nil && !errors.Is(err, io.EOF) {
					k.log.Error("kafka reader stopped", "topic", topic, "group_id", groupID, "error", err)
				}
				return
			}
			msg := domain.Message{
				Topic:     m.Topic,
				Key:       m.Key,
				Value:     m.Value,
				Partition: m.Partition,
				Offset:    m.Offset,
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (k *DefaultKafkaSubscriber) release(key string, reader *kafka.Reader) {
	k.mu.Lock()
	if k.readers[key] == reader {
		delete(k.readers, key)
	}
	k.mu.Unlock()
	if err := reader.Close(); err != nil {
		k.log.Warn("failed to close kafka reader", "error", err)
	}
}

// Close stops every reader; their channels close once the read loop exits.
func (k *DefaultKafkaSubscriber) Close() error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.closed = true
	readers := make([]*kafka.Reader, 0, len(k.readers))
	for _, r := range k.readers {
		readers = append(readers, r)
	}
	k.mu.Unlock()

	var errs []error
	for _, r := range readers {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
