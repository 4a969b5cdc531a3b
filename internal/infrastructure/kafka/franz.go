package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/LavaJover/shvark-product-service/internal/domain"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl/plain"
	"github.com/twmb/franz-go/pkg/sasl/scram"
)

func (c ClientConfig) franzOptions() ([]kgo.Opt, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(c.Brokers...),
	}
	if c.ClientID != "" {
		opts = append(opts, kgo.ClientID(c.ClientID))
	}
	if tlsCfg := c.tlsConfig(); tlsCfg != nil {
		opts = append(opts, kgo.DialTLSConfig(tlsCfg))
	}
	if c.Username != "" {
		switch strings.ToUpper(c.Mechanism) {
		case "", MechanismPlain:
			opts = append(opts, kgo.SASL(plain.Auth{User: c.Username, Pass: c.Password}.AsMechanism()))
		case MechanismScramSHA256:
			opts = append(opts, kgo.SASL(scram.Auth{User: c.Username, Pass: c.Password}.AsSha256Mechanism()))
		case MechanismScramSHA512:
			opts = append(opts, kgo.SASL(scram.Auth{User: c.Username, Pass: c.Password}.AsSha512Mechanism()))
		default:
			return nil, fmt.Errorf("unsupported sasl mechanism %q", c.Mechanism)
		}
	}
	return opts, nil
}

// FranzPublisher is the franz-go counterpart of DefaultKafkaPublisher.
type FranzPublisher struct {
	client *kgo.Client
}

func NewFranzPublisher(cfg ClientConfig) (*FranzPublisher, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	opts, err := cfg.franzOptions()
	if err != nil {
		return nil, err
	}
	opts = append(opts, kgo.AllowAutoTopicCreation())
	if cfg.WriteTimeout > 0 {
		opts = append(opts, kgo.ProduceRequestTimeout(cfg.WriteTimeout))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}
	return &FranzPublisher{client: client}, nil
}

func (p *FranzPublisher) Publish(ctx context.Context, topic string, msgs ...domain.Message) error {
	records := make([]*kgo.Record, 0, len(msgs))
	for _, m := range msgs {
		records = append(records, &kgo.Record{
			Topic: topic,
			Key:   m.Key,
			Value: m.Value,
		})
	}

	if err := p.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}
	return nil
}

func (p *FranzPublisher) Close() error {
	p.client.Close()
	return nil
}

// FranzSubscriber creates one group-consuming client per subscription.
type FranzSubscriber struct {
	cfg ClientConfig
	log *slog.Logger

	mu        sync.Mutex
	consumers map[string]*kgo.Client
	closed    bool
}

func NewFranzSubscriber(cfg ClientConfig, log *slog.Logger) (*FranzSubscriber, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &FranzSubscriber{
		cfg:       cfg,
		log:       log,
		consumers: make(map[string]*kgo.Client),
	}, nil
}

func (s *FranzSubscriber) Subscribe(ctx context.Context, topic, groupID string) (<-chan domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, domain.ErrBrokerClosed
	}
	consumerKey := topic + ":" + groupID
	if _, exists := s.consumers[consumerKey]; exists {
		return nil, fmt.Errorf("consumer already exists for topic %s and group %s", topic, groupID)
	}

	opts, err := s.cfg.franzOptions()
	if err != nil {
		return nil, err
	}
	opts = append(opts,
		kgo.ConsumerGroup(groupID),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	consumer, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}
	s.consumers[consumerKey] = consumer

	out := make(chan domain.Message)
	go s.consumeLoop(ctx, consumerKey, consumer, out)
	return out, nil
}

func (s *FranzSubscriber) consumeLoop(ctx context.Context, key string, consumer *kgo.Client, out chan<- domain.Message) {
	defer close(out)
	defer s.release(key, consumer)

	for {
		fetches := consumer.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return
		}
		for _, fe := range fetches.Errors() {
			s.log.Warn("kafka fetch error", "topic", fe.Topic, "partition", fe.Partition, "error", fe.Err)
		}

		iter := fetches.RecordIter()
		for !iter.Done() {
			record := iter.Next()
			msg := domain.Message{
				Topic:     record.Topic,
				Key:       record.Key,
				Value:     record.Value,
				Partition: int(record.Partition),
				Offset:    record.Offset,
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *FranzSubscriber) release(key string, consumer *kgo.Client) {
	s.mu.Lock()
	owned := s.consumers[key] == consumer
	if owned {
		delete(s.consumers, key)
	}
	s.mu.Unlock()
	if owned {
		consumer.Close()
	}
}

func (s *FranzSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for key, c := range s.consumers {
		delete(s.consumers, key)
		c.Close()
	}
	return nil
}
