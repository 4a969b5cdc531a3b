package setup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/LavaJover/shvark-product-service/internal/config"
	"github.com/LavaJover/shvark-product-service/internal/domain"
	"github.com/LavaJover/shvark-product-service/internal/infrastructure/broker"
	"github.com/LavaJover/shvark-product-service/internal/infrastructure/kafka"
	"github.com/google/uuid"
)

func clientConfig(cfg config.KafkaService) kafka.ClientConfig {
	return kafka.ClientConfig{
		Brokers:      cfg.BrokerAddrs(),
		ClientID:     fmt.Sprintf("product-service-%s", uuid.NewString()),
		Username:     cfg.Username,
		Password:     cfg.Password,
		Mechanism:    cfg.Mechanism,
		TLSEnabled:   cfg.TLSEnabled,
		WriteTimeout: cfg.WriteTimeout,
	}
}

// NewMessageChannel builds the publisher and subscriber for the configured
// driver. The memory driver returns the same broker for both sides.
func NewMessageChannel(cfg config.KafkaService, log *slog.Logger) (domain.PublisherPort, domain.SubscriberPort, error) {
	clientCfg := clientConfig(cfg)

	switch cfg.Driver {
	case config.DriverMemory:
		b := broker.NewInMemoryBroker()
		return b, b, nil

	case config.DriverKafkaGo:
		pub, err := kafka.NewDefaultKafkaPublisher(clientCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("kafka publisher: %w", err)
		}
		sub, err := kafka.NewDefaultKafkaSubscriber(clientCfg, log)
		if err != nil {
			_ = pub.Close()
			return nil, nil, fmt.Errorf("kafka subscriber: %w", err)
		}
		return pub, sub, nil

	case config.DriverFranzGo:
		pub, err := kafka.NewFranzPublisher(clientCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("franz publisher: %w", err)
		}
		sub, err := kafka.NewFranzSubscriber(clientCfg, log)
		if err != nil {
			_ = pub.Close()
			return nil, nil, fmt.Errorf("franz subscriber: %w", err)
		}
		return pub, sub, nil

	default:
		return nil, nil, fmt.Errorf("unknown kafka driver %q", cfg.Driver)
	}
}

// EnsureTopic creates the configured topic on a real cluster. It is a no-op
// for the memory driver or when disabled.
func EnsureTopic(ctx context.Context, cfg config.KafkaService) error {
	if cfg.Driver == config.DriverMemory || cfg.SkipEnsureTopic {
		return nil
	}
	return kafka.EnsureTopic(ctx, clientConfig(cfg), cfg.Topic, 1, 1)
}
