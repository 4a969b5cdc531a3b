package setup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/LavaJover/shvark-product-service/internal/config"
	"github.com/LavaJover/shvark-product-service/internal/domain"
	"github.com/LavaJover/shvark-product-service/internal/infrastructure/buffer"
	"github.com/LavaJover/shvark-product-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-product-service/internal/infrastructure/migrate"
	"github.com/LavaJover/shvark-product-service/internal/infrastructure/postgres"
	"github.com/LavaJover/shvark-product-service/internal/infrastructure/postgres/repository"
	"github.com/LavaJover/shvark-product-service/internal/usecase"
	"github.com/LavaJover/shvark-product-service/internal/usecase/messaging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
)

// Messaging groups the producer, the consumer and the buffer they share.
type Messaging struct {
	Publisher  domain.PublisherPort
	Subscriber domain.SubscriberPort
	Buffer     *buffer.MessageQueue
	Producer   *messaging.Producer
	Consumer   *messaging.Consumer
	Inbox      *messaging.Inbox
	Metrics    *metrics.MessagingMetrics
}

func (m *Messaging) Close() error {
	return errors.Join(m.Subscriber.Close(), m.Publisher.Close())
}

// InitMessaging wires one buffer instance into both the consumer and the
// inbox.
func InitMessaging(cfg *config.ProductConfig, log *slog.Logger, reg prometheus.Registerer) (*Messaging, error) {
	pub, sub, err := NewMessageChannel(cfg.KafkaService, log)
	if err != nil {
		return nil, err
	}

	m := metrics.NewMessagingMetrics(reg)
	queue := buffer.NewMessageQueue()
	topic, group := cfg.KafkaService.Topic, cfg.KafkaService.GroupID

	return &Messaging{
		Publisher:  pub,
		Subscriber: sub,
		Buffer:     queue,
		Producer:   messaging.NewProducer(pub, topic, log.With("component", "producer"), m),
		Consumer:   messaging.NewConsumer(sub, queue, topic, group, log.With("component", "consumer"), m),
		Inbox:      messaging.NewInbox(queue, cfg.Await.Interval, cfg.Await.Timeout, m),
		Metrics:    m,
	}, nil
}

type Dependencies struct {
	Config         *config.ProductConfig
	Log            *slog.Logger
	DB             *gorm.DB
	Registry       *prometheus.Registry
	Messaging      *Messaging
	ProductUsecase usecase.ProductUsecase
}

func InitializeDependencies(ctx context.Context, cfg *config.ProductConfig, log *slog.Logger) (*Dependencies, error) {
	db, err := postgres.InitDB(cfg.ProductDB.Dsn)
	if err != nil {
		return nil, fmt.Errorf("product db: %w", err)
	}
	if !cfg.ProductDB.SkipMigrations {
		if err := migrate.RunMigrations(db, log); err != nil {
			closeDB(db)
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}

	if err := EnsureTopic(ctx, cfg.KafkaService); err != nil {
		log.Warn("failed to ensure topic, relying on auto-creation", "topic", cfg.KafkaService.Topic, "error", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	msg, err := InitMessaging(cfg, log, reg)
	if err != nil {
		closeDB(db)
		return nil, fmt.Errorf("messaging: %w", err)
	}

	productRepo := repository.NewDefaultProductRepository(db)

	return &Dependencies{
		Config:         cfg,
		Log:            log,
		DB:             db,
		Registry:       reg,
		Messaging:      msg,
		ProductUsecase: usecase.NewDefaultProductUsecase(productRepo, metrics.NewProductMetrics(reg)),
	}, nil
}

// PingDB reports whether the product store answers.
func (d *Dependencies) PingDB(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *Dependencies) Close() error {
	var errs []error
	errs = append(errs, d.Messaging.Close())
	if sqlDB, err := d.DB.DB(); err == nil {
		errs = append(errs, sqlDB.Close())
	}
	return errors.Join(errs...)
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
