package background

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-product-service/internal/usecase/messaging"
)

var ErrConsumerStopped = errors.New("consumer stopped")

type HealthSetter interface {
	SetServing(serving bool)
}

type BackgroundTasks struct {
	Consumer      *messaging.Consumer
	PingDB        func(ctx context.Context) error
	Health        HealthSetter
	ProbeInterval time.Duration
	Log           *slog.Logger
}

func NewBackgroundTasks(consumer *messaging.Consumer, pingDB func(ctx context.Context) error, health HealthSetter, log *slog.Logger) *BackgroundTasks {
	return &BackgroundTasks{
		Consumer:      consumer,
		PingDB:        pingDB,
		Health:        health,
		ProbeInterval: 5 * time.Second,
		Log:           log,
	}
}

// StartAll starts the consumer and the readiness probe. The consumer
// failing to subscribe is returned; everything else runs until ctx is done.
func (bt *BackgroundTasks) StartAll(ctx context.Context) error {
	if err := bt.Consumer.Start(ctx); err != nil {
		return err
	}
	bt.probe(ctx)
	go bt.startReadinessProbe(ctx)
	return nil
}

// Ready is the readiness check shared by HTTP and gRPC health.
func (bt *BackgroundTasks) Ready(ctx context.Context) error {
	if bt.Consumer.State() == messaging.StateStopped {
		return ErrConsumerStopped
	}
	if bt.PingDB != nil {
		if err := bt.PingDB(ctx); err != nil {
			return fmt.Errorf("product db: %w", err)
		}
	}
	return nil
}

func (bt *BackgroundTasks) startReadinessProbe(ctx context.Context) {
	ticker := time.NewTicker(bt.ProbeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			bt.probe(ctx)
		}
	}
}

func (bt *BackgroundTasks) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	err := bt.Ready(probeCtx)
	if err != nil {
		bt.Log.Warn("readiness check failed", "error", err)
	}
	if bt.Health != nil {
		bt.Health.SetServing(err == nil)
	}
}
