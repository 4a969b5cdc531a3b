package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/LavaJover/shvark-product-service/internal/domain"
	"github.com/LavaJover/shvark-product-service/internal/infrastructure/metrics"
)

type ConsumerState int32

const (
	StateIdle ConsumerState = iota
	StateHandling
	StateStopped
)

func (s ConsumerState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateHandling:
		return "handling"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("ConsumerState(%d)", int32(s))
	}
}

// Consumer listens on one (topic, group) pair and appends every delivered
// payload to the buffer, one message at a time and in delivery order.
// Redelivered messages are appended again.
type Consumer struct {
	subscriber domain.SubscriberPort
	buffer     domain.MessageBuffer
	topic      string
	groupID    string
	log        *slog.Logger
	metrics    *metrics.MessagingMetrics

	state   atomic.Int32
	started atomic.Bool
	done    chan struct{}
	once    sync.Once
}

func NewConsumer(subscriber domain.SubscriberPort, buffer domain.MessageBuffer, topic, groupID string, log *slog.Logger, m *metrics.MessagingMetrics) *Consumer {
	c := &Consumer{
		subscriber: subscriber,
		buffer:     buffer,
		topic:      topic,
		groupID:    groupID,
		log:        log,
		metrics:    m,
		done:       make(chan struct{}),
	}
	c.state.Store(int32(StateIdle))
	return c
}

// Start subscribes and runs the listener in its own goroutine until ctx is
// done or the subscription ends. It can be called once.
func (c *Consumer) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return domain.ErrConsumerStarted
	}

	deliveries, err := c.subscriber.Subscribe(ctx, c.topic, c.groupID)
	if err != nil {
		c.stop()
		return fmt.Errorf("subscribe to %s as %s: %w", c.topic, c.groupID, err)
	}

	c.metrics.SetConsumerRunning(c.topic, c.groupID, true)
	c.log.Info("consumer started", "topic", c.topic, "group_id", c.groupID)

	go c.run(ctx, deliveries)
	return nil
}

func (c *Consumer) run(ctx context.Context, deliveries <-chan domain.Message) {
	defer c.stop()
	for {
		select {
		case msg, ok := <-deliveries:
			if !ok {
				c.log.Info("consumer subscription closed", "topic", c.topic, "group_id", c.groupID)
				return
			}
			c.Handle(msg)
		case <-ctx.Done():
			return
		}
	}
}

// Handle appends msg to the buffer. The append has completed when Handle
// returns.
func (c *Consumer) Handle(msg domain.Message) {
	c.state.Store(int32(StateHandling))
	defer c.state.CompareAndSwap(int32(StateHandling), int32(StateIdle))

	payload := string(msg.Value)
	c.buffer.Append(payload)

	c.metrics.RecordConsumed(c.topic, c.groupID, c.buffer.Size())
	c.log.Info("consumed message",
		"payload", payload,
		"topic", msg.Topic,
		"partition", msg.Partition,
		"offset", msg.Offset,
	)
}

func (c *Consumer) stop() {
	c.once.Do(func() {
		c.state.Store(int32(StateStopped))
		c.metrics.SetConsumerRunning(c.topic, c.groupID, false)
		close(c.done)
	})
}

func (c *Consumer) State() ConsumerState {
	return ConsumerState(c.state.Load())
}

// Done is closed once the consumer has stopped.
func (c *Consumer) Done() <-chan struct{} {
	return c.done
}

func (c *Consumer) Topic() string   { return c.topic }
func (c *Consumer) GroupID() string { return c.groupID }
