package messaging

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/LavaJover/shvark-product-service/internal/domain"
	"github.com/LavaJover/shvark-product-service/internal/infrastructure/broker"
	"github.com/LavaJover/shvark-product-service/internal/infrastructure/buffer"
	"github.com/LavaJover/shvark-product-service/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-product-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-product-service/internal/pkg/await"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testTopic = "my-test-topic"
	testGroup = "my-group-id"
)

type harness struct {
	broker   *broker.InMemoryBroker
	queue    *buffer.MessageQueue
	metrics  *metrics.MessagingMetrics
	producer *Producer
	consumer *Consumer
	inbox    *Inbox
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	b := broker.NewInMemoryBroker()
	t.Cleanup(func() { _ = b.Close() })

	log := logger.Discard()
	m := metrics.NewMessagingMetrics(prometheus.NewRegistry())
	q := buffer.NewMessageQueue()

	h := &harness{
		broker:   b,
		queue:    q,
		metrics:  m,
		producer: NewProducer(b, testTopic, log, m),
		consumer: NewConsumer(b, q, testTopic, testGroup, log, m),
		inbox:    NewInbox(q, 100*time.Millisecond, 10*time.Second, m),
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, h.consumer.Start(ctx))

	// reset the shared buffer between runs
	h.inbox.Clear()
	return h
}

func TestSendAndReceive(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	testMessage := "Hello from Kafka Testcontainers!"

	require.NoError(t, h.producer.SendMessage(ctx, testMessage))

	require.NoError(t, h.inbox.AwaitSize(ctx, 1,
		await.WithTimeout(10*time.Second),
		await.WithInterval(100*time.Millisecond),
	))
	got, ok := h.inbox.PollOne()
	require.True(t, ok)
	assert.Equal(t, testMessage, got)
	assert.Equal(t, 0, h.inbox.Size())
}

func TestClearOnEmptyBuffer(t *testing.T) {
	h := newHarness(t)
	h.inbox.Clear()
	assert.Equal(t, 0, h.inbox.Size())
}

func TestOrderPreservedForSequentialSends(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.producer.SendMessage(ctx, "A"))
	require.NoError(t, h.producer.SendMessage(ctx, "B"))

	got, err := h.inbox.AwaitMessages(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, got)
}

func TestAwaitTimesOutWhenNothingSent(t *testing.T) {
	h := newHarness(t)

	start := time.Now()
	err := h.inbox.AwaitSize(context.Background(), 1,
		await.WithTimeout(200*time.Millisecond),
		await.WithInterval(20*time.Millisecond),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, await.ErrTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.AwaitTimeoutsTotal))
}

func TestNoLossForManyMessages(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	const n = 250
	for i := 0; i < n; i++ {
		require.NoError(t, h.producer.SendMessage(ctx, fmt.Sprintf("msg-%03d", i)))
	}

	got, err := h.inbox.AwaitMessages(ctx, n)
	require.NoError(t, err)
	require.Len(t, got, n)
	for i, payload := range got {
		assert.Equal(t, fmt.Sprintf("msg-%03d", i), payload)
	}
	assert.Equal(t, float64(n), testutil.ToFloat64(h.metrics.MessagesProducedTotal.WithLabelValues(testTopic)))
	assert.Equal(t, float64(n), testutil.ToFloat64(h.metrics.MessagesConsumedTotal.WithLabelValues(testTopic, testGroup)))
}

func TestClearDropsOnlyEarlierMessages(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.producer.SendMessage(ctx, "old"))
	require.NoError(t, h.inbox.AwaitSize(ctx, 1))
	h.inbox.Clear()
	require.Equal(t, 0, h.inbox.Size())

	require.NoError(t, h.producer.SendMessage(ctx, "new"))
	got, err := h.inbox.AwaitMessages(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, got)
}

func TestSendMessage_SubmissionFailure(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.broker.Close())

	err := h.producer.SendMessage(context.Background(), "lost")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSubmissionFailed)
	assert.ErrorIs(t, err, domain.ErrBrokerClosed)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.MessagesProduceErrorsTotal.WithLabelValues(testTopic)))
}

type failingPublisher struct{ err error }

func (f failingPublisher) Publish(context.Context, string, ...domain.Message) error { return f.err }
func (f failingPublisher) Close() error                                             { return nil }

func TestSendMessage_PropagatesCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	p := NewProducer(failingPublisher{err: cause}, testTopic, logger.Discard(), nil)

	err := p.SendMessage(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrSubmissionFailed)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, testTopic, p.Topic())
}

func TestConsumer_DuplicateDeliveriesAppended(t *testing.T) {
	q := buffer.NewMessageQueue()
	c := NewConsumer(nil, q, testTopic, testGroup, logger.Discard(), nil)

	msg := domain.Message{Topic: testTopic, Value: []byte("again")}
	c.Handle(msg)
	c.Handle(msg)

	assert.Equal(t, []string{"again", "again"}, q.Snapshot())
	assert.Equal(t, StateIdle, c.State())
}

func TestConsumer_StartTwice(t *testing.T) {
	h := newHarness(t)
	err := h.consumer.Start(context.Background())
	assert.ErrorIs(t, err, domain.ErrConsumerStarted)
}

func TestConsumer_StopsWithContext(t *testing.T) {
	b := broker.NewInMemoryBroker()
	defer b.Close()
	c := NewConsumer(b, buffer.NewMessageQueue(), testTopic, testGroup, logger.Discard(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, c.Start(ctx))
	assert.Equal(t, StateIdle, c.State())

	cancel()
	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
	assert.Equal(t, StateStopped, c.State())
}

func TestConsumer_SubscribeFailure(t *testing.T) {
	b := broker.NewInMemoryBroker()
	require.NoError(t, b.Close())
	c := NewConsumer(b, buffer.NewMessageQueue(), testTopic, testGroup, logger.Discard(), nil)

	err := c.Start(context.Background())
	require.ErrorIs(t, err, domain.ErrBrokerClosed)
	assert.Equal(t, StateStopped, c.State())
}

func TestConsumer_StopsWhenBrokerCloses(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.broker.Close())

	select {
	case <-h.consumer.Done():
	case <-time.After(time.Second):
		t.Fatal("consumer did not observe closed subscription")
	}
}

func TestConsumerState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "handling", StateHandling.String())
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "ConsumerState(9)", ConsumerState(9).String())
}
