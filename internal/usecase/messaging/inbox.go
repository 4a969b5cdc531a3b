package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/LavaJover/shvark-product-service/internal/domain"
	"github.com/LavaJover/shvark-product-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-product-service/internal/pkg/await"
)

// Inbox is the verification side of the delivered-message buffer: it polls,
// clears and waits on the same buffer instance the Consumer appends to.
type Inbox struct {
	buffer   domain.MessageBuffer
	metrics  *metrics.MessagingMetrics
	interval time.Duration
	timeout  time.Duration
}

func NewInbox(buffer domain.MessageBuffer, interval, timeout time.Duration, m *metrics.MessagingMetrics) *Inbox {
	return &Inbox{
		buffer:   buffer,
		metrics:  m,
		interval: interval,
		timeout:  timeout,
	}
}

func (i *Inbox) Size() int {
	return i.buffer.Size()
}

func (i *Inbox) PollOne() (string, bool) {
	payload, ok := i.buffer.PollOne()
	if ok {
		i.metrics.RecordPolled(i.buffer.Size())
	}
	return payload, ok
}

// Clear empties the buffer between independent runs.
func (i *Inbox) Clear() {
	i.buffer.Clear()
	i.metrics.RecordCleared()
}

func (i *Inbox) options(opts []await.Option) []await.Option {
	return append([]await.Option{await.WithInterval(i.interval), await.WithTimeout(i.timeout)}, opts...)
}

// AwaitSize blocks until the buffer holds at least n messages. On timeout
// the returned error satisfies errors.Is(err, await.ErrTimeout).
func (i *Inbox) AwaitSize(ctx context.Context, n int, opts ...await.Option) error {
	err := await.Until(ctx, func() bool { return i.buffer.Size() >= n }, i.options(opts)...)
	if errors.Is(err, await.ErrTimeout) {
		i.metrics.RecordAwaitTimeout()
	}
	return err
}

// AwaitMessages waits for n messages and polls them, oldest first.
func (i *Inbox) AwaitMessages(ctx context.Context, n int, opts ...await.Option) ([]string, error) {
	if err := i.AwaitSize(ctx, n, opts...); err != nil {
		return nil, err
	}
	out := make([]string, 0, n)
	for len(out) < n {
		payload, ok := i.PollOne()
		if !ok {
			break
		}
		out = append(out, payload)
	}
	return out, nil
}
