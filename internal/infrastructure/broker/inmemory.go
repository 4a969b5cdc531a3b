// Package broker provides an in-process message channel with Kafka-like
// consumer group semantics: every group reads the whole topic log from the
// beginning and advances its own cursor.
package broker

import (
	"context"
	"fmt"
	"sync"

	"github.com/LavaJover/shvark-product-service/internal/domain"
)

type topicLog struct {
	messages []domain.Message
	groups   map[string]*groupCursor
	notify   chan struct{}
}

type groupCursor struct {
	next   int
	active bool
}

// InMemoryBroker implements both domain.PublisherPort and domain.SubscriberPort.
// Publish never waits for subscribers.
type InMemoryBroker struct {
	mu     sync.Mutex
	topics map[string]*topicLog
	closed bool
	done   chan struct{}
}

func NewInMemoryBroker() *InMemoryBroker {
	return &InMemoryBroker{
		topics: make(map[string]*topicLog),
		done:   make(chan struct{}),
	}
}

// topic must be called with b.mu held.
func (b *InMemoryBroker) topic(name string) *topicLog {
	t, ok := b.topics[name]
	if !ok {
		t = &topicLog{
			groups: make(map[string]*groupCursor),
			notify: make(chan struct{}),
		}
		b.topics[name] = t
	}
	return t
}

func (b *InMemoryBroker) Publish(ctx context.Context, topic string, msgs ...domain.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return domain.ErrBrokerClosed
	}
	t := b.topic(topic)
	for _, m := range msgs {
		m.Topic = topic
		m.Offset = int64(len(t.messages))
		t.messages = append(t.messages, m)
	}
	if len(msgs) > 0 {
		close(t.notify)
		t.notify = make(chan struct{})
	}
	return nil
}

// Subscribe attaches the single active member of groupID to topic. A group
// that was subscribed before resumes after the last delivered message.
func (b *InMemoryBroker) Subscribe(ctx context.Context, topic, groupID string) (<-chan domain.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, domain.ErrBrokerClosed
	}
	t := b.topic(topic)
	cursor, ok := t.groups[groupID]
	if !ok {
		cursor = &groupCursor{}
		t.groups[groupID] = cursor
	}
	if cursor.active {
		return nil, fmt.Errorf("consumer already exists for topic %s and group %s", topic, groupID)
	}
	cursor.active = true

	out := make(chan domain.Message)
	go b.deliver(ctx, t, cursor, out)
	return out, nil
}

func (b *InMemoryBroker) deliver(ctx context.Context, t *topicLog, cursor *groupCursor, out chan<- domain.Message) {
	defer close(out)
	defer func() {
		b.mu.Lock()
		cursor.active = false
		b.mu.Unlock()
	}()

	for {
		b.mu.Lock()
		if b.closed {
			b.mu.Unlock()
			return
		}
		if cursor.next < len(t.messages) {
			msg := t.messages[cursor.next]
			b.mu.Unlock()

			select {
			case out <- msg:
				b.mu.Lock()
				cursor.next++
				b.mu.Unlock()
			case <-ctx.Done():
				return
			case <-b.done:
				return
			}
			continue
		}
		wait := t.notify
		b.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return
		case <-b.done:
			return
		}
	}
}

// Len returns the number of messages ever published to topic.
func (b *InMemoryBroker) Len(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t, ok := b.topics[topic]; ok {
		return len(t.messages)
	}
	return 0
}

// Close stops all deliveries and closes subscriber channels. Later Publish
// and Subscribe calls fail with domain.ErrBrokerClosed.
func (b *InMemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	close(b.done)
	return nil
}
