package domain

import "context"

// Message is a payload travelling through the message channel.
// Key is optional; the product service publishes without one.
type Message struct {
	Topic     string
	Key       []byte
	Value     []byte
	Partition int
	Offset    int64
}

type PublisherPort interface {
	Publish(ctx context.Context, topic string, msgs ...Message) error
	Close() error
}

// SubscriberPort delivers messages of topic to one member of groupID.
// The returned channel is closed when ctx is done or the subscription fails.
type SubscriberPort interface {
	Subscribe(ctx context.Context, topic, groupID string) (<-chan Message, error)
	Close() error
}
