// Package buffer holds the delivered-message queue shared between the
// consumer and whoever verifies what it received.
package buffer

import "sync"

// compactThreshold is the number of polled slots tolerated at the head of
// the backing slice before it is copied down.
const compactThreshold = 64

// MessageQueue is an unbounded FIFO of payloads. Append never blocks beyond
// the internal lock.
type MessageQueue struct {
	mu     sync.Mutex
	items  []string
	head   int
	notify chan struct{}
}

func NewMessageQueue() *MessageQueue {
	return &MessageQueue{
		notify: make(chan struct{}),
	}
}

func (q *MessageQueue) Append(payload string) {
	q.mu.Lock()
	q.items = append(q.items, payload)
	// wake everyone waiting on the previous notify channel
	close(q.notify)
	q.notify = make(chan struct{})
	q.mu.Unlock()
}

func (q *MessageQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

func (q *MessageQueue) PollOne() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head == len(q.items) {
		return "", false
	}
	payload := q.items[q.head]
	q.items[q.head] = ""
	q.head++

	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	} else if q.head >= compactThreshold && q.head*2 >= len(q.items) {
		n := copy(q.items, q.items[q.head:])
		q.items = q.items[:n]
		q.head = 0
	}
	return payload, true
}

func (q *MessageQueue) Clear() {
	q.mu.Lock()
	q.items = nil
	q.head = 0
	q.mu.Unlock()
}

// Snapshot returns a copy of the buffered payloads, oldest first, without
// consuming them.
func (q *MessageQueue) Snapshot() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, len(q.items)-q.head)
	copy(out, q.items[q.head:])
	return out
}

// Wait returns a channel that is closed by the next Append.
func (q *MessageQueue) Wait() <-chan struct{} {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.notify
}
