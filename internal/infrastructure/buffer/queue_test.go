package buffer

import (
	"fmt"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageQueue_FIFO(t *testing.T) {
	q := NewMessageQueue()
	q.Append("A")
	q.Append("B")

	require.Equal(t, 2, q.Size())

	first, ok := q.PollOne()
	require.True(t, ok)
	assert.Equal(t, "A", first)

	second, ok := q.PollOne()
	require.True(t, ok)
	assert.Equal(t, "B", second)

	_, ok = q.PollOne()
	assert.False(t, ok)
	assert.Equal(t, 0, q.Size())
}

func TestMessageQueue_ClearOnEmpty(t *testing.T) {
	q := NewMessageQueue()
	q.Clear()
	assert.Equal(t, 0, q.Size())
	q.Clear()
	assert.Equal(t, 0, q.Size())
}

func TestMessageQueue_ClearThenAppend(t *testing.T) {
	q := NewMessageQueue()
	q.Append("stale-1")
	q.Append("stale-2")
	q.Clear()
	require.Equal(t, 0, q.Size())

	q.Append("fresh")
	got, ok := q.PollOne()
	require.True(t, ok)
	assert.Equal(t, "fresh", got)
}

func TestMessageQueue_DuplicatesKept(t *testing.T) {
	q := NewMessageQueue()
	q.Append("dup")
	q.Append("dup")
	assert.Equal(t, []string{"dup", "dup"}, q.Snapshot())
}

func TestMessageQueue_CompactionPreservesOrder(t *testing.T) {
	q := NewMessageQueue()
	for i := 0; i < 500; i++ {
		q.Append(fmt.Sprintf("m-%d", i))
	}
	for i := 0; i < 300; i++ {
		got, ok := q.PollOne()
		require.True(t, ok)
		require.Equal(t, fmt.Sprintf("m-%d", i), got)
	}
	for i := 500; i < 600; i++ {
		q.Append(fmt.Sprintf("m-%d", i))
	}
	require.Equal(t, 300, q.Size())
	for i := 300; i < 600; i++ {
		got, ok := q.PollOne()
		require.True(t, ok)
		require.Equal(t, fmt.Sprintf("m-%d", i), got)
	}
}

func TestMessageQueue_WaitSignalledOnAppend(t *testing.T) {
	q := NewMessageQueue()
	ch := q.Wait()

	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Append("wake")
	}()

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("Wait channel was not closed by Append")
	}
	assert.Equal(t, 1, q.Size())
}

// Single writer, single reader: every appended payload is polled exactly
// once and in append order.
func TestMessageQueue_ConcurrentAppendAndPoll(t *testing.T) {
	const n = 5000
	q := NewMessageQueue()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			q.Append(fmt.Sprintf("%d", i))
		}
	}()

	received := make([]string, 0, n)
	deadline := time.Now().Add(5 * time.Second)
	for len(received) < n && time.Now().Before(deadline) {
		if p, ok := q.PollOne(); ok {
			received = append(received, p)
			continue
		}
		runtime.Gosched()
	}
	wg.Wait()

	require.Len(t, received, n)
	for i, p := range received {
		require.Equal(t, fmt.Sprintf("%d", i), p)
	}
}
