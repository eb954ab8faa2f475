package delivery

import (
	"context"
	"sync"
	"time"
)

const memoryQueueCapacity = 1024

// MemoryQueue is a channel-backed queue for single-instance deployments
// and tests. Close signals through a separate done channel so producers
// blocked on a full queue are released immediately.
type MemoryQueue struct {
	ch     chan string
	done   chan struct{}
	mu     sync.Mutex
	closed bool
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		ch:   make(chan string, memoryQueueCapacity),
		done: make(chan struct{}),
	}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, invitationID string) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}

	select {
	case q.ch <- invitationID:
		return nil
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context, timeout time.Duration) (string, bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case id := <-q.ch:
		return id, true, nil
	case <-q.done:
		return "", false, ErrQueueClosed
	case <-timer.C:
		return "", false, nil
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
}

func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.done)
	}
	return nil
}
