// Package delivery moves committed invitations through the send pipeline:
// a FIFO queue of invitation IDs, a publisher that enqueues after commit,
// and a worker that drains the queue and talks to the email provider.
package delivery

import (
	"context"
	"errors"
	"time"
)

var ErrQueueClosed = errors.New("delivery: queue closed")

// Queue is a FIFO of invitation IDs. Implementations exist for in-process
// use and for Redis-backed multi-instance deployments.
type Queue interface {
	Enqueue(ctx context.Context, invitationID string) error

	// Dequeue blocks up to timeout for the next ID. ok is false when the
	// wait expired with nothing available.
	Dequeue(ctx context.Context, timeout time.Duration) (id string, ok bool, err error)

	Close() error
}
