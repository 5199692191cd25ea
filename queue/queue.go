// Package queue defines the item transport between pipeline stages: a
// FIFO with a non-blocking pop and a blocking, bounded put. Queues are the
// sole path for item data between stages; coordination metadata travels
// through the state store instead.
package queue

import (
	"context"
)

// Queue moves items from one stage to the next.
type Queue interface {
	// TryPop removes and returns the oldest item. It never blocks; the
	// second result is false when the queue is empty.
	TryPop() (any, bool)
	// Push appends an item. Bounded implementations block when full until
	// space frees up or ctx is done.
	Push(ctx context.Context, item any) error
}

// Buffered is a channel-backed bounded Queue for stages running as
// goroutines in one process. A full queue exerts backpressure on the
// producing stage through the blocking Push.
type Buffered struct {
	items chan any
}

// NewBuffered creates a Buffered queue holding at most capacity items.
func NewBuffered(capacity int) *Buffered {
	if capacity <= 0 {
		capacity = 1
	}
	return &Buffered{
		items: make(chan any, capacity),
	}
}

// TryPop implements Queue.
func (q *Buffered) TryPop() (any, bool) {
	select {
	case item := <-q.items:
		return item, true
	default:
		return nil, false
	}
}

// Push implements Queue.
func (q *Buffered) Push(ctx context.Context, item any) error {
	select {
	case q.items <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len returns the number of buffered items.
func (q *Buffered) Len() int {
	return len(q.items)
}

var _ Queue = (*Buffered)(nil)
