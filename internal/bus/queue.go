// Package bus decouples the live-feed callback from the strategy loop with a
// bounded, non-blocking tick queue. The core pipeline itself is synchronous;
// the queue exists only at the transport boundary, and a full queue drops the
// tick rather than stalling the feed.
package bus

import (
	"context"
	"errors"
	"sync/atomic"

	"main/internal/schema"
)

var (
	ErrQueueFull   = errors.New("tick queue full")
	ErrQueueClosed = errors.New("tick queue closed")
)

// Tick is one snapshot crossing the feed boundary.
type Tick struct {
	Book   schema.TopOfBook
	TsRecv int64
}

// Queue is a bounded, non-blocking tick queue.
type Queue struct {
	ch     chan Tick
	closed uint32
}

// NewQueue allocates a queue with the given capacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{ch: make(chan Tick, capacity)}
}

// TryPublish enqueues a tick without blocking.
func (q *Queue) TryPublish(t Tick) error {
	if atomic.LoadUint32(&q.closed) != 0 {
		return ErrQueueClosed
	}
	select {
	case q.ch <- t:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops the queue from accepting new ticks.
func (q *Queue) Close() {
	if atomic.CompareAndSwapUint32(&q.closed, 0, 1) {
		close(q.ch)
	}
}

// Run consumes ticks until the context is done or the queue is closed.
func (q *Queue) Run(ctx context.Context, handler func(Tick)) {
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-q.ch:
			if !ok {
				return
			}
			handler(t)
		}
	}
}
