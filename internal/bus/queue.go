// Package bus carries dissonance events from the arbitrator to downstream
// consumers without blocking the feed goroutines.
package bus

import (
	"context"
	"errors"
	"sync/atomic"

	"main/internal/model"
)

var (
	ErrQueueFull   = errors.New("dissonance queue full")
	ErrQueueClosed = errors.New("dissonance queue closed")
)

// Queue is a bounded, non-blocking dissonance queue. It satisfies the
// arbiter's sink contract: a full queue drops the event and reports the
// error, it never backpressures the producer.
type Queue struct {
	ch     chan model.Dissonance
	closed uint32
}

// NewQueue allocates a queue with the given capacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{ch: make(chan model.Dissonance, capacity)}
}

// Publish enqueues an event without blocking.
func (q *Queue) Publish(event model.Dissonance) error {
	if atomic.LoadUint32(&q.closed) != 0 {
		return ErrQueueClosed
	}
	select {
	case q.ch <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops the queue from accepting new events.
func (q *Queue) Close() {
	if atomic.CompareAndSwapUint32(&q.closed, 0, 1) {
		close(q.ch)
	}
}

// Run consumes events until the context is done or the queue is closed.
func (q *Queue) Run(ctx context.Context, handler func(model.Dissonance)) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-q.ch:
			if !ok {
				return
			}
			handler(event)
		}
	}
}
