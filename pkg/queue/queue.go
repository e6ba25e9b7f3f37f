// Package queue provides a blocking, unbounded FIFO message queue for handing
// values between goroutines.
//
// A MessageQueue is safe for any number of concurrent senders and receivers.
// Send never blocks beyond the short critical section that appends the value
// and wakes one receiver. Receive blocks until a value is available and
// removes it from the queue, so every sent value is delivered exactly once.
//
// Basic usage:
//
//	q := queue.New[string]()
//	go q.Send("hello")
//	msg := q.Receive()
package queue

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by ReceiveContext once the queue is closed and drained.
var ErrClosed = errors.New("message queue is closed")

// MetricsRecorder receives queue depth changes and dropped sends.
type MetricsRecorder interface {
	SetQueueDepth(queue string, depth int)
	RecordQueueDrop(queue string)
}

type nopMetrics struct{}

func (nopMetrics) SetQueueDepth(string, int) {}
func (nopMetrics) RecordQueueDrop(string)    {}

type options struct {
	name    string
	metrics MetricsRecorder
}

// Option configures a MessageQueue.
type Option func(*options)

// WithMetrics reports depth and drops for the queue under the given name.
func WithMetrics(name string, recorder MetricsRecorder) Option {
	return func(o *options) {
		o.name = name
		if recorder != nil {
			o.metrics = recorder
		}
	}
}

// MessageQueue is a blocking FIFO of T.
type MessageQueue[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []T
	closed bool

	name    string
	metrics MetricsRecorder
}

// New creates an empty queue.
func New[T any](opts ...Option) *MessageQueue[T] {
	o := options{name: "default", metrics: nopMetrics{}}
	for _, opt := range opts {
		opt(&o)
	}
	q := &MessageQueue[T]{
		name:    o.name,
		metrics: o.metrics,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Send appends v to the tail of the queue and wakes one blocked receiver.
// Values sent after Close are dropped.
func (q *MessageQueue[T]) Send(v T) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		q.metrics.RecordQueueDrop(q.name)
		return
	}
	q.items = append(q.items, v)
	q.metrics.SetQueueDepth(q.name, len(q.items))
	q.cond.Signal()
}

// Receive blocks until the queue holds a value and returns its head.
// On a closed and drained queue it returns the zero value of T.
func (q *MessageQueue[T]) Receive() T {
	v, _ := q.ReceiveContext(context.Background())
	return v
}

// ReceiveContext is Receive with cancellation. It returns ctx.Err() when the
// context ends before a value arrives, and ErrClosed once the queue is closed
// and empty. Buffered values are always preferred over either error.
func (q *MessageQueue[T]) ReceiveContext(ctx context.Context) (T, error) {
	var zero T

	q.mu.Lock()
	defer q.mu.Unlock()

	// Wake this waiter when ctx ends. The broadcast is taken under the lock so
	// it cannot slip in between the condition check and cond.Wait.
	if ctx.Done() != nil {
		stop := context.AfterFunc(ctx, func() {
			q.mu.Lock()
			defer q.mu.Unlock()
			q.cond.Broadcast()
		})
		defer stop()
	}

	for len(q.items) == 0 {
		if q.closed {
			return zero, ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		q.cond.Wait()
	}

	v := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	q.metrics.SetQueueDepth(q.name, len(q.items))
	return v, nil
}

// Len returns the number of values waiting to be received.
func (q *MessageQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops the queue from accepting values and wakes every receiver.
// Values already queued can still be received. Close is idempotent.
func (q *MessageQueue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.cond.Broadcast()
}

// Closed reports whether Close has been called.
func (q *MessageQueue[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
