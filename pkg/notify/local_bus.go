package notify

import (
	"context"
	"fmt"
	"sync"
)

// LocalBus is an in-memory Publisher that copies every transition to all
// subscribers.
type LocalBus struct {
	mu          sync.RWMutex
	subscribers map[string]chan *Transition
	bufferSize  int
	closed      bool
}

// NewLocalBus creates a LocalBus whose subscriber channels hold bufferSize
// transitions.
func NewLocalBus(bufferSize int) *LocalBus {
	if bufferSize <= 0 {
		bufferSize = 16
	}
	return &LocalBus{
		subscribers: make(map[string]chan *Transition),
		bufferSize:  bufferSize,
	}
}

// Publish hands t to every subscriber without blocking. A subscriber whose
// buffer is full loses its oldest pending transition.
func (b *LocalBus) Publish(_ context.Context, t *Transition) error {
	if err := t.Validate(); err != nil {
		metricsRecorder().RecordNotifyFailed("local", "invalid")
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		metricsRecorder().RecordNotifyFailed("local", "closed")
		return ErrClosed
	}

	for _, ch := range b.subscribers {
		select {
		case ch <- t:
			metricsRecorder().RecordNotifySent("local")
			continue
		default:
		}

		metricsRecorder().RecordNotifyFailed("local", "buffer_full_drop")
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- t:
			metricsRecorder().RecordNotifySent("local")
		default:
			metricsRecorder().RecordNotifyFailed("local", "buffer_still_full")
		}
	}
	return nil
}

// Subscribe registers a new subscriber and returns its channel.
func (b *LocalBus) Subscribe(id string) (<-chan *Transition, error) {
	if id == "" {
		return nil, fmt.Errorf("subscriber id cannot be empty")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}
	if _, exists := b.subscribers[id]; exists {
		return nil, fmt.Errorf("subscriber %s already registered", id)
	}

	ch := make(chan *Transition, b.bufferSize)
	b.subscribers[id] = ch
	return ch, nil
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *LocalBus) Unsubscribe(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.subscribers[id]
	if !ok {
		return nil
	}
	close(ch)
	delete(b.subscribers, id)
	return nil
}

// Close shuts the bus down and closes every subscriber channel.
func (b *LocalBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
	return nil
}

// Healthy reports whether the bus is still open.
func (b *LocalBus) Healthy() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return !b.closed
}
