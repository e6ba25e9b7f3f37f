// Package notify fans phase transitions out to observers.
//
// Observers are things like renderers or dashboards that want to see every
// transition of a light without taking part in the light's own message queue.
// Two transports are provided:
//   - LocalBus: in-process, one buffered channel per subscriber
//   - RedisPublisher: Redis Pub/Sub, one channel per light
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNilTransition is returned when publishing a nil transition.
	ErrNilTransition = errors.New("transition cannot be nil")
	// ErrEmptyLightID is returned when a transition has no light id.
	ErrEmptyLightID = errors.New("transition light_id cannot be empty")
	// ErrClosed is returned when publishing to a closed publisher.
	ErrClosed = errors.New("publisher is closed")
)

// Transition describes one phase change of a light.
type Transition struct {
	// LightID identifies the light that changed.
	LightID string `json:"light_id"`

	// Phase is the phase the light changed to.
	Phase string `json:"phase"`

	// Seq is the 1-based number of the transition within the light's run.
	Seq uint64 `json:"seq"`

	// Elapsed is the time spent in the previous phase.
	Elapsed time.Duration `json:"elapsed"`

	// At is when the transition happened.
	At time.Time `json:"at"`
}

// Validate checks the fields every transport relies on.
func (t *Transition) Validate() error {
	if t == nil {
		return ErrNilTransition
	}
	if t.LightID == "" {
		return ErrEmptyLightID
	}
	return nil
}

// Encode returns the JSON wire form of the transition.
func (t *Transition) Encode() ([]byte, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transition: %w", err)
	}
	return data, nil
}

// Decode parses the JSON wire form of a transition.
func Decode(data []byte) (*Transition, error) {
	var t Transition
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transition: %w", err)
	}
	return &t, nil
}

// Publisher delivers transitions to observers.
type Publisher interface {
	// Publish delivers a transition. It must not block on slow observers.
	Publish(ctx context.Context, t *Transition) error

	// Close releases the publisher's resources.
	Close() error
}

// Nop is a Publisher that discards everything.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, *Transition) error { return nil }

// Close implements Publisher.
func (Nop) Close() error { return nil }
