package light

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const (
	DefaultMinCycle = 4000 * time.Millisecond
	DefaultMaxCycle = 6000 * time.Millisecond
	DefaultThrottle = 1 * time.Millisecond
)

// Timing controls how long a light stays in each phase.
type Timing struct {
	// MinCycle is the shortest time spent in a phase.
	MinCycle time.Duration
	// MaxCycle is the longest time spent in a phase.
	MaxCycle time.Duration
	// Throttle is the pause between publishing a phase and starting the next cycle.
	Throttle time.Duration
}

// DefaultTiming returns 4-6 second phases with a 1ms throttle.
func DefaultTiming() Timing {
	return Timing{
		MinCycle: DefaultMinCycle,
		MaxCycle: DefaultMaxCycle,
		Throttle: DefaultThrottle,
	}
}

// Validate rejects non-positive durations and an inverted range.
func (t Timing) Validate() error {
	if t.MinCycle <= 0 || t.MaxCycle <= 0 || t.Throttle <= 0 {
		return fmt.Errorf("%w: durations must be positive (min=%s max=%s throttle=%s)",
			ErrInvalidTiming, t.MinCycle, t.MaxCycle, t.Throttle)
	}
	if t.MinCycle > t.MaxCycle {
		return fmt.Errorf("%w: min cycle %s exceeds max cycle %s", ErrInvalidTiming, t.MinCycle, t.MaxCycle)
	}
	return nil
}

// draw picks a phase duration uniformly from [MinCycle, MaxCycle] in whole
// milliseconds. Ranges narrower than a millisecond fall back to nanoseconds.
func (t Timing) draw(r *rand.Rand) time.Duration {
	span := t.MaxCycle - t.MinCycle
	if span <= 0 {
		return t.MinCycle
	}
	if span < time.Millisecond {
		return t.MinCycle + time.Duration(r.Int64N(int64(span)+1))
	}
	steps := int64(span / time.Millisecond)
	return t.MinCycle + time.Duration(r.Int64N(steps+1))*time.Millisecond
}
