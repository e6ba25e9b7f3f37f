package light

import "errors"

var (
	// ErrAlreadyStarted is returned when Simulate is called on a light that is
	// already cycling or has cycled before.
	ErrAlreadyStarted = errors.New("traffic light already started")

	// ErrStopped is returned to waiters once the light has stopped cycling and
	// no messages remain.
	ErrStopped = errors.New("traffic light stopped")

	// ErrInvalidTiming is returned when a light's timing cannot drive a cycle.
	ErrInvalidTiming = errors.New("invalid traffic light timing")
)

// errStopRequested is the cancellation cause used by Cycle.Stop.
var errStopRequested = errors.New("stop requested")
