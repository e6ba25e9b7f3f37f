package light

import "time"

// MetricsRecorder receives light lifecycle events. Recorders that also
// implement queue.MetricsRecorder get the light's queue depth as well.
type MetricsRecorder interface {
	// RecordPhase reports the phase a light holds when it starts cycling.
	RecordPhase(light string, phase string)
	RecordTransition(light string, phase string, elapsed time.Duration)
	IncWaiters(light string)
	DecWaiters(light string)
	RecordWait(light string, result string, duration time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) RecordPhase(string, string)                     {}
func (nopMetrics) RecordTransition(string, string, time.Duration) {}
func (nopMetrics) IncWaiters(string)                              {}
func (nopMetrics) DecWaiters(string)                              {}
func (nopMetrics) RecordWait(string, string, time.Duration)       {}
