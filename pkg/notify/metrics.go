package notify

import "sync"

// MetricsRecorder defines metrics hooks for transition delivery.
type MetricsRecorder interface {
	RecordNotifySent(mode string)
	RecordNotifyFailed(mode string, reason string)
}

type nopMetrics struct{}

func (n *nopMetrics) RecordNotifySent(mode string)                  {}
func (n *nopMetrics) RecordNotifyFailed(mode string, reason string) {}

var (
	metricsMu sync.RWMutex
	metrics   MetricsRecorder = &nopMetrics{}
)

// SetMetricsRecorder sets the package-level notify metrics recorder.
func SetMetricsRecorder(recorder MetricsRecorder) {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	if recorder == nil {
		metrics = &nopMetrics{}
		return
	}
	metrics = recorder
}

func metricsRecorder() MetricsRecorder {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return metrics
}
