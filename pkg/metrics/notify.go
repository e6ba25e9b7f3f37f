package metrics

import "github.com/prometheus/client_golang/prometheus"

func (m *Manager) initNotifyMetrics() {
	m.notifySent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trafficlight_notify_sent_total",
			Help: "Total number of transitions published to observers",
		},
		[]string{"mode"},
	)

	m.notifyFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trafficlight_notify_failures_total",
			Help: "Total number of transition publish failures",
		},
		[]string{"mode", "reason"},
	)

	m.registry.MustRegister(m.notifySent)
	m.registry.MustRegister(m.notifyFailed)
}

// RecordNotifySent records a published transition.
func (m *Manager) RecordNotifySent(mode string) {
	if !m.enabled {
		return
	}
	m.notifySent.WithLabelValues(mode).Inc()
}

// RecordNotifyFailed records a failed publish.
func (m *Manager) RecordNotifyFailed(mode string, reason string) {
	if !m.enabled {
		return
	}
	m.notifyFailed.WithLabelValues(mode, reason).Inc()
}
