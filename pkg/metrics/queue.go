package metrics

import "github.com/prometheus/client_golang/prometheus"

func (m *Manager) initQueueMetrics() {
	m.queueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "message_queue_depth",
			Help: "Current number of buffered messages",
		},
		[]string{"queue"},
	)

	m.queueDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "message_queue_dropped_total",
			Help: "Total number of messages sent to a closed queue",
		},
		[]string{"queue"},
	)

	m.registry.MustRegister(m.queueDepth)
	m.registry.MustRegister(m.queueDropped)
}

// SetQueueDepth sets the current depth of a queue.
func (m *Manager) SetQueueDepth(queue string, depth int) {
	if !m.enabled {
		return
	}
	m.queueDepth.WithLabelValues(queue).Set(float64(depth))
}

// RecordQueueDrop records a message discarded by a closed queue.
func (m *Manager) RecordQueueDrop(queue string) {
	if !m.enabled {
		return
	}
	m.queueDropped.WithLabelValues(queue).Inc()
}
