package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// initLightMetrics initializes per-light phase and waiter metrics.
func (m *Manager) initLightMetrics(cfg Config) {
	m.transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trafficlight_transitions_total",
			Help: "Total number of phase transitions by light and new phase",
		},
		[]string{"light", "phase"},
	)

	m.phase = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trafficlight_phase",
			Help: "Current phase of the light (0 red, 1 green)",
		},
		[]string{"light"},
	)

	m.cycleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trafficlight_cycle_duration_seconds",
			Help:    "Time spent in a phase before toggling",
			Buckets: cfg.CycleDurationBuckets,
		},
		[]string{"light"},
	)

	m.waiters = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trafficlight_waiters",
			Help: "Current number of callers blocked waiting for green",
		},
		[]string{"light"},
	)

	m.waitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trafficlight_wait_duration_seconds",
			Help:    "Time callers spent waiting for green by result",
			Buckets: cfg.WaitDurationBuckets,
		},
		[]string{"light", "result"},
	)

	m.registry.MustRegister(m.transitions)
	m.registry.MustRegister(m.phase)
	m.registry.MustRegister(m.cycleDuration)
	m.registry.MustRegister(m.waiters)
	m.registry.MustRegister(m.waitDuration)
}

// RecordPhase sets the phase gauge of a light without counting a transition.
func (m *Manager) RecordPhase(light string, phase string) {
	if !m.enabled {
		return
	}
	m.phase.WithLabelValues(light).Set(phaseValue(phase))
}

// RecordTransition records a light entering phase after elapsed.
func (m *Manager) RecordTransition(light string, phase string, elapsed time.Duration) {
	if !m.enabled {
		return
	}
	m.transitions.WithLabelValues(light, phase).Inc()
	m.cycleDuration.WithLabelValues(light).Observe(elapsed.Seconds())
	m.phase.WithLabelValues(light).Set(phaseValue(phase))
}

func phaseValue(phase string) float64 {
	if phase == "green" {
		return 1
	}
	return 0
}

// IncWaiters increments the blocked waiter count of a light.
func (m *Manager) IncWaiters(light string) {
	if !m.enabled {
		return
	}
	m.waiters.WithLabelValues(light).Inc()
}

// DecWaiters decrements the blocked waiter count of a light.
func (m *Manager) DecWaiters(light string) {
	if !m.enabled {
		return
	}
	m.waiters.WithLabelValues(light).Dec()
}

// RecordWait records how a wait for green ended.
func (m *Manager) RecordWait(light string, result string, duration time.Duration) {
	if !m.enabled {
		return
	}
	m.waitDuration.WithLabelValues(light, result).Observe(duration.Seconds())
}
