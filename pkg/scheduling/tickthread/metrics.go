package tickthread

import (
	"time"

	"github.com/vnykmshr/tickflow/pkg/metrics"
)

type threadMetrics struct {
	registry *metrics.Registry
	name     string
}

func newThreadMetrics(reg *metrics.Registry, name string) *threadMetrics {
	if reg == nil {
		return nil
	}
	return &threadMetrics{registry: reg, name: name}
}

func (m *threadMetrics) pass(d time.Duration, live int) {
	if m == nil {
		return
	}
	m.registry.TickPasses.WithLabelValues(m.name).Inc()
	m.registry.TickPassDuration.WithLabelValues(m.name).Observe(d.Seconds())
	m.registry.TickWorkersLive.WithLabelValues(m.name).Set(float64(live))
}

func (m *threadMetrics) admitted() {
	if m == nil {
		return
	}
	m.registry.TickAdmissions.WithLabelValues(m.name).Inc()
}

func (m *threadMetrics) removed() {
	if m == nil {
		return
	}
	m.registry.TickRemovals.WithLabelValues(m.name).Inc()
}

func (m *threadMetrics) expired() {
	if m == nil {
		return
	}
	m.registry.TickExpired.WithLabelValues(m.name).Inc()
}

func (m *threadMetrics) panicked(hook string) {
	if m == nil {
		return
	}
	m.registry.TickWorkerPanics.WithLabelValues(m.name, hook).Inc()
}

func (m *threadMetrics) restTime(d time.Duration) {
	if m == nil {
		return
	}
	m.registry.TickRestTimeSecs.WithLabelValues(m.name).Set(d.Seconds())
}
