package workerpool

import (
	"time"

	"github.com/vnykmshr/tickflow/pkg/metrics"
)

// poolMetrics records pool activity into a metrics.Registry. A nil
// *poolMetrics is valid and records nothing.
type poolMetrics struct {
	registry *metrics.Registry
	name     string
}

func newPoolMetrics(reg *metrics.Registry, name string) *poolMetrics {
	if reg == nil {
		return nil
	}
	return &poolMetrics{registry: reg, name: name}
}

// updateGauges updates the current state metrics.
func (m *poolMetrics) updateGauges(p *Pool) {
	if m == nil {
		return
	}
	m.registry.WorkerPoolSize.WithLabelValues(m.name).Set(float64(p.Size()))
	m.registry.WorkerPoolActive.WithLabelValues(m.name).Set(float64(p.ActiveWorkers()))
	m.registry.WorkerPoolQueued.WithLabelValues(m.name).Set(float64(p.QueueSize()))
}

func (m *poolMetrics) submitted() {
	if m == nil {
		return
	}
	m.registry.JobsSubmitted.WithLabelValues(m.name).Inc()
}

func (m *poolMetrics) dropped() {
	if m == nil {
		return
	}
	m.registry.JobsDropped.WithLabelValues(m.name).Inc()
}

func (m *poolMetrics) completed(d time.Duration) {
	if m == nil {
		return
	}
	m.registry.JobsCompleted.WithLabelValues(m.name).Inc()
	m.registry.JobExecutionDuration.WithLabelValues(m.name).Observe(d.Seconds())
}

func (m *poolMetrics) panicked() {
	if m == nil {
		return
	}
	m.registry.JobPanics.WithLabelValues(m.name).Inc()
}

func (m *poolMetrics) chainSubmitted() {
	if m == nil {
		return
	}
	m.registry.ChainBatchesSubmitted.WithLabelValues(m.name).Inc()
}

func (m *poolMetrics) chainCompleted() {
	if m == nil {
		return
	}
	m.registry.ChainBatchesCompleted.WithLabelValues(m.name).Inc()
}
