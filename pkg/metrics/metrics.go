// Package metrics provides Prometheus instrumentation for tickflow components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for tickflow components.
type Registry struct {
	// Tick Thread Metrics
	TickPasses       *prometheus.CounterVec
	TickPassDuration *prometheus.HistogramVec
	TickWorkersLive  *prometheus.GaugeVec
	TickAdmissions   *prometheus.CounterVec
	TickRemovals     *prometheus.CounterVec
	TickExpired      *prometheus.CounterVec
	TickWorkerPanics *prometheus.CounterVec
	TickRestTimeSecs *prometheus.GaugeVec

	// Worker Pool Metrics
	WorkerPoolSize        *prometheus.GaugeVec
	WorkerPoolActive      *prometheus.GaugeVec
	WorkerPoolQueued      *prometheus.GaugeVec
	JobsSubmitted         *prometheus.CounterVec
	JobsCompleted         *prometheus.CounterVec
	JobsDropped           *prometheus.CounterVec
	JobPanics             *prometheus.CounterVec
	JobExecutionDuration  *prometheus.HistogramVec
	ChainBatchesSubmitted *prometheus.CounterVec
	ChainBatchesCompleted *prometheus.CounterVec

	// Dispatch Metrics
	DispatchCallbacks *prometheus.CounterVec
	DispatchPending   *prometheus.GaugeVec

	// Cron Worker Metrics
	CronRuns    *prometheus.CounterVec
	CronSkipped *prometheus.CounterVec

	// Heartbeat Metrics
	HeartbeatWrites *prometheus.CounterVec
}

// DefaultRegistry is the default metrics registry used by tickflow components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		// Tick Thread Metrics
		TickPasses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tickflow",
				Subsystem: "tickthread",
				Name:      "passes_total",
				Help:      "Total number of tick passes over the live worker list",
			},
			[]string{"thread_name"},
		),

		TickPassDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "tickflow",
				Subsystem: "tickthread",
				Name:      "pass_duration_seconds",
				Help:      "Time spent ticking all live workers in one pass",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
			},
			[]string{"thread_name"},
		),

		TickWorkersLive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "tickflow",
				Subsystem: "tickthread",
				Name:      "workers_live",
				Help:      "Number of workers currently admitted to the tick loop",
			},
			[]string{"thread_name"},
		),

		TickAdmissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tickflow",
				Subsystem: "tickthread",
				Name:      "admissions_total",
				Help:      "Total number of workers admitted during drain passes",
			},
			[]string{"thread_name"},
		),

		TickRemovals: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tickflow",
				Subsystem: "tickthread",
				Name:      "removals_total",
				Help:      "Total number of workers removed during drain passes",
			},
			[]string{"thread_name"},
		),

		TickExpired: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tickflow",
				Subsystem: "tickthread",
				Name:      "expired_total",
				Help:      "Total number of workers unlinked because their owner released them",
			},
			[]string{"thread_name"},
		),

		TickWorkerPanics: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tickflow",
				Subsystem: "tickthread",
				Name:      "worker_panics_total",
				Help:      "Total number of recovered panics raised by worker callbacks",
			},
			[]string{"thread_name", "hook"},
		),

		TickRestTimeSecs: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "tickflow",
				Subsystem: "tickthread",
				Name:      "rest_time_seconds",
				Help:      "Configured sleep interval between tick passes",
			},
			[]string{"thread_name"},
		),

		// Worker Pool Metrics
		WorkerPoolSize: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "tickflow",
				Subsystem: "workerpool",
				Name:      "size",
				Help:      "Current worker pool size",
			},
			[]string{"pool_name"},
		),

		WorkerPoolActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "tickflow",
				Subsystem: "workerpool",
				Name:      "active_workers",
				Help:      "Number of workers currently executing a job",
			},
			[]string{"pool_name"},
		),

		WorkerPoolQueued: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "tickflow",
				Subsystem: "workerpool",
				Name:      "queued_jobs",
				Help:      "Number of jobs waiting for a worker",
			},
			[]string{"pool_name"},
		),

		JobsSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tickflow",
				Subsystem: "workerpool",
				Name:      "jobs_submitted_total",
				Help:      "Total number of jobs accepted by the pool",
			},
			[]string{"pool_name"},
		),

		JobsCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tickflow",
				Subsystem: "workerpool",
				Name:      "jobs_completed_total",
				Help:      "Total number of jobs whose future has resolved",
			},
			[]string{"pool_name"},
		),

		JobsDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tickflow",
				Subsystem: "workerpool",
				Name:      "jobs_dropped_total",
				Help:      "Total number of jobs dropped because the pool was unavailable",
			},
			[]string{"pool_name"},
		),

		JobPanics: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tickflow",
				Subsystem: "workerpool",
				Name:      "job_panics_total",
				Help:      "Total number of recovered job panics",
			},
			[]string{"pool_name"},
		),

		JobExecutionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "tickflow",
				Subsystem: "workerpool",
				Name:      "job_duration_seconds",
				Help:      "Time spent executing jobs",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"pool_name"},
		),

		ChainBatchesSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tickflow",
				Subsystem: "workerpool",
				Name:      "chain_batches_submitted_total",
				Help:      "Total number of event chain batches handed to the pool",
			},
			[]string{"pool_name"},
		),

		ChainBatchesCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tickflow",
				Subsystem: "workerpool",
				Name:      "chain_batches_completed_total",
				Help:      "Total number of event chain batches whose every entry settled",
			},
			[]string{"pool_name"},
		),

		// Dispatch Metrics
		DispatchCallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tickflow",
				Subsystem: "dispatch",
				Name:      "callbacks_executed_total",
				Help:      "Total number of frame callbacks executed",
			},
			[]string{"queue_name"},
		),

		DispatchPending: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "tickflow",
				Subsystem: "dispatch",
				Name:      "callbacks_pending",
				Help:      "Number of callbacks waiting for the next frame",
			},
			[]string{"queue_name"},
		),

		// Cron Worker Metrics
		CronRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tickflow",
				Subsystem: "cron",
				Name:      "runs_total",
				Help:      "Total number of cron activations submitted to a pool",
			},
			[]string{"job_id"},
		),

		CronSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tickflow",
				Subsystem: "cron",
				Name:      "skipped_total",
				Help:      "Total number of cron activations skipped while the previous run was in flight",
			},
			[]string{"job_id"},
		),

		// Heartbeat Metrics
		HeartbeatWrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tickflow",
				Subsystem: "heartbeat",
				Name:      "writes_total",
				Help:      "Total number of heartbeat writes by outcome",
			},
			[]string{"result"},
		),
	}
}
