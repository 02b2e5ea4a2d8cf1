// Package metrics provides Prometheus instrumentation for tickflow components.
//
// # Overview
//
// The metrics package provides instrumentation for:
//   - Tick threads (passes, pass duration, live workers, admissions, removals)
//   - Worker pools (pool size, active workers, queued jobs, job outcomes)
//   - Event chains (batches submitted and completed)
//   - Frame dispatch queues, cron workers and heartbeat writes
//
// # Quick Start
//
// Hand a Registry to the components that should record:
//
//	reg := metrics.NewRegistry(prometheus.NewRegistry())
//
//	pool := workerpool.NewWithConfig(workerpool.Config{
//		WorkerCount: 4,
//		Name:        "io",
//		Metrics:     reg,
//	})
//	thread, _ := tickthread.New(30*time.Millisecond,
//		tickthread.WithName("game"),
//		tickthread.WithMetrics(reg))
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//	log.Fatal(http.ListenAndServe(":8080", nil))
//
// # Available Metrics
//
//   - tickflow_tickthread_passes_total
//   - tickflow_tickthread_pass_duration_seconds
//   - tickflow_tickthread_workers_live
//   - tickflow_tickthread_admissions_total / removals_total / expired_total
//   - tickflow_tickthread_worker_panics_total
//   - tickflow_tickthread_rest_time_seconds
//   - tickflow_workerpool_size / active_workers / queued_jobs
//   - tickflow_workerpool_jobs_submitted_total / jobs_completed_total / jobs_dropped_total
//   - tickflow_workerpool_job_panics_total
//   - tickflow_workerpool_job_duration_seconds
//   - tickflow_workerpool_chain_batches_submitted_total / chain_batches_completed_total
//   - tickflow_dispatch_callbacks_executed_total / callbacks_pending
//   - tickflow_cron_runs_total / skipped_total
//   - tickflow_heartbeat_writes_total
//
// # Labels
//
//   - thread_name: name given to a tick thread
//   - pool_name: name given to a worker pool
//   - queue_name: name given to a dispatch queue
//   - job_id: cron worker identifier
//   - hook: callback that panicked ("started", "setup", "tick", "shutdown")
//   - result: heartbeat write outcome ("ok", "error")
//
// A nil *Registry disables recording; every component checks for it.
package metrics
