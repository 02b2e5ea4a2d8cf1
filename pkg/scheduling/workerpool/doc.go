/*
Package workerpool provides the thread pool used to run one-shot and chained
jobs with future-based completion signaling.

A Pool manages a fixed number of worker goroutines consuming an unbounded
FIFO queue of jobs. Every submission returns a *future.Future that resolves
once a worker has run the job; the optional completion callback runs on that
worker right after.

Basic usage:

	pool := workerpool.New(4, workerpool.WithName("io"))
	defer pool.Shutdown()

	f := pool.Submit(func() {
		// Do work
	}, func() {
		// Called after the job's future resolves
	})
	f.Wait()

Unusable Pools:

A pool created or reconfigured with a non-positive worker count is unusable:
Submit drops the job and returns an empty future, which is never valid and
never blocks. IsUsable reports the current state.

	pool.Configure(0)
	f := pool.Submit(job, nil) // f.IsValid() == false

Reconfiguration:

Configure replaces the worker set. The previous set stops accepting jobs
immediately and finishes whatever it has queued before Configure returns.
Jobs may submit further jobs to their own pool; the queue never blocks, so
continuation-style chains cannot deadlock the workers.

Chains:

SubmitChain submits a batch of EventTask entries. It first waits on the
calling goroutine for an optional future.List, then submits every entry and
attaches each job's future to the entry's node. The completion callback runs
exactly once, after the last job of the batch:

	head := future.NewList()
	pool.SubmitChain([]workerpool.EventTask{
		{Node: head, Fn: stepA},
		{Node: head.AllocateNext(), Fn: stepB},
	}, previous, onBatchDone)

Typed Results:

	v, ok := workerpool.SubmitFunc(pool, func() int { return compute() })
	if ok {
		fmt.Println(v.Get())
	}

Configuration Options:

Config exposes lifecycle hooks for per-worker setup and instrumentation:

	pool := workerpool.NewWithConfig(workerpool.Config{
		Name:        "render",
		WorkerCount: 8,
		Logger:      logger,
		Metrics:     metrics.DefaultRegistry,
		PanicHandler: func(recovered interface{}, stack []byte) {
			logger.Error("job panicked", zap.Any("panic", recovered))
		},
		OnTaskComplete: func(workerID int, d time.Duration) {
			// ...
		},
	})

Panics raised by a job or its completion callback are recovered; the job's
future still resolves and the worker keeps running.

Shutdown:

Shutdown is permanent. It returns a channel that closes once every queued
job has run and every worker has exited:

	<-pool.Shutdown()
*/
package workerpool
