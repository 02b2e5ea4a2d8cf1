/*
Package tickflow provides a cooperative worker-thread scheduler for Go programs.

Tick threads (pkg/scheduling):
  - tickthread: a goroutine that ticks a dynamic set of workers at a fixed cadence
  - cronworker: a tick worker that submits jobs on a cron schedule
  - registry: integer handles for threads and pools

Queued work (pkg/scheduling):
  - workerpool: fixed-size pool returning futures for submitted jobs
  - future: futures, promises and future lists for chained completion
  - task: ordered and parallel task chains on a pool

Supporting packages:
  - dispatch: FIFO callback queue drained by a main loop
  - heartbeat: Redis liveness worker
  - metrics: Prometheus instrumentation

Example usage:

	import (
		"github.com/vnykmshr/tickflow/pkg/scheduling/task"
		"github.com/vnykmshr/tickflow/pkg/scheduling/tickthread"
		"github.com/vnykmshr/tickflow/pkg/scheduling/workerpool"
	)

	th, _ := tickthread.New(10 * time.Millisecond)
	th.Start(nil)
	defer th.Stop()
	th.AddWorker(tickthread.WeakRef(myWorker))

	pool := workerpool.New(4)
	var ref task.Ref
	ref.Init(pool)
	ref.AddTask(load)
	ref.AddTaskChain(store) // runs after load
	ref.EnqueueTask()
	ref.Wait()
*/
package tickflow
