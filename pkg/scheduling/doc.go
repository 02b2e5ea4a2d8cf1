/*
Package scheduling groups the tick-thread and worker-pool primitives.

  - tickthread: long-running tick loop with concurrent worker admission and removal
  - workerpool: fixed worker pool with futures and batch submission
  - future: futures, promises, future lists and callback signals
  - task: task chains composed from parallel batches
  - registry: handle-based access to threads and pools
  - cronworker: cron schedules evaluated on a tick thread

Tick Thread:

Workers are held weakly and only admitted or removed on the loop goroutine,
between passes:

	th, err := tickthread.New(10 * time.Millisecond)
	if err != nil {
		return err
	}
	th.Start(nil)
	defer th.Stop() // every live worker gets Shutdown

	ref := tickthread.WeakRef(worker)
	th.AddWorker(ref)
	th.RemoveWorker(ref).Wait()

Worker Pool:

	pool := workerpool.New(4)
	defer func() { <-pool.Shutdown() }()

	f := pool.Submit(func() { work() }, nil)
	f.Wait()

Task Chains:

A task reference runs its batches in order, each batch in parallel:

	var ref task.Ref
	ref.Init(pool)
	ref.AddTask(a)
	ref.AddTask(b)      // a and b run together
	ref.AddTaskChain(c) // c runs after both
	ref.EnqueueTask()
	ref.Wait()
*/
package scheduling
