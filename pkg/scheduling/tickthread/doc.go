/*
Package tickthread drives periodically ticked workers on a dedicated
goroutine.

A Thread owns no workers. Callers register a Ref, a weak handle built with
WeakRef, and keep the worker alive themselves; once the owner drops it the
thread unlinks the entry on its next pass without calling Shutdown.

	type counter struct {
		tickthread.BaseWorker
		n int
	}

	func (c *counter) Tick(delta time.Duration) { c.n++ }

	th, err := tickthread.New(30*time.Millisecond, tickthread.WithName("game"))
	if err != nil {
		return err
	}
	c := &counter{}
	th.AddWorker(tickthread.WeakRef(c))
	th.Start(nil)
	defer th.Stop()

Each loop iteration drains the admission queue, then the removal queue,
then releases every pending RemoveWorker acknowledgement, ticks every live
worker with the time elapsed since the previous iteration, and sleeps for
the rest time. Admissions and removals therefore only ever take effect on
the loop goroutine, and Setup, Tick and Shutdown all run there.

Worker ids are assigned from a counter in admission order and are never
reused. Workers implementing IDSetter are told their id on admission and -1
on removal.

Stop ends the loop, then shuts down every remaining worker before returning.
Panics raised by worker callbacks are recovered and logged; they never stop
the loop.
*/
package tickthread
