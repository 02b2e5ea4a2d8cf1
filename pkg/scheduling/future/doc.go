/*
Package future provides the completion primitives shared by the scheduling
packages: one-shot futures and promises, typed values, chains of futures and
a reusable callback signal.

A Future is a closed-channel signal. The zero value is an "empty" future
which is never valid and never blocks, which is what pools hand out when
they refuse work:

	p := future.NewPromise(nil)
	go func() {
		doWork()
		p.Set()
	}()
	p.Future().Wait()

A List links futures node by node. Pools attach the future of each submitted
job to a node, and the owner either polls IsDone or blocks in Wait:

	head := future.NewList()
	head.Attach(f1)
	head.AllocateNext().Attach(f2)
	head.Wait() // waits for f1 then f2

Signal mirrors a promise object with a completion callback and a set of
"done" listeners, and can be re-armed once idle.
*/
package future
