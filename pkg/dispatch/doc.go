// Package dispatch provides a FIFO callback queue drained in bulk by a
// driving loop, so work produced on pool or tick goroutines can be handed
// back to a single "main" goroutine.
//
//	q := dispatch.NewQueue(dispatch.WithName("main"))
//	pool.Submit(load, func() {
//		q.Enqueue(func() { applyResult() })
//	})
//	go q.Run(ctx, 16*time.Millisecond)
//
// Events are multicast callback lists. EnqueueEvent holds them weakly: an
// event collected before the next drain is skipped.
package dispatch
