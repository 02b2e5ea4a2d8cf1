package tickthread

import (
	"sync/atomic"
	"time"
	"weak"
)

// Worker is an object ticked by a Thread.
//
// Setup is called once when the worker is admitted, Tick on every pass of
// the loop with the time elapsed since the previous pass, and Shutdown once
// when the worker is removed or the thread stops. All three run on the
// thread's goroutine.
type Worker interface {
	Setup()
	Tick(delta time.Duration)
	Shutdown()
}

// IDSetter is implemented by workers that want to know the id assigned to
// them on admission. The id is reset to -1 on removal.
type IDSetter interface {
	SetWorkerID(id int)
}

// Ref is a non-owning handle to a Worker. The thread only ever holds Refs,
// so a worker whose owner drops it is unlinked on the next pass.
type Ref struct {
	key     any
	resolve func() Worker
}

// WeakRef builds a Ref to w without keeping it alive. Two refs built from
// the same pointer identify the same worker.
func WeakRef[T any, P interface {
	*T
	Worker
}](w P) Ref {
	if w == nil {
		return Ref{}
	}
	wp := weak.Make((*T)(w))
	return Ref{
		key: wp,
		resolve: func() Worker {
			if p := wp.Value(); p != nil {
				return P(p)
			}
			return nil
		},
	}
}

// IsValid reports whether the ref was built from a worker.
func (r Ref) IsValid() bool {
	return r.resolve != nil
}

// Resolve returns the worker, or nil if it was released or the ref is empty.
func (r Ref) Resolve() Worker {
	if r.resolve == nil {
		return nil
	}
	return r.resolve()
}

// BaseWorker is an embeddable no-op Worker that records its admission id.
type BaseWorker struct {
	// id holds the worker id plus one, so the zero value reads as -1.
	id atomic.Int64
}

func (b *BaseWorker) Setup()                   {}
func (b *BaseWorker) Tick(delta time.Duration) {}
func (b *BaseWorker) Shutdown()                {}

// SetWorkerID implements IDSetter.
func (b *BaseWorker) SetWorkerID(id int) {
	b.id.Store(int64(id) + 1)
}

// WorkerID returns the id assigned by the thread, or -1 when not live.
func (b *BaseWorker) WorkerID() int {
	return int(b.id.Load()) - 1
}
