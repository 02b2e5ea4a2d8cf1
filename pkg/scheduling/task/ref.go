package task

import (
	"sync/atomic"

	"github.com/vnykmshr/tickflow/pkg/scheduling/future"
	"github.com/vnykmshr/tickflow/pkg/scheduling/workerpool"
)

// Progress is the execution state of a Ref.
type Progress int32

const (
	Idle      Progress = -1
	Done      Progress = 0
	Executing Progress = 1
)

func (p Progress) String() string {
	switch p {
	case Idle:
		return "idle"
	case Done:
		return "done"
	case Executing:
		return "executing"
	default:
		return "unknown"
	}
}

// Ref composes tasks: closures added with AddTask run in parallel as part
// of the current task, while AddTaskChain and Chain queue the current task
// so the next one starts only after it has fully resolved.
//
// A Ref is owned by one goroutine. Only the progress marker is touched by
// pool goroutines, so the query methods are safe to call while executing.
type Ref struct {
	task     *Task
	chained  []*Task
	pool     *workerpool.Pool
	done     *future.Promise
	progress atomic.Int32
}

// Init binds r to pool and starts an empty task. It is ignored unless r is
// idle. A nil pool is a programming error and panics.
func (r *Ref) Init(pool *workerpool.Pool) {
	if pool == nil {
		panic("task: Init called with a nil pool")
	}
	if !r.IsIdle() {
		return
	}
	r.pool = pool
	r.task = New(future.NewList(), pool)
	r.chained = nil
	r.done = nil
	r.progress.Store(int32(Idle))
}

// Progress returns the current execution state.
func (r *Ref) Progress() Progress {
	if r.task == nil {
		return Idle
	}
	return Progress(r.progress.Load())
}

// IsValid reports whether r holds an enqueueable task.
func (r *Ref) IsValid() bool {
	return r.task != nil && r.task.IsValid()
}

// IsIdle reports whether r accepts new closures.
func (r *Ref) IsIdle() bool {
	return r.Progress() == Idle
}

// IsExecuted reports whether r has been enqueued and is still running.
func (r *Ref) IsExecuted() bool {
	return r.Progress() == Executing
}

// IsDone reports whether the whole composition has finished.
func (r *Ref) IsDone() bool {
	return r.Progress() == Done
}

// Pool returns the pool r was initialised with.
func (r *Ref) Pool() *workerpool.Pool {
	return r.pool
}

// AddTask adds fn to the current task. Ignored unless idle.
func (r *Ref) AddTask(fn func()) {
	if !r.IsIdle() || r.task == nil {
		return
	}
	r.task.AddTask(fn)
}

// AddTaskChain starts a new task holding fn that runs after everything
// added so far. Ignored unless idle.
func (r *Ref) AddTaskChain(fn func()) {
	if !r.IsIdle() || r.task == nil {
		return
	}
	if r.task.Len() > 0 {
		r.chained = append(r.chained, r.task)
		r.task = New(future.NewList(), r.task.Pool())
	}
	r.task.AddTask(fn)
}

// Chain appends the composition of other after r's own. other's current
// task becomes r's current task. With resetOther, other is left empty and
// idle; otherwise both refs share that task and only one of them should be
// enqueued. Ignored unless both refs are idle.
func (r *Ref) Chain(other *Ref, resetOther bool) {
	if other == nil || other == r || other.task == nil {
		return
	}
	if !r.IsIdle() || !other.IsIdle() {
		return
	}

	if r.pool == nil {
		r.pool = other.pool
	}
	if r.task != nil && r.task.Len() > 0 {
		r.chained = append(r.chained, r.task)
	}
	r.chained = append(r.chained, other.chained...)
	r.task = other.task
	r.progress.Store(int32(Idle))

	if resetOther {
		other.task = nil
		other.chained = nil
		other.Reset()
	}
}

// Merge adds other's current closures to r's current task so they run in
// parallel with it. Ignored unless both refs are idle.
func (r *Ref) Merge(other *Ref, resetOther bool) {
	if other == nil || other == r || other.task == nil || r.task == nil {
		return
	}
	if !r.IsIdle() || !other.IsIdle() {
		return
	}
	r.task.Merge(other.task, false)
	if resetOther {
		other.Reset()
	}
}

// EnqueueTask submits the composition: the oldest chained task first, each
// following one from the completion callback of its predecessor, and the
// current task last. r becomes Done from the current task's completion.
// It returns false if r is not idle, holds no task, or any task's pool is
// missing or unusable.
func (r *Ref) EnqueueTask() bool {
	if !r.IsIdle() || r.task == nil {
		return false
	}

	sequence := make([]*Task, 0, len(r.chained)+1)
	sequence = append(sequence, r.chained...)
	sequence = append(sequence, r.task)
	for _, t := range sequence {
		if !t.IsValid() || !t.Pool().IsUsable() {
			return false
		}
	}

	done := future.NewPromise(nil)
	r.done = done
	r.progress.Store(int32(Executing))

	next := func() {
		r.progress.Store(int32(Done))
		done.Set()
	}
	for i := len(sequence) - 1; i >= 0; i-- {
		t, cont := sequence[i], next
		next = func() {
			if !t.EnqueueTask(cont) {
				cont()
			}
		}
	}
	next()
	return true
}

// Wait blocks until the enqueued composition has finished. Before
// EnqueueTask it only waits for closures already submitted.
func (r *Ref) Wait() {
	if r.done != nil {
		r.done.Future().Wait()
	}
	for _, t := range r.chained {
		t.Wait()
	}
	if r.task != nil {
		r.task.Wait()
	}
}

// Reset waits for r and returns it to the zero state.
func (r *Ref) Reset() {
	r.Wait()
	r.task = nil
	r.chained = nil
	r.pool = nil
	r.done = nil
	r.progress.Store(int32(Idle))
}
