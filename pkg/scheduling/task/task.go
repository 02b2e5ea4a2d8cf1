package task

import (
	"github.com/vnykmshr/tickflow/pkg/scheduling/future"
	"github.com/vnykmshr/tickflow/pkg/scheduling/workerpool"
)

// Task is one submission unit: closures attached node by node to a future
// list, all submitted to the same pool in a single batch.
type Task struct {
	list  *future.List
	tasks []workerpool.EventTask
	pool  *workerpool.Pool
}

// New creates a task recording its futures into list.
func New(list *future.List, pool *workerpool.Pool) *Task {
	return &Task{list: list, pool: pool}
}

// AddTask appends fn. The first closure uses the head node of the list,
// every following one a fresh node after the previous closure's node.
func (t *Task) AddTask(fn func()) {
	if t.list == nil || fn == nil {
		return
	}

	node := t.list
	if n := len(t.tasks); n > 0 {
		node = t.tasks[n-1].Node.AllocateNext()
	}
	t.tasks = append(t.tasks, workerpool.EventTask{Node: node, Fn: fn})
}

// Merge appends the closures of other, so they run as part of t's batch.
// With resetOther, other is reset afterwards.
func (t *Task) Merge(other *Task, resetOther bool) {
	if other == nil || other == t {
		return
	}
	for _, e := range other.tasks {
		t.AddTask(e.Fn)
	}
	if resetOther {
		other.Reset()
	}
}

// EnqueueTask submits every closure as one batch. onComplete runs once all
// of them have finished, or synchronously when the task is empty. It
// returns false when the task has no pool or no list.
func (t *Task) EnqueueTask(onComplete func()) bool {
	if t.pool == nil || t.list == nil {
		return false
	}
	t.pool.SubmitChain(t.tasks, nil, onComplete)
	return true
}

// Wait blocks until every submitted closure has finished.
func (t *Task) Wait() {
	if t.list != nil {
		t.list.Wait()
	}
}

// IsValid reports whether the task can be enqueued.
func (t *Task) IsValid() bool {
	return t.list != nil && t.pool != nil
}

// IsDone reports whether no submitted closure is still pending.
func (t *Task) IsDone() bool {
	return t.list == nil || t.list.IsDone()
}

// Len returns the number of closures.
func (t *Task) Len() int {
	return len(t.tasks)
}

// Pool returns the pool the task submits to.
func (t *Task) Pool() *workerpool.Pool {
	return t.pool
}

// Reset drops the list, the closures and the pool.
func (t *Task) Reset() {
	t.list = nil
	t.tasks = nil
	t.pool = nil
}
