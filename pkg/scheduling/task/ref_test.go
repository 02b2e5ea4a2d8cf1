package task

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/vnykmshr/tickflow/internal/testutil"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) record(s string) func() {
	return func() {
		time.Sleep(5 * time.Millisecond)
		r.mu.Lock()
		r.events = append(r.events, s)
		r.mu.Unlock()
	}
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func TestZeroRefIsIdle(t *testing.T) {
	var r Ref
	testutil.AssertEqual(t, r.IsIdle(), true)
	testutil.AssertEqual(t, r.IsValid(), false)
	testutil.AssertEqual(t, r.IsDone(), false)
	testutil.AssertEqual(t, r.Progress(), Idle)
	testutil.AssertEqual(t, r.EnqueueTask(), false)
	r.AddTask(func() {})
	r.Wait()
}

func TestInitNilPoolPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	var r Ref
	r.Init(nil)
}

func TestRefChainOrder(t *testing.T) {
	pool := newTestPool(t, 4)
	rec := &recorder{}

	var r Ref
	r.Init(pool)
	r.AddTask(rec.record("T1"))
	r.AddTask(rec.record("T1"))
	r.AddTaskChain(rec.record("T2"))
	r.AddTaskChain(rec.record("T3"))

	testutil.AssertEqual(t, len(r.chained), 2)
	testutil.AssertEqual(t, r.EnqueueTask(), true)

	r.Wait()
	testutil.AssertEqual(t, r.IsDone(), true)
	if diff := cmp.Diff([]string{"T1", "T1", "T2", "T3"}, rec.snapshot()); diff != "" {
		t.Fatalf("execution order mismatch (-want +got):\n%s", diff)
	}
}

func TestRefMutationIgnoredWhileExecuting(t *testing.T) {
	pool := newTestPool(t, 2)
	gate := make(chan struct{})

	var r Ref
	r.Init(pool)
	r.AddTask(func() { <-gate })
	r.AddTaskChain(func() {})

	testutil.AssertEqual(t, r.EnqueueTask(), true)
	testutil.AssertEqual(t, r.IsExecuted(), true)

	var extra int32
	r.AddTask(func() { atomic.AddInt32(&extra, 1) })
	r.AddTaskChain(func() { atomic.AddInt32(&extra, 1) })
	testutil.AssertEqual(t, r.EnqueueTask(), false)
	testutil.AssertEqual(t, len(r.chained), 1)
	testutil.AssertEqual(t, r.task.Len(), 1)

	close(gate)
	r.Wait()
	testutil.AssertEqual(t, r.IsDone(), true)
	testutil.AssertEqual(t, atomic.LoadInt32(&extra), int32(0))
}

func TestRefResetRoundTrip(t *testing.T) {
	pool := newTestPool(t, 2)

	var r Ref
	r.Init(pool)
	r.AddTask(func() {})
	r.EnqueueTask()
	r.Wait()
	testutil.AssertEqual(t, r.IsDone(), true)

	r.Reset()
	testutil.AssertEqual(t, r.IsIdle(), true)
	testutil.AssertEqual(t, r.IsValid(), false)
	testutil.AssertEqual(t, r.Pool() == nil, true)

	var ran int32
	r.Init(pool)
	r.AddTask(func() { atomic.AddInt32(&ran, 1) })
	testutil.AssertEqual(t, r.EnqueueTask(), true)
	testutil.AssertEventually(t, r.IsDone)
	testutil.AssertEqual(t, atomic.LoadInt32(&ran), int32(1))
}

func TestRefEmptyCompletesImmediately(t *testing.T) {
	var r Ref
	r.Init(newTestPool(t, 1))
	testutil.AssertEqual(t, r.EnqueueTask(), true)
	testutil.AssertEqual(t, r.IsDone(), true)
}

func TestRefEnqueueOnUnusablePool(t *testing.T) {
	var r Ref
	r.Init(newTestPool(t, 0))
	r.AddTask(func() {})
	testutil.AssertEqual(t, r.EnqueueTask(), false)
	testutil.AssertEqual(t, r.IsIdle(), true)
}

func TestRefChainOther(t *testing.T) {
	pool := newTestPool(t, 2)
	rec := &recorder{}

	var a, b Ref
	a.Init(pool)
	a.AddTask(rec.record("A"))

	b.Init(pool)
	b.AddTask(rec.record("B1"))
	b.AddTaskChain(rec.record("B2"))

	a.Chain(&b, true)
	testutil.AssertEqual(t, b.IsValid(), false)
	testutil.AssertEqual(t, b.IsIdle(), true)

	testutil.AssertEqual(t, a.EnqueueTask(), true)
	a.Wait()
	if diff := cmp.Diff([]string{"A", "B1", "B2"}, rec.snapshot()); diff != "" {
		t.Fatalf("execution order mismatch (-want +got):\n%s", diff)
	}
}

func TestRefChainAdoptsPool(t *testing.T) {
	pool := newTestPool(t, 1)

	var a, b Ref
	b.Init(pool)
	var ran int32
	b.AddTask(func() { atomic.AddInt32(&ran, 1) })

	a.Chain(&b, true)
	testutil.AssertEqual(t, a.Pool(), pool)
	testutil.AssertEqual(t, a.EnqueueTask(), true)
	a.Wait()
	testutil.AssertEqual(t, atomic.LoadInt32(&ran), int32(1))
}

func TestRefMerge(t *testing.T) {
	pool := newTestPool(t, 4)

	var a, b Ref
	a.Init(pool)
	b.Init(pool)

	var ran int32
	inc := func() { atomic.AddInt32(&ran, 1) }
	a.AddTask(inc)
	b.AddTask(inc)
	b.AddTask(inc)

	a.Merge(&b, true)
	testutil.AssertEqual(t, a.task.Len(), 3)
	testutil.AssertEqual(t, b.IsValid(), false)

	a.EnqueueTask()
	a.Wait()
	testutil.AssertEqual(t, atomic.LoadInt32(&ran), int32(3))
}

func TestRefDoneFutureWaitsForEveryTask(t *testing.T) {
	pool := newTestPool(t, 4)

	var r Ref
	r.Init(pool)
	var counter int32
	for i := 0; i < 10; i++ {
		r.AddTask(func() { atomic.AddInt32(&counter, 1) })
	}
	for i := 0; i < 10; i++ {
		r.AddTaskChain(func() { atomic.AddInt32(&counter, 1) })
	}

	r.EnqueueTask()
	r.Wait()
	testutil.AssertEqual(t, atomic.LoadInt32(&counter), int32(20))
}
