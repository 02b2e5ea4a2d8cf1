package tickthread

import (
	"testing"

	"github.com/vnykmshr/tickflow/internal/testutil"
)

func TestWeakRefIdentity(t *testing.T) {
	w := testutil.NewCountingWorker("a")
	other := testutil.NewCountingWorker("b")

	r1 := WeakRef(w)
	r2 := WeakRef(w)
	r3 := WeakRef(other)

	testutil.AssertEqual(t, r1.IsValid(), true)
	testutil.AssertEqual(t, r1.key == r2.key, true)
	testutil.AssertEqual(t, r1.key == r3.key, false)
	testutil.AssertEqual(t, r1.Resolve() == Worker(w), true)
}

func TestWeakRefNil(t *testing.T) {
	var w *testutil.CountingWorker
	r := WeakRef(w)
	testutil.AssertEqual(t, r.IsValid(), false)
	testutil.AssertEqual(t, r.Resolve() == nil, true)

	var zero Ref
	testutil.AssertEqual(t, zero.IsValid(), false)
	testutil.AssertEqual(t, zero.Resolve() == nil, true)
}

func TestBaseWorkerID(t *testing.T) {
	var b BaseWorker
	testutil.AssertEqual(t, b.WorkerID(), -1)
	b.SetWorkerID(0)
	testutil.AssertEqual(t, b.WorkerID(), 0)
	b.SetWorkerID(7)
	testutil.AssertEqual(t, b.WorkerID(), 7)
	b.SetWorkerID(-1)
	testutil.AssertEqual(t, b.WorkerID(), -1)
}
