package testutil

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// ticking drives w from a background goroutine until the returned stop is
// called, the same way a tick thread would.
func ticking(w *CountingWorker, every time.Duration) (stop func()) {
	quit := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-quit:
				return
			case <-time.After(every):
				w.Tick(every)
			}
		}
	}()
	return func() {
		close(quit)
		wg.Wait()
	}
}

func TestWaitForAtLeastInt32OnRunningCounter(t *testing.T) {
	w := NewCountingWorker("busy")
	stop := ticking(w, 50*time.Microsecond)
	defer stop()

	// The counter usually runs past 3 between polls.
	WaitForAtLeastInt32(t, w.TicksAddr(), 3, time.Second)
	if w.Ticks() < 3 {
		t.Fatalf("ticks = %d, want at least 3", w.Ticks())
	}
}

func TestWaitForAtLeastInt32AlreadyReached(t *testing.T) {
	v := int32(10)
	start := time.Now()
	WaitForAtLeastInt32(t, &v, 4, time.Second)
	if time.Since(start) > 100*time.Millisecond {
		t.Fatalf("wait on a satisfied counter took %v", time.Since(start))
	}
}

func TestWaitForInt32SettledCounter(t *testing.T) {
	var done int32
	go func() {
		for i := 0; i < 5; i++ {
			atomic.AddInt32(&done, 1)
		}
	}()
	WaitForInt32(t, &done, 5, time.Second)
}

func TestEventuallyAndAssertEventually(t *testing.T) {
	w := NewCountingWorker("late")
	go func() {
		time.Sleep(20 * time.Millisecond)
		w.Setup()
	}()

	Eventually(t, func() bool { return w.Setups() == 1 }, time.Second, 5*time.Millisecond)
	AssertEventually(t, func() bool { return w.Setups() == 1 })
}

func TestCallbackTrackerFromManyGoroutines(t *testing.T) {
	tracker := NewCallbackTracker()
	tracker.AssertNotCalled(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tracker.Mark(i)
		}(i)
	}
	wg.Wait()

	tracker.AssertCalled(t)
	tracker.AssertCallCount(t, 8)
	if tracker.Value() == nil {
		t.Fatal("last value was not kept")
	}

	tracker.Reset()
	tracker.AssertNotCalled(t)
	AssertEqual(t, tracker.Value(), any(nil))
}

func TestWithTimeoutDeadline(t *testing.T) {
	ctx, cancel := WithTimeout(t)
	defer cancel()

	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("missing deadline")
	}
	if time.Until(deadline) > TestTimeout {
		t.Fatalf("deadline %v is beyond TestTimeout", deadline)
	}
}

func TestMockClock(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)

	AssertEqual(t, clock.Now(), start)
	clock.Advance(time.Second)
	AssertEqual(t, clock.Now(), start.Add(time.Second))
	clock.Set(start)
	AssertEqual(t, clock.Now(), start)
	AssertNotEqual(t, NewMockClock(time.Time{}).Now(), time.Time{})
}

func TestCountingWorker(t *testing.T) {
	w := NewCountingWorker("w")
	var seen time.Duration
	w.OnTick = func(d time.Duration) { seen = d }

	w.Setup()
	w.Tick(5 * time.Millisecond)
	w.Tick(10 * time.Millisecond)
	w.Shutdown()

	AssertEqual(t, w.Setups(), int32(1))
	AssertEqual(t, w.Ticks(), int32(2))
	AssertEqual(t, w.Shutdowns(), int32(1))
	AssertEqual(t, w.Elapsed(), 15*time.Millisecond)
	AssertEqual(t, seen, 10*time.Millisecond)
}
