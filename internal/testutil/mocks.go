package testutil

import (
	"sync"
	"sync/atomic"
	"time"
)

// MockClock is a manually advanced clock for tick-loop and cron tests.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockClock creates a new MockClock starting at the given time.
// If zero time is provided, uses current time.
func NewMockClock(start time.Time) *MockClock {
	if start.IsZero() {
		start = time.Now()
	}
	return &MockClock{now: start}
}

// Now returns the current mock time.
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the mock clock forward by the given duration.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// Set sets the mock clock to a specific time.
func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// CountingWorker is a tick worker that counts its lifecycle calls and keeps
// the total delta it was ticked with.
type CountingWorker struct {
	Name string

	setups    int32
	ticks     int32
	shutdowns int32
	elapsed   int64

	// OnTick, if set, runs at the end of every Tick.
	OnTick func(delta time.Duration)
}

// NewCountingWorker creates a named counting worker.
func NewCountingWorker(name string) *CountingWorker {
	return &CountingWorker{Name: name}
}

func (w *CountingWorker) Setup() { atomic.AddInt32(&w.setups, 1) }

func (w *CountingWorker) Tick(delta time.Duration) {
	atomic.AddInt32(&w.ticks, 1)
	atomic.AddInt64(&w.elapsed, int64(delta))
	if w.OnTick != nil {
		w.OnTick(delta)
	}
}

func (w *CountingWorker) Shutdown() { atomic.AddInt32(&w.shutdowns, 1) }

func (w *CountingWorker) Setups() int32    { return atomic.LoadInt32(&w.setups) }
func (w *CountingWorker) Ticks() int32     { return atomic.LoadInt32(&w.ticks) }
func (w *CountingWorker) Shutdowns() int32 { return atomic.LoadInt32(&w.shutdowns) }

// TicksAddr exposes the tick counter for WaitForAtLeastInt32.
func (w *CountingWorker) TicksAddr() *int32 { return &w.ticks }

// Elapsed returns the sum of every delta passed to Tick.
func (w *CountingWorker) Elapsed() time.Duration {
	return time.Duration(atomic.LoadInt64(&w.elapsed))
}
