package tickthread

import (
	"container/list"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/vnykmshr/tickflow/pkg/common/validation"
	"github.com/vnykmshr/tickflow/pkg/scheduling/future"
)

const (
	stateIdle int32 = iota
	stateRunning
	stateStopping
)

type entry struct {
	ref Ref
	id  int
}

// Thread ticks a dynamic set of workers on a dedicated goroutine.
//
// Workers are admitted and removed only by the loop itself, at the start
// of each pass, so AddWorker and RemoveWorker may be called from any
// goroutine, including from inside a worker callback.
type Thread struct {
	name    string
	logger  *zap.Logger
	metrics *threadMetrics
	clock   Clock

	restTime atomic.Int64
	paused   atomic.Bool
	stopping atomic.Bool
	state    atomic.Int32
	// loopGID is the id of the loop goroutine while it runs, zero otherwise.
	loopGID atomic.Uint64

	lifecycleMu sync.Mutex
	done        chan struct{}
	wake        chan struct{}

	queueMu sync.Mutex
	adds    []Ref
	removes []Ref
	acks    []*future.Promise

	// live and index are written only by the goroutine that drains.
	liveMu sync.RWMutex
	live   *list.List
	index  map[any]*list.Element
	nextID int
}

// New creates a stopped thread that sleeps restTime between passes.
// A zero rest time ticks as fast as possible.
func New(restTime time.Duration, opts ...Option) (*Thread, error) {
	if err := validation.ValidateNonNegativeDuration("tickthread", "restTime", restTime); err != nil {
		return nil, err
	}

	o := options{name: "default", clock: realClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.clock == nil {
		o.clock = realClock{}
	}

	t := &Thread{
		name:    o.name,
		logger:  o.logger.Named("tickthread").With(zap.String("thread", o.name)),
		metrics: newThreadMetrics(o.metrics, o.name),
		clock:   o.clock,
		wake:    make(chan struct{}, 1),
		live:    list.New(),
		index:   make(map[any]*list.Element),
	}
	t.restTime.Store(int64(restTime))
	t.metrics.restTime(restTime)
	return t, nil
}

// Name returns the thread name.
func (t *Thread) Name() string {
	return t.name
}

// Start launches the loop goroutine. onStarted, if non-nil, runs on that
// goroutine before the first pass. Start is a no-op while running.
func (t *Thread) Start(onStarted func()) {
	t.lifecycleMu.Lock()
	defer t.lifecycleMu.Unlock()

	if t.state.Load() != stateIdle {
		return
	}

	t.stopping.Store(false)
	t.paused.Store(false)
	t.done = make(chan struct{})
	t.state.Store(stateRunning)

	go t.loop(onStarted, t.done)
	t.logger.Debug("tick thread started")
}

// Stop ends the loop and blocks until every live worker has been shut
// down. Stop is a no-op when the thread is not running. Calling Stop from
// the loop goroutine (onStarted, Setup or Tick), or while a stop is in
// progress, for example from a worker's Shutdown, panics.
func (t *Thread) Stop() {
	if gid := t.loopGID.Load(); gid != 0 && gid == goroutineID() {
		panic("tickthread: Stop called from the tick loop")
	}
	if t.state.Load() == stateStopping {
		panic("tickthread: Stop called while the thread is already stopping")
	}

	t.lifecycleMu.Lock()
	defer t.lifecycleMu.Unlock()

	if t.state.Load() != stateRunning {
		return
	}
	t.state.Store(stateStopping)

	t.stopping.Store(true)
	t.paused.Store(false)
	t.signal()
	<-t.done

	t.drain()

	t.liveMu.RLock()
	refs := make([]Ref, 0, t.live.Len())
	for e := t.live.Front(); e != nil; e = e.Next() {
		refs = append(refs, e.Value.(*entry).ref)
	}
	t.liveMu.RUnlock()

	t.queueMu.Lock()
	t.removes = append(t.removes, refs...)
	t.queueMu.Unlock()

	t.drain()

	t.state.Store(stateIdle)
	t.logger.Debug("tick thread stopped", zap.Int("workers_shut_down", len(refs)))
}

// IsStarted reports whether the loop is running or stopping.
func (t *Thread) IsStarted() bool {
	return t.state.Load() != stateIdle
}

// IsStopped reports whether the loop is not running.
func (t *Thread) IsStopped() bool {
	return t.state.Load() == stateIdle
}

// SetRestTime changes the sleep between passes from the next pass on.
// A negative duration is a programming error and panics.
func (t *Thread) SetRestTime(d time.Duration) {
	if d < 0 {
		panic(fmt.Sprintf("tickthread: negative rest time %v", d))
	}
	t.restTime.Store(int64(d))
	t.metrics.restTime(d)
}

// RestTime returns the current rest interval.
func (t *Thread) RestTime() time.Duration {
	return time.Duration(t.restTime.Load())
}

// SetPause suspends or resumes ticking. A paused loop neither ticks nor
// drains its queues.
func (t *Thread) SetPause(paused bool) {
	t.paused.Store(paused)
	if !paused {
		t.signal()
	}
}

// IsPaused reports whether the loop is paused.
func (t *Thread) IsPaused() bool {
	return t.paused.Load()
}

// AddWorker queues ref for admission on the next pass. Requests made while
// the thread is stopping are ignored.
func (t *Thread) AddWorker(ref Ref) {
	if !ref.IsValid() {
		return
	}
	if t.state.Load() == stateStopping {
		t.logger.Debug("add ignored while stopping")
		return
	}
	t.queueMu.Lock()
	t.adds = append(t.adds, ref)
	t.queueMu.Unlock()
}

// RemoveWorkerAsync queues ref for removal on the next pass.
func (t *Thread) RemoveWorkerAsync(ref Ref) {
	if !ref.IsValid() {
		return
	}
	t.queueMu.Lock()
	t.removes = append(t.removes, ref)
	t.queueMu.Unlock()
}

// RemoveWorker queues ref for removal. The returned future resolves after
// the pass that processed the removal queue, together with every other
// removal request of that pass.
func (t *Thread) RemoveWorker(ref Ref) *future.Future {
	if !ref.IsValid() {
		return future.Empty()
	}
	p := future.NewPromise(nil)
	t.queueMu.Lock()
	t.removes = append(t.removes, ref)
	t.acks = append(t.acks, p)
	t.queueMu.Unlock()
	return p.Future()
}

// WorkerCount returns the number of live workers.
func (t *Thread) WorkerCount() int {
	t.liveMu.RLock()
	defer t.liveMu.RUnlock()
	return t.live.Len()
}

// WorkerID returns the id assigned to ref, if it is live.
func (t *Thread) WorkerID(ref Ref) (int, bool) {
	t.liveMu.RLock()
	defer t.liveMu.RUnlock()
	e, ok := t.index[ref.key]
	if !ok {
		return -1, false
	}
	return e.Value.(*entry).id, true
}

func (t *Thread) loop(onStarted func(), done chan struct{}) {
	t.loopGID.Store(goroutineID())
	defer close(done)
	defer t.loopGID.Store(0)

	if onStarted != nil {
		t.protect("started", onStarted)
	}

	last := t.clock.Now()
	for !t.stopping.Load() {
		if t.paused.Load() {
			<-t.wake
			continue
		}

		now := t.clock.Now()
		delta := now.Sub(last)
		last = now

		t.drain()
		t.tick(delta)
		t.sleep()
	}
}

// drain processes admissions, then removals, then releases every pending
// removal acknowledgement.
func (t *Thread) drain() {
	t.queueMu.Lock()
	adds, removes, acks := t.adds, t.removes, t.acks
	t.adds, t.removes, t.acks = nil, nil, nil
	t.queueMu.Unlock()

	for _, ref := range adds {
		t.admit(ref)
	}
	for _, ref := range removes {
		t.remove(ref)
	}
	for _, p := range acks {
		p.Set()
	}
}

func (t *Thread) admit(ref Ref) {
	w := ref.Resolve()
	if w == nil {
		return
	}
	if _, ok := t.index[ref.key]; ok {
		return
	}

	id := t.nextID
	t.nextID++

	t.liveMu.Lock()
	t.index[ref.key] = t.live.PushBack(&entry{ref: ref, id: id})
	t.liveMu.Unlock()

	if s, ok := w.(IDSetter); ok {
		s.SetWorkerID(id)
	}
	t.protect("setup", w.Setup)
	t.metrics.admitted()
	t.logger.Debug("worker admitted", zap.Int("worker_id", id))
}

func (t *Thread) remove(ref Ref) {
	e, ok := t.index[ref.key]
	if !ok {
		return
	}

	t.liveMu.Lock()
	t.live.Remove(e)
	delete(t.index, ref.key)
	t.liveMu.Unlock()

	t.metrics.removed()
	if w := ref.Resolve(); w != nil {
		t.protect("shutdown", w.Shutdown)
		if s, ok := w.(IDSetter); ok {
			s.SetWorkerID(-1)
		}
	}
	t.logger.Debug("worker removed", zap.Int("worker_id", e.Value.(*entry).id))
}

// tick walks the live list once, unlinking workers that were released.
func (t *Thread) tick(delta time.Duration) {
	start := time.Now()

	for e := t.live.Front(); e != nil; {
		next := e.Next()
		ent := e.Value.(*entry)

		if w := ent.ref.Resolve(); w != nil {
			t.protect("tick", func() { w.Tick(delta) })
		} else {
			t.liveMu.Lock()
			t.live.Remove(e)
			delete(t.index, ent.ref.key)
			t.liveMu.Unlock()
			t.metrics.expired()
			t.logger.Debug("released worker unlinked", zap.Int("worker_id", ent.id))
		}
		e = next
	}

	t.metrics.pass(time.Since(start), t.live.Len())
}

func (t *Thread) sleep() {
	d := t.RestTime()
	if d <= 0 {
		runtime.Gosched()
		return
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-t.wake:
	}
}

func (t *Thread) signal() {
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// protect runs a worker callback, recovering and logging a panic.
func (t *Thread) protect(hook string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			t.metrics.panicked(hook)
			t.logger.Error("worker panicked",
				zap.String("hook", hook),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
		}
	}()
	fn()
}
