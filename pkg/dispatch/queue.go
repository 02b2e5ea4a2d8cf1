package dispatch

import (
	"context"
	"runtime/debug"
	"sync"
	"time"
	"weak"

	"go.uber.org/zap"

	"github.com/vnykmshr/tickflow/pkg/metrics"
)

// Queue is a FIFO of callbacks executed in bulk by whoever drives it,
// typically once per frame of a main loop.
type Queue struct {
	name    string
	logger  *zap.Logger
	metrics *metrics.Registry

	mu    sync.Mutex
	items []item
}

type item struct {
	fn    func()
	event weak.Pointer[Event]
}

// Option configures a Queue.
type Option func(*Queue)

// WithName sets the queue name used in logs and metrics.
func WithName(name string) Option {
	return func(q *Queue) { q.name = name }
}

// WithLogger sets the queue logger.
func WithLogger(logger *zap.Logger) Option {
	return func(q *Queue) { q.logger = logger }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(reg *metrics.Registry) Option {
	return func(q *Queue) { q.metrics = reg }
}

// NewQueue creates an empty queue.
func NewQueue(opts ...Option) *Queue {
	q := &Queue{name: "default"}
	for _, opt := range opts {
		opt(q)
	}
	if q.logger == nil {
		q.logger = zap.NewNop()
	}
	q.logger = q.logger.Named("dispatch").With(zap.String("queue", q.name))
	return q
}

// Enqueue appends fn. Safe for concurrent use.
func (q *Queue) Enqueue(fn func()) {
	if fn == nil {
		return
	}
	q.push(item{fn: fn})
}

// EnqueueEvent appends a broadcast of e. The queue does not keep e alive;
// if it has been collected by the time the queue drains, the entry is
// skipped.
func (q *Queue) EnqueueEvent(e *Event) {
	if e == nil {
		return
	}
	q.push(item{event: weak.Make(e)})
}

func (q *Queue) push(it item) {
	q.mu.Lock()
	q.items = append(q.items, it)
	n := len(q.items)
	q.mu.Unlock()

	if q.metrics != nil {
		q.metrics.DispatchPending.WithLabelValues(q.name).Set(float64(n))
	}
}

// Len returns the number of pending entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// DrainAndExecuteAll runs pending entries in FIFO order until the queue is
// empty, including entries enqueued by the callbacks themselves. It returns
// the number of callbacks executed.
func (q *Queue) DrainAndExecuteAll() int {
	executed := 0
	for {
		q.mu.Lock()
		batch := q.items
		q.items = nil
		q.mu.Unlock()

		if len(batch) == 0 {
			break
		}
		for _, it := range batch {
			if q.execute(it) {
				executed++
			}
		}
	}

	if q.metrics != nil {
		q.metrics.DispatchCallbacks.WithLabelValues(q.name).Add(float64(executed))
		q.metrics.DispatchPending.WithLabelValues(q.name).Set(0)
	}
	return executed
}

func (q *Queue) execute(it item) bool {
	fn := it.fn
	if fn == nil {
		e := it.event.Value()
		if e == nil {
			return false
		}
		fn = e.Broadcast
	}

	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("dispatch callback panicked",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
		}
	}()
	fn()
	return true
}

// Run drains the queue every interval until ctx is done, then drains one
// final time.
func (q *Queue) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	q.logger.Debug("dispatch loop started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			q.DrainAndExecuteAll()
			q.logger.Debug("dispatch loop stopped")
			return
		case <-ticker.C:
			q.DrainAndExecuteAll()
		}
	}
}
