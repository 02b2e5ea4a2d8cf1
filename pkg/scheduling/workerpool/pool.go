package workerpool

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/vnykmshr/tickflow/pkg/metrics"
	"github.com/vnykmshr/tickflow/pkg/scheduling/future"
)

// Config holds configuration options for creating a worker pool.
type Config struct {
	// Name labels log lines and metrics.
	Name string

	// WorkerCount is the number of worker goroutines. A non-positive count
	// leaves the pool unusable until Configure is called with a positive one.
	WorkerCount int

	// QueueSize is the initial capacity of the job queue. The queue is
	// unbounded, so submissions never block.
	QueueSize int

	// Logger receives lifecycle and panic logs. Defaults to a no-op logger.
	Logger *zap.Logger

	// Metrics, if non-nil, receives pool gauges and job counters.
	Metrics *metrics.Registry

	// PanicHandler is called when a job or completion callback panics.
	// If nil, panics are recovered and logged as errors.
	PanicHandler func(recovered interface{}, stack []byte)

	// OnWorkerStart is called when a worker goroutine starts.
	OnWorkerStart func(workerID int)

	// OnWorkerStop is called when a worker goroutine stops.
	OnWorkerStop func(workerID int)

	// OnTaskStart is called before a job begins execution.
	OnTaskStart func(workerID int)

	// OnTaskComplete is called after a job returns or panics.
	OnTaskComplete func(workerID int, duration time.Duration)
}

// Option mutates a Config before the pool is built.
type Option func(*Config)

// WithName sets the pool name used in logs and metrics.
func WithName(name string) Option {
	return func(c *Config) { c.Name = name }
}

// WithLogger sets the pool logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(reg *metrics.Registry) Option {
	return func(c *Config) { c.Metrics = reg }
}

// WithQueueSize sets the initial queue capacity.
func WithQueueSize(n int) Option {
	return func(c *Config) { c.QueueSize = n }
}

// WithPanicHandler installs a panic handler.
func WithPanicHandler(h func(recovered interface{}, stack []byte)) Option {
	return func(c *Config) { c.PanicHandler = h }
}

// EventTask is one entry of a chain submission: the job to run and the
// future list node that receives the job's future.
type EventTask struct {
	Node *future.List
	Fn   func()
}

// Pool runs submitted jobs on a fixed set of worker goroutines.
//
// Configure may replace the worker set at any time. Jobs already queued on
// the previous set are finished by it before Configure returns.
type Pool struct {
	config  Config
	logger  *zap.Logger
	metrics *poolMetrics

	mu         sync.RWMutex
	set        *workerSet
	size       int
	isShutdown bool

	shutdownOnce sync.Once
	shutdownDone chan struct{}

	activeWorkers  atomic.Int32
	totalSubmitted atomic.Int64
	totalCompleted atomic.Int64
	generation     atomic.Int64
}

// job is a queued unit of work.
type job struct {
	fn      func()
	promise *future.Promise
}

// workerSet is one generation of worker goroutines sharing a queue.
type workerSet struct {
	pool *Pool
	gen  int64

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []job
	closed bool

	wg sync.WaitGroup
}

// worker represents a single worker goroutine of a set.
type worker struct {
	id  int
	set *workerSet
}

// New creates a pool with threadCount workers.
func New(threadCount int, opts ...Option) *Pool {
	config := Config{WorkerCount: threadCount}
	for _, opt := range opts {
		opt(&config)
	}
	return NewWithConfig(config)
}

// NewWithConfig creates a pool from config.
func NewWithConfig(config Config) *Pool {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.Name == "" {
		config.Name = "default"
	}
	if config.QueueSize < 0 {
		config.QueueSize = 0
	}

	p := &Pool{
		config:       config,
		logger:       config.Logger.Named("workerpool").With(zap.String("pool", config.Name)),
		metrics:      newPoolMetrics(config.Metrics, config.Name),
		shutdownDone: make(chan struct{}),
	}
	p.Configure(config.WorkerCount)
	return p
}

// Configure (re)creates the worker goroutines. Any previous set is shut down
// first: it stops accepting jobs and finishes the ones already queued.
//
// A non-positive threadCount leaves the pool unusable; submissions are then
// dropped. Configure must not be called from inside a job of this pool.
func (p *Pool) Configure(threadCount int) {
	var next *workerSet
	if threadCount > 0 {
		next = p.newWorkerSet(threadCount)
	} else {
		p.logger.Error("worker pool creation failed, pool is unusable",
			zap.Int("thread_count", threadCount))
	}

	p.mu.Lock()
	if p.isShutdown {
		p.mu.Unlock()
		p.logger.Warn("configure called after shutdown")
		if next != nil {
			next.close()
			next.wg.Wait()
		}
		return
	}
	prev := p.set
	p.set = next
	p.size = max(threadCount, 0)
	p.mu.Unlock()

	if prev != nil {
		prev.close()
		prev.wg.Wait()
		p.logger.Debug("previous worker set drained", zap.Int64("generation", prev.gen))
	}

	p.metrics.updateGauges(p)
	p.logger.Debug("worker pool configured", zap.Int("thread_count", threadCount))
}

// Submit queues job for execution. The returned future resolves once a
// worker has run job, after which onComplete is called on that worker.
// If the pool is unusable or job is nil, the job is dropped and an empty
// future is returned.
func (p *Pool) Submit(job func(), onComplete func()) *future.Future {
	if job == nil {
		p.metrics.dropped()
		return future.Empty()
	}

	promise := future.NewPromise(onComplete)

	p.mu.RLock()
	set := p.set
	queued := set != nil && set.push(newJob(job, promise))
	p.mu.RUnlock()

	if !queued {
		p.metrics.dropped()
		p.logger.Debug("job dropped, pool is unusable")
		return future.Empty()
	}

	p.totalSubmitted.Add(1)
	p.metrics.submitted()
	p.metrics.updateGauges(p)
	return promise.Future()
}

func newJob(fn func(), promise *future.Promise) job {
	return job{fn: fn, promise: promise}
}

// SubmitFunc runs fn on p and returns a future carrying its result. If fn
// panics the value resolves to the zero T. The second result is false when
// the pool dropped the job.
func SubmitFunc[T any](p *Pool, fn func() T) (*future.Value[T], bool) {
	vp := future.NewValuePromise[T](nil)
	var result T
	f := p.Submit(
		func() { result = fn() },
		func() { vp.Resolve(result) },
	)
	if !f.IsValid() {
		return nil, false
	}
	return vp.Value(), true
}

// SubmitChain submits a batch of jobs that complete together.
//
// It first blocks the calling goroutine until waitList (if any) is done.
// With no tasks, onComplete is called synchronously. Otherwise every task is
// submitted, its future attached to the task's node, and onComplete runs
// once, after the last job of the batch has finished. Tasks the pool drops
// still count towards completion.
func (p *Pool) SubmitChain(tasks []EventTask, waitList *future.List, onComplete func()) {
	if waitList != nil {
		waitList.Wait()
	}

	if len(tasks) == 0 {
		if onComplete != nil {
			onComplete()
		}
		return
	}

	p.metrics.chainSubmitted()

	var remaining atomic.Int32
	remaining.Store(int32(len(tasks)))
	countdown := func() {
		if remaining.Add(-1) == 0 {
			p.metrics.chainCompleted()
			if onComplete != nil {
				onComplete()
			}
		}
	}

	for i, t := range tasks {
		f := p.Submit(t.Fn, countdown)
		if !f.IsValid() {
			p.logger.Warn("chain entry dropped", zap.Int("index", i))
			countdown()
			continue
		}
		if t.Node != nil {
			t.Node.Attach(f)
		}
	}
}

// Shutdown stops the pool permanently. Queued jobs are still executed.
// The returned channel closes once every worker has exited.
func (p *Pool) Shutdown() <-chan struct{} {
	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		p.isShutdown = true
		set := p.set
		p.set = nil
		p.size = 0
		p.mu.Unlock()

		go func() {
			if set != nil {
				set.close()
				set.wg.Wait()
			}
			p.metrics.updateGauges(p)
			p.logger.Debug("worker pool shut down")
			close(p.shutdownDone)
		}()
	})

	return p.shutdownDone
}

// Name returns the pool name.
func (p *Pool) Name() string {
	return p.config.Name
}

// IsUsable reports whether the pool currently accepts jobs.
func (p *Pool) IsUsable() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.set != nil
}

// Size returns the number of workers in the current set.
func (p *Pool) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.size
}

// QueueSize returns the number of jobs waiting in the current set.
func (p *Pool) QueueSize() int {
	p.mu.RLock()
	set := p.set
	p.mu.RUnlock()
	if set == nil {
		return 0
	}
	return set.len()
}

// ActiveWorkers returns the number of workers currently executing jobs.
func (p *Pool) ActiveWorkers() int {
	return int(p.activeWorkers.Load())
}

// TotalSubmitted returns the total number of jobs accepted by the pool.
func (p *Pool) TotalSubmitted() int64 {
	return p.totalSubmitted.Load()
}

// TotalCompleted returns the total number of jobs that finished.
func (p *Pool) TotalCompleted() int64 {
	return p.totalCompleted.Load()
}
