package registry

import (
	"fmt"
	"sync"
	"time"
	"weak"

	"go.uber.org/zap"

	tferrors "github.com/vnykmshr/tickflow/pkg/common/errors"
	"github.com/vnykmshr/tickflow/pkg/common/validation"
	"github.com/vnykmshr/tickflow/pkg/metrics"
	"github.com/vnykmshr/tickflow/pkg/scheduling/future"
	"github.com/vnykmshr/tickflow/pkg/scheduling/tickthread"
	"github.com/vnykmshr/tickflow/pkg/scheduling/workerpool"
)

// Manager hands out integer handles for tick threads and worker pools.
//
// The manager never owns what it creates: it keeps weak pointers, so a
// thread or pool lives exactly as long as its creator keeps it. Running
// threads and pools stay reachable through their own goroutines.
type Manager struct {
	logger  *zap.Logger
	metrics *metrics.Registry

	mu         sync.Mutex
	threads    map[int]weak.Pointer[tickthread.Thread]
	pools      map[int]weak.Pointer[workerpool.Pool]
	nextThread int
	nextPool   int
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger handed to every created thread and pool.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithMetrics sets the metrics registry handed to every created thread and
// pool.
func WithMetrics(reg *metrics.Registry) Option {
	return func(m *Manager) { m.metrics = reg }
}

// NewManager creates an empty manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		threads: make(map[int]weak.Pointer[tickthread.Thread]),
		pools:   make(map[int]weak.Pointer[workerpool.Pool]),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	return m
}

// CreateThread creates a stopped tick thread and returns its handle. opts
// are applied after the manager's defaults.
func (m *Manager) CreateThread(restTime time.Duration, opts ...tickthread.Option) (int, *tickthread.Thread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := m.nextThread
	base := []tickthread.Option{
		tickthread.WithName(fmt.Sprintf("thread-%d", h)),
		tickthread.WithLogger(m.logger),
		tickthread.WithMetrics(m.metrics),
	}
	th, err := tickthread.New(restTime, append(base, opts...)...)
	if err != nil {
		return -1, nil, tferrors.NewOperationError("registry", "CreateThread", err)
	}

	m.nextThread++
	m.threads[h] = weak.Make(th)
	m.logger.Debug("thread created", zap.Int("handle", h), zap.String("name", th.Name()))
	return h, th, nil
}

// CreatePool creates a worker pool and returns its handle. A non-positive
// threadCount yields an unusable pool, as with workerpool.New.
func (m *Manager) CreatePool(threadCount int, opts ...workerpool.Option) (int, *workerpool.Pool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := m.nextPool
	base := []workerpool.Option{
		workerpool.WithName(fmt.Sprintf("pool-%d", h)),
		workerpool.WithLogger(m.logger),
		workerpool.WithMetrics(m.metrics),
	}
	p := workerpool.New(threadCount, append(base, opts...)...)

	m.nextPool++
	m.pools[h] = weak.Make(p)
	m.logger.Debug("pool created", zap.Int("handle", h), zap.String("name", p.Name()))
	return h, p
}

// GetThread resolves a thread handle.
func (m *Manager) GetThread(h int) (*tickthread.Thread, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.threadLocked(h)
}

// HasThread reports whether h resolves to a live thread.
func (m *Manager) HasThread(h int) bool {
	_, ok := m.GetThread(h)
	return ok
}

// GetPool resolves a pool handle.
func (m *Manager) GetPool(h int) (*workerpool.Pool, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.poolLocked(h)
}

// HasPool reports whether h resolves to a live pool.
func (m *Manager) HasPool(h int) bool {
	_, ok := m.GetPool(h)
	return ok
}

func (m *Manager) threadLocked(h int) (*tickthread.Thread, bool) {
	wp, ok := m.threads[h]
	if !ok {
		return nil, false
	}
	th := wp.Value()
	if th == nil {
		delete(m.threads, h)
		return nil, false
	}
	return th, true
}

func (m *Manager) poolLocked(h int) (*workerpool.Pool, bool) {
	wp, ok := m.pools[h]
	if !ok {
		return nil, false
	}
	p := wp.Value()
	if p == nil {
		delete(m.pools, h)
		return nil, false
	}
	return p, true
}

func notFound(op string, h int) error {
	return tferrors.NewOperationError("registry", op, tferrors.ErrNotFound).
		WithContext(fmt.Sprintf("thread handle %d", h))
}

// AddWorker queues ref for admission on the thread behind h.
func (m *Manager) AddWorker(h int, ref tickthread.Ref) error {
	th, ok := m.GetThread(h)
	if !ok {
		return notFound("AddWorker", h)
	}
	th.AddWorker(ref)
	return nil
}

// RemoveWorkerAsync queues ref for removal on the thread behind h.
func (m *Manager) RemoveWorkerAsync(h int, ref tickthread.Ref) error {
	th, ok := m.GetThread(h)
	if !ok {
		return notFound("RemoveWorkerAsync", h)
	}
	th.RemoveWorkerAsync(ref)
	return nil
}

// RemoveWorker queues ref for removal and returns the acknowledgement
// future. The future is empty when h does not resolve.
func (m *Manager) RemoveWorker(h int, ref tickthread.Ref) *future.Future {
	th, ok := m.GetThread(h)
	if !ok {
		return future.Empty()
	}
	return th.RemoveWorker(ref)
}

// SetRestTime changes the rest time of the thread behind h.
func (m *Manager) SetRestTime(h int, d time.Duration) error {
	if err := validation.ValidateNonNegativeDuration("registry", "restTime", d); err != nil {
		return err
	}
	th, ok := m.GetThread(h)
	if !ok {
		return notFound("SetRestTime", h)
	}
	th.SetRestTime(d)
	return nil
}

// RestTime returns the rest time of the thread behind h, or -1 if h does
// not resolve.
func (m *Manager) RestTime(h int) time.Duration {
	th, ok := m.GetThread(h)
	if !ok {
		return -1
	}
	return th.RestTime()
}

// Stats is a point-in-time summary of the registry.
type Stats struct {
	Threads        int `json:"threads"`
	RunningThreads int `json:"running_threads"`
	LiveWorkers    int `json:"live_workers"`
	Pools          int `json:"pools"`
	UsablePools    int `json:"usable_pools"`
	PoolWorkers    int `json:"pool_workers"`
	QueuedJobs     int `json:"queued_jobs"`
}

// Stats walks every live handle. Expired handles are pruned on the way.
func (m *Manager) Stats() Stats {
	var s Stats
	for _, th := range m.liveThreads() {
		s.Threads++
		if th.IsStarted() {
			s.RunningThreads++
		}
		s.LiveWorkers += th.WorkerCount()
	}
	for _, p := range m.livePools() {
		s.Pools++
		if p.IsUsable() {
			s.UsablePools++
		}
		s.PoolWorkers += p.Size()
		s.QueuedJobs += p.QueueSize()
	}
	return s
}

// Close stops every live thread, then shuts down every live pool and waits
// for their queued jobs.
func (m *Manager) Close() {
	for _, th := range m.liveThreads() {
		th.Stop()
	}
	for _, p := range m.livePools() {
		<-p.Shutdown()
	}
	m.logger.Debug("registry closed")
}

func (m *Manager) liveThreads() []*tickthread.Thread {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*tickthread.Thread, 0, len(m.threads))
	for h := range m.threads {
		if th, ok := m.threadLocked(h); ok {
			out = append(out, th)
		}
	}
	return out
}

func (m *Manager) livePools() []*workerpool.Pool {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*workerpool.Pool, 0, len(m.pools))
	for h := range m.pools {
		if p, ok := m.poolLocked(h); ok {
			out = append(out, p)
		}
	}
	return out
}
