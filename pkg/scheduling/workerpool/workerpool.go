package workerpool

import (
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"
)

func (p *Pool) newWorkerSet(n int) *workerSet {
	s := &workerSet{
		pool:  p,
		gen:   p.generation.Add(1),
		queue: make([]job, 0, p.config.QueueSize),
	}
	s.cond = sync.NewCond(&s.mu)

	for i := 0; i < n; i++ {
		w := &worker{id: i, set: s}
		s.wg.Add(1)
		go w.run()
	}
	return s
}

// push appends j to the queue. It fails once the set is closed.
func (s *workerSet) push(j job) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.queue = append(s.queue, j)
	s.cond.Signal()
	return true
}

// pop blocks until a job is available. It returns false once the set is
// closed and the queue is empty.
func (s *workerSet) pop() (job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.queue) == 0 && !s.closed {
		s.cond.Wait()
	}
	if len(s.queue) == 0 {
		return job{}, false
	}
	j := s.queue[0]
	s.queue[0] = job{}
	s.queue = s.queue[1:]
	return j, true
}

func (s *workerSet) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cond.Broadcast()
}

func (s *workerSet) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// run is the main loop for a worker.
func (w *worker) run() {
	p := w.set.pool
	defer w.set.wg.Done()

	if p.config.OnWorkerStart != nil {
		p.config.OnWorkerStart(w.id)
	}
	defer func() {
		if p.config.OnWorkerStop != nil {
			p.config.OnWorkerStop(w.id)
		}
	}()

	for {
		j, ok := w.set.pop()
		if !ok {
			return
		}
		w.execute(j)
	}
}

// execute runs a single job and resolves its promise, even if the job
// panics.
func (w *worker) execute(j job) {
	p := w.set.pool
	start := time.Now()

	p.activeWorkers.Add(1)
	if p.config.OnTaskStart != nil {
		p.config.OnTaskStart(w.id)
	}

	p.protect(j.fn)

	duration := time.Since(start)
	p.activeWorkers.Add(-1)
	p.totalCompleted.Add(1)
	p.metrics.completed(duration)
	p.metrics.updateGauges(p)

	if p.config.OnTaskComplete != nil {
		p.config.OnTaskComplete(w.id, duration)
	}

	p.protect(j.promise.Set)
}

// protect calls fn, recovering and reporting a panic.
func (p *Pool) protect(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			p.metrics.panicked()
			if p.config.PanicHandler != nil {
				p.config.PanicHandler(r, stack)
				return
			}
			p.logger.Error("job panicked",
				zap.Error(fmt.Errorf("job panicked: %v", r)),
				zap.ByteString("stack", stack))
		}
	}()
	fn()
}
