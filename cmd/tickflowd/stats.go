package main

import (
	"sync"
	"time"

	"github.com/vnykmshr/tickflow/pkg/dispatch"
	"github.com/vnykmshr/tickflow/pkg/scheduling/tickthread"
)

// statsWorker raises an event on the dispatch queue every interval of tick
// time, so subscribers run on the main loop rather than the tick thread.
type statsWorker struct {
	tickthread.BaseWorker

	interval time.Duration
	queue    *dispatch.Queue
	event    *dispatch.Event

	mu      sync.Mutex
	elapsed time.Duration
}

func newStatsWorker(interval time.Duration, queue *dispatch.Queue) *statsWorker {
	return &statsWorker{
		interval: interval,
		queue:    queue,
		event:    dispatch.NewEvent(),
	}
}

func (w *statsWorker) Tick(delta time.Duration) {
	w.mu.Lock()
	w.elapsed += delta
	due := w.elapsed >= w.interval
	if due {
		w.elapsed = 0
	}
	w.mu.Unlock()

	if due {
		w.queue.EnqueueEvent(w.event)
	}
}
