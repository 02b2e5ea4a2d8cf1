package future

import (
	"sync"

	tferrors "github.com/vnykmshr/tickflow/pkg/common/errors"
)

// Signal is a reusable promise with a completion callback and "done"
// listeners. Each Init arms a fresh promise; Fire resolves it, runs the
// callback and then notifies every listener registered through OnDone.
type Signal struct {
	mu        sync.Mutex
	promise   *Promise
	fut       *Future
	callback  func()
	listeners []func()
}

// Init arms the signal with cb as its completion callback. It fails with
// ErrNotIdle while a previously armed promise is still pending.
func (s *Signal) Init(cb func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fut.IsValid() && !s.fut.IsReady() {
		return tferrors.ErrNotIdle
	}

	s.callback = cb
	s.promise = NewPromise(s.complete)
	s.fut = s.promise.Future()
	return nil
}

// Fire resolves the armed promise. It returns false if the signal was not
// armed or has already fired.
func (s *Signal) Fire() bool {
	s.mu.Lock()
	p := s.promise
	s.promise = nil
	s.mu.Unlock()

	if p == nil {
		return false
	}
	p.Set()
	return true
}

// OnDone registers fn to run after every completion.
func (s *Signal) OnDone(fn func()) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Future returns the future of the most recent Init, or nil.
func (s *Signal) Future() *Future {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fut
}

// IsValid reports whether the signal has been armed at least once.
func (s *Signal) IsValid() bool {
	return s.Future().IsValid()
}

// IsReady reports whether the most recent promise has resolved.
func (s *Signal) IsReady() bool {
	return s.Future().IsReady()
}

// IsIdle is true when the signal is unarmed or its last promise resolved.
func (s *Signal) IsIdle() bool {
	f := s.Future()
	return !f.IsValid() || f.IsReady()
}

// Wait blocks until the armed promise resolves.
func (s *Signal) Wait() {
	s.Future().Wait()
}

func (s *Signal) complete() {
	s.mu.Lock()
	cb := s.callback
	s.callback = nil
	listeners := append([]func(){}, s.listeners...)
	s.mu.Unlock()

	if cb != nil {
		cb()
	}
	for _, fn := range listeners {
		fn()
	}
}
