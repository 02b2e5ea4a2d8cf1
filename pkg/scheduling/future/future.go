package future

import (
	"context"
	"sync"
)

var closed = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Future is a one-shot completion signal backed by a channel that is closed
// when the producing side resolves it.
//
// The zero value (and a nil *Future) is an empty future: it is never valid,
// never ready, and Wait returns immediately.
type Future struct {
	done chan struct{}
}

// Empty returns a future that is not bound to any producer.
func Empty() *Future {
	return &Future{}
}

// Resolved returns a future that is already complete.
func Resolved() *Future {
	return &Future{done: closed}
}

// IsValid reports whether the future is bound to a producer.
func (f *Future) IsValid() bool {
	return f != nil && f.done != nil
}

// IsReady reports whether the future is valid and resolved.
func (f *Future) IsReady() bool {
	if !f.IsValid() {
		return false
	}
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the future resolves. Empty futures return immediately.
func (f *Future) Wait() {
	if !f.IsValid() {
		return
	}
	<-f.done
}

// WaitContext is like Wait but gives up when ctx is done.
func (f *Future) WaitContext(ctx context.Context) error {
	select {
	case <-f.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done returns a channel closed on resolution. For an empty future the
// returned channel is already closed.
func (f *Future) Done() <-chan struct{} {
	if !f.IsValid() {
		return closed
	}
	return f.done
}

// Promise is the producing side of a Future.
type Promise struct {
	fut   *Future
	once  sync.Once
	onSet func()
}

// NewPromise creates an unresolved promise. onSet, if non-nil, runs once on
// the goroutine calling Set, after the future has been resolved.
func NewPromise(onSet func()) *Promise {
	return &Promise{
		fut:   &Future{done: make(chan struct{})},
		onSet: onSet,
	}
}

// Future returns the consumer view of the promise.
func (p *Promise) Future() *Future {
	return p.fut
}

// Set resolves the promise. Calls after the first are ignored.
func (p *Promise) Set() {
	p.once.Do(func() {
		close(p.fut.done)
		if p.onSet != nil {
			p.onSet()
		}
	})
}

// Value is a future that carries a result of type T.
type Value[T any] struct {
	fut *Future
	val T
}

// Future returns the untyped completion signal.
func (v *Value[T]) Future() *Future {
	return v.fut
}

// Wait blocks until the value has been stored.
func (v *Value[T]) Wait() {
	v.fut.Wait()
}

// Get waits for and returns the stored value.
func (v *Value[T]) Get() T {
	v.fut.Wait()
	return v.val
}

// ValuePromise is the producing side of a Value.
type ValuePromise[T any] struct {
	value   *Value[T]
	promise *Promise
}

// NewValuePromise creates an unresolved value promise.
func NewValuePromise[T any](onSet func()) *ValuePromise[T] {
	p := NewPromise(onSet)
	return &ValuePromise[T]{
		value:   &Value[T]{fut: p.Future()},
		promise: p,
	}
}

// Value returns the consumer view.
func (p *ValuePromise[T]) Value() *Value[T] {
	return p.value
}

// Resolve stores val and resolves the future. Only the first call has effect.
func (p *ValuePromise[T]) Resolve(val T) {
	p.promise.once.Do(func() {
		p.value.val = val
		close(p.promise.fut.done)
		if p.promise.onSet != nil {
			p.promise.onSet()
		}
	})
}
