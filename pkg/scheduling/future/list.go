package future

import "sync"

// List is one node of a singly linked chain of futures. A chain is "done"
// when every node is either unset or resolved.
//
// Attach is typically called from a pool goroutine while the owner polls
// IsDone or blocks in Wait, so every node guards its own slots.
type List struct {
	mu   sync.Mutex
	fut  *Future
	next *List
}

// NewList returns an empty head node.
func NewList() *List {
	return &List{}
}

// Attach stores f in this node, replacing any previous future.
func (l *List) Attach(f *Future) {
	l.mu.Lock()
	l.fut = f
	l.mu.Unlock()
}

// Future returns the future stored in this node, or nil.
func (l *List) Future() *Future {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fut
}

// Next returns the following node, or nil at the tail.
func (l *List) Next() *List {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.next
}

// AllocateNext returns the following node, creating it first if needed.
func (l *List) AllocateNext() *List {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.next == nil {
		l.next = &List{}
	}
	return l.next
}

// IsValid reports whether this node holds a bound future.
func (l *List) IsValid() bool {
	return l.Future().IsValid()
}

// IsReady reports whether this node's future is bound and resolved.
func (l *List) IsReady() bool {
	return l.Future().IsReady()
}

// IsDone reports whether this node and every node after it is unset or
// resolved.
func (l *List) IsDone() bool {
	for n := l; n != nil; n = n.Next() {
		f := n.Future()
		if f.IsValid() && !f.IsReady() {
			return false
		}
	}
	return true
}

// Wait blocks until every future in the chain starting at l has resolved.
func (l *List) Wait() {
	for n := l; n != nil; n = n.Next() {
		n.Future().Wait()
	}
}

// Len returns the number of nodes from l to the tail.
func (l *List) Len() int {
	n := 0
	for node := l; node != nil; node = node.Next() {
		n++
	}
	return n
}

// Reset waits for the chain, then drops this node's future and its tail.
func (l *List) Reset() {
	l.Wait()
	l.mu.Lock()
	l.fut = nil
	l.next = nil
	l.mu.Unlock()
}

// EventRef is a resettable handle to a shared chain.
type EventRef struct {
	mu   sync.Mutex
	list *List
}

// NewEventRef wraps list.
func NewEventRef(list *List) *EventRef {
	return &EventRef{list: list}
}

// Set replaces the referenced chain.
func (e *EventRef) Set(list *List) {
	e.mu.Lock()
	e.list = list
	e.mu.Unlock()
}

// List returns the referenced chain, or nil.
func (e *EventRef) List() *List {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.list
}

// IsValid reports whether a chain is referenced.
func (e *EventRef) IsValid() bool {
	return e.List() != nil
}

// IsDone is true when nothing is referenced or the referenced chain is done.
func (e *EventRef) IsDone() bool {
	l := e.List()
	return l == nil || l.IsDone()
}

// Wait waits for the referenced chain and then releases it.
func (e *EventRef) Wait() {
	if l := e.List(); l != nil {
		l.Wait()
	}
	e.Set(nil)
}
