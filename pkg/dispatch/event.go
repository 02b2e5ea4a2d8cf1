package dispatch

import "sync"

// Event is a multicast callback list.
type Event struct {
	mu   sync.Mutex
	next uint64
	subs []subscription
}

type subscription struct {
	id uint64
	fn func()
}

// NewEvent creates an event without subscribers.
func NewEvent() *Event {
	return &Event{}
}

// Subscribe adds fn and returns a function that removes it again.
func (e *Event) Subscribe(fn func()) (unsubscribe func()) {
	e.mu.Lock()
	id := e.next
	e.next++
	e.subs = append(e.subs, subscription{id: id, fn: fn})
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { e.remove(id) })
	}
}

func (e *Event) remove(id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, s := range e.subs {
		if s.id == id {
			e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
			return
		}
	}
}

// Broadcast calls every subscriber in subscription order.
func (e *Event) Broadcast() {
	e.mu.Lock()
	subs := make([]subscription, len(e.subs))
	copy(subs, e.subs)
	e.mu.Unlock()

	for _, s := range subs {
		s.fn()
	}
}

// Subscribers returns the number of subscribers.
func (e *Event) Subscribers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs)
}
