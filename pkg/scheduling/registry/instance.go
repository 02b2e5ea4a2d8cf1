package registry

import (
	"sync"
	"time"

	"github.com/vnykmshr/tickflow/pkg/scheduling/tickthread"
	"github.com/vnykmshr/tickflow/pkg/scheduling/workerpool"
)

// ThreadInstance remembers the handle of a thread created on demand. Pin
// returns the thread, creating a new one whenever the previous one has
// been released.
type ThreadInstance struct {
	RestTime time.Duration
	Options  []tickthread.Option

	mu     sync.Mutex
	handle int
	set    bool
}

// Handle returns the last handle and whether one was ever assigned.
func (i *ThreadInstance) Handle() (int, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.handle, i.set
}

// Pin resolves the instance against m. The caller must keep the returned
// thread for as long as it needs it.
func (i *ThreadInstance) Pin(m *Manager) (*tickthread.Thread, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.set {
		if th, ok := m.GetThread(i.handle); ok {
			return th, nil
		}
	}

	h, th, err := m.CreateThread(i.RestTime, i.Options...)
	if err != nil {
		return nil, err
	}
	i.handle, i.set = h, true
	return th, nil
}

// PoolInstance is the pool counterpart of ThreadInstance.
type PoolInstance struct {
	ThreadCount int
	Options     []workerpool.Option

	mu     sync.Mutex
	handle int
	set    bool
}

// Handle returns the last handle and whether one was ever assigned.
func (i *PoolInstance) Handle() (int, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.handle, i.set
}

// Pin resolves the instance against m, creating a pool if needed.
func (i *PoolInstance) Pin(m *Manager) *workerpool.Pool {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.set {
		if p, ok := m.GetPool(i.handle); ok {
			return p
		}
	}

	h, p := m.CreatePool(i.ThreadCount, i.Options...)
	i.handle, i.set = h, true
	return p
}
