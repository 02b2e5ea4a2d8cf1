// Package registry provides Manager, an explicitly constructed directory of
// tick threads and worker pools addressed by integer handles.
//
// The manager holds weak pointers only. Whoever creates a thread or pool
// through it owns the result; once released (and stopped), its handle
// stops resolving. ThreadInstance and PoolInstance wrap the common "get or
// create" pattern on top of that.
//
//	m := registry.NewManager(registry.WithLogger(logger))
//	h, th, err := m.CreateThread(30 * time.Millisecond)
//	if err != nil {
//		return err
//	}
//	th.Start(nil)
//	_ = m.AddWorker(h, tickthread.WeakRef(w))
//	defer m.Close()
package registry
