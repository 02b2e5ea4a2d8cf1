// Package cronworker provides a tick worker that submits a job to a worker
// pool on a cron schedule.
//
// Expressions take an optional seconds field, so both "*/10 * * * * *" and
// "0 * * * *" are accepted, as well as descriptors such as "@hourly" and
// "@every 5s".
//
//	w, err := cronworker.New("cleanup", "@every 30s", pool, cleanup,
//		cronworker.WithSkipIfStillRunning())
//	if err != nil {
//		return err
//	}
//	th.AddWorker(tickthread.WeakRef(w))
package cronworker
