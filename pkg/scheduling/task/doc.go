// Package task composes pool jobs into tasks and chains of tasks.
//
// A Task groups closures that are submitted to a workerpool.Pool as one
// batch and resolve together. A Ref builds on top of it: AddTask adds a
// closure to the current task (parallel), AddTaskChain starts a new task
// that runs only after everything before it has finished (sequential).
//
//	var r task.Ref
//	r.Init(pool)
//	r.AddTask(loadA)
//	r.AddTask(loadB)       // runs in parallel with loadA
//	r.AddTaskChain(merge)  // runs after loadA and loadB
//	r.EnqueueTask()
//	r.Wait()
//
// A Ref moves from Idle to Executing on EnqueueTask and to Done once its
// last task has completed. It only accepts new closures while Idle; Reset
// brings a finished Ref back to the zero state.
package task
