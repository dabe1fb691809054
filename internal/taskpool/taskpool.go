// Package taskpool implements the fork-join task primitive the transform
// engine shards pixel ranges across: Create starts a worker immediately,
// Destroy blocks until it is done. There is no queue, no work-stealing,
// and no long-lived pool — each Task is one goroutine, used once.
package taskpool

import (
	"runtime"

	"github.com/klauspost/cpuid"
	"github.com/pbnjay/memory"
	"github.com/pkg/errors"
)

// Task wraps a single goroutine running a caller-supplied callable to
// completion. The callable's argument must outlive the Task; a Task does
// not take ownership of it.
type Task struct {
	done chan struct{}
	err  error
}

// Create starts fn(arg) in a new goroutine and returns immediately. A
// panic inside fn is recovered and reported through Err after Destroy
// returns, rather than crashing the process: a dispatch bug in one slab
// should not take down unrelated goroutines mid-Run.
func Create(fn func(arg any), arg any) *Task {
	t := &Task{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		defer func() {
			if r := recover(); r != nil {
				t.err = errors.Errorf("icc: task panicked: %v", r)
			}
		}()
		fn(arg)
	}()
	return t
}

// Destroy blocks until the task's goroutine has finished, then releases
// its resources. It is the only join point; Destroy must be called
// exactly once per Task.
func (t *Task) Destroy() {
	<-t.done
}

// Err returns the task's panic, if any, as recovered inside the task's
// goroutine. Callers must call Destroy before calling Err.
func (t *Task) Err() error {
	return t.err
}

// DefaultParallelism returns an advisory worker count for callers that
// don't already have one: runtime.GOMAXPROCS(0), floored at 1 physical
// core via cpuid, and capped so that sharding a buffer does not request
// more workers than the machine can usefully feed from memory. Transform
// callers are never required to use this — Run's taskCount parameter
// remains authoritative.
func DefaultParallelism() int {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		n = cpuid.CPU.PhysicalCores
	}
	if n < 1 {
		n = 1
	}

	// Cap to roughly one worker per 256MiB of physical memory, so a
	// memory-constrained container doesn't oversubscribe itself when the
	// caller asks for DefaultParallelism() without also sizing its own
	// buffers.
	if total := memory.TotalMemory(); total > 0 {
		const perWorker = 256 * 1024 * 1024
		if cap := int(total / perWorker); cap > 0 && cap < n {
			n = cap
		}
	}
	return n
}
