// Package spawn provides the small fork/join surface the task-graph
// scheduler is written against: spawn a task, sync on everything spawned in
// the current scope, and read a worker id for logging. Any work-stealing
// engine with those three primitives could substitute; this implementation
// runs spawned tasks on goroutines, optionally bounded by a weighted
// semaphore.
package spawn

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Mode selects how spawned tasks execute.
type Mode int

const (
	// Serial runs every spawned task inline in program order.
	Serial Mode = iota
	// Parallel runs every spawned task on its own goroutine.
	Parallel
)

// String returns the string representation of Mode.
func (m Mode) String() string {
	switch m {
	case Serial:
		return "serial"
	case Parallel:
		return "parallel"
	default:
		return "unknown"
	}
}

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "serial":
		return Serial, true
	case "parallel":
		return Parallel, true
	default:
		return Serial, false
	}
}

type workerIDKey struct{}

// workerSeq hands out worker ids for spawned tasks, process-wide.
var workerSeq atomic.Int64

// WorkerID returns the worker id carried by ctx, or 0 for the initial
// worker. The id is intended for logging only.
func WorkerID(ctx context.Context) int {
	if v, ok := ctx.Value(workerIDKey{}).(int); ok {
		return v
	}
	return 0
}

// Workers reports the effective parallelism of the runtime.
func Workers() int {
	return runtime.GOMAXPROCS(0)
}

// Group is one fork/join scope: tasks spawned through it are joined by
// Sync. The zero value is not usable; create one per scope with NewGroup.
type Group struct {
	mode Mode
	wg   sync.WaitGroup
	sem  *semaphore.Weighted
}

// NewGroup creates a fork/join scope for the given mode.
func NewGroup(mode Mode) *Group {
	return &Group{mode: mode}
}

// WithLimit bounds the number of concurrently running tasks spawned through
// this group and returns it. Spawning never blocks; excess tasks wait on a
// semaphore before running. A limit below one is ignored.
func (g *Group) WithLimit(n int64) *Group {
	if n > 0 {
		g.sem = semaphore.NewWeighted(n)
	}
	return g
}

// Mode returns the group's execution mode.
func (g *Group) Mode() Mode {
	return g.mode
}

// Spawn schedules fn. In Serial mode it runs inline; in Parallel mode it
// runs on a new goroutine whose context carries a fresh worker id.
func (g *Group) Spawn(ctx context.Context, fn func(ctx context.Context)) {
	if g.mode == Serial {
		fn(ctx)
		return
	}

	child := context.WithValue(ctx, workerIDKey{}, int(workerSeq.Add(1)))
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		if g.sem != nil {
			// Acquire against the background context: cancellation is not
			// part of the scheduling contract, and a skipped task would
			// strand its join counters.
			_ = g.sem.Acquire(context.Background(), 1)
			defer g.sem.Release(1)
		}
		fn(child)
	}()
}

// Sync blocks until every task spawned through this group has finished.
// In Serial mode it returns immediately.
func (g *Group) Sync() {
	g.wg.Wait()
}
