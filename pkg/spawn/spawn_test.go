package spawn

import (
	"context"
	"sync/atomic"
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestGroup_SerialRunsInline(t *testing.T) {
	g := NewGroup(Serial)

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		g.Spawn(context.Background(), func(ctx context.Context) {
			order = append(order, i)
		})
	}
	g.Sync()

	if len(order) != 5 {
		t.Fatalf("Expected 5 tasks, ran %d", len(order))
	}
	for i, v := range order {
		if v != i {
			t.Errorf("Serial order violated at %d: got %d", i, v)
		}
	}
}

func TestGroup_ParallelSyncWaitsForAll(t *testing.T) {
	g := NewGroup(Parallel)

	var count atomic.Int64
	for i := 0; i < 100; i++ {
		g.Spawn(context.Background(), func(ctx context.Context) {
			count.Add(1)
		})
	}
	g.Sync()

	if got := count.Load(); got != 100 {
		t.Errorf("Expected 100 completed tasks after Sync, got %d", got)
	}
}

func TestGroup_ParallelWorkerIDs(t *testing.T) {
	g := NewGroup(Parallel)

	ids := make([]int, 16)
	for i := 0; i < 16; i++ {
		i := i
		g.Spawn(context.Background(), func(ctx context.Context) {
			ids[i] = WorkerID(ctx)
		})
	}
	g.Sync()

	seen := make(map[int]bool)
	for i, id := range ids {
		if id == 0 {
			t.Errorf("Task %d got the initial worker id", i)
		}
		if seen[id] {
			t.Errorf("Worker id %d assigned twice", id)
		}
		seen[id] = true
	}
}

func TestGroup_SerialWorkerIDUnchanged(t *testing.T) {
	g := NewGroup(Serial)
	g.Spawn(context.Background(), func(ctx context.Context) {
		if got := WorkerID(ctx); got != 0 {
			t.Errorf("Serial task got worker id %d, want 0", got)
		}
	})
	g.Sync()
}

func TestGroup_WithLimitBoundsConcurrency(t *testing.T) {
	const limit = 3
	g := NewGroup(Parallel).WithLimit(limit)

	var running, peak atomic.Int64
	for i := 0; i < 50; i++ {
		g.Spawn(context.Background(), func(ctx context.Context) {
			cur := running.Add(1)
			for {
				p := peak.Load()
				if cur <= p || peak.CompareAndSwap(p, cur) {
					break
				}
			}
			running.Add(-1)
		})
	}
	g.Sync()

	if got := peak.Load(); got > limit {
		t.Errorf("Peak concurrency %d exceeded limit %d", got, limit)
	}
}

func TestNestedGroups(t *testing.T) {
	outer := NewGroup(Parallel)

	var total atomic.Int64
	for i := 0; i < 4; i++ {
		outer.Spawn(context.Background(), func(ctx context.Context) {
			inner := NewGroup(Parallel)
			for j := 0; j < 4; j++ {
				inner.Spawn(ctx, func(ctx context.Context) {
					total.Add(1)
				})
			}
			inner.Sync()
		})
	}
	outer.Sync()

	if got := total.Load(); got != 16 {
		t.Errorf("Expected 16 nested tasks, got %d", got)
	}
}

func TestParseMode(t *testing.T) {
	if m, ok := ParseMode("serial"); !ok || m != Serial {
		t.Errorf("ParseMode(serial) = (%v, %v)", m, ok)
	}
	if m, ok := ParseMode("parallel"); !ok || m != Parallel {
		t.Errorf("ParseMode(parallel) = (%v, %v)", m, ok)
	}
	if _, ok := ParseMode("bogus"); ok {
		t.Error("ParseMode(bogus) should fail")
	}
}

func TestWorkers(t *testing.T) {
	if Workers() < 1 {
		t.Errorf("Workers() = %d, want at least 1", Workers())
	}
}
