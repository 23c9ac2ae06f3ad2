package dag

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/graphexec/pkg/concurrent"
	"github.com/graphexec/pkg/spawn"
)

// StaticDelegate supplies the user hooks of a static node. Init seeds the
// node's payload before edges are wired; Compute reads predecessor payloads
// and writes this node's payload.
type StaticDelegate interface {
	Init()
	Compute()
}

// StaticNode is a task-graph node for graphs that are fully built before
// execution begins. Embed it in the user node type, Bind it, wire edges
// with AddDep, and start execution with SourceCompute on each source.
//
// Graph construction is single-threaded; only execution runs in parallel.
type StaticNode struct {
	Key int64

	preds *concurrent.Array[*StaticNode]
	succs *concurrent.Array[*StaticNode]

	joinCounter atomic.Int32
	status      atomic.Int32

	mode     spawn.Mode
	delegate StaticDelegate
	log      *slog.Logger
}

// Bind initializes the node: it claims the node, allocates the edge lists,
// runs the delegate's Init, and leaves the node expanded with a zero join
// counter. Must be called exactly once, before any AddDep.
func (n *StaticNode) Bind(key int64, mode spawn.Mode, d StaticDelegate) {
	n.BindDegree(key, mode, d, defaultDegree)
}

// BindDegree is Bind with an explicit initial capacity for the edge lists.
func (n *StaticNode) BindDegree(key int64, mode spawn.Mode, d StaticDelegate, degree int) {
	n.Key = key
	n.mode = mode
	n.delegate = d
	if n.log == nil {
		n.log = slog.New(slog.DiscardHandler)
	}
	n.preds = concurrent.NewArray[*StaticNode](degree)
	n.succs = concurrent.NewArray[*StaticNode](degree)

	n.transition(StatusUnvisited, StatusVisited)
	d.Init()
	n.transition(StatusVisited, StatusExpanded)
}

// WithLogger injects a logger for state-change tracing. Call before Bind.
func (n *StaticNode) WithLogger(log *slog.Logger) *StaticNode {
	n.log = log
	return n
}

// AddDep records p as a predecessor of n: the edge p -> n. It symmetrically
// registers n as a successor of p and bumps n's join counter. Call only
// during single-threaded graph construction.
func (n *StaticNode) AddDep(p *StaticNode) {
	n.preds.Add(p)
	p.succs.Add(n)
	n.joinCounter.Add(1)
}

// Predecessors returns the predecessor list, in AddDep order. The delegate
// reads it inside Compute to reach predecessor payloads.
func (n *StaticNode) Predecessors() *concurrent.Array[*StaticNode] {
	return n.preds
}

// Successors returns the successor-notification list.
func (n *StaticNode) Successors() *concurrent.Array[*StaticNode] {
	return n.succs
}

// Delegate returns the bound user node for payload access.
func (n *StaticNode) Delegate() StaticDelegate {
	return n.delegate
}

// GetStatus returns the node's current lifecycle state.
func (n *StaticNode) GetStatus() Status {
	return Status(n.status.Load())
}

// JoinCounter returns the current join counter. Diagnostic only.
func (n *StaticNode) JoinCounter() int {
	return int(n.joinCounter.Load())
}

// SourceCompute starts execution from this node. It must only be called on
// a source (a node with no predecessors) and returns after every node
// reachable from it has completed.
func (n *StaticNode) SourceCompute(ctx context.Context) {
	n.computeAndNotify(ctx)
}

// computeAndNotify runs the user Compute, then decrements the join counter
// of every successor; a successor driven to zero is spawned. The scope
// joins its spawns before returning, so the outermost call returns only
// after the whole reachable graph has completed.
func (n *StaticNode) computeAndNotify(ctx context.Context) {
	n.delegate.Compute()
	n.transition(StatusExpanded, StatusComputed)

	g := spawn.NewGroup(n.mode)
	end := n.succs.SizeEstimate()
	for i := 0; i < end; i++ {
		succ, ok := n.succs.Get(i)
		if !ok {
			panic("dag: successor list shrank during notification")
		}
		if v := succ.joinCounter.Add(-1); v == 0 {
			s := succ
			g.Spawn(ctx, s.computeAndNotify)
		} else if v < 0 {
			panic(fmt.Sprintf("dag: node %d: join counter went negative", succ.Key))
		}
	}

	n.transition(StatusComputed, StatusCompleted)
	g.Sync()
}

// transition advances the state machine by one step. Exactly one worker
// performs each transition; failure is fatal.
func (n *StaticNode) transition(from, to Status) {
	if !n.status.CompareAndSwap(int32(from), int32(to)) {
		panic(invalidTransition(n.Key, from, to, n.GetStatus()))
	}
	n.log.Debug("state transition",
		"key", n.Key, "from", from, "to", to, "join_counter", n.joinCounter.Load())
}
