package dag

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"

	"github.com/graphexec/pkg/concurrent"
	"github.com/graphexec/pkg/spawn"
)

// DynamicDelegate supplies the user hooks of a dynamic node. Init declares
// predecessor keys via AddDep; Compute reads predecessor payloads through
// the node table and writes this node's payload; Generate may emit fresh
// root keys via GenerateTask.
type DynamicDelegate interface {
	Init()
	Compute()
	Generate()
}

// NodeTable memoizes dynamic nodes by key. GetTask returns a node whose
// status is at least visited, or nil. InsertTaskIfAbsent ensures a node
// exists for the key and reports whether the caller won the unvisited ->
// visited race; exactly one caller per key ever gets true, and that caller
// is the one entitled to expand the node.
type NodeTable interface {
	GetTask(key int64) *DynamicNode
	InsertTaskIfAbsent(key int64) bool
}

// DynamicNode is a task-graph node for graphs discovered during execution.
// When a node initializes it declares predecessor keys; the scheduler
// expands each predecessor at most once, racing discoverers converge on
// the memoized node, and late discoverers of a finished predecessor
// decrement themselves instead of registering for notification.
//
// The successor list is allocated at construction because other nodes may
// register on a node that has not itself been expanded yet.
type DynamicNode struct {
	Key int64

	table NodeTable

	preds        *concurrent.Array[int64]
	succToNotify *concurrent.Array[*DynamicNode]
	generated    *concurrent.Array[int64]

	joinCounter atomic.Int32
	status      atomic.Int32

	// notifyCounter is only touched by the single worker that runs
	// computeAndNotify.
	notifyCounter int

	// blockingLock serializes successor registration against the final
	// notification check. Held for O(1) work only.
	blockingLock atomic.Int32

	mode     spawn.Mode
	delegate DynamicDelegate
	log      *slog.Logger
}

// NewDynamicNode creates an unvisited node bound to the given table and
// delegate. The join counter starts at one: the expansion bias that keeps
// the node from firing while its predecessors are still being enumerated.
func NewDynamicNode(key int64, table NodeTable, mode spawn.Mode, d DynamicDelegate) *DynamicNode {
	return NewDynamicNodeSized(key, table, mode, d, defaultSuccessorCap)
}

// NewDynamicNodeSized is NewDynamicNode with an initial capacity for the
// successor-notification list.
func NewDynamicNodeSized(key int64, table NodeTable, mode spawn.Mode, d DynamicDelegate, succCap int) *DynamicNode {
	if succCap <= 0 {
		succCap = defaultSuccessorCap
	}
	n := &DynamicNode{
		Key:          key,
		table:        table,
		succToNotify: concurrent.NewArray[*DynamicNode](succCap),
		mode:         mode,
		delegate:     d,
		log:          slog.New(slog.DiscardHandler),
	}
	n.joinCounter.Store(1)
	return n
}

// WithLogger injects a logger for state-change tracing and returns the
// node. Call before the node is shared through the table.
func (n *DynamicNode) WithLogger(log *slog.Logger) *DynamicNode {
	if log != nil {
		n.log = log
	}
	return n
}

// AddDep declares a predecessor key. Only call from the delegate's Init.
func (n *DynamicNode) AddDep(predKey int64) {
	n.preds.Add(predKey)
	n.joinCounter.Add(1)
}

// GenerateTask emits a fresh root key. Only call from the delegate's
// Generate.
func (n *DynamicNode) GenerateTask(rootKey int64) {
	n.generated.Add(rootKey)
}

// Predecessors returns the declared predecessor keys, in AddDep order.
// Nil before the node has begun expansion.
func (n *DynamicNode) Predecessors() *concurrent.Array[int64] {
	return n.preds
}

// GeneratedTasks returns the root keys emitted by Generate. Nil before the
// node has computed.
func (n *DynamicNode) GeneratedTasks() *concurrent.Array[int64] {
	return n.generated
}

// Delegate returns the bound user node for payload access.
func (n *DynamicNode) Delegate() DynamicDelegate {
	return n.delegate
}

// Table returns the node table this node resolves keys against.
func (n *DynamicNode) Table() NodeTable {
	return n.table
}

// GetStatus returns the node's current lifecycle state.
func (n *DynamicNode) GetStatus() Status {
	return Status(n.status.Load())
}

// JoinCounter returns the current join counter. Diagnostic only.
func (n *DynamicNode) JoinCounter() int {
	return int(n.joinCounter.Load())
}

// TryMarkAsVisited attempts the unvisited -> visited transition. It returns
// true for exactly one caller; everyone else observes visited or higher.
func (n *DynamicNode) TryMarkAsVisited() bool {
	return n.status.CompareAndSwap(int32(StatusUnvisited), int32(StatusVisited))
}

// InitRootAndCompute resolves rootKey through this node's table and runs
// the subgraph reachable from it to completion. See the package-level
// InitRootAndCompute.
func (n *DynamicNode) InitRootAndCompute(ctx context.Context, rootKey int64) bool {
	return InitRootAndCompute(ctx, n.table, rootKey, n.mode)
}

// InitRootAndCompute looks up or creates the node for rootKey, expands it
// if this caller won the creation race, and then returns after the entire
// subgraph reachable from the root has completed. A caller that did not
// create the node returns at once, without waiting for it. The caller does
// not register as a successor: a root has none. Returns true iff this
// caller was the creator.
func InitRootAndCompute(ctx context.Context, table NodeTable, rootKey int64, mode spawn.Mode) bool {
	g := spawn.NewGroup(mode)
	inserted := false

	node := table.GetTask(rootKey)
	for node == nil {
		inserted = table.InsertTaskIfAbsent(rootKey)
		node = table.GetTask(rootKey)
	}

	if inserted {
		g.Spawn(ctx, node.initNodeAndCompute)
	}
	g.Sync()
	return inserted
}

// tryInitPredAndCompute resolves one declared predecessor of n. Whoever
// wins the creation race expands the predecessor; every caller then either
// registers n for notification (predecessor unfinished) or decrements n's
// join counter itself (predecessor already computed). The blocking lock
// makes those two outcomes exclusive: either the registration is observed
// by the predecessor's notification loop, or the caller sees a status of
// computed or higher.
func (n *DynamicNode) tryInitPredAndCompute(ctx context.Context, predKey int64) {
	g := spawn.NewGroup(n.mode)
	inserted := false

	pred := n.table.GetTask(predKey)
	for pred == nil {
		inserted = n.table.InsertTaskIfAbsent(predKey)
		pred = n.table.GetTask(predKey)
	}

	if inserted {
		p := pred
		g.Spawn(ctx, p.initNodeAndCompute)
	}

	predFinished := true
	pred.acquireBlockingLock()
	if pred.GetStatus() < StatusComputed {
		// Single-writer append: registration is serialized by the lock.
		pred.succToNotify.Add(n)
		predFinished = false
	}
	pred.releaseBlockingLock()

	if predFinished {
		if v := n.joinCounter.Add(-1); v == 0 {
			n.computeAndNotify(ctx)
		} else if v < 0 {
			panic(fmt.Sprintf("dag: node %d: join counter went negative", n.Key))
		}
	}
	g.Sync()
}

// initNodeAndCompute expands a freshly claimed node: enumerate
// predecessors via the user Init, resolve each one, then drop the
// expansion bias. If the bias was the last outstanding count the node has
// no unfinished predecessors and computes immediately.
func (n *DynamicNode) initNodeAndCompute(ctx context.Context) {
	n.preds = concurrent.NewArray[int64](defaultDegree)
	n.delegate.Init()

	n.transition(StatusVisited, StatusExpanded)

	g := spawn.NewGroup(n.mode)
	for i := 0; i < n.preds.SizeEstimate(); i++ {
		predKey, ok := n.preds.Get(i)
		if !ok {
			panic("dag: predecessor list shrank during expansion")
		}
		pk := predKey
		g.Spawn(ctx, func(ctx context.Context) {
			n.tryInitPredAndCompute(ctx, pk)
		})
	}

	if v := n.joinCounter.Add(-1); v == 0 {
		n.computeAndNotify(ctx)
	} else if v < 0 {
		panic(fmt.Sprintf("dag: node %d: join counter went negative", n.Key))
	}
	g.Sync()
}

// computeAndNotify runs the user Compute and Generate, then drains the
// successor-notification list. The list may keep growing while the node is
// computed; the loop re-reads the size until a final check under the
// blocking lock proves no registrant slipped in, at which point the node
// completes.
func (n *DynamicNode) computeAndNotify(ctx context.Context) {
	n.delegate.Compute()
	n.transition(StatusExpanded, StatusComputed)

	g := spawn.NewGroup(n.mode)

	n.generated = concurrent.NewArray[int64](defaultDegree)
	n.delegate.Generate()
	for i := 0; i < n.generated.SizeEstimate(); i++ {
		genKey, ok := n.generated.Get(i)
		if !ok {
			panic("dag: generated-task list shrank")
		}
		gk := genKey
		g.Spawn(ctx, func(ctx context.Context) {
			InitRootAndCompute(ctx, n.table, gk, n.mode)
		})
	}

	n.notifyCounter = 0
	for done := false; !done; {
		end := n.succToNotify.SizeEstimate()
		for i := n.notifyCounter; i < end; i++ {
			succ, ok := n.succToNotify.Get(i)
			if !ok {
				panic("dag: successor list shrank during notification")
			}
			if st := succ.GetStatus(); st != StatusVisited && st != StatusExpanded {
				panic(fmt.Sprintf("dag: node %d: notifying successor %d with status %s",
					n.Key, succ.Key, st))
			}
			if v := succ.joinCounter.Add(-1); v == 0 {
				s := succ
				g.Spawn(ctx, s.computeAndNotify)
			} else if v < 0 {
				panic(fmt.Sprintf("dag: node %d: join counter went negative", succ.Key))
			}
		}
		n.notifyCounter = end
		done = n.tryMarkAsCompleted()
	}
	g.Sync()
}

// tryMarkAsCompleted advances computed -> completed iff the notification
// counter has caught up with the successor list. The check runs under the
// blocking lock, so a registrant that raced past the last size read is
// either observed here (check fails, loop iterates) or serialized behind
// the transition and sees a finished predecessor.
func (n *DynamicNode) tryMarkAsCompleted() bool {
	completed := false
	n.acquireBlockingLock()
	if n.notifyCounter == n.succToNotify.SizeEstimate() {
		n.transition(StatusComputed, StatusCompleted)
		completed = true
	}
	n.releaseBlockingLock()
	return completed
}

func (n *DynamicNode) acquireBlockingLock() {
	for !n.blockingLock.CompareAndSwap(0, 1) {
		runtime.Gosched()
	}
}

func (n *DynamicNode) releaseBlockingLock() {
	if n.blockingLock.Swap(0) != 1 {
		panic(fmt.Sprintf("dag: node %d: blocking lock released while not held", n.Key))
	}
}

// transition advances the state machine by one step. Exactly one worker
// performs each transition; failure is fatal.
func (n *DynamicNode) transition(from, to Status) {
	if !n.status.CompareAndSwap(int32(from), int32(to)) {
		panic(invalidTransition(n.Key, from, to, n.GetStatus()))
	}
	n.log.Debug("state transition",
		"key", n.Key, "from", from, "to", to, "join_counter", n.joinCounter.Load())
}
