package dag

import (
	"log/slog"

	"github.com/graphexec/pkg/concurrent"
)

// NodeFactory builds the user node (and its embedded DynamicNode) for a
// key the scheduler has discovered. The factory must return the embedded
// DynamicNode; it runs outside any lock and may be called for a key that
// another discoverer wins, in which case the allocation is dropped.
type NodeFactory func(key int64) *DynamicNode

// TaskTable is the standard NodeTable: a concurrent hash table from key to
// node plus a factory for keys seen for the first time. All racers on one
// key converge on a single node; the factory's losing allocations never
// become reachable.
type TaskTable struct {
	table   *concurrent.Table[*DynamicNode]
	newNode NodeFactory
	log     *slog.Logger
}

// NewTaskTable creates a table sized for the expected number of nodes.
func NewTaskTable(expectedNodes int, factory NodeFactory) *TaskTable {
	return &TaskTable{
		table:   concurrent.NewTable[*DynamicNode](concurrent.DefaultBucketCount(expectedNodes)),
		newNode: factory,
		log:     slog.New(slog.DiscardHandler),
	}
}

// WithLogger injects a logger for contention diagnostics and returns the
// table.
func (t *TaskTable) WithLogger(log *slog.Logger) *TaskTable {
	if log != nil {
		t.log = log
	}
	return t
}

// GetTask returns the node for key if one exists and has been claimed
// (status at least visited), else nil. Transient contention in the
// underlying table is absorbed by retrying.
func (t *TaskTable) GetTask(key int64) *DynamicNode {
	for {
		node, code := t.table.Search(key)
		switch code {
		case concurrent.OpFailed:
			t.log.Debug("retry budget exhausted, looping", "op", "search", "key", key)
			continue
		case concurrent.OpFound:
			if node.GetStatus() >= StatusVisited {
				return node
			}
			return nil
		default:
			return nil
		}
	}
}

// InsertTaskIfAbsent ensures a node exists for key and races to claim it.
// Exactly one caller across all time returns true for a given key: the one
// whose unvisited -> visited transition succeeded. That caller must expand
// the node; all others have no obligation.
func (t *TaskTable) InsertTaskIfAbsent(key int64) bool {
	fresh := t.newNode(key)
	for {
		node, code := t.table.InsertIfAbsent(key, fresh)
		switch code {
		case concurrent.OpFailed:
			t.log.Debug("retry budget exhausted, looping", "op", "insert", "key", key)
			continue
		case concurrent.OpFound, concurrent.OpInserted:
			// Either our node went in or a racer's did; claim whichever is
			// memoized. Spin only while the node is still unclaimed.
			for node.GetStatus() == StatusUnvisited {
				if node.TryMarkAsVisited() {
					return true
				}
			}
			return false
		default:
			return false
		}
	}
}

// Keys returns a snapshot of all memoized keys. Only meaningful on a
// quiescent table.
func (t *TaskTable) Keys() []int64 {
	return t.table.Keys()
}

// SizeEstimate returns the advisory node count.
func (t *TaskTable) SizeEstimate() int64 {
	return t.table.SizeEstimate()
}
