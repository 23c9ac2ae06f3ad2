// Package dag implements a parallel task-graph execution library. A graph
// node is a user computation with data dependencies on its predecessors;
// the scheduler runs each node exactly once, strictly after its
// predecessors, with ready nodes executing in parallel.
//
// Two node types cover the two scheduling modes. StaticNode is for graphs
// built completely before execution; DynamicNode discovers the graph on the
// fly, memoizing nodes by key in a concurrent table. Both are parameterized
// by a spawn.Mode, giving the four traversal flavors: static-serial,
// static-parallel, dynamic-serial, dynamic-parallel.
package dag

import "fmt"

// Status is the lifecycle state of a node. The codes are ordered so that
// comparisons are monotone: a node's status only ever increases.
type Status int32

const (
	// StatusUnvisited means the node is allocated but no worker claimed it.
	StatusUnvisited Status = iota
	// StatusVisited means a worker claimed the node for expansion.
	StatusVisited
	// StatusExpanded means predecessors are enumerated and the join counter
	// reflects the unfinished ones (plus the expansion bias).
	StatusExpanded
	// StatusComputed means the user Compute has returned.
	StatusComputed
	// StatusCompleted means every registered successor has been notified
	// and no new successor can register.
	StatusCompleted
)

// String returns the string representation of Status.
func (s Status) String() string {
	switch s {
	case StatusUnvisited:
		return "unvisited"
	case StatusVisited:
		return "visited"
	case StatusExpanded:
		return "expanded"
	case StatusComputed:
		return "computed"
	case StatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// defaultDegree sizes freshly allocated predecessor and generated-task
// lists.
const defaultDegree = 4

// defaultSuccessorCap sizes a dynamic node's successor-notification list
// when the caller does not provide one.
const defaultSuccessorCap = 4

// invalidTransition reports a state-machine violation. Transitions are
// performed by exactly one worker, so a failed CAS is a bug, not
// contention.
func invalidTransition(key int64, from, to, actual Status) string {
	return fmt.Sprintf("dag: node %d: illegal transition %s -> %s, status is %s",
		key, from, to, actual)
}
