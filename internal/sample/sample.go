// Package sample builds the ten-node example DAG used by the CLI and the
// cross-mode equivalence tests. The value of each node is its key plus the
// values of its immediate predecessors; the source contributes zero, and
// the sink's value is 55.
package sample

import (
	"context"

	"github.com/graphexec/pkg/dag"
	"github.com/graphexec/pkg/spawn"
)

// Size is the number of nodes in the sample DAG.
const Size = 10

// SinkKey and SourceKey delimit the DAG: execution is observed at the
// sink, and the source is where static execution starts.
const (
	SinkKey   int64 = 0
	SourceKey int64 = Size - 1
)

// edges lists the DAG as (node, predecessor) pairs. Node 8 is deliberately
// isolated: it exercises the path where a bound node is never reached.
var edges = [][2]int64{
	{0, 1}, {0, 2},
	{1, 3}, {1, 4}, {1, 5},
	{2, 3}, {2, 5},
	{3, 6}, {4, 6},
	{5, 7},
	{6, SourceKey}, {7, SourceKey},
}

// ExpectedSinkValue is the value of the sink after a full run.
const ExpectedSinkValue = 55

// predsOf returns the predecessor keys of a node.
func predsOf(key int64) []int64 {
	var out []int64
	for _, e := range edges {
		if e[0] == key {
			out = append(out, e[1])
		}
	}
	return out
}

// initialValue seeds a node's payload: its key, except the source which
// contributes nothing.
func initialValue(key int64) int {
	if key < SourceKey {
		return int(key)
	}
	return 0
}

// StaticNode is the sample DAG node for static traversal.
type StaticNode struct {
	dag.StaticNode
	Result int
}

// Init seeds the node value.
func (n *StaticNode) Init() {
	n.Result = initialValue(n.Key)
}

// Compute folds the predecessor values into this node's value.
func (n *StaticNode) Compute() {
	preds := n.Predecessors()
	for i := 0; i < preds.SizeEstimate(); i++ {
		p, _ := preds.Get(i)
		n.Result += p.Delegate().(*StaticNode).Result
	}
}

// BuildStatic constructs the full DAG for the given execution mode.
func BuildStatic(mode spawn.Mode) []*StaticNode {
	nodes := make([]*StaticNode, Size)
	for i := range nodes {
		nodes[i] = &StaticNode{}
		nodes[i].Bind(int64(i), mode, nodes[i])
	}
	for _, e := range edges {
		nodes[e[0]].AddDep(&nodes[e[1]].StaticNode)
	}
	return nodes
}

// RunStatic builds and executes the DAG statically and returns the sink
// value.
func RunStatic(ctx context.Context, mode spawn.Mode) int {
	nodes := BuildStatic(mode)
	nodes[SourceKey].SourceCompute(ctx)
	return nodes[SinkKey].Result
}

// DynamicNode is the sample DAG node for dynamic traversal. The graph
// shape is rediscovered through Init instead of being wired up front.
type DynamicNode struct {
	*dag.DynamicNode
	Result int
}

// Init seeds the node value and declares its predecessors.
func (n *DynamicNode) Init() {
	n.Result = initialValue(n.Key)
	for _, pk := range predsOf(n.Key) {
		n.AddDep(pk)
	}
}

// Compute folds the predecessor values, resolved through the node table,
// into this node's value.
func (n *DynamicNode) Compute() {
	preds := n.Predecessors()
	for i := 0; i < preds.SizeEstimate(); i++ {
		pk, _ := preds.Get(i)
		pred := n.Table().GetTask(pk)
		n.Result += pred.Delegate().(*DynamicNode).Result
	}
}

// Generate emits nothing; the sample DAG has no generated roots.
func (n *DynamicNode) Generate() {}

// NewTable creates the key-to-node table for a dynamic run.
func NewTable(mode spawn.Mode) *dag.TaskTable {
	var tbl *dag.TaskTable
	tbl = dag.NewTaskTable(Size, func(key int64) *dag.DynamicNode {
		n := &DynamicNode{}
		n.DynamicNode = dag.NewDynamicNode(key, tbl, mode, n)
		return n.DynamicNode
	})
	return tbl
}

// RunDynamic executes the DAG dynamically, discovering it from the sink,
// and returns the sink value.
func RunDynamic(ctx context.Context, mode spawn.Mode) int {
	tbl := NewTable(mode)
	dag.InitRootAndCompute(ctx, tbl, SinkKey, mode)
	return tbl.GetTask(SinkKey).Delegate().(*DynamicNode).Result
}
