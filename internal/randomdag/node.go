package randomdag

import (
	"context"

	"github.com/graphexec/pkg/dag"
	"github.com/graphexec/pkg/spawn"
)

// Node counts paths through one key of the graph. Result is the number of
// distinct source-to-here paths; PathLen is the longest one.
type Node struct {
	*dag.DynamicNode

	graph   *Graph
	Result  int64
	PathLen int
}

// Init declares the node's predecessors from the graph shape.
func (n *Node) Init() {
	n.Result = 0
	n.PathLen = 0
	for _, pk := range n.graph.Preds[n.Key] {
		n.AddDep(pk)
	}
}

// Compute folds predecessor path counts. The source contributes the single
// empty path.
func (n *Node) Compute() {
	var total int64
	pathLen := 0
	if n.Key == n.graph.Source {
		total = 1
		pathLen = 1
	}

	preds := n.Predecessors()
	for i := 0; i < preds.SizeEstimate(); i++ {
		pk, _ := preds.Get(i)
		pred := n.Table().GetTask(pk).Delegate().(*Node)
		total += pred.Result
		if 1+pred.PathLen > pathLen {
			pathLen = 1 + pred.PathLen
		}
	}
	n.Result = total
	n.PathLen = pathLen
}

// Generate emits the extra roots configured for this key, if any.
func (n *Node) Generate() {
	for _, rk := range n.graph.GenRoots[n.Key] {
		n.GenerateTask(rk)
	}
}

// NewTable creates the key-to-node table for executing g.
func NewTable(g *Graph, mode spawn.Mode) *dag.TaskTable {
	var tbl *dag.TaskTable
	tbl = dag.NewTaskTable(len(g.Preds)+1, func(key int64) *dag.DynamicNode {
		n := &Node{graph: g}
		n.DynamicNode = dag.NewDynamicNode(key, tbl, mode, n)
		return n.DynamicNode
	})
	return tbl
}

// Result is the outcome of one run.
type Result struct {
	// Paths is the path count at the root.
	Paths int64
	// LongestPath is the longest source-to-root path, in nodes.
	LongestPath int
	// Nodes is the number of nodes memoized during the run.
	Nodes int
}

// Run executes g in the given mode and returns the root's result.
func Run(ctx context.Context, g *Graph, mode spawn.Mode) Result {
	tbl := NewTable(g, mode)
	dag.InitRootAndCompute(ctx, tbl, g.Root, mode)
	root := tbl.GetTask(g.Root).Delegate().(*Node)
	return Result{
		Paths:       root.Result,
		LongestPath: root.PathLen,
		Nodes:       len(tbl.Keys()),
	}
}
