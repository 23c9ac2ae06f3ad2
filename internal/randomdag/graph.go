// Package randomdag exercises dynamic traversal on path-counting DAGs: the
// value of each node is the number of distinct paths from the source to it.
// Graphs are either the fixed chain shape (node k depends on k-1 and k-7
// where those exist) or randomly generated layered DAGs; a serial baseline
// checks every parallel result.
package randomdag

import (
	"fmt"
	"math/rand"
)

// Graph is a DAG shape, described by predecessor keys per node. Execution
// discovers it from Root; Source is the single node that seeds one path.
type Graph struct {
	// Preds maps each key to the keys it depends on.
	Preds map[int64][]int64
	// Root is the discovery root (the sink of the data flow).
	Root int64
	// Source seeds the path count with one.
	Source int64
	// GenRoots maps a key to extra root keys its Generate emits.
	GenRoots map[int64][]int64
}

// NumNodes returns the number of keys reachable from the root, including
// the root itself.
func (g *Graph) NumNodes() int {
	seen := map[int64]bool{g.Root: true}
	frontier := []int64{g.Root}
	for len(frontier) > 0 {
		k := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]
		for _, p := range g.Preds[k] {
			if !seen[p] {
				seen[p] = true
				frontier = append(frontier, p)
			}
		}
	}
	return len(seen)
}

// Chain builds the fixed shape over keys [0, size): node k depends on k-1
// and k-7 where those exist. The root is size-1 and the source is 0.
func Chain(size int) (*Graph, error) {
	if size < 2 {
		return nil, fmt.Errorf("chain graph needs at least 2 nodes, got %d", size)
	}
	g := &Graph{
		Preds:  make(map[int64][]int64, size),
		Root:   int64(size - 1),
		Source: 0,
	}
	for k := int64(1); k < int64(size); k++ {
		preds := []int64{k - 1}
		if k >= 7 {
			preds = append(preds, k-7)
		}
		g.Preds[k] = preds
	}
	return g, nil
}

// Random builds a layered DAG: width nodes per layer, every node depending
// on one to three distinct nodes of the previous layer, a single source
// below the first layer and a single root above the last. The same seed
// always yields the same graph.
func Random(layers, width int, seed int64) (*Graph, error) {
	if layers < 1 || width < 1 {
		return nil, fmt.Errorf("random graph needs positive layers and width, got %dx%d", layers, width)
	}
	rng := rand.New(rand.NewSource(seed))

	// Key 0 is the source, layer L occupies [1+L*width, 1+(L+1)*width),
	// and the root sits past the last layer.
	key := func(layer, slot int) int64 { return int64(1 + layer*width + slot) }
	root := key(layers, 0)

	g := &Graph{
		Preds:  make(map[int64][]int64),
		Root:   root,
		Source: 0,
	}

	// picked marks previous-layer slots already chosen for the current
	// node; only the marked slots are cleared between nodes.
	picked := make([]bool, width)
	var slots []int
	for layer := 0; layer < layers; layer++ {
		for slot := 0; slot < width; slot++ {
			k := key(layer, slot)
			if layer == 0 {
				g.Preds[k] = []int64{0}
				continue
			}
			degree := 1 + rng.Intn(3)
			if degree > width {
				degree = width
			}
			slots = slots[:0]
			for len(slots) < degree {
				s := rng.Intn(width)
				if picked[s] {
					continue
				}
				picked[s] = true
				slots = append(slots, s)
			}
			preds := make([]int64, 0, degree)
			for _, s := range slots {
				preds = append(preds, key(layer-1, s))
				picked[s] = false
			}
			g.Preds[k] = preds
		}
	}

	last := make([]int64, width)
	for slot := 0; slot < width; slot++ {
		last[slot] = key(layers-1, slot)
	}
	g.Preds[root] = last
	return g, nil
}

// CountPaths computes the path count of every node reachable from the root
// with a serial post-order walk. This is the baseline the concurrent runs
// are checked against.
func CountPaths(g *Graph) map[int64]int64 {
	counts := make(map[int64]int64)
	visited := make(map[int64]bool)

	// Iterative post-order: a node is folded once all predecessors are.
	type frame struct {
		key      int64
		expanded bool
	}
	stack := []frame{{key: g.Root}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.expanded {
			var total int64
			if f.key == g.Source {
				total = 1
			}
			for _, p := range g.Preds[f.key] {
				total += counts[p]
			}
			counts[f.key] = total
			continue
		}
		if visited[f.key] {
			continue
		}
		visited[f.key] = true
		stack = append(stack, frame{key: f.key, expanded: true})
		for _, p := range g.Preds[f.key] {
			if !visited[p] {
				stack = append(stack, frame{key: p})
			}
		}
	}
	return counts
}
