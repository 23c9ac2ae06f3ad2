package randomdag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChain_Shape(t *testing.T) {
	g, err := Chain(100)
	require.NoError(t, err)

	assert.Equal(t, int64(99), g.Root)
	assert.Equal(t, int64(0), g.Source)
	assert.Empty(t, g.Preds[0])
	assert.Equal(t, []int64{0}, g.Preds[1])
	assert.Equal(t, []int64{9, 3}, g.Preds[10])
	assert.Equal(t, 100, g.NumNodes())
}

func TestChain_TooSmall(t *testing.T) {
	_, err := Chain(1)
	assert.Error(t, err)
}

func TestCountPaths_SmallChain(t *testing.T) {
	// Keys 0..7: node k depends on k-1, node 7 also on 0.
	g, err := Chain(8)
	require.NoError(t, err)

	counts := CountPaths(g)
	assert.Equal(t, int64(1), counts[0])
	assert.Equal(t, int64(1), counts[6])
	// Node 7 reaches the source via 6..1 and via the direct 0 edge.
	assert.Equal(t, int64(2), counts[7])
}

func TestCountPaths_Diamond(t *testing.T) {
	g := &Graph{
		Preds: map[int64][]int64{
			3: {1, 2},
			1: {0},
			2: {0},
		},
		Root:   3,
		Source: 0,
	}
	counts := CountPaths(g)
	assert.Equal(t, int64(1), counts[0])
	assert.Equal(t, int64(1), counts[1])
	assert.Equal(t, int64(1), counts[2])
	assert.Equal(t, int64(2), counts[3])
}

func TestRandom_Deterministic(t *testing.T) {
	a, err := Random(10, 5, 42)
	require.NoError(t, err)
	b, err := Random(10, 5, 42)
	require.NoError(t, err)

	assert.Equal(t, a.Preds, b.Preds)
	assert.Equal(t, a.Root, b.Root)
}

func TestRandom_SeedChangesShape(t *testing.T) {
	a, err := Random(10, 5, 1)
	require.NoError(t, err)
	b, err := Random(10, 5, 2)
	require.NoError(t, err)

	assert.NotEqual(t, a.Preds, b.Preds)
}

func TestRandom_ShapeInvariants(t *testing.T) {
	g, err := Random(6, 4, 7)
	require.NoError(t, err)

	// Every layer-0 node hangs off the source; every other node has one
	// to three distinct predecessors in the previous layer.
	for key, preds := range g.Preds {
		require.NotEmpty(t, preds, "node %d has no predecessors", key)
		seen := map[int64]bool{}
		for _, p := range preds {
			assert.False(t, seen[p], "node %d repeats predecessor %d", key, p)
			seen[p] = true
		}
	}
	// The root folds the whole last layer.
	assert.Len(t, g.Preds[g.Root], 4)
	// Everything is reachable from the root: source + 6*4 nodes + root.
	assert.Equal(t, 26, g.NumNodes())
}

func TestRandom_Invalid(t *testing.T) {
	_, err := Random(0, 4, 1)
	assert.Error(t, err)
	_, err = Random(4, 0, 1)
	assert.Error(t, err)
}
