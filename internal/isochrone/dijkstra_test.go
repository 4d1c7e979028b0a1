package isochrone

import (
	"testing"

	"github.com/katalvlaran/lvlath/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildLineGraph(t *testing.T) *core.Graph {
	t.Helper()
	g := core.NewGraph(core.WithWeighted())
	// a --10s-- b --10s-- c --100s-- d
	_, err := g.AddEdge("a", "b", 10)
	require.NoError(t, err)
	_, err = g.AddEdge("b", "c", 10)
	require.NoError(t, err)
	_, err = g.AddEdge("c", "d", 100)
	require.NoError(t, err)
	return g
}

func TestEgoGraphRespectsBudget(t *testing.T) {
	g := buildLineGraph(t)

	reachable := egoGraph(g, "a", 25)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, reachable)
}

func TestEgoGraphSingleNodeWhenBudgetZero(t *testing.T) {
	g := buildLineGraph(t)

	reachable := egoGraph(g, "a", 0)
	assert.ElementsMatch(t, []string{"a"}, reachable)
}

func TestEgoGraphFullReach(t *testing.T) {
	g := buildLineGraph(t)

	reachable := egoGraph(g, "a", 1000)
	assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, reachable)
}
