package dependency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCallIdentifier_StripsReceiverToken(t *testing.T) {
	t.Parallel()

	id := ParseCallIdentifier("self.helper")
	assert.Equal(t, []string{"helper"}, id.Segments)
	assert.Equal(t, "helper", id.TrailingName())
}

func TestParseCallIdentifier_KeepsQualifiedPath(t *testing.T) {
	t.Parallel()

	id := ParseCallIdentifier("pkg.sub.Func")
	assert.Equal(t, "pkg.sub", id.Namespace())
	assert.Equal(t, "Func", id.TrailingName())
}

func TestResolve_PrefersExactQualifiedMatch(t *testing.T) {
	t.Parallel()

	g := NewGraph()
	g.AddNode(&Node{ID: "a", QualifiedName: "pkg.A", File: "a.go", Line: 1, Calls: []string{"pkg.B"}})
	g.AddNode(&Node{ID: "b", QualifiedName: "pkg.B", Namespace: "pkg", File: "b.go", Line: 1})
	g.AddNode(&Node{ID: "decoy", QualifiedName: "other.B", File: "c.go", Line: 1})

	g.Resolve()

	assert.Len(t, g.Edges, 1)
	assert.Equal(t, "b", g.Edges[0].To)
}

func TestFanInOut_CountsEdges(t *testing.T) {
	t.Parallel()

	g := NewGraph()
	g.AddNode(&Node{ID: "a", QualifiedName: "A", Calls: []string{"B"}})
	g.AddNode(&Node{ID: "b", QualifiedName: "B", Calls: []string{"C"}})
	g.AddNode(&Node{ID: "c", QualifiedName: "C"})

	g.Resolve()

	fanIn, fanOut := g.FanInOut()
	assert.Equal(t, 1, fanIn["b"])
	assert.Equal(t, 1, fanOut["a"])
	assert.Equal(t, 0, fanOut["c"])
}

func TestChokepoints_RanksByFanProduct(t *testing.T) {
	t.Parallel()

	g := NewGraph()
	g.AddNode(&Node{ID: "a", QualifiedName: "A", Calls: []string{"Hub"}})
	g.AddNode(&Node{ID: "b", QualifiedName: "B", Calls: []string{"Hub"}})
	g.AddNode(&Node{ID: "hub", QualifiedName: "Hub", Calls: []string{"X", "Y"}})
	g.AddNode(&Node{ID: "x", QualifiedName: "X"})
	g.AddNode(&Node{ID: "y", QualifiedName: "Y"})

	g.Resolve()

	points := g.Chokepoints(1)
	assert.Len(t, points, 1)
	assert.Equal(t, "hub", points[0].ID)
	assert.Equal(t, 4, points[0].Score)
}

func TestFindCycles_DetectsMutualRecursion(t *testing.T) {
	t.Parallel()

	g := NewGraph()
	g.AddNode(&Node{ID: "a", QualifiedName: "A", Calls: []string{"B"}})
	g.AddNode(&Node{ID: "b", QualifiedName: "B", Calls: []string{"A"}})
	g.AddNode(&Node{ID: "c", QualifiedName: "C"})

	g.Resolve()

	cycles := g.FindCycles()
	assert.Len(t, cycles, 1)
	assert.ElementsMatch(t, []string{"a", "b"}, cycles[0].Members)
}

func TestFindCycles_NoCycleInDAG(t *testing.T) {
	t.Parallel()

	g := NewGraph()
	g.AddNode(&Node{ID: "a", QualifiedName: "A", Calls: []string{"B"}})
	g.AddNode(&Node{ID: "b", QualifiedName: "B", Calls: []string{"C"}})
	g.AddNode(&Node{ID: "c", QualifiedName: "C"})

	g.Resolve()

	assert.Empty(t, g.FindCycles())
}

func TestClosenessCentrality_IsolatedNodeIsZero(t *testing.T) {
	t.Parallel()

	g := NewGraph()
	g.AddNode(&Node{ID: "a", QualifiedName: "A", Calls: []string{"B"}})
	g.AddNode(&Node{ID: "b", QualifiedName: "B"})
	g.AddNode(&Node{ID: "isolated", QualifiedName: "Isolated"})

	g.Resolve()

	centrality := g.ClosenessCentrality()
	assert.Equal(t, 0.0, centrality["isolated"])
	assert.Greater(t, centrality["a"], 0.0)
}
