package dependency

import (
	"testing"

	"workspacediff/domain/diff"
	"workspacediff/domain/ontology"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func build(t *testing.T, lookup ontology.Lookup, records ...diff.Record) *Graph {
	t.Helper()
	return Build(diff.GroupByElement(records), lookup, zap.NewNop())
}

func TestBuild_VertexAndProperties(t *testing.T) {
	g := build(t, nil,
		&diff.VertexDiff{VertexID: "v1"},
		&diff.PropertyDiff{Owner: "v1", OwnerType: diff.ElementVertex, Name: "p", Key: "k1"},
		&diff.PropertyDiff{Owner: "v1", OwnerType: diff.ElementVertex, Name: "p", Key: "k2"},
	)

	assert.Equal(t, []string{"v1pk1", "v1pk2"}, g.Dependents("v1"))
	assert.Equal(t, []string{"v1"}, g.InverseDependents("v1pk1"))
	assert.Empty(t, g.Dependents("v1pk1"))
	assert.Empty(t, g.InverseDependents("v1"))

	vertex, ok := g.VertexDiff("v1")
	require.True(t, ok)
	assert.Equal(t, "v1", vertex.ID())

	_, ok = g.Diff("v1pk2")
	assert.True(t, ok)
	assert.Equal(t, []string{"v1", "v1pk1", "v1pk2"}, g.IDs())
}

func TestBuild_EdgeDependsOnBothEndpoints(t *testing.T) {
	g := build(t, nil,
		&diff.VertexDiff{VertexID: "v1"},
		&diff.VertexDiff{VertexID: "v2"},
		&diff.EdgeDiff{EdgeID: "e1", OutVertexID: "v1", InVertexID: "v2"},
		&diff.PropertyDiff{Owner: "e1", OwnerType: diff.ElementEdge, Name: "w", Key: ""},
	)

	assert.Equal(t, []string{"e1"}, g.Dependents("v1"))
	assert.Equal(t, []string{"e1"}, g.Dependents("v2"))
	assert.Equal(t, []string{"v2", "v1"}, g.InverseDependents("e1"))
	assert.Equal(t, []string{"e1w"}, g.Dependents("e1"))

	edge, ok := g.ElementDiff("e1")
	require.True(t, ok)
	assert.Equal(t, diff.KindEdge, edge.Kind())

	_, ok = g.VertexDiff("e1")
	assert.False(t, ok)
}

func TestBuild_SelfLoopKeepsDuplicateFanOut(t *testing.T) {
	g := build(t, nil,
		&diff.VertexDiff{VertexID: "v1"},
		&diff.EdgeDiff{EdgeID: "e1", OutVertexID: "v1", InVertexID: "v1"},
	)

	assert.Equal(t, []string{"e1", "e1"}, g.Dependents("v1"))
	assert.Equal(t, []string{"v1", "v1"}, g.InverseDependents("e1"))
}

func TestBuild_DanglingReferencesAreKept(t *testing.T) {
	g := build(t, nil,
		&diff.PropertyDiff{Owner: "v9", OwnerType: diff.ElementVertex, Name: "p", Key: "k"},
		&diff.EdgeDiff{EdgeID: "e1", OutVertexID: "v7", InVertexID: "v8"},
	)

	assert.Equal(t, 2, g.Len())
	assert.Equal(t, []string{"v9pk"}, g.Dependents("v9"))
	_, ok := g.ElementDiff("v9")
	assert.False(t, ok)
	assert.Equal(t, []string{"e1"}, g.Dependents("v7"))
}

func TestBuild_DuplicatePropertyIDsCollapse(t *testing.T) {
	g := build(t, nil,
		&diff.PropertyDiff{Owner: "v1", OwnerType: diff.ElementVertex, Name: "p", Key: "k"},
		&diff.PropertyDiff{Owner: "v1", OwnerType: diff.ElementVertex, Name: "p", Key: "k", Deleted: true},
	)

	assert.Equal(t, 1, g.Len())
	assert.Equal(t, []string{"v1pk", "v1pk"}, g.Dependents("v1"))

	record, ok := g.Diff("v1pk")
	require.True(t, ok)
	assert.True(t, record.IsDeleted())
}

func TestBuild_OntologyFiltersAndCompoundIndex(t *testing.T) {
	lookup := ontology.New([]ontology.PropertyDefinition{
		{Title: "geo", UserVisible: true, DependentPropertyTitles: []string{"lat", "lon"}},
		{Title: "lat", UserVisible: true},
		{Title: "lon", UserVisible: true},
		{Title: "internal", UserVisible: false},
	}, nil, nil)

	g := build(t, lookup,
		&diff.VertexDiff{VertexID: "v1"},
		&diff.PropertyDiff{Owner: "v1", OwnerType: diff.ElementVertex, Name: "lat", Key: "k1"},
		&diff.PropertyDiff{Owner: "v1", OwnerType: diff.ElementVertex, Name: "internal", Key: "k1"},
		&diff.PropertyDiff{Owner: "v1", OwnerType: diff.ElementVertex, Name: "lon", Key: "k1"},
	)

	assert.Equal(t, []string{"v1latk1", "v1lonk1"}, g.Dependents("v1"))
	assert.Equal(t, []string{"v1latk1", "v1lonk1"}, g.CompoundMembers("v1", "geo", "k1"))
	assert.Empty(t, g.CompoundMembers("v1", "geo", "k2"))
	assert.Equal(t, []string{"v1internalk1"}, g.Hidden())

	_, ok := g.Diff("v1internalk1")
	assert.False(t, ok)
}

func TestBuild_UnknownPropertiesStayInGraph(t *testing.T) {
	g := build(t, ontology.Empty(),
		&diff.VertexDiff{VertexID: "v1"},
		&diff.PropertyDiff{Owner: "v1", OwnerType: diff.ElementVertex, Name: "colour", Key: "k"},
	)

	assert.Equal(t, []string{"v1colourk"}, g.Dependents("v1"))
	assert.Empty(t, g.Hidden())
	_, ok := g.Diff("v1colourk")
	assert.True(t, ok)
}
