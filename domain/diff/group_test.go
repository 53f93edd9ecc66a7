package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupByElement(t *testing.T) {
	records := []Record{
		&PropertyDiff{Owner: "v2", OwnerType: ElementVertex, Name: "name", Key: "k"},
		&VertexDiff{VertexID: "v1", Title: "First"},
		&EdgeDiff{EdgeID: "e1", OutVertexID: "v1", InVertexID: "v3"},
		&PropertyDiff{Owner: "v1", OwnerType: ElementVertex, Name: "name", Key: "k"},
		&PropertyDiff{Owner: "e1", OwnerType: ElementEdge, Name: "weight", Key: ""},
	}

	g := GroupByElement(records)

	assert.Equal(t, []string{"v2", "v1", "e1"}, g.ElementIDs())
	assert.Equal(t, 3, g.Len())

	v1 := g.Records("v1")
	require.Len(t, v1, 2)
	assert.Equal(t, KindVertex, v1[0].Kind())
	assert.Equal(t, KindProperty, v1[1].Kind())

	e1 := g.Records("e1")
	require.Len(t, e1, 2)
	assert.Equal(t, KindEdge, e1[0].Kind())

	refs := g.References()
	assert.Equal(t, []string{"v2", "v1", "v3"}, refs.VertexIDs)
	assert.Equal(t, []string{"e1"}, refs.EdgeIDs)

	assert.Equal(t, "First", g.Title("v1"))
	assert.Empty(t, g.Title("v2"))
	assert.Nil(t, g.Records("missing"))
}

func TestGroupByElement_Empty(t *testing.T) {
	g := GroupByElement(nil)

	assert.Equal(t, 0, g.Len())
	assert.Empty(t, g.ElementIDs())
	assert.Empty(t, g.References().VertexIDs)
	assert.Empty(t, g.References().EdgeIDs)
}
