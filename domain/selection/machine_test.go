package selection

import (
	"testing"

	"workspacediff/domain/dependency"
	"workspacediff/domain/diff"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMachine(records ...diff.Record) *Machine {
	graph := dependency.Build(diff.GroupByElement(records), nil, zap.NewNop())
	return NewMachine(graph, zap.NewNop())
}

func vertex(id string, deleted bool) *diff.VertexDiff {
	return &diff.VertexDiff{VertexID: id, Deleted: deleted}
}

func property(owner, name, key string) *diff.PropertyDiff {
	return &diff.PropertyDiff{Owner: owner, OwnerType: diff.ElementVertex, Name: name, Key: key}
}

func edge(id, out, in string, deleted bool) *diff.EdgeDiff {
	return &diff.EdgeDiff{EdgeID: id, OutVertexID: out, InVertexID: in, Deleted: deleted}
}

type countingRecorder struct {
	marks    int
	cascades int
}

func (r *countingRecorder) MarkChanged(Action, bool)     { r.marks++ }
func (r *countingRecorder) CascadeApplied(Action, int) { r.cascades++ }

func TestSetMark_PropertyPublishPullsInOwner(t *testing.T) {
	prop := property("v1", "p", "k1")
	m := newMachine(vertex("v1", false), prop)

	m.SetMark(prop.ID(), ActionPublish, true)
	assert.Equal(t, map[string]Mark{"v1": MarkPublish, prop.ID(): MarkPublish}, m.Marks())

	m.SetMark("v1", ActionPublish, false)
	assert.Equal(t, MarkNone, m.Mark("v1"))
	assert.Equal(t, MarkNone, m.Mark(prop.ID()))
	assert.Empty(t, m.Marks())
}

func TestSetMark_DeletedVertexPublish(t *testing.T) {
	m := newMachine(
		vertex("v1", true),
		edge("e1", "v0", "v1", true),
		edge("e2", "v0", "v1", false),
	)

	changes := m.SetMark("v1", ActionPublish, true)

	assert.Equal(t, MarkPublish, m.Mark("v1"))
	assert.Equal(t, MarkPublish, m.Mark("e1"))
	assert.Equal(t, MarkNone, m.Mark("e2"))
	assert.Equal(t, []Change{
		{DiffID: "v1", From: MarkNone, To: MarkPublish},
		{DiffID: "e1", From: MarkNone, To: MarkPublish},
	}, changes)
}

func TestSetMark_DeletedVertexPublishClearsUndoOnLiveEdge(t *testing.T) {
	m := newMachine(
		vertex("v1", true),
		edge("e1", "v0", "v1", true),
		edge("e2", "v0", "v1", false),
	)

	m.SetMark("e2", ActionUndo, true)
	require.Equal(t, MarkUndo, m.Mark("e2"))

	changes := m.SetMark("v1", ActionPublish, true)

	assert.Equal(t, MarkPublish, m.Mark("v1"))
	assert.Equal(t, MarkPublish, m.Mark("e1"))
	assert.Equal(t, MarkNone, m.Mark("e2"))
	assert.Contains(t, changes, Change{DiffID: "e2", From: MarkUndo, To: MarkNone})
}

func TestSetMark_CascadedUnmarkClearsOtherAction(t *testing.T) {
	prop := property("v1", "p", "k1")
	m := newMachine(vertex("v1", false), prop)

	m.SetMark("v1", ActionPublish, true)
	m.SetMark(prop.ID(), ActionUndo, true)
	require.Equal(t, MarkUndo, m.Mark(prop.ID()))

	m.SetMark("v1", ActionPublish, false)
	assert.Equal(t, MarkNone, m.Mark("v1"))
	assert.Equal(t, MarkNone, m.Mark(prop.ID()))
}

func TestSetMark_DeletedVertexPublishClearsNonDeletionDependents(t *testing.T) {
	prop := property("v1", "p", "k")
	m := newMachine(vertex("v1", true), prop)

	m.SetMark(prop.ID(), ActionPublish, true)
	require.Equal(t, MarkPublish, m.Mark(prop.ID()))
	// a deleted owner is not pulled in by its property
	require.Equal(t, MarkNone, m.Mark("v1"))

	m.SetMark("v1", ActionPublish, true)

	assert.Equal(t, MarkPublish, m.Mark("v1"))
	assert.Equal(t, MarkNone, m.Mark(prop.ID()))
}

func TestSetMark_RestoreDeletedEdgeRestoresDeletedEndpoints(t *testing.T) {
	m := newMachine(vertex("v1", true), vertex("v2", false), edge("e1", "v2", "v1", true))

	m.SetMark("e1", ActionUndo, true)

	assert.Equal(t, MarkUndo, m.Mark("e1"))
	assert.Equal(t, MarkUndo, m.Mark("v1"))
	assert.Equal(t, MarkNone, m.Mark("v2"))
}

func TestSetMark_UndoVertexCreationUndoesDependents(t *testing.T) {
	prop := property("v1", "p", "k")
	edgeProp := &diff.PropertyDiff{Owner: "e1", OwnerType: diff.ElementEdge, Name: "w", Key: ""}
	m := newMachine(vertex("v1", false), prop, edge("e1", "v1", "v2", false), edgeProp)

	m.SetMark("v1", ActionUndo, true)

	assert.Equal(t, MarkUndo, m.Mark("v1"))
	assert.Equal(t, MarkUndo, m.Mark(prop.ID()))
	assert.Equal(t, MarkUndo, m.Mark("e1"))
	// edge creation undo reaches its own properties
	assert.Equal(t, MarkUndo, m.Mark(edgeProp.ID()))
}

func TestSetMark_UndoVertexDeletionDoesNotCascade(t *testing.T) {
	prop := property("v1", "p", "k")
	m := newMachine(vertex("v1", true), prop)

	changes := m.SetMark("v1", ActionUndo, true)

	assert.Len(t, changes, 1)
	assert.Equal(t, MarkNone, m.Mark(prop.ID()))
}

func TestSetMark_UnmarkPropertyUndoClearsOwner(t *testing.T) {
	p1 := property("v1", "p", "k1")
	p2 := property("v1", "p", "k2")
	m := newMachine(vertex("v1", false), p1, p2)

	m.SetMark("v1", ActionUndo, true)
	require.Equal(t, MarkUndo, m.Mark(p2.ID()))

	m.SetMark(p1.ID(), ActionUndo, false)

	assert.Equal(t, MarkNone, m.Mark(p1.ID()))
	assert.Equal(t, MarkNone, m.Mark("v1"))
	// siblings keep their undo mark
	assert.Equal(t, MarkUndo, m.Mark(p2.ID()))
}

func TestSetMark_UnmarkEdgeUndoClearsEndpoints(t *testing.T) {
	m := newMachine(vertex("v1", true), vertex("v2", true), edge("e1", "v1", "v2", true))

	m.SetMark("e1", ActionUndo, true)
	require.Equal(t, MarkUndo, m.Mark("v1"))
	require.Equal(t, MarkUndo, m.Mark("v2"))

	m.SetMark("e1", ActionUndo, false)

	assert.Empty(t, m.Marks())
}

func TestSetMark_EdgePublish(t *testing.T) {
	edgeProp := &diff.PropertyDiff{Owner: "e1", OwnerType: diff.ElementEdge, Name: "w", Key: ""}
	m := newMachine(vertex("v1", false), vertex("v2", false), edge("e1", "v1", "v2", false), edgeProp)

	m.SetMark(edgeProp.ID(), ActionPublish, true)

	// property pulls its edge, the edge pulls both endpoints
	assert.Equal(t, MarkPublish, m.Mark("e1"))
	assert.Equal(t, MarkPublish, m.Mark("v1"))
	assert.Equal(t, MarkPublish, m.Mark("v2"))

	m.SetMark("e1", ActionPublish, false)

	assert.Equal(t, MarkNone, m.Mark("e1"))
	assert.Equal(t, MarkNone, m.Mark(edgeProp.ID()))
	assert.Equal(t, MarkPublish, m.Mark("v1"))
}

func TestSetMark_DeletedEdgePublishDoesNotPullEndpoints(t *testing.T) {
	m := newMachine(vertex("v1", false), edge("e1", "v1", "v2", true))

	m.SetMark("e1", ActionPublish, true)

	assert.Equal(t, MarkPublish, m.Mark("e1"))
	assert.Equal(t, MarkNone, m.Mark("v1"))
}

func TestSetMark_Idempotent(t *testing.T) {
	rec := &countingRecorder{}
	prop := property("v1", "p", "k")
	m := newMachine(vertex("v1", false), prop)
	m.SetRecorder(rec)

	first := m.SetMark(prop.ID(), ActionPublish, true)
	before := m.Marks()
	second := m.SetMark(prop.ID(), ActionPublish, true)

	assert.Len(t, first, 2)
	assert.Empty(t, second)
	assert.Equal(t, before, m.Marks())
	assert.Equal(t, 2, rec.marks)
	assert.Equal(t, 1, rec.cascades)
}

func TestSetMark_MutualExclusivity(t *testing.T) {
	m := newMachine(vertex("v1", false))

	m.SetMark("v1", ActionPublish, true)
	m.SetMark("v1", ActionUndo, true)

	assert.Equal(t, MarkUndo, m.Mark("v1"))

	// clearing publish on an undo-marked diff is already satisfied
	changes := m.SetMark("v1", ActionPublish, false)
	assert.Empty(t, changes)
	assert.Equal(t, MarkUndo, m.Mark("v1"))
}

func TestSetMark_UnknownIDIsNoop(t *testing.T) {
	m := newMachine(vertex("v1", false))

	assert.Empty(t, m.SetMark("nope", ActionPublish, true))
	assert.Empty(t, m.Marks())
}

func TestSetMark_SelfLoopTerminates(t *testing.T) {
	m := newMachine(vertex("v1", false), edge("e1", "v1", "v1", false))

	m.SetMark("e1", ActionPublish, true)
	assert.Equal(t, MarkPublish, m.Mark("v1"))

	changes := m.SetMark("v1", ActionPublish, false)
	assert.Equal(t, []Change{
		{DiffID: "v1", From: MarkPublish, To: MarkNone},
		{DiffID: "e1", From: MarkPublish, To: MarkNone},
	}, changes)
}

func TestSelectAllAndClearAll(t *testing.T) {
	prop := property("v1", "p", "k")
	m := newMachine(vertex("v1", false), prop, vertex("v2", true))

	m.SelectAll(ActionPublish, []string{"v1", prop.ID(), "v2"})
	publish, undo := m.Counts()
	assert.Equal(t, 3, publish)
	assert.Equal(t, 0, undo)
	assert.Equal(t, []string{"v1", prop.ID(), "v2"}, m.MarkedFor(ActionPublish))

	m.ClearAll(ActionPublish)
	assert.Empty(t, m.Marks())
}

func TestReleaseAndCarry(t *testing.T) {
	m := newMachine(vertex("v1", false), vertex("v2", false))
	m.SetMark("v1", ActionPublish, true)
	m.SetMark("v2", ActionUndo, true)

	released := m.Release([]string{"v1", "v2"}, ActionPublish)
	assert.Equal(t, []string{"v1"}, released)
	assert.Equal(t, MarkUndo, m.Mark("v2"))

	next := newMachine(vertex("v2", false), vertex("v3", false))
	carried := next.Carry(map[string]Mark{"v2": MarkUndo, "gone": MarkPublish})
	assert.Equal(t, 1, carried)
	assert.Equal(t, map[string]Mark{"v2": MarkUndo}, next.Marks())
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("publish")
	require.NoError(t, err)
	assert.Equal(t, ActionPublish, a)
	assert.Equal(t, MarkUndo, ActionUndo.Mark())

	_, err = ParseAction("merge")
	assert.Error(t, err)
}
