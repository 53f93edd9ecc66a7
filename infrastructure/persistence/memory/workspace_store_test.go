package memory

import (
	"context"
	"testing"

	"workspacediff/domain/diff"
	"workspacediff/domain/submission"
	"workspacediff/domain/view"
	"workspacediff/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded() *WorkspaceStore {
	s := NewWorkspaceStore()
	s.AddDiffs("ws",
		diff.RawDiff{Type: diff.TypeVertexItem, VertexID: "v1"},
		diff.RawDiff{Type: diff.TypePropertyItem, ElementID: "v1", ElementType: "vertex", Name: "title", Key: "k"},
		diff.RawDiff{Type: diff.TypeEdgeItem, EdgeID: "e1", OutVertexID: "v1", InVertexID: "v2"},
	)
	s.PutVertex("ws", view.ElementRecord{ID: "v1", Title: "Alice"})
	s.PutEdge("ws", view.ElementRecord{ID: "e1", Label: "knows"})
	return s
}

func TestWorkspaceStore_Reads(t *testing.T) {
	s := seeded()
	ctx := context.Background()

	diffs, err := s.FetchDiffs(ctx, "ws")
	require.NoError(t, err)
	assert.Len(t, diffs, 3)

	vertices, err := s.Vertices(ctx, "ws", []string{"v1", "v2"})
	require.NoError(t, err)
	assert.Equal(t, []view.ElementRecord{{ID: "v1", Title: "Alice"}}, vertices)

	edges, err := s.Edges(ctx, "other", []string{"e1"})
	require.NoError(t, err)
	assert.Empty(t, edges)

	_, err = s.FetchDiffs(ctx, "other")
	assert.True(t, errors.IsNotFound(err))
}

func TestWorkspaceStore_Publish(t *testing.T) {
	s := seeded()
	ctx := context.Background()

	resp, err := s.Publish(ctx, "ws", []submission.Instruction{
		{Type: submission.TypeVertex, Action: submission.OperationCreate, VertexID: "v1"},
		{Type: submission.TypeProperty, Action: submission.OperationUpdate, VertexID: "v1", Name: "title", Key: "k"},
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Failures)

	diffs, err := s.FetchDiffs(ctx, "ws")
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	assert.Equal(t, "e1", diffs[0].EdgeID)
}

func TestWorkspaceStore_UndoPartialFailure(t *testing.T) {
	s := seeded()

	resp, err := s.Undo(context.Background(), "ws", []submission.Instruction{
		{Type: submission.TypeRelationship, Action: submission.OperationCreate, EdgeID: "e1"},
		{Type: submission.TypeVertex, Action: submission.OperationCreate, VertexID: "v9"},
	})
	require.NoError(t, err)

	assert.False(t, resp.Success)
	require.Len(t, resp.Failures, 1)
	assert.Equal(t, "v9", resp.Failures[0].ElementID)
}
