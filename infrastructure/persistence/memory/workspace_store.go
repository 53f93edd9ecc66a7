package memory

import (
	"context"
	"fmt"
	"sync"

	"workspacediff/domain/diff"
	"workspacediff/domain/submission"
	"workspacediff/domain/view"
	"workspacediff/pkg/errors"
)

// workspace is the sandbox content of one workspace
type workspace struct {
	diffs    []diff.RawDiff
	vertices map[string]view.ElementRecord
	edges    map[string]view.ElementRecord
}

// WorkspaceStore is an in-memory workspace backend. It serves diffs and
// element records and applies submissions by dropping the submitted diffs.
// Useful for local development and tests.
type WorkspaceStore struct {
	mu         sync.RWMutex
	workspaces map[string]*workspace
}

// NewWorkspaceStore creates an empty store
func NewWorkspaceStore() *WorkspaceStore {
	return &WorkspaceStore{workspaces: make(map[string]*workspace)}
}

func (s *WorkspaceStore) get(workspaceID string) *workspace {
	ws, ok := s.workspaces[workspaceID]
	if !ok {
		ws = &workspace{
			vertices: make(map[string]view.ElementRecord),
			edges:    make(map[string]view.ElementRecord),
		}
		s.workspaces[workspaceID] = ws
	}
	return ws
}

// AddDiffs appends pending diffs to a workspace
func (s *WorkspaceStore) AddDiffs(workspaceID string, diffs ...diff.RawDiff) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws := s.get(workspaceID)
	ws.diffs = append(ws.diffs, diffs...)
}

// PutVertex stores a full vertex record
func (s *WorkspaceStore) PutVertex(workspaceID string, record view.ElementRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(workspaceID).vertices[record.ID] = record
}

// PutEdge stores a full edge record
func (s *WorkspaceStore) PutEdge(workspaceID string, record view.ElementRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(workspaceID).edges[record.ID] = record
}

// FetchDiffs returns a copy of the workspace's pending diffs
func (s *WorkspaceStore) FetchDiffs(ctx context.Context, workspaceID string) ([]diff.RawDiff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ws, ok := s.workspaces[workspaceID]
	if !ok {
		return nil, errors.NewNotFoundError("workspace").WithDetail("workspaceId", workspaceID)
	}
	out := make([]diff.RawDiff, len(ws.diffs))
	copy(out, ws.diffs)
	return out, nil
}

// Vertices returns the stored vertex records among ids
func (s *WorkspaceStore) Vertices(ctx context.Context, workspaceID string, ids []string) ([]view.ElementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lookup(s.workspaces[workspaceID], ids, func(ws *workspace) map[string]view.ElementRecord { return ws.vertices }), nil
}

// Edges returns the stored edge records among ids
func (s *WorkspaceStore) Edges(ctx context.Context, workspaceID string, ids []string) ([]view.ElementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lookup(s.workspaces[workspaceID], ids, func(ws *workspace) map[string]view.ElementRecord { return ws.edges }), nil
}

func lookup(ws *workspace, ids []string, table func(*workspace) map[string]view.ElementRecord) []view.ElementRecord {
	out := make([]view.ElementRecord, 0, len(ids))
	if ws == nil {
		return out
	}
	records := table(ws)
	for _, id := range ids {
		if rec, ok := records[id]; ok {
			out = append(out, rec)
		}
	}
	return out
}

// Publish drops the published diffs
func (s *WorkspaceStore) Publish(ctx context.Context, workspaceID string, instructions []submission.Instruction) (*submission.Response, error) {
	return s.apply(workspaceID, instructions)
}

// Undo drops the undone diffs
func (s *WorkspaceStore) Undo(ctx context.Context, workspaceID string, instructions []submission.Instruction) (*submission.Response, error) {
	return s.apply(workspaceID, instructions)
}

func (s *WorkspaceStore) apply(workspaceID string, instructions []submission.Instruction) (*submission.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, ok := s.workspaces[workspaceID]
	if !ok {
		return nil, errors.NewNotFoundError("workspace").WithDetail("workspaceId", workspaceID)
	}

	targets := make(map[string]submission.Instruction, len(instructions))
	for _, in := range instructions {
		targets[instructionDiffID(in)] = in
	}

	kept := make([]diff.RawDiff, 0, len(ws.diffs))
	for _, raw := range ws.diffs {
		record, err := diff.Classify(raw)
		if err == nil {
			if _, hit := targets[record.ID()]; hit {
				delete(targets, record.ID())
				continue
			}
		}
		kept = append(kept, raw)
	}
	ws.diffs = kept

	resp := &submission.Response{Success: len(targets) == 0}
	for _, in := range instructions {
		id := instructionDiffID(in)
		if _, missing := targets[id]; missing {
			resp.Failures = append(resp.Failures, submission.Failure{
				ElementID:    elementID(in),
				ErrorMessage: fmt.Sprintf("no pending %s change for %s", in.Type, id),
			})
		}
	}
	return resp, nil
}

func elementID(in submission.Instruction) string {
	if in.VertexID != "" {
		return in.VertexID
	}
	return in.EdgeID
}

func instructionDiffID(in submission.Instruction) string {
	switch in.Type {
	case submission.TypeProperty:
		return diff.PropertyID(elementID(in), in.Name, in.Key)
	case submission.TypeRelationship:
		return in.EdgeID
	}
	return in.VertexID
}
