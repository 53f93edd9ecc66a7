package ports

import (
	"context"

	"workspacediff/domain/diff"
	"workspacediff/domain/ontology"
	"workspacediff/domain/submission"
	"workspacediff/domain/view"
)

// DiffSource supplies the raw pending diffs of a workspace
// This is a port in hexagonal architecture - the domain doesn't know where diffs come from
type DiffSource interface {
	// FetchDiffs returns every pending diff of the workspace in backend order
	FetchDiffs(ctx context.Context, workspaceID string) ([]diff.RawDiff, error)
}

// ElementStore resolves full vertex and edge records referenced by diffs
type ElementStore interface {
	// Vertices returns the records found; missing ids are simply absent
	Vertices(ctx context.Context, workspaceID string, ids []string) ([]view.ElementRecord, error)

	// Edges returns the records found; missing ids are simply absent
	Edges(ctx context.Context, workspaceID string, ids []string) ([]view.ElementRecord, error)
}

// OntologyProvider returns the current ontology snapshot
type OntologyProvider interface {
	Ontology(ctx context.Context) (ontology.Lookup, error)
}

// Transport sends one submission to the backend
type Transport interface {
	Publish(ctx context.Context, workspaceID string, instructions []submission.Instruction) (*submission.Response, error)
	Undo(ctx context.Context, workspaceID string, instructions []submission.Instruction) (*submission.Response, error)
}

// StaleNotifier tells interested parties that a workspace diff set changed
type StaleNotifier interface {
	NotifyStale(ctx context.Context, event StaleEvent) error
}

// StaleEvent describes a submission that invalidated the diff set
type StaleEvent struct {
	WorkspaceID string   `json:"workspaceId"`
	SnapshotID  string   `json:"snapshotId"`
	Action      string   `json:"action"`
	Sent        int      `json:"sent"`
	Failed      int      `json:"failed"`
	Cleared     []string `json:"cleared,omitempty"`
}

// SubmissionRecorder receives submission metrics
type SubmissionRecorder interface {
	SubmissionCompleted(action string, instructions int, outcome string, seconds float64)
	SessionLoaded(diffs, skipped int, seconds float64)
}
