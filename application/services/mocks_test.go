package services

import (
	"context"

	"workspacediff/application/ports"
	"workspacediff/domain/diff"
	"workspacediff/domain/ontology"
	"workspacediff/domain/submission"
	"workspacediff/domain/view"

	"github.com/stretchr/testify/mock"
)

type MockDiffSource struct {
	mock.Mock
}

func (m *MockDiffSource) FetchDiffs(ctx context.Context, workspaceID string) ([]diff.RawDiff, error) {
	args := m.Called(ctx, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]diff.RawDiff), args.Error(1)
}

type MockElementStore struct {
	mock.Mock
}

func (m *MockElementStore) Vertices(ctx context.Context, workspaceID string, ids []string) ([]view.ElementRecord, error) {
	args := m.Called(ctx, workspaceID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]view.ElementRecord), args.Error(1)
}

func (m *MockElementStore) Edges(ctx context.Context, workspaceID string, ids []string) ([]view.ElementRecord, error) {
	args := m.Called(ctx, workspaceID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]view.ElementRecord), args.Error(1)
}

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Publish(ctx context.Context, workspaceID string, instructions []submission.Instruction) (*submission.Response, error) {
	args := m.Called(ctx, workspaceID, instructions)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*submission.Response), args.Error(1)
}

func (m *MockTransport) Undo(ctx context.Context, workspaceID string, instructions []submission.Instruction) (*submission.Response, error) {
	args := m.Called(ctx, workspaceID, instructions)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*submission.Response), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyStale(ctx context.Context, event ports.StaleEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type staticOntology struct {
	lookup ontology.Lookup
}

func (s staticOntology) Ontology(context.Context) (ontology.Lookup, error) {
	return s.lookup, nil
}
