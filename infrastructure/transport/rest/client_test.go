package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"workspacediff/domain/diff"
	"workspacediff/domain/submission"
	"workspacediff/infrastructure/config"
	"workspacediff/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Defaults().Backend
	cfg.BaseURL = server.URL + "/"
	cfg.BreakerMinRequests = 2
	cfg.BreakerFailureRatio = 0.5
	cfg.BreakerTimeout = time.Minute
	return NewClient(cfg, server.Client(), zap.NewNop())
}

func TestClient_FetchDiffs(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/workspace/diff", r.URL.Path)
		assert.Equal(t, "ws 1", r.URL.Query().Get("workspaceId"))
		_, _ = w.Write([]byte(`{"diffs":[{"type":"VertexDiffItem","vertexId":"v1","deleted":false}]}`))
	})

	diffs, err := client.FetchDiffs(context.Background(), "ws 1")
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	assert.Equal(t, diff.TypeVertexItem, diffs[0].Type)
}

func TestClient_Publish(t *testing.T) {
	var got publishRequest
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/workspace/publish", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"success":false,"failures":[{"elementId":"v1","errorMessage":"locked"}]}`))
	})

	resp, err := client.Publish(context.Background(), "ws", []submission.Instruction{
		{Type: submission.TypeVertex, Action: submission.OperationCreate, VertexID: "v1", Status: diff.StatusPrivate},
	})
	require.NoError(t, err)

	assert.Equal(t, "ws", got.WorkspaceID)
	require.Len(t, got.PublishData, 1)
	assert.Equal(t, "v1", got.PublishData[0].VertexID)
	assert.True(t, resp.PartialFailure())
	assert.Equal(t, "locked", resp.Failures[0].ErrorMessage)
}

func TestClient_UndoAndMultiple(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/workspace/undo":
			var req undoRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Len(t, req.UndoData, 2)
			_, _ = w.Write([]byte(`{"success":true}`))
		case "/vertex/multiple":
			_, _ = w.Write([]byte(`{"vertices":[{"id":"v1","title":"Alice"}]}`))
		case "/edge/multiple":
			_, _ = w.Write([]byte(`{"edges":[{"id":"e1","label":"knows"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	resp, err := client.Undo(ctx, "ws", make([]submission.Instruction, 2))
	require.NoError(t, err)
	assert.True(t, resp.Success)

	vertices, err := client.Vertices(ctx, "ws", []string{"v1"})
	require.NoError(t, err)
	assert.Equal(t, "Alice", vertices[0].Title)

	edges, err := client.Edges(ctx, "ws", []string{"e1"})
	require.NoError(t, err)
	assert.Equal(t, "knows", edges[0].Label)
}

func TestClient_StatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   errors.ErrorType
	}{
		{name: "not found", status: http.StatusNotFound, want: errors.ErrorTypeNotFound},
		{name: "bad request", status: http.StatusBadRequest, want: errors.ErrorTypeValidation},
		{name: "unavailable", status: http.StatusServiceUnavailable, want: errors.ErrorTypeUnavailable},
		{name: "server error", status: http.StatusInternalServerError, want: errors.ErrorTypeExternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			})

			_, err := client.FetchDiffs(context.Background(), "ws")
			require.Error(t, err)
			assert.True(t, errors.IsType(err, tt.want), "got %v", err)
		})
	}
}

func TestClient_BreakerOpens(t *testing.T) {
	var calls atomic.Int32
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := client.FetchDiffs(ctx, "ws")
		require.True(t, errors.IsType(err, errors.ErrorTypeExternal))
	}

	_, err := client.FetchDiffs(ctx, "ws")
	assert.True(t, errors.IsType(err, errors.ErrorTypeUnavailable))
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_InvalidBody(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	})

	_, err := client.FetchDiffs(context.Background(), "ws")
	assert.True(t, errors.IsType(err, errors.ErrorTypeExternal))
}
