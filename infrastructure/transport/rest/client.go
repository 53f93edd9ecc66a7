// Package rest talks to the workspace backend over HTTP. It fetches pending
// diffs and element records and submits publish and undo requests.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"workspacediff/domain/diff"
	"workspacediff/domain/submission"
	"workspacediff/domain/view"
	"workspacediff/infrastructure/config"
	"workspacediff/pkg/errors"
	"workspacediff/pkg/observability"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const serviceName = "workspace-backend"

// Client is the workspace backend client. Every call goes through one
// circuit breaker so a failing backend is not hammered.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewClient creates a backend client from configuration
func NewClient(cfg config.BackendConfig, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}

	settings := gobreaker.Settings{
		Name:        serviceName,
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Only trip if we have enough requests to make a decision
			if counts.Requests < cfg.BreakerMinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.BreakerFailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			// client errors say nothing about backend health
			return err == nil || errors.IsValidation(err) || errors.IsNotFound(err)
		},
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

type diffResponse struct {
	Diffs []diff.RawDiff `json:"diffs"`
}

// FetchDiffs loads the pending diffs of a workspace
func (c *Client) FetchDiffs(ctx context.Context, workspaceID string) ([]diff.RawDiff, error) {
	query := url.Values{"workspaceId": {workspaceID}}
	var out diffResponse
	if err := c.do(ctx, http.MethodGet, "/workspace/diff?"+query.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Diffs, nil
}

type multipleRequest struct {
	WorkspaceID string   `json:"workspaceId"`
	VertexIDs   []string `json:"vertexIds,omitempty"`
	EdgeIDs     []string `json:"edgeIds,omitempty"`
}

type multipleResponse struct {
	Vertices []view.ElementRecord `json:"vertices"`
	Edges    []view.ElementRecord `json:"edges"`
}

// Vertices loads full vertex records
func (c *Client) Vertices(ctx context.Context, workspaceID string, ids []string) ([]view.ElementRecord, error) {
	var out multipleResponse
	if err := c.do(ctx, http.MethodPost, "/vertex/multiple", multipleRequest{WorkspaceID: workspaceID, VertexIDs: ids}, &out); err != nil {
		return nil, err
	}
	return out.Vertices, nil
}

// Edges loads full edge records
func (c *Client) Edges(ctx context.Context, workspaceID string, ids []string) ([]view.ElementRecord, error) {
	var out multipleResponse
	if err := c.do(ctx, http.MethodPost, "/edge/multiple", multipleRequest{WorkspaceID: workspaceID, EdgeIDs: ids}, &out); err != nil {
		return nil, err
	}
	return out.Edges, nil
}

type publishRequest struct {
	WorkspaceID string                   `json:"workspaceId"`
	PublishData []submission.Instruction `json:"publishData"`
}

type undoRequest struct {
	WorkspaceID string                   `json:"workspaceId"`
	UndoData    []submission.Instruction `json:"undoData"`
}

// Publish submits instructions for merging into the shared graph
func (c *Client) Publish(ctx context.Context, workspaceID string, instructions []submission.Instruction) (*submission.Response, error) {
	var out submission.Response
	if err := c.do(ctx, http.MethodPost, "/workspace/publish", publishRequest{WorkspaceID: workspaceID, PublishData: instructions}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Undo submits instructions for discarding sandboxed changes
func (c *Client) Undo(ctx context.Context, workspaceID string, instructions []submission.Instruction) (*submission.Response, error) {
	var out submission.Response
	if err := c.do(ctx, http.MethodPost, "/workspace/undo", undoRequest{WorkspaceID: workspaceID, UndoData: instructions}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) (err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "backend.request",
		attribute.String("http.request.method", method),
		attribute.String("url.path", path),
	)
	defer func() { observability.EndSpan(span, err) }()

	_, err = c.breaker.Execute(func() (interface{}, error) {
		return nil, c.roundTrip(ctx, method, path, body, out)
	})

	switch err {
	case nil:
	case gobreaker.ErrOpenState, gobreaker.ErrTooManyRequests:
		c.logger.Warn("Backend circuit open, request rejected",
			zap.String("method", method),
			zap.String("path", path),
		)
		return errors.NewUnavailableError(serviceName).WithCause(err)
	default:
		c.logger.Error("Backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return err
	}

	c.logger.Debug("Backend request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.NewInternalError("failed to encode request").WithCause(err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.NewInternalError("failed to build request").WithCause(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return errors.NewTimeoutError(method + " " + path).WithCause(err)
		}
		return errors.NewNetworkError("backend unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return statusError(resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.NewExternalError(serviceName, fmt.Errorf("invalid response body: %w", err))
	}
	return nil
}

func statusError(status int, message string) error {
	cause := fmt.Errorf("status %d: %s", status, message)
	switch {
	case status == http.StatusNotFound:
		return errors.NewNotFoundError("workspace").WithCause(cause)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return errors.NewValidationError(message).WithCause(cause)
	case status == http.StatusServiceUnavailable:
		return errors.NewUnavailableError(serviceName).WithCause(cause)
	}
	return errors.NewExternalError(serviceName, cause)
}
