package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"workspacediff/application/services"
	"workspacediff/domain/selection"
	"workspacediff/domain/submission"
	"workspacediff/pkg/errors"
	"workspacediff/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DiffHandler handles workspace diff panel requests
type DiffHandler struct {
	sessions      *services.SessionManager
	errors        *errors.ErrorHandler
	logger        *zap.Logger
	submitTimeout time.Duration
}

// NewDiffHandler creates a new diff handler
func NewDiffHandler(sessions *services.SessionManager, errHandler *errors.ErrorHandler, submitTimeout time.Duration, logger *zap.Logger) *DiffHandler {
	if submitTimeout <= 0 {
		submitTimeout = 30 * time.Second
	}
	return &DiffHandler{
		sessions:      sessions,
		errors:        errHandler,
		logger:        logger,
		submitTimeout: submitTimeout,
	}
}

// SetMarkRequest toggles one row
type SetMarkRequest struct {
	DiffID string `json:"diffId" validate:"required"`
	Action string `json:"action" validate:"required,oneof=publish undo"`
	State  bool   `json:"state"`
}

// ActionRequest names an action for bulk operations and submission
type ActionRequest struct {
	Action string `json:"action" validate:"required,oneof=publish undo"`
}

// HighlightRequest lists selected canvas elements
type HighlightRequest struct {
	ElementIDs []string `json:"elementIds" validate:"required,dive,required"`
}

// ElementsRequest lists selected diff rows
type ElementsRequest struct {
	DiffIDs []string `json:"diffIds" validate:"required,dive,required"`
}

// MarksResponse reports the effect of a mark change
type MarksResponse struct {
	Changes []selection.Change        `json:"changes"`
	Marks   map[string]selection.Mark `json:"marks"`
	Counts  CountsResponse            `json:"counts"`
}

// SubmitResponse reports a resolved submission
type SubmitResponse struct {
	*submission.Outcome
	Counts CountsResponse `json:"counts"`
}

// GetDiff handles GET /workspaces/{workspaceID}/diff
func (h *DiffHandler) GetDiff(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Loaded(r.Context(), chi.URLParam(r, "workspaceID"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	state, err := session.DiffView()
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, newDiffViewResponse(state))
}

// Reload handles POST /workspaces/{workspaceID}/diff/reload
func (h *DiffHandler) Reload(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Get(chi.URLParam(r, "workspaceID"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := session.Load(r.Context()); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	state, err := session.DiffView()
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, newDiffViewResponse(state))
}

// SetMark handles PUT /workspaces/{workspaceID}/marks
func (h *DiffHandler) SetMark(w http.ResponseWriter, r *http.Request) {
	var req SetMarkRequest
	if !h.decode(w, r, &req) {
		return
	}

	session, err := h.sessions.Loaded(r.Context(), chi.URLParam(r, "workspaceID"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	changes, err := session.SetMark(req.DiffID, selection.Action(req.Action), req.State)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondMarks(w, session, changes)
}

// SelectAll handles POST /workspaces/{workspaceID}/marks/select-all
func (h *DiffHandler) SelectAll(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, (*services.Session).SelectAll)
}

// ClearAll handles POST /workspaces/{workspaceID}/marks/clear-all
func (h *DiffHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, (*services.Session).ClearAll)
}

func (h *DiffHandler) bulk(w http.ResponseWriter, r *http.Request, op func(*services.Session, selection.Action) ([]selection.Change, error)) {
	var req ActionRequest
	if !h.decode(w, r, &req) {
		return
	}

	session, err := h.sessions.Loaded(r.Context(), chi.URLParam(r, "workspaceID"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	changes, err := op(session, selection.Action(req.Action))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondMarks(w, session, changes)
}

// Submit handles POST /workspaces/{workspaceID}/submit
func (h *DiffHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req ActionRequest
	if !h.decode(w, r, &req) {
		return
	}

	session, err := h.sessions.Loaded(r.Context(), chi.URLParam(r, "workspaceID"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	// the request outlives the client connection and is released once resolved
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.submitTimeout)

	pending := session.Submit(ctx, selection.Action(req.Action))
	go func() {
		<-pending.Done()
		cancel()
	}()
	outcome, err := pending.Wait(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	if !outcome.Success {
		h.logger.Warn("Submission returned failures",
			zap.String("workspaceID", session.WorkspaceID()),
			zap.String("snapshotID", outcome.SnapshotID),
			zap.Int("failures", len(outcome.Failures)),
		)
	}

	publish, undo := session.Counts()
	h.respondJSON(w, http.StatusOK, SubmitResponse{
		Outcome: outcome,
		Counts:  CountsResponse{Publish: publish, Undo: undo},
	})
}

// Highlight handles POST /workspaces/{workspaceID}/highlight
func (h *DiffHandler) Highlight(w http.ResponseWriter, r *http.Request) {
	var req HighlightRequest
	if !h.decode(w, r, &req) {
		return
	}

	session, err := h.sessions.Loaded(r.Context(), chi.URLParam(r, "workspaceID"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"diffIds": session.HighlightForElements(req.ElementIDs),
	})
}

// Elements handles POST /workspaces/{workspaceID}/elements
func (h *DiffHandler) Elements(w http.ResponseWriter, r *http.Request) {
	var req ElementsRequest
	if !h.decode(w, r, &req) {
		return
	}

	session, err := h.sessions.Loaded(r.Context(), chi.URLParam(r, "workspaceID"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	vertexIDs, edgeIDs := session.ElementsForDiffs(req.DiffIDs)
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"vertexIds": vertexIDs,
		"edgeIds":   edgeIDs,
	})
}

// MarkStale handles POST /workspaces/{workspaceID}/stale
func (h *DiffHandler) MarkStale(w http.ResponseWriter, r *http.Request) {
	workspaceID := chi.URLParam(r, "workspaceID")
	tracked := h.sessions.MarkStale(workspaceID)

	h.logger.Debug("Workspace marked stale",
		zap.String("workspaceID", workspaceID),
		zap.Bool("tracked", tracked),
	)
	h.respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"workspaceId": workspaceID,
		"tracked":     tracked,
	})
}

func (h *DiffHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.errors.Handle(w, r, errors.NewValidationError("Invalid request body: "+err.Error()))
		return false
	}
	if err := utils.ValidateStruct(dst); err != nil {
		h.errors.Handle(w, r, errors.NewValidationError("Validation error: "+err.Error()))
		return false
	}
	return true
}

func (h *DiffHandler) respondMarks(w http.ResponseWriter, session *services.Session, changes []selection.Change) {
	if changes == nil {
		changes = []selection.Change{}
	}
	publish, undo := session.Counts()
	h.respondJSON(w, http.StatusOK, MarksResponse{
		Changes: changes,
		Marks:   session.Marks(),
		Counts:  CountsResponse{Publish: publish, Undo: undo},
	})
}

// respondJSON sends a JSON response
func (h *DiffHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}
