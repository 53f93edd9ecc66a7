package services

import (
	"context"
	"sync"

	"workspacediff/pkg/errors"

	"go.uber.org/zap"
)

// SessionManager keeps one session per workspace
type SessionManager struct {
	deps   SessionDeps
	logger *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionManager creates a manager sharing deps across sessions
func NewSessionManager(deps SessionDeps) *SessionManager {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &SessionManager{
		deps:     deps,
		logger:   deps.Logger,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session of a workspace, creating it unloaded if needed
func (m *SessionManager) Get(workspaceID string) (*Session, error) {
	if workspaceID == "" {
		return nil, errors.NewValidationError("workspace id is required")
	}

	m.mu.RLock()
	session, ok := m.sessions[workspaceID]
	m.mu.RUnlock()
	if ok {
		return session, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if session, ok := m.sessions[workspaceID]; ok {
		return session, nil
	}
	session = NewSession(workspaceID, m.deps)
	m.sessions[workspaceID] = session
	m.logger.Debug("Created workspace session", zap.String("workspaceID", workspaceID))
	return session, nil
}

// Loaded returns the session of a workspace, loading it on first use or when
// a submission left it stale
func (m *SessionManager) Loaded(ctx context.Context, workspaceID string) (*Session, error) {
	session, err := m.Get(workspaceID)
	if err != nil {
		return nil, err
	}
	if !session.loaded() || session.Stale() {
		if err := session.Load(ctx); err != nil {
			return nil, err
		}
	}
	return session, nil
}

// Drop forgets a workspace session
func (m *SessionManager) Drop(workspaceID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, workspaceID)
}

// MarkStale flags a workspace for reload, typically after another instance
// reported a submission
func (m *SessionManager) MarkStale(workspaceID string) bool {
	m.mu.RLock()
	session, ok := m.sessions[workspaceID]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	session.markStale()
	return true
}

// Len returns the number of tracked sessions
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
