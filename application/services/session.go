package services

import (
	"context"
	"sync"
	"time"

	"workspacediff/application/ports"
	"workspacediff/domain/dependency"
	"workspacediff/domain/diff"
	"workspacediff/domain/ontology"
	"workspacediff/domain/selection"
	"workspacediff/domain/view"
	"workspacediff/pkg/errors"
	"workspacediff/pkg/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// SessionDeps are the collaborators shared by every workspace session
type SessionDeps struct {
	Source      ports.DiffSource
	Store       ports.ElementStore
	Ontology    ports.OntologyProvider
	Transport   ports.Transport
	Notifier    ports.StaleNotifier
	Recorder    selection.Recorder
	Metrics     ports.SubmissionRecorder
	Logger      *zap.Logger
	Placeholder string
}

// Session is the diff panel state of one workspace: the ingested diff set,
// its view and the current marks. It is safe for concurrent use.
type Session struct {
	workspaceID string
	deps        SessionDeps
	logger      *zap.Logger

	mu       sync.Mutex
	graph    *dependency.Graph
	view     *view.View
	machine  *selection.Machine
	skipped  int
	stale    bool
	loadedAt time.Time
}

// NewSession creates an unloaded session for a workspace
func NewSession(workspaceID string, deps SessionDeps) *Session {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		workspaceID: workspaceID,
		deps:        deps,
		logger:      logger.With(zap.String("workspaceID", workspaceID)),
	}
}

// WorkspaceID returns the workspace the session belongs to
func (s *Session) WorkspaceID() string {
	return s.workspaceID
}

// Load fetches the workspace diffs and rebuilds the view. Marks on diffs that
// survive the reload are kept. Element records and the ontology are optional:
// failures there degrade to placeholders.
func (s *Session) Load(ctx context.Context) (err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "session.load", attribute.String("workspace.id", s.workspaceID))
	defer func() { observability.EndSpan(span, err) }()

	raws, err := s.deps.Source.FetchDiffs(ctx, s.workspaceID)
	if err != nil {
		s.logger.Error("Failed to fetch workspace diffs", zap.Error(err))
		return errors.Wrap(err, "failed to fetch workspace diffs")
	}

	records, skipped := diff.ClassifyAll(raws, s.logger)
	grouping := diff.GroupByElement(records)
	lookup := s.loadOntology(ctx)
	elements := s.fetchElements(ctx, grouping.References())

	graph := dependency.Build(grouping, lookup, s.logger)
	built := view.Build(grouping, graph, lookup, elements, s.deps.Placeholder)

	machine := selection.NewMachine(graph, s.logger)
	if s.deps.Recorder != nil {
		machine.SetRecorder(s.deps.Recorder)
	}

	s.mu.Lock()
	carried := 0
	if s.machine != nil {
		carried = machine.Carry(s.machine.Marks())
	}
	s.graph = graph
	s.view = built
	s.machine = machine
	s.skipped = skipped
	s.stale = false
	s.loadedAt = time.Now().UTC()
	s.mu.Unlock()

	elapsed := time.Since(start)
	if s.deps.Metrics != nil {
		s.deps.Metrics.SessionLoaded(graph.Len(), skipped, elapsed.Seconds())
	}

	span.SetAttributes(
		attribute.Int("diffs.loaded", graph.Len()),
		attribute.Int("diffs.skipped", skipped),
	)
	s.logger.Info("Loaded workspace diffs",
		zap.Int("raw", len(raws)),
		zap.Int("diffs", graph.Len()),
		zap.Int("skipped", skipped),
		zap.Int("groups", len(built.Groups())),
		zap.Int("carriedMarks", carried),
		zap.Duration("duration", elapsed),
	)

	return nil
}

func (s *Session) loadOntology(ctx context.Context) ontology.Lookup {
	if s.deps.Ontology == nil {
		return ontology.Empty()
	}
	lookup, err := s.deps.Ontology.Ontology(ctx)
	if err != nil || lookup == nil {
		s.logger.Warn("Ontology unavailable, using raw property names", zap.Error(err))
		return ontology.Empty()
	}
	return lookup
}

func (s *Session) fetchElements(ctx context.Context, refs diff.References) view.Elements {
	if s.deps.Store == nil {
		return view.NewElements(nil, nil)
	}

	var vertices, edges []view.ElementRecord
	if len(refs.VertexIDs) > 0 {
		found, err := s.deps.Store.Vertices(ctx, s.workspaceID, refs.VertexIDs)
		if err != nil {
			s.logger.Warn("Failed to fetch vertex records",
				zap.Int("requested", len(refs.VertexIDs)),
				zap.Error(err),
			)
		}
		vertices = found
	}
	if len(refs.EdgeIDs) > 0 {
		found, err := s.deps.Store.Edges(ctx, s.workspaceID, refs.EdgeIDs)
		if err != nil {
			s.logger.Warn("Failed to fetch edge records",
				zap.Int("requested", len(refs.EdgeIDs)),
				zap.Error(err),
			)
		}
		edges = found
	}

	return view.NewElements(vertices, edges)
}

func notLoaded() error {
	return errors.NewConflictError("workspace diffs are not loaded").WithCode(errors.CodeWorkspaceNotReady)
}

// State is a consistent copy of the session taken under its lock
type State struct {
	WorkspaceID string
	Groups      []*view.Group
	Marks       map[string]selection.Mark
	Publish     int
	Undo        int
	Skipped     int
	Stale       bool
	LoadedAt    time.Time
}

// DiffView returns the current groups and marks
func (s *Session) DiffView() (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.machine == nil {
		return nil, notLoaded()
	}

	publish, undo := s.countsLocked()
	return &State{
		WorkspaceID: s.workspaceID,
		Groups:      s.view.Groups(),
		Marks:       s.machine.Marks(),
		Publish:     publish,
		Undo:        undo,
		Skipped:     s.skipped,
		Stale:       s.stale,
		LoadedAt:    s.loadedAt,
	}, nil
}

// SetMark toggles one row and returns every mark change the cascade applied
func (s *Session) SetMark(diffID string, action selection.Action, state bool) ([]selection.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.machine == nil {
		return nil, notLoaded()
	}
	if _, ok := s.graph.Diff(diffID); !ok {
		return nil, errors.NewNotFoundError("diff").WithDetail("diffId", diffID)
	}

	return s.machine.SetMark(diffID, action, state), nil
}

// Marks returns a copy of the current marks
func (s *Session) Marks() map[string]selection.Mark {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.machine == nil {
		return map[string]selection.Mark{}
	}
	return s.machine.Marks()
}

// Counts returns how many displayed rows are marked for publish and undo
func (s *Session) Counts() (publish, undo int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.machine == nil {
		return 0, 0
	}
	return s.countsLocked()
}

func (s *Session) countsLocked() (publish, undo int) {
	for _, id := range s.rowIDsLocked() {
		switch s.machine.Mark(id) {
		case selection.MarkPublish:
			publish++
		case selection.MarkUndo:
			undo++
		}
	}
	return publish, undo
}

// rowIDsLocked lists the markable row ids in display order. A compound row
// is represented by its head id.
func (s *Session) rowIDsLocked() []string {
	var ids []string
	for _, g := range s.view.Groups() {
		if g.DiffID != "" {
			ids = append(ids, g.DiffID)
		}
		for _, e := range g.Entries {
			ids = append(ids, e.ID())
		}
	}
	return ids
}

// SelectAll marks every row for action
func (s *Session) SelectAll(action selection.Action) ([]selection.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.machine == nil {
		return nil, notLoaded()
	}
	return s.machine.SelectAll(action, s.rowIDsLocked()), nil
}

// ClearAll unmarks every row marked for action
func (s *Session) ClearAll(action selection.Action) ([]selection.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.machine == nil {
		return nil, notLoaded()
	}
	return s.machine.ClearAll(action), nil
}

// Stale reports whether a submission invalidated the loaded diff set
func (s *Session) Stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale
}

// HighlightForElements returns the diff ids displayed for the given vertex
// and edge ids, in display order
func (s *Session) HighlightForElements(elementIDs []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.view == nil {
		return nil
	}

	wanted := make(map[string]bool, len(elementIDs))
	for _, id := range elementIDs {
		wanted[id] = true
	}

	ids := make([]string, 0)
	for _, g := range s.view.Groups() {
		if wanted[g.ElementID] {
			ids = append(ids, g.DiffIDs()...)
		}
	}
	return ids
}

// ElementsForDiffs returns the vertices and edges displaying the given diffs
func (s *Session) ElementsForDiffs(diffIDs []string) (vertexIDs, edgeIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vertexIDs, edgeIDs = []string{}, []string{}
	if s.view == nil {
		return vertexIDs, edgeIDs
	}

	seen := make(map[string]bool)
	for _, diffID := range diffIDs {
		elementID, ok := s.view.ElementOf(diffID)
		if !ok || seen[elementID] {
			continue
		}
		seen[elementID] = true

		g, _ := s.view.Group(elementID)
		if g.Kind == view.ElementEdge {
			edgeIDs = append(edgeIDs, elementID)
		} else {
			vertexIDs = append(vertexIDs, elementID)
		}
	}
	return vertexIDs, edgeIDs
}

// resolveLocked maps a marked row id to the diffs it stands for
func (s *Session) resolveLocked(id string) []diff.Record {
	if compound, ok := s.view.Compound(id); ok {
		records := make([]diff.Record, 0, len(compound.UnderlyingDiffs))
		for _, d := range compound.UnderlyingDiffs {
			records = append(records, d)
		}
		return records
	}
	if record, ok := s.graph.Diff(id); ok {
		return []diff.Record{record}
	}
	return nil
}

func (s *Session) loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine != nil
}

func (s *Session) markStale() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stale = true
}
