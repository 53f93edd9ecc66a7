package selection

import (
	"workspacediff/domain/dependency"
	"workspacediff/domain/diff"

	"go.uber.org/zap"
)

// Machine holds one mark per diff id. It is not safe for concurrent use; the
// owning session serialises access.
type Machine struct {
	graph    *dependency.Graph
	marks    map[string]Mark
	logger   *zap.Logger
	recorder Recorder
}

// NewMachine creates a machine with every diff unmarked
func NewMachine(graph *dependency.Graph, logger *zap.Logger) *Machine {
	return &Machine{
		graph:  graph,
		marks:  make(map[string]Mark),
		logger: logger,
	}
}

// SetRecorder attaches a recorder for mark activity
func (m *Machine) SetRecorder(r Recorder) {
	m.recorder = r
}

type visitKey struct {
	id     string
	action Action
	state  bool
}

type cascade struct {
	visited map[visitKey]bool
	changes []Change
}

// SetMark marks (state true) or unmarks (state false) diffID for action and
// propagates the change through the dependency graph. It returns every
// transition applied, in order. Unknown ids and requests that are already
// satisfied change nothing.
func (m *Machine) SetMark(diffID string, action Action, state bool) []Change {
	c := &cascade{visited: make(map[visitKey]bool)}
	m.set(c, diffID, action, state)

	if m.recorder != nil && len(c.changes) > 0 {
		m.recorder.CascadeApplied(action, len(c.changes))
	}
	if len(c.changes) > 1 {
		m.logger.Debug("Cascaded mark change",
			zap.String("diffID", diffID),
			zap.String("action", action.String()),
			zap.Bool("state", state),
			zap.Int("changes", len(c.changes)),
		)
	}

	return c.changes
}

func (m *Machine) set(c *cascade, id string, action Action, state bool) {
	key := visitKey{id: id, action: action, state: state}
	if c.visited[key] {
		return
	}
	direct := len(c.visited) == 0
	c.visited[key] = true

	record, ok := m.graph.Diff(id)
	if !ok {
		return
	}

	current := m.Mark(id)
	next := action.Mark()
	if !state {
		// a cascaded unmark clears whatever mark a dependent carries; a
		// direct one only clears its own action
		if current == MarkNone || (direct && current != next) {
			return
		}
		next = MarkNone
	}
	if next == current {
		return
	}

	m.apply(id, next)
	c.changes = append(c.changes, Change{DiffID: id, From: current, To: next})
	if m.recorder != nil {
		m.recorder.MarkChanged(action, state)
	}

	switch action {
	case ActionUndo:
		m.cascadeUndo(c, record, state)
	case ActionPublish:
		m.cascadePublish(c, record, state)
	}
}

func (m *Machine) cascadeUndo(c *cascade, record diff.Record, state bool) {
	switch d := record.(type) {
	case *diff.VertexDiff:
		// undoing a creation invalidates everything built on it
		if state && !d.Deleted {
			m.each(c, m.graph.Dependents(d.ID()), ActionUndo, true)
		}

	case *diff.PropertyDiff:
		if !state {
			if owner, ok := m.graph.ElementDiff(d.Owner); ok {
				m.set(c, owner.ID(), ActionUndo, false)
			}
		}

	case *diff.EdgeDiff:
		in, hasIn := m.graph.VertexDiff(d.InVertexID)
		out, hasOut := m.graph.VertexDiff(d.OutVertexID)

		switch {
		case state && d.Deleted:
			// restoring an edge restores its deleted endpoints
			if hasIn && in.Deleted {
				m.set(c, in.ID(), ActionUndo, true)
			}
			if hasOut && out.Deleted {
				m.set(c, out.ID(), ActionUndo, true)
			}
		case state:
			m.each(c, m.graph.Dependents(d.ID()), ActionUndo, true)
		default:
			if hasIn {
				m.set(c, in.ID(), ActionUndo, false)
			}
			if hasOut {
				m.set(c, out.ID(), ActionUndo, false)
			}
		}

	default:
		m.logger.Warn("Unknown diff type in undo cascade", zap.String("diffID", record.ID()))
	}
}

func (m *Machine) cascadePublish(c *cascade, record diff.Record, state bool) {
	switch d := record.(type) {
	case *diff.VertexDiff:
		switch {
		case state && d.Deleted:
			// only edge deletions may be published alongside a vertex deletion
			for _, id := range m.graph.Dependents(d.ID()) {
				dep, ok := m.graph.Diff(id)
				edge, isEdge := dep.(*diff.EdgeDiff)
				m.set(c, id, ActionPublish, ok && isEdge && edge.Deleted)
			}
		case !state:
			m.each(c, m.graph.Dependents(d.ID()), ActionPublish, false)
		}

	case *diff.PropertyDiff:
		if state {
			if owner, ok := m.graph.ElementDiff(d.Owner); ok && !owner.IsDeleted() {
				m.set(c, owner.ID(), ActionPublish, true)
			}
		}

	case *diff.EdgeDiff:
		if !state {
			m.each(c, m.graph.Dependents(d.ID()), ActionPublish, false)
			return
		}
		if d.Deleted {
			return
		}
		if in, ok := m.graph.VertexDiff(d.InVertexID); ok {
			m.set(c, in.ID(), ActionPublish, true)
		}
		if out, ok := m.graph.VertexDiff(d.OutVertexID); ok {
			m.set(c, out.ID(), ActionPublish, true)
		}

	default:
		m.logger.Warn("Unknown diff type in publish cascade", zap.String("diffID", record.ID()))
	}
}

func (m *Machine) each(c *cascade, ids []string, action Action, state bool) {
	for _, id := range ids {
		m.set(c, id, action, state)
	}
}

func (m *Machine) apply(id string, mark Mark) {
	if mark == MarkNone {
		delete(m.marks, id)
		return
	}
	m.marks[id] = mark
}
