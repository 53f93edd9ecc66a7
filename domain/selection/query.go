package selection

// Mark returns the current mark of a diff
func (m *Machine) Mark(id string) Mark {
	if mark, ok := m.marks[id]; ok {
		return mark
	}
	return MarkNone
}

// Marks returns a copy of every non-NONE mark
func (m *Machine) Marks() map[string]Mark {
	out := make(map[string]Mark, len(m.marks))
	for id, mark := range m.marks {
		out[id] = mark
	}
	return out
}

// MarkedFor returns the ids marked for action in ingestion order
func (m *Machine) MarkedFor(action Action) []string {
	want := action.Mark()
	ids := make([]string, 0)
	for _, id := range m.graph.IDs() {
		if m.marks[id] == want {
			ids = append(ids, id)
		}
	}
	return ids
}

// Counts returns how many diffs are marked for publish and for undo
func (m *Machine) Counts() (publish, undo int) {
	for _, mark := range m.marks {
		switch mark {
		case MarkPublish:
			publish++
		case MarkUndo:
			undo++
		}
	}
	return publish, undo
}

// SelectAll marks each of ids for action in order, running the usual cascade
// for each. Ids already marked for action are skipped.
func (m *Machine) SelectAll(action Action, ids []string) []Change {
	var changes []Change
	want := action.Mark()
	for _, id := range ids {
		if m.Mark(id) == want {
			continue
		}
		changes = append(changes, m.SetMark(id, action, true)...)
	}
	return changes
}

// ClearAll unmarks every diff marked for action
func (m *Machine) ClearAll(action Action) []Change {
	var changes []Change
	for _, id := range m.MarkedFor(action) {
		changes = append(changes, m.SetMark(id, action, false)...)
	}
	return changes
}

// Release resets the given ids to NONE without cascading, but only where they
// are still marked for action. It returns the ids that were reset.
func (m *Machine) Release(ids []string, action Action) []string {
	want := action.Mark()
	released := make([]string, 0, len(ids))
	for _, id := range ids {
		if m.marks[id] == want {
			delete(m.marks, id)
			released = append(released, id)
		}
	}
	return released
}

// Carry copies marks from a previous machine for ids that still exist,
// without cascading. It is used when a diff set is reloaded.
func (m *Machine) Carry(previous map[string]Mark) int {
	carried := 0
	for id, mark := range previous {
		if mark == MarkNone {
			continue
		}
		if _, ok := m.graph.Diff(id); !ok {
			continue
		}
		m.marks[id] = mark
		carried++
	}
	return carried
}
