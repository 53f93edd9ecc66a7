package view

import (
	"encoding/json"

	"workspacediff/domain/diff"
)

// Entry is one property row of a display group
type Entry interface {
	// ID is the diff id the row is marked under
	ID() string
	// DiffIDs lists every diff the row stands for
	DiffIDs() []string
	entry()
}

// PropertyEntry displays a single property diff
type PropertyEntry struct {
	DisplayName string
	Diff        *diff.PropertyDiff
}

func (e *PropertyEntry) ID() string        { return e.Diff.ID() }
func (e *PropertyEntry) DiffIDs() []string { return []string{e.Diff.ID()} }
func (e *PropertyEntry) entry()            {}

// CompoundDiffEntry rolls the dependent property diffs of a compound property
// sharing one key into a single row. OldValues and NewValues are aligned with
// UnderlyingDiffs; a missing value is kept as nil.
type CompoundDiffEntry struct {
	Name            string
	DisplayName     string
	Key             string
	OldValues       []json.RawMessage
	NewValues       []json.RawMessage
	UnderlyingDiffs []*diff.PropertyDiff
}

// ID is the id of the first underlying diff
func (e *CompoundDiffEntry) ID() string {
	if len(e.UnderlyingDiffs) == 0 {
		return ""
	}
	return e.UnderlyingDiffs[0].ID()
}

func (e *CompoundDiffEntry) DiffIDs() []string {
	ids := make([]string, 0, len(e.UnderlyingDiffs))
	for _, d := range e.UnderlyingDiffs {
		ids = append(ids, d.ID())
	}
	return ids
}

func (e *CompoundDiffEntry) entry() {}

// Deleted reports whether every underlying diff is a deletion
func (e *CompoundDiffEntry) Deleted() bool {
	for _, d := range e.UnderlyingDiffs {
		if !d.Deleted {
			return false
		}
	}
	return len(e.UnderlyingDiffs) > 0
}

func (e *CompoundDiffEntry) add(d *diff.PropertyDiff) {
	e.UnderlyingDiffs = append(e.UnderlyingDiffs, d)
	e.OldValues = append(e.OldValues, d.OldValue)
	e.NewValues = append(e.NewValues, d.NewValue)
}
