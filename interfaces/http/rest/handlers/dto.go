package handlers

import (
	"encoding/json"
	"time"

	"workspacediff/application/services"
	"workspacediff/domain/diff"
	"workspacediff/domain/selection"
	"workspacediff/domain/view"
)

// DiffViewResponse is the serialized diff panel
type DiffViewResponse struct {
	WorkspaceID string          `json:"workspaceId"`
	Groups      []GroupResponse `json:"groups"`
	Counts      CountsResponse  `json:"counts"`
	Skipped     int             `json:"skipped"`
	Stale       bool            `json:"stale"`
	LoadedAt    time.Time       `json:"loadedAt"`
}

// CountsResponse carries the header counters
type CountsResponse struct {
	Publish int `json:"publish"`
	Undo    int `json:"undo"`
}

// GroupResponse is one vertex or edge section
type GroupResponse struct {
	ElementID    string          `json:"elementId"`
	Kind         string          `json:"kind"`
	DiffID       string          `json:"diffId,omitempty"`
	Action       string          `json:"action"`
	Title        string          `json:"title"`
	Placeholder  bool            `json:"placeholder,omitempty"`
	ConceptImage string          `json:"conceptImage,omitempty"`
	EdgeLabel    string          `json:"edgeLabel,omitempty"`
	SourceID     string          `json:"sourceId,omitempty"`
	SourceTitle  string          `json:"sourceTitle,omitempty"`
	TargetID     string          `json:"targetId,omitempty"`
	TargetTitle  string          `json:"targetTitle,omitempty"`
	Mark         selection.Mark  `json:"mark,omitempty"`
	Entries      []EntryResponse `json:"entries"`
}

// EntryResponse is one property row, single or compound
type EntryResponse struct {
	ID          string             `json:"id"`
	Compound    bool               `json:"compound,omitempty"`
	Name        string             `json:"name"`
	DisplayName string             `json:"displayName"`
	Key         string             `json:"key"`
	Deleted     bool               `json:"deleted"`
	Status      diff.SandboxStatus `json:"sandboxStatus,omitempty"`
	OldValue    json.RawMessage    `json:"old,omitempty"`
	NewValue    json.RawMessage    `json:"new,omitempty"`
	OldValues   []json.RawMessage  `json:"oldValues,omitempty"`
	NewValues   []json.RawMessage  `json:"newValues,omitempty"`
	DiffIDs     []string           `json:"diffIds"`
	Mark        selection.Mark     `json:"mark"`
}

func newDiffViewResponse(state *services.State) DiffViewResponse {
	markOf := func(id string) selection.Mark {
		if m, ok := state.Marks[id]; ok {
			return m
		}
		return selection.MarkNone
	}

	groups := make([]GroupResponse, 0, len(state.Groups))
	for _, g := range state.Groups {
		group := GroupResponse{
			ElementID:    g.ElementID,
			Kind:         string(g.Kind),
			DiffID:       g.DiffID,
			Action:       string(g.Action),
			Title:        g.Title,
			Placeholder:  g.Placeholder,
			ConceptImage: g.ConceptImage,
			EdgeLabel:    g.EdgeLabel,
			SourceID:     g.SourceID,
			SourceTitle:  g.SourceTitle,
			TargetID:     g.TargetID,
			TargetTitle:  g.TargetTitle,
			Entries:      make([]EntryResponse, 0, len(g.Entries)),
		}
		if g.DiffID != "" {
			group.Mark = markOf(g.DiffID)
		}

		for _, e := range g.Entries {
			entry := EntryResponse{ID: e.ID(), DiffIDs: e.DiffIDs(), Mark: markOf(e.ID())}
			switch v := e.(type) {
			case *view.PropertyEntry:
				entry.Name = v.Diff.Name
				entry.DisplayName = v.DisplayName
				entry.Key = v.Diff.Key
				entry.Deleted = v.Diff.Deleted
				entry.Status = v.Diff.SandboxStatus
				entry.OldValue = v.Diff.OldValue
				entry.NewValue = v.Diff.NewValue
			case *view.CompoundDiffEntry:
				entry.Compound = true
				entry.Name = v.Name
				entry.DisplayName = v.DisplayName
				entry.Key = v.Key
				entry.Deleted = v.Deleted()
				entry.OldValues = v.OldValues
				entry.NewValues = v.NewValues
			}
			group.Entries = append(group.Entries, entry)
		}
		groups = append(groups, group)
	}

	return DiffViewResponse{
		WorkspaceID: state.WorkspaceID,
		Groups:      groups,
		Counts:      CountsResponse{Publish: state.Publish, Undo: state.Undo},
		Skipped:     state.Skipped,
		Stale:       state.Stale,
		LoadedAt:    state.LoadedAt,
	}
}
