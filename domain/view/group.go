// Package view turns an ingested diff set into ordered display groups, one per
// vertex or edge, with compound properties merged into single entries.
package view

// ElementKind is the kind of element a group displays
type ElementKind string

const (
	ElementVertex ElementKind = "vertex"
	ElementEdge   ElementKind = "edge"
)

// ActionType summarises what happened to the element
type ActionType string

const (
	ActionCreate ActionType = "create"
	ActionUpdate ActionType = "update"
	ActionDelete ActionType = "delete"
)

// DefaultPlaceholderTitle is used when neither a full record nor a diff
// carries a title
const DefaultPlaceholderTitle = "Title not available"

// ElementRecord is the subset of a full vertex or edge record the view needs
type ElementRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	ConceptType string `json:"conceptType,omitempty"`
	Label       string `json:"label,omitempty"`
	OutVertexID string `json:"outVertexId,omitempty"`
	InVertexID  string `json:"inVertexId,omitempty"`
}

// Elements holds the full records that could be fetched, keyed by id
type Elements struct {
	Vertices map[string]ElementRecord
	Edges    map[string]ElementRecord
}

// NewElements indexes fetched vertex and edge records
func NewElements(vertices, edges []ElementRecord) Elements {
	e := Elements{
		Vertices: make(map[string]ElementRecord, len(vertices)),
		Edges:    make(map[string]ElementRecord, len(edges)),
	}
	for _, v := range vertices {
		e.Vertices[v.ID] = v
	}
	for _, ed := range edges {
		e.Edges[ed.ID] = ed
	}
	return e
}

// Group is the display unit for one element
type Group struct {
	ElementID string
	Kind      ElementKind

	// DiffID is the element-level diff id, empty when only properties changed
	DiffID string
	Action ActionType
	Title  string

	// Placeholder is true when no full record was available
	Placeholder  bool
	ConceptImage string

	EdgeLabel   string
	SourceID    string
	SourceTitle string
	TargetID    string
	TargetTitle string

	Entries []Entry
}

// DiffIDs returns every diff id displayed in the group
func (g *Group) DiffIDs() []string {
	ids := make([]string, 0, len(g.Entries)+1)
	if g.DiffID != "" {
		ids = append(ids, g.DiffID)
	}
	for _, e := range g.Entries {
		ids = append(ids, e.DiffIDs()...)
	}
	return ids
}
