// Package diff models the pending workspace changes reported by the backend
// and the identity rule used to join them into a dependency graph.
package diff

import "encoding/json"

// Kind identifies the variant of a Record
type Kind string

const (
	KindVertex   Kind = "vertex"
	KindProperty Kind = "property"
	KindEdge     Kind = "edge"
)

// ElementType is the kind of graph element a property belongs to
type ElementType string

const (
	ElementVertex ElementType = "vertex"
	ElementEdge   ElementType = "edge"
)

// SandboxStatus distinguishes private staged state from shared state
type SandboxStatus string

const (
	StatusPublic        SandboxStatus = "PUBLIC"
	StatusPublicChanged SandboxStatus = "PUBLIC_CHANGED"
	StatusPrivate       SandboxStatus = "PRIVATE"
)

// Record is a classified pending change. The set of implementations is closed:
// *VertexDiff, *PropertyDiff and *EdgeDiff.
type Record interface {
	// ID is the join key used by the dependency graph
	ID() string
	// ElementID is the id of the vertex or edge owning this change
	ElementID() string
	Kind() Kind
	IsDeleted() bool
	Status() SandboxStatus

	sealed()
}

// VertexDiff is a pending creation or deletion of a vertex
type VertexDiff struct {
	VertexID       string
	Deleted        bool
	ConceptType    string
	Title          string
	SandboxStatus  SandboxStatus
	VisibilityJSON json.RawMessage
}

func (d *VertexDiff) ID() string            { return d.VertexID }
func (d *VertexDiff) ElementID() string     { return d.VertexID }
func (d *VertexDiff) Kind() Kind            { return KindVertex }
func (d *VertexDiff) IsDeleted() bool       { return d.Deleted }
func (d *VertexDiff) Status() SandboxStatus { return d.SandboxStatus }
func (d *VertexDiff) sealed()               {}

// PropertyDiff is a pending change of a single property value
type PropertyDiff struct {
	Owner          string
	OwnerType      ElementType
	Name           string
	Key            string
	OldValue       json.RawMessage
	NewValue       json.RawMessage
	Deleted        bool
	SandboxStatus  SandboxStatus
	Visibility     string
	VisibilityJSON json.RawMessage
}

func (d *PropertyDiff) ID() string            { return PropertyID(d.Owner, d.Name, d.Key) }
func (d *PropertyDiff) ElementID() string     { return d.Owner }
func (d *PropertyDiff) Kind() Kind            { return KindProperty }
func (d *PropertyDiff) IsDeleted() bool       { return d.Deleted }
func (d *PropertyDiff) Status() SandboxStatus { return d.SandboxStatus }
func (d *PropertyDiff) sealed()               {}

// HasOldValue reports whether the backend sent a previous value
func (d *PropertyDiff) HasOldValue() bool { return len(d.OldValue) > 0 }

// HasNewValue reports whether the backend sent a staged value
func (d *PropertyDiff) HasNewValue() bool { return len(d.NewValue) > 0 }

// EdgeDiff is a pending creation or deletion of an edge
type EdgeDiff struct {
	EdgeID         string
	OutVertexID    string
	InVertexID     string
	Label          string
	Deleted        bool
	SandboxStatus  SandboxStatus
	VisibilityJSON json.RawMessage
}

func (d *EdgeDiff) ID() string            { return d.EdgeID }
func (d *EdgeDiff) ElementID() string     { return d.EdgeID }
func (d *EdgeDiff) Kind() Kind            { return KindEdge }
func (d *EdgeDiff) IsDeleted() bool       { return d.Deleted }
func (d *EdgeDiff) Status() SandboxStatus { return d.SandboxStatus }
func (d *EdgeDiff) sealed()               {}

// Endpoints returns the out and in vertex ids
func (d *EdgeDiff) Endpoints() (out, in string) { return d.OutVertexID, d.InVertexID }

// PropertyID builds the identity of a property change. The concatenation is
// order sensitive and has no separator, matching the backend's row ids.
func PropertyID(elementID, name, key string) string {
	return elementID + name + key
}
