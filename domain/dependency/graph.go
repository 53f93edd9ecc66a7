// Package dependency builds the graph that links each pending diff to the
// diffs that depend on it.
package dependency

import (
	"workspacediff/domain/diff"
)

// Graph is the dependency structure of one ingested diff set. It is built once
// and never mutated afterwards.
type Graph struct {
	// dependents[id] lists the diffs that reference id as their owner
	dependents map[string][]string
	// inverseDependents[id] lists the ids that listed id as a dependent
	inverseDependents map[string][]string

	byElementID map[string]diff.Record
	byID        map[string]diff.Record
	order       []string

	compound map[compoundKey][]string
	hidden   []string
}

type compoundKey struct {
	elementID string
	parent    string
	key       string
}

func newGraph() *Graph {
	return &Graph{
		dependents:        make(map[string][]string),
		inverseDependents: make(map[string][]string),
		byElementID:       make(map[string]diff.Record),
		byID:              make(map[string]diff.Record),
		compound:          make(map[compoundKey][]string),
	}
}

// addDependency registers id as a node and, when dependent is given, records
// the edge id -> dependent together with its inverse.
func (g *Graph) addDependency(id string, dependent diff.Record) {
	if id == "" {
		return
	}
	if _, ok := g.dependents[id]; !ok {
		g.dependents[id] = []string{}
	}
	if dependent == nil {
		return
	}
	g.dependents[id] = append(g.dependents[id], dependent.ID())
	g.inverseDependents[dependent.ID()] = append(g.inverseDependents[dependent.ID()], id)
}

func (g *Graph) index(record diff.Record) {
	id := record.ID()
	if _, seen := g.byID[id]; !seen {
		g.order = append(g.order, id)
	}
	g.byID[id] = record
}

// Dependents returns the ids of diffs owned by id, duplicates included
func (g *Graph) Dependents(id string) []string {
	return clone(g.dependents[id])
}

// InverseDependents returns the ids that list id as a dependent
func (g *Graph) InverseDependents(id string) []string {
	return clone(g.inverseDependents[id])
}

// Diff looks up any diff by id
func (g *Graph) Diff(id string) (diff.Record, bool) {
	r, ok := g.byID[id]
	return r, ok
}

// ElementDiff looks up the element-level diff of a vertex or edge
func (g *Graph) ElementDiff(elementID string) (diff.Record, bool) {
	r, ok := g.byElementID[elementID]
	return r, ok
}

// VertexDiff returns the pending vertex diff for a vertex id
func (g *Graph) VertexDiff(vertexID string) (*diff.VertexDiff, bool) {
	r, ok := g.byElementID[vertexID]
	if !ok {
		return nil, false
	}
	v, ok := r.(*diff.VertexDiff)
	return v, ok
}

// IDs returns every diff id in ingestion order
func (g *Graph) IDs() []string {
	return clone(g.order)
}

// Len returns the number of distinct diff ids
func (g *Graph) Len() int { return len(g.order) }

// CompoundMembers returns the property diff ids of an element that roll into
// the given compound parent under key
func (g *Graph) CompoundMembers(elementID, parent, key string) []string {
	return clone(g.compound[compoundKey{elementID: elementID, parent: parent, key: key}])
}

// Hidden returns the ids of property diffs left out because their ontology
// definition is not user visible
func (g *Graph) Hidden() []string {
	return clone(g.hidden)
}

func clone(ids []string) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
