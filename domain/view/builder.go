package view

import (
	"workspacediff/domain/dependency"
	"workspacediff/domain/diff"
	"workspacediff/domain/ontology"
)

// View is the display structure for one ingested diff set
type View struct {
	groups    []*Group
	byElement map[string]*Group
	compounds map[string]*CompoundDiffEntry
	rows      map[string]string
}

// Groups returns the display groups in ingestion order
func (v *View) Groups() []*Group {
	out := make([]*Group, len(v.groups))
	copy(out, v.groups)
	return out
}

// Group returns the group of an element
func (v *View) Group(elementID string) (*Group, bool) {
	g, ok := v.byElement[elementID]
	return g, ok
}

// Compound returns the compound entry whose row is marked under id
func (v *View) Compound(id string) (*CompoundDiffEntry, bool) {
	c, ok := v.compounds[id]
	return c, ok
}

// ElementOf returns the element id of the group displaying a diff
func (v *View) ElementOf(diffID string) (string, bool) {
	id, ok := v.rows[diffID]
	return id, ok
}

type compoundKey struct {
	parent string
	key    string
}

// Build produces display groups for every grouped element. Property diffs
// missing from the graph (hidden by the ontology) are left out. Missing full
// records fall back to the diff's own title and then to placeholder.
func Build(
	grouping *diff.Grouping,
	graph *dependency.Graph,
	lookup ontology.Lookup,
	elements Elements,
	placeholder string,
) *View {
	if lookup == nil {
		lookup = ontology.Empty()
	}
	if placeholder == "" {
		placeholder = DefaultPlaceholderTitle
	}

	v := &View{
		byElement: make(map[string]*Group, grouping.Len()),
		compounds: make(map[string]*CompoundDiffEntry),
		rows:      make(map[string]string),
	}

	vertexTitle := func(id string) string {
		if rec, ok := elements.Vertices[id]; ok && rec.Title != "" {
			return rec.Title
		}
		if title := grouping.Title(id); title != "" {
			return title
		}
		return placeholder
	}

	for _, elementID := range grouping.ElementIDs() {
		records := grouping.Records(elementID)
		if len(records) == 0 {
			continue
		}

		group := &Group{ElementID: elementID}
		if isVertexGroup(records[0]) {
			describeVertex(group, records, elements, lookup, grouping, placeholder)
		} else {
			describeEdge(group, records, elements, lookup, vertexTitle)
		}

		emitted := make(map[compoundKey]bool)
		for _, record := range records {
			switch d := record.(type) {
			case *diff.VertexDiff:
				group.DiffID = d.ID()
				group.Action = elementAction(d.Deleted)

			case *diff.EdgeDiff:
				group.DiffID = d.ID()
				group.Action = elementAction(d.Deleted)

			case *diff.PropertyDiff:
				if _, ok := graph.Diff(d.ID()); !ok {
					continue
				}
				parent, isCompound := lookup.CompoundParent(d.Name)
				if !isCompound {
					group.Entries = append(group.Entries, &PropertyEntry{
						DisplayName: ontology.PropertyDisplayName(lookup, d.Name),
						Diff:        d,
					})
					continue
				}

				k := compoundKey{parent: parent, key: d.Key}
				if emitted[k] {
					continue
				}
				emitted[k] = true

				entry := mergeCompound(graph, elementID, parent, d.Key, lookup)
				if entry.ID() == "" {
					continue
				}
				v.compounds[entry.ID()] = entry
				group.Entries = append(group.Entries, entry)
			}
		}

		if group.Action == "" {
			group.Action = ActionUpdate
		}

		for _, id := range group.DiffIDs() {
			v.rows[id] = elementID
		}
		v.groups = append(v.groups, group)
		v.byElement[elementID] = group
	}

	return v
}

// mergeCompound collects the indexed members of a compound property in
// encounter order. Repeated ids collapse into one underlying diff.
func mergeCompound(graph *dependency.Graph, elementID, parent, key string, lookup ontology.Lookup) *CompoundDiffEntry {
	entry := &CompoundDiffEntry{
		Name:        parent,
		DisplayName: ontology.PropertyDisplayName(lookup, parent),
		Key:         key,
	}

	seen := make(map[string]bool)
	for _, id := range graph.CompoundMembers(elementID, parent, key) {
		if seen[id] {
			continue
		}
		seen[id] = true

		record, ok := graph.Diff(id)
		if !ok {
			continue
		}
		if prop, ok := record.(*diff.PropertyDiff); ok {
			entry.add(prop)
		}
	}

	return entry
}

func isVertexGroup(first diff.Record) bool {
	switch d := first.(type) {
	case *diff.VertexDiff:
		return true
	case *diff.PropertyDiff:
		return d.OwnerType != diff.ElementEdge
	}
	return false
}

func elementAction(deleted bool) ActionType {
	if deleted {
		return ActionDelete
	}
	return ActionCreate
}

func describeVertex(group *Group, records []diff.Record, elements Elements, lookup ontology.Lookup, grouping *diff.Grouping, placeholder string) {
	group.Kind = ElementVertex

	if rec, ok := elements.Vertices[group.ElementID]; ok {
		group.Title = rec.Title
	} else {
		group.Placeholder = true
		group.Title = grouping.Title(group.ElementID)
	}
	if group.Title == "" {
		group.Title = placeholder
	}

	if v, ok := records[0].(*diff.VertexDiff); ok && v.ConceptType != "" {
		if concept, ok := lookup.Concept(v.ConceptType); ok {
			group.ConceptImage = concept.GlyphIconHref
		}
	}
}

func describeEdge(group *Group, records []diff.Record, elements Elements, lookup ontology.Lookup, vertexTitle func(string) string) {
	group.Kind = ElementEdge

	var label, out, in string
	for _, record := range records {
		if e, ok := record.(*diff.EdgeDiff); ok {
			label, out, in = e.Label, e.OutVertexID, e.InVertexID
			break
		}
	}

	if rec, ok := elements.Edges[group.ElementID]; ok {
		if rec.Label != "" {
			label = rec.Label
		}
		if out == "" {
			out = rec.OutVertexID
		}
		if in == "" {
			in = rec.InVertexID
		}
	} else {
		group.Placeholder = true
	}

	group.EdgeLabel = ontology.RelationshipDisplayName(lookup, label)
	group.Title = group.EdgeLabel
	group.SourceID = out
	group.TargetID = in
	group.SourceTitle = vertexTitle(out)
	group.TargetTitle = vertexTitle(in)
}
