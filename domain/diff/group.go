package diff

// References lists the vertex and edge ids mentioned by a set of diffs, in
// first-seen order and without duplicates.
type References struct {
	VertexIDs []string
	EdgeIDs   []string
}

// Grouping holds diffs bucketed by their owning element
type Grouping struct {
	order      []string
	groups     map[string][]Record
	references References
}

// GroupByElement buckets records by owning element id. Buckets keep the order
// in which their element first appeared and records keep encounter order.
func GroupByElement(records []Record) *Grouping {
	g := &Grouping{
		order:  make([]string, 0),
		groups: make(map[string][]Record),
	}
	seenVertices := make(map[string]bool)
	seenEdges := make(map[string]bool)

	addVertex := func(id string) {
		if id == "" || seenVertices[id] {
			return
		}
		seenVertices[id] = true
		g.references.VertexIDs = append(g.references.VertexIDs, id)
	}
	addEdge := func(id string) {
		if id == "" || seenEdges[id] {
			return
		}
		seenEdges[id] = true
		g.references.EdgeIDs = append(g.references.EdgeIDs, id)
	}

	for _, record := range records {
		switch r := record.(type) {
		case *VertexDiff:
			addVertex(r.VertexID)
		case *PropertyDiff:
			if r.OwnerType == ElementEdge {
				addEdge(r.Owner)
			} else {
				addVertex(r.Owner)
			}
		case *EdgeDiff:
			addEdge(r.EdgeID)
			addVertex(r.InVertexID)
			addVertex(r.OutVertexID)
		}

		owner := record.ElementID()
		if _, ok := g.groups[owner]; !ok {
			g.order = append(g.order, owner)
		}
		g.groups[owner] = append(g.groups[owner], record)
	}

	return g
}

// ElementIDs returns the owning element ids in first-seen order
func (g *Grouping) ElementIDs() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Records returns the diffs owned by an element
func (g *Grouping) Records(elementID string) []Record {
	return g.groups[elementID]
}

// Len returns the number of element groups
func (g *Grouping) Len() int { return len(g.order) }

// References returns every vertex and edge id the diffs mention
func (g *Grouping) References() References { return g.references }

// Title returns the title carried by an element's vertex diff, if any
func (g *Grouping) Title(elementID string) string {
	for _, record := range g.groups[elementID] {
		if v, ok := record.(*VertexDiff); ok && v.Title != "" {
			return v.Title
		}
	}
	return ""
}
