package dependency

import (
	"workspacediff/domain/diff"
	"workspacediff/domain/ontology"

	"go.uber.org/zap"
)

// Build walks the grouped diffs once and returns their dependency graph.
// Vertices are roots; properties depend on their owner; edges depend on both
// endpoints. Full vertex and edge records are not needed here.
func Build(grouping *diff.Grouping, lookup ontology.Lookup, logger *zap.Logger) *Graph {
	if lookup == nil {
		lookup = ontology.Empty()
	}
	g := newGraph()

	for _, elementID := range grouping.ElementIDs() {
		for _, record := range grouping.Records(elementID) {
			switch d := record.(type) {
			case *diff.VertexDiff:
				g.byElementID[elementID] = d
				g.index(d)

			case *diff.PropertyDiff:
				if def, ok := lookup.Property(d.Name); ok && !def.UserVisible {
					g.hidden = append(g.hidden, d.ID())
					logger.Debug("Ignoring hidden property diff",
						zap.String("diffID", d.ID()),
						zap.String("property", d.Name),
					)
					continue
				}
				g.addDependency(d.Owner, d)
				g.index(d)

				if parent, ok := lookup.CompoundParent(d.Name); ok {
					k := compoundKey{elementID: d.Owner, parent: parent, key: d.Key}
					g.compound[k] = append(g.compound[k], d.ID())
				}

			case *diff.EdgeDiff:
				g.byElementID[d.EdgeID] = d
				g.addDependency(d.InVertexID, d)
				g.addDependency(d.OutVertexID, d)
				g.index(d)
			}

			g.addDependency(record.ID(), nil)
		}
	}

	logger.Debug("Built diff dependency graph",
		zap.Int("elements", grouping.Len()),
		zap.Int("diffs", g.Len()),
		zap.Int("hidden", len(g.hidden)),
	)

	return g
}
