// Package ontology describes the property, concept and relationship
// definitions used to label and merge workspace diffs.
package ontology

// PropertyDefinition describes a property type
type PropertyDefinition struct {
	Title       string `yaml:"title" json:"title" validate:"required"`
	DisplayName string `yaml:"displayName" json:"displayName"`
	UserVisible bool   `yaml:"userVisible" json:"userVisible"`

	// DependentPropertyTitles is set on compound properties whose value is
	// computed from the listed sub-properties sharing a key
	DependentPropertyTitles []string `yaml:"dependentPropertyTitles,omitempty" json:"dependentPropertyTitles,omitempty"`
}

// IsCompound reports whether the property rolls up dependent properties
func (p PropertyDefinition) IsCompound() bool {
	return len(p.DependentPropertyTitles) > 0
}

// ConceptDefinition describes a vertex concept type
type ConceptDefinition struct {
	ID            string `yaml:"id" json:"id" validate:"required"`
	DisplayName   string `yaml:"displayName" json:"displayName"`
	GlyphIconHref string `yaml:"glyphIconHref,omitempty" json:"glyphIconHref,omitempty"`
}

// RelationshipDefinition describes an edge label
type RelationshipDefinition struct {
	Title       string `yaml:"title" json:"title" validate:"required"`
	DisplayName string `yaml:"displayName" json:"displayName"`
}

// Lookup is the read side of an ontology
type Lookup interface {
	Property(name string) (PropertyDefinition, bool)
	CompoundParent(name string) (string, bool)
	Concept(id string) (ConceptDefinition, bool)
	Relationship(label string) (RelationshipDefinition, bool)
}

// Ontology is an immutable, indexed set of definitions
type Ontology struct {
	properties    map[string]PropertyDefinition
	concepts      map[string]ConceptDefinition
	relationships map[string]RelationshipDefinition

	// dependent property title -> compound property title
	compoundByDependent map[string]string
}

// New indexes the given definitions. Later definitions with the same title
// replace earlier ones.
func New(properties []PropertyDefinition, concepts []ConceptDefinition, relationships []RelationshipDefinition) *Ontology {
	o := &Ontology{
		properties:          make(map[string]PropertyDefinition, len(properties)),
		concepts:            make(map[string]ConceptDefinition, len(concepts)),
		relationships:       make(map[string]RelationshipDefinition, len(relationships)),
		compoundByDependent: make(map[string]string),
	}

	for _, p := range properties {
		o.properties[p.Title] = p
	}
	for _, p := range properties {
		for _, dependent := range p.DependentPropertyTitles {
			o.compoundByDependent[dependent] = p.Title
		}
	}
	for _, c := range concepts {
		o.concepts[c.ID] = c
	}
	for _, r := range relationships {
		o.relationships[r.Title] = r
	}

	return o
}

// Empty returns an ontology with no definitions
func Empty() *Ontology {
	return New(nil, nil, nil)
}

func (o *Ontology) Property(name string) (PropertyDefinition, bool) {
	p, ok := o.properties[name]
	return p, ok
}

// CompoundParent returns the compound property a dependent property rolls into
func (o *Ontology) CompoundParent(name string) (string, bool) {
	parent, ok := o.compoundByDependent[name]
	return parent, ok
}

func (o *Ontology) Concept(id string) (ConceptDefinition, bool) {
	c, ok := o.concepts[id]
	return c, ok
}

func (o *Ontology) Relationship(label string) (RelationshipDefinition, bool) {
	r, ok := o.relationships[label]
	return r, ok
}

// PropertyDisplayName falls back to the title when no display name is set
func PropertyDisplayName(l Lookup, name string) string {
	if p, ok := l.Property(name); ok && p.DisplayName != "" {
		return p.DisplayName
	}
	return name
}

// RelationshipDisplayName falls back to the label when no display name is set
func RelationshipDisplayName(l Lookup, label string) string {
	if r, ok := l.Relationship(label); ok && r.DisplayName != "" {
		return r.DisplayName
	}
	return label
}

// Size returns the number of property, concept and relationship definitions
func (o *Ontology) Size() (properties, concepts, relationships int) {
	return len(o.properties), len(o.concepts), len(o.relationships)
}
