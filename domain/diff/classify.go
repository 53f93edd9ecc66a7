package diff

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Discriminants sent by the backend in the "type" field
const (
	TypeVertexItem   = "VertexDiffItem"
	TypePropertyItem = "PropertyDiffItem"
	TypeEdgeItem     = "EdgeDiffItem"
)

var (
	// ErrUnknownDiffType is returned for discriminants this client does not know
	ErrUnknownDiffType = errors.New("unknown diff item type")

	// ErrMalformedDiff is returned when a known record lacks its identity fields
	ErrMalformedDiff = errors.New("malformed diff item")
)

// RawDiff is a diff item as it arrives from the workspace diff endpoint
type RawDiff struct {
	Type             string          `json:"type"`
	VertexID         string          `json:"vertexId,omitempty"`
	EdgeID           string          `json:"edgeId,omitempty"`
	ElementID        string          `json:"elementId,omitempty"`
	ElementType      string          `json:"elementType,omitempty"`
	Name             string          `json:"name,omitempty"`
	Key              string          `json:"key,omitempty"`
	Old              json.RawMessage `json:"old,omitempty"`
	New              json.RawMessage `json:"new,omitempty"`
	Deleted          bool            `json:"deleted"`
	SandboxStatus    string          `json:"sandboxStatus,omitempty"`
	ConceptType      string          `json:"conceptType,omitempty"`
	Title            string          `json:"title,omitempty"`
	Label            string          `json:"label,omitempty"`
	OutVertexID      string          `json:"outVertexId,omitempty"`
	InVertexID       string          `json:"inVertexId,omitempty"`
	VisibilityString string          `json:"visibilityString,omitempty"`
	VisibilityJSON   json.RawMessage `json:"visibilityJson,omitempty"`
}

// Classify turns a raw item into its typed variant
func Classify(raw RawDiff) (Record, error) {
	status := SandboxStatus(raw.SandboxStatus)

	switch raw.Type {
	case TypeVertexItem:
		if raw.VertexID == "" {
			return nil, fmt.Errorf("%w: vertex item without vertexId", ErrMalformedDiff)
		}
		return &VertexDiff{
			VertexID:       raw.VertexID,
			Deleted:        raw.Deleted,
			ConceptType:    raw.ConceptType,
			Title:          raw.Title,
			SandboxStatus:  status,
			VisibilityJSON: raw.VisibilityJSON,
		}, nil

	case TypePropertyItem:
		if raw.ElementID == "" {
			return nil, fmt.Errorf("%w: property item without elementId", ErrMalformedDiff)
		}
		ownerType := ElementType(raw.ElementType)
		switch ownerType {
		case ElementVertex, ElementEdge:
		case "":
			ownerType = ElementVertex
		default:
			return nil, fmt.Errorf("%w: property element type %q", ErrMalformedDiff, raw.ElementType)
		}
		return &PropertyDiff{
			Owner:          raw.ElementID,
			OwnerType:      ownerType,
			Name:           raw.Name,
			Key:            raw.Key,
			OldValue:       raw.Old,
			NewValue:       raw.New,
			Deleted:        raw.Deleted,
			SandboxStatus:  status,
			Visibility:     raw.VisibilityString,
			VisibilityJSON: raw.VisibilityJSON,
		}, nil

	case TypeEdgeItem:
		if raw.EdgeID == "" {
			return nil, fmt.Errorf("%w: edge item without edgeId", ErrMalformedDiff)
		}
		return &EdgeDiff{
			EdgeID:         raw.EdgeID,
			OutVertexID:    raw.OutVertexID,
			InVertexID:     raw.InVertexID,
			Label:          raw.Label,
			Deleted:        raw.Deleted,
			SandboxStatus:  status,
			VisibilityJSON: raw.VisibilityJSON,
		}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownDiffType, raw.Type)
}

// ClassifyAll classifies every item, logging and skipping the ones that cannot
// be classified. The number of skipped items is returned alongside.
func ClassifyAll(raws []RawDiff, logger *zap.Logger) ([]Record, int) {
	records := make([]Record, 0, len(raws))
	skipped := 0

	for i, raw := range raws {
		record, err := Classify(raw)
		if err != nil {
			skipped++
			logger.Warn("Skipping diff item",
				zap.Int("index", i),
				zap.String("type", raw.Type),
				zap.Error(err),
			)
			continue
		}
		records = append(records, record)
	}

	return records, skipped
}
