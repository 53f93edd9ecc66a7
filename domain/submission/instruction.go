// Package submission turns marked diffs into backend instructions and models
// the backend's reply.
package submission

import (
	"fmt"

	"workspacediff/domain/diff"
)

// InstructionType names the kind of element an instruction targets
type InstructionType string

const (
	TypeProperty     InstructionType = "property"
	TypeVertex       InstructionType = "vertex"
	TypeRelationship InstructionType = "relationship"
)

// Operation is what the backend should do with the sandboxed change
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// Instruction is the backend-neutral form of one diff. Property owners are
// carried in VertexID or EdgeID depending on their element type.
type Instruction struct {
	Type     InstructionType    `json:"type"`
	Action   Operation          `json:"action"`
	VertexID string             `json:"vertexId,omitempty"`
	EdgeID   string             `json:"edgeId,omitempty"`
	SourceID string             `json:"sourceId,omitempty"`
	DestID   string             `json:"destId,omitempty"`
	Name     string             `json:"name,omitempty"`
	Key      string             `json:"key,omitempty"`
	Status   diff.SandboxStatus `json:"status"`
}

// Translate converts a diff record into its instruction
func Translate(record diff.Record) (Instruction, error) {
	switch d := record.(type) {
	case *diff.PropertyDiff:
		in := Instruction{
			Type:   TypeProperty,
			Action: OperationUpdate,
			Name:   d.Name,
			Key:    d.Key,
			Status: d.SandboxStatus,
		}
		if d.Deleted {
			in.Action = OperationDelete
		}
		if d.OwnerType == diff.ElementEdge {
			in.EdgeID = d.Owner
		} else {
			in.VertexID = d.Owner
		}
		return in, nil

	case *diff.VertexDiff:
		return Instruction{
			Type:     TypeVertex,
			Action:   createOrDelete(d.Deleted),
			VertexID: d.VertexID,
			Status:   d.SandboxStatus,
		}, nil

	case *diff.EdgeDiff:
		return Instruction{
			Type:     TypeRelationship,
			Action:   createOrDelete(d.Deleted),
			EdgeID:   d.EdgeID,
			SourceID: d.OutVertexID,
			DestID:   d.InVertexID,
			Status:   d.SandboxStatus,
		}, nil
	}

	return Instruction{}, fmt.Errorf("cannot translate diff %T", record)
}

func createOrDelete(deleted bool) Operation {
	if deleted {
		return OperationDelete
	}
	return OperationCreate
}
