package submission

import (
	"time"

	"workspacediff/domain/diff"
	"workspacediff/domain/selection"

	"github.com/google/uuid"
)

// Snapshot is the frozen set of diffs sent by one submission. It is never
// modified after creation.
type Snapshot struct {
	ID           string
	WorkspaceID  string
	Action       selection.Action
	Marked       []string
	DiffIDs      []string
	Instructions []Instruction
	TakenAt      time.Time
}

// Resolver maps a diff id to the records it stands for. A compound row head
// resolves to every underlying property diff.
type Resolver func(diffID string) []diff.Record

// NewSnapshot expands and translates the marked ids. Duplicate ids produced
// by expansion are sent once. Records that cannot be translated are returned
// as skipped.
func NewSnapshot(workspaceID string, action selection.Action, marked []string, resolve Resolver) (*Snapshot, []string) {
	snap := &Snapshot{
		ID:          uuid.New().String(),
		WorkspaceID: workspaceID,
		Action:      action,
		Marked:      append([]string(nil), marked...),
		TakenAt:     time.Now().UTC(),
	}

	seen := make(map[string]bool)
	var skipped []string
	for _, id := range marked {
		records := resolve(id)
		if len(records) == 0 {
			skipped = append(skipped, id)
			continue
		}
		for _, record := range records {
			if seen[record.ID()] {
				continue
			}
			seen[record.ID()] = true

			in, err := Translate(record)
			if err != nil {
				skipped = append(skipped, record.ID())
				continue
			}
			snap.DiffIDs = append(snap.DiffIDs, record.ID())
			snap.Instructions = append(snap.Instructions, in)
		}
	}

	return snap, skipped
}

// Empty reports whether there is nothing to send
func (s *Snapshot) Empty() bool {
	return len(s.Instructions) == 0
}
