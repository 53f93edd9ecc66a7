// Package selection keeps the publish/undo marks of a diff set consistent with
// its dependency graph.
package selection

import "fmt"

// Mark is the staging state of one diff. A diff is never marked for publish
// and undo at the same time.
type Mark string

const (
	MarkNone    Mark = "NONE"
	MarkPublish Mark = "PUBLISH"
	MarkUndo    Mark = "UNDO"
)

// Action is what a submission does with the marked diffs
type Action string

const (
	ActionPublish Action = "publish"
	ActionUndo    Action = "undo"
)

// ParseAction validates an action name
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionPublish, ActionUndo:
		return Action(s), nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// Mark returns the mark an action sets
func (a Action) Mark() Mark {
	switch a {
	case ActionPublish:
		return MarkPublish
	case ActionUndo:
		return MarkUndo
	}
	return MarkNone
}

func (a Action) String() string { return string(a) }

// Change records one mark transition applied during a cascade
type Change struct {
	DiffID string `json:"diffId"`
	From   Mark   `json:"from"`
	To     Mark   `json:"to"`
}

// Recorder receives mark activity, typically for metrics
type Recorder interface {
	MarkChanged(action Action, state bool)
	CascadeApplied(action Action, changes int)
}
