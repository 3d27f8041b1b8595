package model

import "time"

// ChangeType is the kind of guard transition reported to observers.
type ChangeType string

const (
	ChangeBlocked   ChangeType = "blocked"
	ChangeUnblocked ChangeType = "unblocked"
	ChangeGate      ChangeType = "gate"
)

// GuardChange is one event in a session's event stream.
type GuardChange struct {
	Type      ChangeType `json:"type"`
	TS        int64      `json:"ts"`
	Path      string     `json:"p,omitempty"`
	Tag       Tag        `json:"tag,omitempty"`
	Text      string     `json:"t,omitempty"`
	Gate      string     `json:"gate,omitempty"`      // Gate id for ChangeGate
	State     string     `json:"state,omitempty"`     // Gate state for ChangeGate
	Remaining int        `json:"remaining,omitempty"` // Seconds left for ChangeGate
}

// NewElementChange builds a blocked/unblocked event for an element.
func NewElementChange(typ ChangeType, path string, d ElementDescriptor) GuardChange {
	return GuardChange{
		Type: typ,
		TS:   time.Now().Unix(),
		Path: path,
		Tag:  d.Tag,
		Text: d.TextContent,
	}
}
