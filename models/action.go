package models

import (
	"fmt"
	"time"
)

// ActionKind enumerates the enforcement outcomes the escalation engine
// can decide for a single inbound event.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionDeleteMessage
	ActionMute
	ActionBan
)

// EnforcementAction is the outcome of evaluating one inbound event.
// It is a value, not a stored entity.
type EnforcementAction struct {
	Kind    ActionKind
	MuteFor time.Duration // only set for ActionMute
}

func (a EnforcementAction) String() string {
	switch a.Kind {
	case ActionNone:
		return "none"
	case ActionDeleteMessage:
		return "delete"
	case ActionMute:
		return fmt.Sprintf("mute(%s)", a.MuteFor)
	case ActionBan:
		return "ban"
	default:
		return "unknown"
	}
}
