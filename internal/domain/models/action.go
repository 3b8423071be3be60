package models

import (
	"fmt"
	"strings"
)

// Action enumerates the two supported inventory mutations.
type Action string

const (
	ActionAdd    Action = "Add"
	ActionRemove Action = "Remove"
)

// ParseAction derives an Action from free-form cell or request text.
func ParseAction(value string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "add":
		return ActionAdd, nil
	case "remove":
		return ActionRemove, nil
	default:
		return "", fmt.Errorf("unknown action %q", value)
	}
}

// Sign returns the direction the action applies to a running balance.
func (a Action) Sign() float64 {
	if a == ActionRemove {
		return -1
	}
	return 1
}
