package types

import "strings"

// Action tags an observation. The zero value means no action was taken:
// a plain inspection recording only the pass/fail flag.
type Action string

const (
	ActionNone      Action = ""
	ActionCreated   Action = "created"
	ActionDestroyed Action = "destroyed"
	ActionUsed      Action = "used"
	ActionHarvested Action = "harvested"
	ActionInspected Action = "inspected"
)

// NormalizeAction trims and lowercases a raw action; blank input becomes
// ActionNone.
func NormalizeAction(s string) Action {
	return Action(strings.ToLower(strings.TrimSpace(s)))
}

// ActionSet is the enumerated vocabulary for one experiment kind.
// Terminal actions remove an entity from the current inventory from their
// observed date onward.
type ActionSet struct {
	Allowed  []Action
	Terminal []Action
}

// Allows reports whether a is in the set. ActionNone is always allowed.
func (s ActionSet) Allows(a Action) bool {
	if a == ActionNone {
		return true
	}
	return containsAction(s.Allowed, a)
}

// IsTerminal reports whether a ends the entity's current life.
func (s ActionSet) IsTerminal(a Action) bool {
	return containsAction(s.Terminal, a)
}

// AllowedStrings returns the allowed actions as strings.
func (s ActionSet) AllowedStrings() []string {
	return actionStrings(s.Allowed)
}

// TerminalStrings returns the terminal actions as strings.
func (s ActionSet) TerminalStrings() []string {
	return actionStrings(s.Terminal)
}

// ActionSets holds the action vocabulary of every experiment kind.
var ActionSets = map[Kind]ActionSet{
	KindCulture: {
		Allowed:  []Action{ActionCreated, ActionDestroyed},
		Terminal: []Action{ActionDestroyed},
	},
	KindIntermediate: {
		Allowed:  []Action{ActionCreated, ActionUsed, ActionDestroyed},
		Terminal: []Action{ActionDestroyed, ActionUsed},
	},
	KindTerminal: {
		Allowed:  []Action{ActionCreated, ActionInspected, ActionHarvested, ActionDestroyed},
		Terminal: []Action{ActionDestroyed, ActionHarvested},
	},
}

// ActionsFor returns the action set of kind k; ok is false for kinds
// without observations.
func ActionsFor(k Kind) (ActionSet, bool) {
	s, ok := ActionSets[k]
	return s, ok
}

func containsAction(list []Action, a Action) bool {
	for _, x := range list {
		if x == a {
			return true
		}
	}
	return false
}

func actionStrings(list []Action) []string {
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = string(a)
	}
	return out
}
