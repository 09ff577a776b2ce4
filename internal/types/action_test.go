package types

import "testing"

func TestNormalizeAction(t *testing.T) {
	tests := map[string]Action{
		"":             ActionNone,
		"   ":          ActionNone,
		"Used":         ActionUsed,
		" HARVESTED\n": ActionHarvested,
	}
	for in, want := range tests {
		if got := NormalizeAction(in); got != want {
			t.Errorf("NormalizeAction(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestActionSets(t *testing.T) {
	tests := []struct {
		kind     Kind
		action   Action
		allowed  bool
		terminal bool
	}{
		{KindCulture, ActionNone, true, false},
		{KindCulture, ActionCreated, true, false},
		{KindCulture, ActionDestroyed, true, true},
		{KindCulture, ActionUsed, false, false},
		{KindIntermediate, ActionUsed, true, true},
		{KindIntermediate, ActionDestroyed, true, true},
		{KindIntermediate, ActionHarvested, false, false},
		{KindTerminal, ActionInspected, true, false},
		{KindTerminal, ActionHarvested, true, true},
		{KindTerminal, ActionDestroyed, true, true},
		{KindTerminal, ActionUsed, false, false},
	}
	for _, tt := range tests {
		set, ok := ActionsFor(tt.kind)
		if !ok {
			t.Fatalf("ActionsFor(%s) not found", tt.kind)
		}
		if got := set.Allows(tt.action); got != tt.allowed {
			t.Errorf("%s.Allows(%q) = %v, want %v", tt.kind, tt.action, got, tt.allowed)
		}
		if got := set.IsTerminal(tt.action); got != tt.terminal {
			t.Errorf("%s.IsTerminal(%q) = %v, want %v", tt.kind, tt.action, got, tt.terminal)
		}
	}

	if _, ok := ActionsFor(KindRecipe); ok {
		t.Error("recipes should have no action set")
	}
}

func TestActionSets_TerminalSubsetOfAllowed(t *testing.T) {
	for kind, set := range ActionSets {
		for _, a := range set.Terminal {
			if !set.Allows(a) {
				t.Errorf("%s: terminal action %q not allowed", kind, a)
			}
		}
	}
}
