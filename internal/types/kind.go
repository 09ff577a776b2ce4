package types

import (
	"fmt"
	"strings"
)

// Kind identifies one of the entity kinds tracked by the lab book.
type Kind string

const (
	KindRecipe       Kind = "recipe"
	KindCulture      Kind = "culture"
	KindIntermediate Kind = "intermediate"
	KindTerminal     Kind = "terminal"
)

// ExperimentKinds are the kinds that carry a creation date, a sequence number
// and a dated observation history.
var ExperimentKinds = []Kind{KindCulture, KindIntermediate, KindTerminal}

var kindAliases = map[string]Kind{
	"recipe":       KindRecipe,
	"recipes":      KindRecipe,
	"culture":      KindCulture,
	"cultures":     KindCulture,
	"intermediate": KindIntermediate,
	"spawn":        KindIntermediate,
	"grain_spawn":  KindIntermediate,
	"terminal":     KindTerminal,
	"bag":          KindTerminal,
	"bags":         KindTerminal,
}

// ParseKind resolves a kind name or one of its lab aliases
// ("spawn" for intermediate units, "bag" for terminal units).
func ParseKind(s string) (Kind, error) {
	if k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	return "", fmt.Errorf("unknown kind %q", s)
}

// IsExperiment reports whether k is a dated, sequenced kind.
func (k Kind) IsExperiment() bool {
	return k == KindCulture || k == KindIntermediate || k == KindTerminal
}

// Code returns the display-name code for an experiment kind:
// C for cultures, GS for grain spawn, B for bags.
func (k Kind) Code() string {
	switch k {
	case KindCulture:
		return "C"
	case KindIntermediate:
		return "GS"
	case KindTerminal:
		return "B"
	}
	return ""
}

// DisplayName builds the deterministic name <YYYYMMDD><code><seq>,
// e.g. 20240105GS001. Sequences above 999 print unpadded.
func DisplayName(k Kind, created Date, seq int) string {
	return fmt.Sprintf("%s%s%03d", created.Compact(), k.Code(), seq)
}
