package types

import (
	"encoding/json"
	"fmt"
)

// ItemKind names the variants of Item.
type ItemKind string

const (
	ItemRecipe                  ItemKind = "recipe"
	ItemCulture                 ItemKind = "culture"
	ItemIntermediate            ItemKind = "intermediate"
	ItemTerminal                ItemKind = "terminal"
	ItemCultureObservation      ItemKind = "culture_observation"
	ItemIntermediateObservation ItemKind = "intermediate_observation"
	ItemTerminalObservation     ItemKind = "terminal_observation"
)

// Item is a unit of work for the write pipeline. The set of implementations
// is closed: NewRecipe, NewCulture, NewIntermediateUnit, NewTerminalUnit and
// the three observation types. Pointers to them are accepted by the store and
// treated as their values.
type Item interface {
	ItemKind() ItemKind
	isItem()
}

// NewRecipe is the input for creating a recipe. A zero CreatedAt means today.
type NewRecipe struct {
	Name         string         `json:"name"`
	Category     RecipeCategory `json:"category"`
	Ingredients  string         `json:"ingredients"`
	Instructions string         `json:"instructions"`
	CreatedAt    Date           `json:"created_at,omitempty"`
}

// NewCulture is the input for creating a culture.
type NewCulture struct {
	CreatedAt Timestamp `json:"created_at"`
	Organism  *string   `json:"organism,omitempty"`
	Variant   *string   `json:"variant,omitempty"`
	Medium    *string   `json:"medium,omitempty"`
}

// NewIntermediateUnit is the input for creating an intermediate unit.
type NewIntermediateUnit struct {
	CreatedAt Timestamp `json:"created_at"`
	CultureID int64     `json:"culture_id"`
	RecipeID  int64     `json:"recipe_id"`
}

// NewTerminalUnit is the input for creating a terminal unit.
type NewTerminalUnit struct {
	CreatedAt      Timestamp `json:"created_at"`
	IntermediateID int64     `json:"intermediate_id"`
	RecipeID       int64     `json:"recipe_id"`
}

// CultureObservation records a culture's status for one day.
type CultureObservation struct {
	Observation
}

// IntermediateObservation records an intermediate unit's status for one day.
type IntermediateObservation struct {
	Observation
}

// TerminalObservation records a terminal unit's status for one day,
// optionally with the harvested yield.
type TerminalObservation struct {
	Observation
	HarvestedYield *float64 `json:"harvested_yield,omitempty"`
}

func (NewRecipe) ItemKind() ItemKind               { return ItemRecipe }
func (NewCulture) ItemKind() ItemKind              { return ItemCulture }
func (NewIntermediateUnit) ItemKind() ItemKind     { return ItemIntermediate }
func (NewTerminalUnit) ItemKind() ItemKind         { return ItemTerminal }
func (CultureObservation) ItemKind() ItemKind      { return ItemCultureObservation }
func (IntermediateObservation) ItemKind() ItemKind { return ItemIntermediateObservation }
func (TerminalObservation) ItemKind() ItemKind     { return ItemTerminalObservation }

func (NewRecipe) isItem()               {}
func (NewCulture) isItem()              {}
func (NewIntermediateUnit) isItem()     {}
func (NewTerminalUnit) isItem()         {}
func (CultureObservation) isItem()      {}
func (IntermediateObservation) isItem() {}
func (TerminalObservation) isItem()     {}

// ObservationFor wraps obs in the observation item of kind k.
func ObservationFor(k Kind, obs Observation, harvestedYield *float64) (Item, error) {
	switch k {
	case KindCulture:
		return CultureObservation{Observation: obs}, nil
	case KindIntermediate:
		return IntermediateObservation{Observation: obs}, nil
	case KindTerminal:
		return TerminalObservation{Observation: obs, HarvestedYield: harvestedYield}, nil
	}
	return nil, fmt.Errorf("kind %q has no observations", k)
}

// itemEnvelope is the JSON shape of a batch entry: {"kind": "...", ...fields}.
type itemEnvelope struct {
	Kind ItemKind `json:"kind"`
}

// DecodeItems decodes a JSON array of tagged items.
func DecodeItems(data []byte) ([]Item, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode batch: %w", err)
	}
	items := make([]Item, 0, len(raws))
	for i, raw := range raws {
		item, err := DecodeItem(raw)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// DecodeItem decodes one tagged item.
func DecodeItem(raw []byte) (Item, error) {
	var env itemEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	switch env.Kind {
	case ItemRecipe:
		return decodeAs[NewRecipe](raw)
	case ItemCulture:
		return decodeAs[NewCulture](raw)
	case ItemIntermediate:
		return decodeAs[NewIntermediateUnit](raw)
	case ItemTerminal:
		return decodeAs[NewTerminalUnit](raw)
	case ItemCultureObservation:
		return decodeAs[CultureObservation](raw)
	case ItemIntermediateObservation:
		return decodeAs[IntermediateObservation](raw)
	case ItemTerminalObservation:
		return decodeAs[TerminalObservation](raw)
	}
	return nil, fmt.Errorf("unknown item kind %q", env.Kind)
}

func decodeAs[T Item](raw []byte) (Item, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// CreatedRef identifies an entity created by a write.
type CreatedRef struct {
	Kind Kind   `json:"kind"`
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// WriteResult is the outcome of a committed write.
type WriteResult struct {
	BatchID      string       `json:"batch_id"`
	Created      []CreatedRef `json:"created"`
	Observations int          `json:"observations"`
}

// MarshalJSON ensures nil slices in WriteResult marshal as [] not null.
func (r WriteResult) MarshalJSON() ([]byte, error) {
	if r.Created == nil {
		r.Created = []CreatedRef{}
	}
	type Alias WriteResult
	return json.Marshal(Alias(r))
}
