package types

import (
	"encoding/json"
	"testing"
)

func TestDecodeItems(t *testing.T) {
	data := []byte(`[
		{"kind": "recipe", "name": "Rye Grain", "category": "propagation_medium", "ingredients": "rye", "instructions": "cook"},
		{"kind": "culture", "created_at": "2024-01-01", "organism": "Oyster"},
		{"kind": "intermediate", "created_at": "2024-01-05 10:00", "culture_id": 1, "recipe_id": 1},
		{"kind": "terminal", "created_at": "2024-01-12", "intermediate_id": 1, "recipe_id": 2},
		{"kind": "culture_observation", "entity_id": 1, "observed_at": "2024-01-06", "passed": true},
		{"kind": "terminal_observation", "entity_id": 1, "observed_at": "2024-02-01", "action": "harvested", "harvested_yield": 410.5}
	]`)

	items, err := DecodeItems(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 6 {
		t.Fatalf("len = %d, want 6", len(items))
	}

	culture, ok := items[1].(NewCulture)
	if !ok {
		t.Fatalf("items[1] = %T, want NewCulture", items[1])
	}
	if culture.Organism == nil || *culture.Organism != "Oyster" || culture.Variant != nil {
		t.Errorf("culture = %+v", culture)
	}

	intermediate := items[2].(NewIntermediateUnit)
	if !intermediate.CreatedAt.HasTime() || intermediate.CultureID != 1 {
		t.Errorf("intermediate = %+v", intermediate)
	}

	harvest, ok := items[5].(TerminalObservation)
	if !ok {
		t.Fatalf("items[5] = %T, want TerminalObservation", items[5])
	}
	if harvest.Action != ActionHarvested || harvest.HarvestedYield == nil || *harvest.HarvestedYield != 410.5 {
		t.Errorf("harvest = %+v", harvest)
	}
	if harvest.ObservedAt != NewDate(2024, 2, 1) {
		t.Errorf("ObservedAt = %s", harvest.ObservedAt)
	}
}

func TestDecodeItems_Errors(t *testing.T) {
	tests := map[string]string{
		"not an array": `{"kind": "culture"}`,
		"unknown kind": `[{"kind": "spore_print"}]`,
		"missing kind": `[{"created_at": "2024-01-01"}]`,
		"bad date":     `[{"kind": "culture", "created_at": "yesterday"}]`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeItems([]byte(data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestObservationFor(t *testing.T) {
	obs := Observation{EntityID: 3, ObservedAt: NewDate(2024, 1, 1)}

	for _, k := range ExperimentKinds {
		item, err := ObservationFor(k, obs, nil)
		if err != nil {
			t.Fatalf("ObservationFor(%s): %v", k, err)
		}
		if want := ItemKind(string(k) + "_observation"); item.ItemKind() != want {
			t.Errorf("ItemKind = %s, want %s", item.ItemKind(), want)
		}
	}
	if _, err := ObservationFor(KindRecipe, obs, nil); err == nil {
		t.Error("expected error for recipe observations")
	}
}

func TestWriteResult_MarshalsEmptyCreated(t *testing.T) {
	data, err := json.Marshal(WriteResult{BatchID: "b"})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"batch_id":"b","created":[],"observations":0}` {
		t.Errorf("Marshal = %s", data)
	}
}
