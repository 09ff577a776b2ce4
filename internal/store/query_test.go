package store

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperengineering/labbook/internal/types"
)

func names(entries []types.InventoryEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestCurrentAsOf_InclusiveBounds(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c := mustCulture(t, s, "2024-01-10", nil, nil)
	mustObserve(t, s, types.KindCulture, c.ID, "2024-01-15", types.ActionDestroyed)

	tests := []struct {
		asOf string
		want int
	}{
		{"2024-01-09", 0},
		{"2024-01-10", 1},
		{"2024-01-14", 1},
		{"2024-01-15", 0},
		{"2024-02-01", 0},
	}
	for _, tt := range tests {
		t.Run(tt.asOf, func(t *testing.T) {
			got, err := s.CurrentAsOf(ctx, types.KindCulture, day(tt.asOf))
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.want {
				t.Errorf("CurrentAsOf(%s) = %v, want %d entries", tt.asOf, names(got), tt.want)
			}
		})
	}
}

func TestCurrentAsOf_NonTerminalActionsKeepEntity(t *testing.T) {
	s := newTestStore(t)
	_, _, u := lineageFixture(t, s)
	mustObserve(t, s, types.KindTerminal, u.ID, "2024-01-12", types.ActionCreated)
	mustObserve(t, s, types.KindTerminal, u.ID, "2024-01-20", types.ActionInspected)
	mustObserve(t, s, types.KindTerminal, u.ID, "2024-01-21", types.ActionNone)

	got, err := s.CurrentAsOf(context.Background(), types.KindTerminal, day("2024-01-25"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != u.ID {
		t.Errorf("CurrentAsOf = %v, want [%s]", names(got), u.Name)
	}
}

func TestCurrentAsOf_ObservationUpsertIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c := mustCulture(t, s, "2024-01-01", nil, nil)

	// Given: a destroyed observation later corrected for the same day
	mustObserve(t, s, types.KindCulture, c.ID, "2024-01-05", types.ActionDestroyed)
	mustObserve(t, s, types.KindCulture, c.ID, "2024-01-05", types.ActionNone)

	// Then: one observation remains and the culture is still current
	records, err := s.ObservationsFor(ctx, types.KindCulture, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Action != types.ActionNone {
		t.Fatalf("records = %+v, want one plain observation", records)
	}
	got, err := s.CurrentAsOf(ctx, types.KindCulture, day("2024-01-06"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("CurrentAsOf = %v, want culture still current", names(got))
	}

	// When: the same destroyed observation is written twice
	mustObserve(t, s, types.KindCulture, c.ID, "2024-01-05", types.ActionDestroyed)
	mustObserve(t, s, types.KindCulture, c.ID, "2024-01-05", types.ActionDestroyed)

	records, err = s.ObservationsFor(ctx, types.KindCulture, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Errorf("len(records) = %d, want 1", len(records))
	}
	got, err = s.CurrentAsOf(ctx, types.KindCulture, day("2024-01-06"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("CurrentAsOf = %v, want empty", names(got))
	}
}

func TestCurrentAsOf_OrdersByCreationThenSequence(t *testing.T) {
	s := newTestStore(t)
	mustCulture(t, s, "2024-01-03", nil, nil)
	mustCulture(t, s, "2024-01-01", nil, nil)
	mustCulture(t, s, "2024-01-03", nil, nil)
	mustCulture(t, s, "2024-01-02", nil, nil)

	got, err := s.CurrentAsOf(context.Background(), types.KindCulture, day("2024-01-31"))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"20240101C001", "20240102C001", "20240103C001", "20240103C002"}
	gotNames := names(got)
	if len(gotNames) != len(want) {
		t.Fatalf("CurrentAsOf = %v, want %v", gotNames, want)
	}
	for i := range want {
		if gotNames[i] != want[i] {
			t.Errorf("CurrentAsOf[%d] = %s, want %s", i, gotNames[i], want[i])
		}
	}
}

func TestCurrentAsOf_LineagePropagation(t *testing.T) {
	s := newTestStore(t)
	_, i, u := lineageFixture(t, s)

	got, err := s.CurrentAsOf(context.Background(), types.KindTerminal, day("2024-01-12"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("CurrentAsOf = %v, want one terminal unit", names(got))
	}
	e := got[0]
	if e.ID != u.ID || e.Kind != types.KindTerminal {
		t.Errorf("entry = %+v, want terminal %d", e, u.ID)
	}
	if e.Organism == nil || *e.Organism != "Oyster" {
		t.Errorf("Organism = %v, want Oyster", e.Organism)
	}
	if e.Variant == nil || *e.Variant != "V1" {
		t.Errorf("Variant = %v, want V1", e.Variant)
	}
	if e.ParentID == nil || *e.ParentID != i.ID {
		t.Errorf("ParentID = %v, want %d", e.ParentID, i.ID)
	}
}

func TestCurrentAsOf_LionsManeScenario(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	spawn := mustRecipe(t, s, "Rye Grain", types.CategoryPropagationMedium)
	c := mustCulture(t, s, "2024-01-01", strPtr("Lion's Mane"), nil)
	i := mustIntermediate(t, s, "2024-01-05", c.ID, spawn.ID)
	mustObserve(t, s, types.KindIntermediate, i.ID, "2024-01-20", types.ActionUsed)

	got, err := s.CurrentAsOf(ctx, types.KindIntermediate, day("2024-01-10"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != i.ID {
		t.Fatalf("CurrentAsOf(2024-01-10) = %v, want [%s]", names(got), i.Name)
	}
	if got[0].Organism == nil || *got[0].Organism != "Lion's Mane" {
		t.Errorf("Organism = %v, want Lion's Mane", got[0].Organism)
	}
	if got[0].Variant != nil {
		t.Errorf("Variant = %q, want nil", *got[0].Variant)
	}

	got, err = s.CurrentAsOf(ctx, types.KindIntermediate, day("2024-01-20"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("CurrentAsOf(2024-01-20) = %v, want empty", names(got))
	}
}

func TestCurrentAsOf_CultureCarriesMedium(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateCulture(context.Background(), types.NewCulture{
		CreatedAt: stamp("2024-01-01"),
		Organism:  strPtr("Reishi"),
		Medium:    strPtr("MEA"),
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.CurrentAsOf(context.Background(), types.KindCulture, day("2024-01-01"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Medium == nil || *got[0].Medium != "MEA" {
		t.Fatalf("CurrentAsOf = %+v, want medium MEA", got)
	}
	if got[0].ParentID != nil {
		t.Errorf("ParentID = %v, want nil for cultures", *got[0].ParentID)
	}
}

func TestCurrentAsOf_Errors(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CurrentAsOf(ctx, types.KindRecipe, day("2024-01-01")); !errors.Is(err, ErrUnsupported) {
		t.Errorf("recipe kind err = %v, want ErrUnsupported", err)
	}
	if _, err := s.CurrentAsOf(ctx, types.KindCulture, types.Date{}); !errors.Is(err, ErrValidation) {
		t.Errorf("zero date err = %v, want ErrValidation", err)
	}
}

func TestCurrentAsOf_EmptyStoreReturnsEmptySlice(t *testing.T) {
	s := newTestStore(t)

	got, err := s.CurrentAsOf(context.Background(), types.KindTerminal, day("2024-01-01"))
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("CurrentAsOf = %#v, want empty non-nil slice", got)
	}
}
