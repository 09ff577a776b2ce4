package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hyperengineering/labbook/internal/types"
	"github.com/hyperengineering/labbook/internal/validation"
)

// currentQuery selects creation records of one kind that exist on or before
// the as-of date and have no terminal observation on or before it. The
// anti-join keeps status reconstructable for any historical date.
const currentQuery = `
	SELECT %[1]s
	FROM %[2]s e
	WHERE e.created_on <= ?
	  AND NOT EXISTS (
		SELECT 1 FROM %[3]s o
		WHERE o.entity_id = e.id
		  AND o.observed_at <= ?
		  AND o.action IN (%[4]s)
	  )
	ORDER BY e.created_on ASC, e.seq ASC, e.id ASC`

func currentArgs(set types.ActionSet, asOf types.Date) []any {
	args := []any{asOf.String(), asOf.String()}
	for _, a := range set.Terminal {
		args = append(args, string(a))
	}
	return args
}

func queryCurrent[T any](ctx context.Context, q dbtx, kind types.Kind, columns string, asOf types.Date, scan func(scanner) (T, error)) ([]T, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}
	set, _ := types.ActionsFor(kind)

	rows, err := q.QueryContext(ctx,
		fmt.Sprintf(currentQuery, columns, t.entity, t.observation, placeholders(len(set.Terminal))),
		currentArgs(set, asOf)...)
	if err != nil {
		return nil, fmt.Errorf("query current %s: %w", t.entity, err)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.entity, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", t.entity, err)
	}
	return out, nil
}

// CurrentAsOf returns the entities of kind that were alive on asOf, ordered
// by creation date then sequence. An entity is alive from its creation date
// (inclusive) until the date of its first terminal observation (exclusive).
// Intermediate and terminal units carry the organism and variant of their
// ancestor culture.
func (s *SQLiteStore) CurrentAsOf(ctx context.Context, kind types.Kind, asOf types.Date) ([]types.InventoryEntry, error) {
	if !kind.IsExperiment() {
		return nil, fmt.Errorf("%w: kind %q has no inventory history", ErrUnsupported, kind)
	}
	if asOf.IsZero() {
		return nil, validation.Field("as_of", "is required")
	}

	var entries []types.InventoryEntry
	err := s.readTx(ctx, func(tx *sql.Tx) error {
		var err error
		switch kind {
		case types.KindCulture:
			entries, err = currentCultures(ctx, tx, asOf)
		case types.KindIntermediate:
			entries, err = currentIntermediates(ctx, tx, asOf)
		case types.KindTerminal:
			entries, err = currentTerminals(ctx, tx, asOf)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.recorder.InventoryQueried(kind)
	return entries, nil
}

func currentCultures(ctx context.Context, q dbtx, asOf types.Date) ([]types.InventoryEntry, error) {
	cultures, err := queryCurrent(ctx, q, types.KindCulture, cultureColumns, asOf, scanCulture)
	if err != nil {
		return nil, err
	}
	entries := make([]types.InventoryEntry, len(cultures))
	for i, c := range cultures {
		entries[i] = types.InventoryEntry{
			Kind:       types.KindCulture,
			Experiment: c.Experiment,
			Lineage:    lineageOf(c),
			Medium:     c.Medium,
		}
	}
	return entries, nil
}

func currentIntermediates(ctx context.Context, q dbtx, asOf types.Date) ([]types.InventoryEntry, error) {
	units, err := queryCurrent(ctx, q, types.KindIntermediate, intermediateColumns, asOf, scanIntermediate)
	if err != nil {
		return nil, err
	}
	if err := (lineageResolver{q: q}).enrichIntermediate(ctx, units); err != nil {
		return nil, err
	}
	entries := make([]types.InventoryEntry, len(units))
	for i, u := range units {
		parent, recipe := u.CultureID, u.RecipeID
		entries[i] = types.InventoryEntry{
			Kind:       types.KindIntermediate,
			Experiment: u.Experiment,
			Lineage:    u.Lineage,
			ParentID:   &parent,
			RecipeID:   &recipe,
		}
	}
	return entries, nil
}

func currentTerminals(ctx context.Context, q dbtx, asOf types.Date) ([]types.InventoryEntry, error) {
	units, err := queryCurrent(ctx, q, types.KindTerminal, terminalColumns, asOf, scanTerminal)
	if err != nil {
		return nil, err
	}
	if err := (lineageResolver{q: q}).enrichTerminal(ctx, units); err != nil {
		return nil, err
	}
	entries := make([]types.InventoryEntry, len(units))
	for i, u := range units {
		parent, recipe := u.IntermediateID, u.RecipeID
		entries[i] = types.InventoryEntry{
			Kind:       types.KindTerminal,
			Experiment: u.Experiment,
			Lineage:    u.Lineage,
			ParentID:   &parent,
			RecipeID:   &recipe,
		}
	}
	return entries, nil
}
