package store

import (
	"context"
	"database/sql"

	"github.com/hyperengineering/labbook/internal/types"
)

// lineageResolver attaches organism and variant from the ancestor culture.
// Lookups behave as left joins: a missing ancestor, or a culture without the
// attribute, leaves the field nil.
type lineageResolver struct {
	q dbtx
}

func lineageOf(c types.Culture) types.Lineage {
	return types.Lineage{Organism: c.Organism, Variant: c.Variant}
}

// enrichIntermediate resolves intermediate unit -> culture in place.
func (r lineageResolver) enrichIntermediate(ctx context.Context, units []types.IntermediateUnit) error {
	if len(units) == 0 {
		return nil
	}
	cultureIDs := make([]int64, len(units))
	for i, u := range units {
		cultureIDs[i] = u.CultureID
	}
	cultures, err := culturesByID(ctx, r.q, cultureIDs)
	if err != nil {
		return err
	}
	for i := range units {
		units[i].Lineage = lineageOf(cultures[units[i].CultureID])
	}
	return nil
}

// enrichTerminal resolves terminal unit -> intermediate unit -> culture in place.
func (r lineageResolver) enrichTerminal(ctx context.Context, units []types.TerminalUnit) error {
	if len(units) == 0 {
		return nil
	}
	intermediateIDs := make([]int64, len(units))
	for i, u := range units {
		intermediateIDs[i] = u.IntermediateID
	}
	intermediates, err := intermediatesByID(ctx, r.q, intermediateIDs)
	if err != nil {
		return err
	}

	cultureIDs := make([]int64, 0, len(intermediates))
	for _, im := range intermediates {
		cultureIDs = append(cultureIDs, im.CultureID)
	}
	cultures, err := culturesByID(ctx, r.q, cultureIDs)
	if err != nil {
		return err
	}

	for i := range units {
		im, ok := intermediates[units[i].IntermediateID]
		if !ok {
			units[i].Lineage = types.Lineage{}
			continue
		}
		units[i].Lineage = lineageOf(cultures[im.CultureID])
	}
	return nil
}

// EnrichIntermediateUnits returns a copy of units with organism and variant
// resolved from each unit's culture.
func (s *SQLiteStore) EnrichIntermediateUnits(ctx context.Context, units []types.IntermediateUnit) ([]types.IntermediateUnit, error) {
	out := append([]types.IntermediateUnit(nil), units...)
	err := s.readTx(ctx, func(tx *sql.Tx) error {
		return lineageResolver{q: tx}.enrichIntermediate(ctx, out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// EnrichTerminalUnits returns a copy of units with organism and variant
// resolved through each unit's intermediate unit and culture.
func (s *SQLiteStore) EnrichTerminalUnits(ctx context.Context, units []types.TerminalUnit) ([]types.TerminalUnit, error) {
	out := append([]types.TerminalUnit(nil), units...)
	err := s.readTx(ctx, func(tx *sql.Tx) error {
		return lineageResolver{q: tx}.enrichTerminal(ctx, out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
