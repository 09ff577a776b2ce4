package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hyperengineering/labbook/internal/types"
)

// upsertObservation writes the observation for (entity, day), replacing any
// earlier write for the same pair. Re-submitting a day's inspection is
// idempotent.
func upsertObservation(ctx context.Context, q dbtx, kind types.Kind, o types.Observation, harvestedYield *float64, recordedAt string) error {
	t, err := tablesFor(kind)
	if err != nil {
		return err
	}

	var action any
	if o.Action != types.ActionNone {
		action = string(o.Action)
	}

	if kind == types.KindTerminal {
		var yield any
		if harvestedYield != nil {
			yield = *harvestedYield
		}
		_, err = q.ExecContext(ctx, `
			INSERT INTO terminal_observations (entity_id, observed_at, passed, action, harvested_yield, recorded_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(entity_id, observed_at) DO UPDATE SET
				passed = excluded.passed,
				action = excluded.action,
				harvested_yield = excluded.harvested_yield,
				recorded_at = excluded.recorded_at
		`, o.EntityID, o.ObservedAt.String(), o.Passed, action, yield, recordedAt)
	} else {
		_, err = q.ExecContext(ctx, fmt.Sprintf(`
			INSERT INTO %s (entity_id, observed_at, passed, action, recorded_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(entity_id, observed_at) DO UPDATE SET
				passed = excluded.passed,
				action = excluded.action,
				recorded_at = excluded.recorded_at
		`, t.observation), o.EntityID, o.ObservedAt.String(), o.Passed, action, recordedAt)
	}
	if err != nil {
		return fmt.Errorf("upsert %s: %w", t.observation, classifyConstraint(err, kind))
	}
	return nil
}

// createdOn returns the creation date of an experiment entity.
func createdOn(ctx context.Context, q dbtx, kind types.Kind, id int64) (types.Date, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return types.Date{}, err
	}
	var day string
	err = q.QueryRowContext(ctx, fmt.Sprintf(`SELECT created_on FROM %s WHERE id = ?`, t.entity), id).Scan(&day)
	if err == sql.ErrNoRows {
		return types.Date{}, fmt.Errorf("%s %d: %w", t.entity, id, ErrNotFound)
	}
	if err != nil {
		return types.Date{}, fmt.Errorf("lookup %s: %w", t.entity, err)
	}
	return parseStoredDate(t.entity, "created_on", day), nil
}

// ObservationsFor returns the observation history of one entity, oldest first.
func (s *SQLiteStore) ObservationsFor(ctx context.Context, kind types.Kind, id int64) ([]types.ObservationRecord, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}
	yieldColumn := "NULL"
	if kind == types.KindTerminal {
		yieldColumn = "harvested_yield"
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT entity_id, observed_at, passed, action, %s, recorded_at
		FROM %s
		WHERE entity_id = ?
		ORDER BY observed_at ASC
	`, yieldColumn, t.observation), id)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", t.observation, err)
	}
	defer rows.Close()

	records := make([]types.ObservationRecord, 0)
	for rows.Next() {
		var rec types.ObservationRecord
		var observedAt string
		var action sql.NullString
		var yield sql.NullFloat64
		if err := rows.Scan(&rec.EntityID, &observedAt, &rec.Passed, &action, &yield, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.observation, err)
		}
		rec.Kind = kind
		rec.ObservedAt = parseStoredDate(t.observation, "observed_at", observedAt)
		if action.Valid {
			rec.Action = types.Action(action.String)
		}
		if yield.Valid {
			v := yield.Float64
			rec.HarvestedYield = &v
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
