package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/hyperengineering/labbook/internal/types"
	"github.com/hyperengineering/labbook/internal/validation"
)

const (
	recipeColumns       = `id, created_at, name, category, ingredients, instructions`
	cultureColumns      = `id, created_at, seq, name, organism, variant, medium`
	intermediateColumns = `id, created_at, seq, name, culture_id, recipe_id`
	terminalColumns     = `id, created_at, seq, name, intermediate_id, recipe_id`
)

type scanner interface {
	Scan(dest ...any) error
}

func scanRecipe(sc scanner) (types.Recipe, error) {
	var r types.Recipe
	var createdAt, category string
	if err := sc.Scan(&r.ID, &createdAt, &r.Name, &category, &r.Ingredients, &r.Instructions); err != nil {
		return r, err
	}
	r.CreatedAt = parseStoredDate("recipes", "created_at", createdAt)
	r.Category = types.RecipeCategory(category)
	return r, nil
}

func scanCulture(sc scanner) (types.Culture, error) {
	var c types.Culture
	var createdAt string
	var organism, variant, medium sql.NullString
	if err := sc.Scan(&c.ID, &createdAt, &c.Sequence, &c.Name, &organism, &variant, &medium); err != nil {
		return c, err
	}
	c.CreatedAt = parseStoredTimestamp("cultures", createdAt)
	c.Organism = nullString(organism)
	c.Variant = nullString(variant)
	c.Medium = nullString(medium)
	return c, nil
}

func scanIntermediate(sc scanner) (types.IntermediateUnit, error) {
	var u types.IntermediateUnit
	var createdAt string
	if err := sc.Scan(&u.ID, &createdAt, &u.Sequence, &u.Name, &u.CultureID, &u.RecipeID); err != nil {
		return u, err
	}
	u.CreatedAt = parseStoredTimestamp("intermediate_units", createdAt)
	return u, nil
}

func scanTerminal(sc scanner) (types.TerminalUnit, error) {
	var u types.TerminalUnit
	var createdAt string
	if err := sc.Scan(&u.ID, &createdAt, &u.Sequence, &u.Name, &u.IntermediateID, &u.RecipeID); err != nil {
		return u, err
	}
	u.CreatedAt = parseStoredTimestamp("terminal_units", createdAt)
	return u, nil
}

// getOne loads a single row by id, mapping sql.ErrNoRows to ErrNotFound.
func getOne[T any](ctx context.Context, q dbtx, table, columns string, id int64, scan func(scanner) (T, error)) (T, error) {
	row := q.QueryRowContext(ctx, fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, columns, table), id)
	v, err := scan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return v, fmt.Errorf("%s %d: %w", table, id, ErrNotFound)
		}
		return v, fmt.Errorf("scan %s: %w", table, err)
	}
	return v, nil
}

// byID bulk-loads rows keyed by id. Missing ids are absent from the map.
func byID[T any](ctx context.Context, q dbtx, table, columns string, ids []int64, scan func(scanner) (T, error), key func(T) int64) (map[int64]T, error) {
	out := make(map[int64]T, len(ids))
	for _, chunk := range chunkIDs(ids) {
		rows, err := q.QueryContext(ctx,
			fmt.Sprintf(`SELECT %s FROM %s WHERE id IN (%s)`, columns, table, placeholders(len(chunk))),
			chunk...)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", table, err)
		}
		for rows.Next() {
			v, err := scan(rows)
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan %s: %w", table, err)
			}
			out[key(v)] = v
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("iterate %s: %w", table, err)
		}
	}
	return out, nil
}

func getRecipe(ctx context.Context, q dbtx, id int64) (types.Recipe, error) {
	return getOne(ctx, q, "recipes", recipeColumns, id, scanRecipe)
}

func getCulture(ctx context.Context, q dbtx, id int64) (types.Culture, error) {
	return getOne(ctx, q, "cultures", cultureColumns, id, scanCulture)
}

func getIntermediate(ctx context.Context, q dbtx, id int64) (types.IntermediateUnit, error) {
	return getOne(ctx, q, "intermediate_units", intermediateColumns, id, scanIntermediate)
}

func getTerminal(ctx context.Context, q dbtx, id int64) (types.TerminalUnit, error) {
	return getOne(ctx, q, "terminal_units", terminalColumns, id, scanTerminal)
}

func culturesByID(ctx context.Context, q dbtx, ids []int64) (map[int64]types.Culture, error) {
	return byID(ctx, q, "cultures", cultureColumns, ids, scanCulture, func(c types.Culture) int64 { return c.ID })
}

func intermediatesByID(ctx context.Context, q dbtx, ids []int64) (map[int64]types.IntermediateUnit, error) {
	return byID(ctx, q, "intermediate_units", intermediateColumns, ids, scanIntermediate, func(u types.IntermediateUnit) int64 { return u.ID })
}

// GetRecipe returns the recipe with the given id or ErrNotFound.
func (s *SQLiteStore) GetRecipe(ctx context.Context, id int64) (*types.Recipe, error) {
	r, err := getRecipe(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetCulture returns the culture with the given id or ErrNotFound.
func (s *SQLiteStore) GetCulture(ctx context.Context, id int64) (*types.Culture, error) {
	c, err := getCulture(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetIntermediateUnit returns the intermediate unit with its lineage attached.
func (s *SQLiteStore) GetIntermediateUnit(ctx context.Context, id int64) (*types.IntermediateUnit, error) {
	var unit types.IntermediateUnit
	err := s.readTx(ctx, func(tx *sql.Tx) error {
		u, err := getIntermediate(ctx, tx, id)
		if err != nil {
			return err
		}
		units := []types.IntermediateUnit{u}
		if err := (lineageResolver{q: tx}).enrichIntermediate(ctx, units); err != nil {
			return err
		}
		unit = units[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

// GetTerminalUnit returns the terminal unit with its lineage attached.
func (s *SQLiteStore) GetTerminalUnit(ctx context.Context, id int64) (*types.TerminalUnit, error) {
	var unit types.TerminalUnit
	err := s.readTx(ctx, func(tx *sql.Tx) error {
		u, err := getTerminal(ctx, tx, id)
		if err != nil {
			return err
		}
		units := []types.TerminalUnit{u}
		if err := (lineageResolver{q: tx}).enrichTerminal(ctx, units); err != nil {
			return err
		}
		unit = units[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

// RecipesByID bulk-loads recipes. Unknown ids are omitted.
func (s *SQLiteStore) RecipesByID(ctx context.Context, ids []int64) (map[int64]types.Recipe, error) {
	return byID(ctx, s.db, "recipes", recipeColumns, ids, scanRecipe, func(r types.Recipe) int64 { return r.ID })
}

// CulturesByID bulk-loads cultures. Unknown ids are omitted.
func (s *SQLiteStore) CulturesByID(ctx context.Context, ids []int64) (map[int64]types.Culture, error) {
	return culturesByID(ctx, s.db, ids)
}

// IntermediateUnitsByID bulk-loads intermediate units without lineage.
func (s *SQLiteStore) IntermediateUnitsByID(ctx context.Context, ids []int64) (map[int64]types.IntermediateUnit, error) {
	return intermediatesByID(ctx, s.db, ids)
}

// TerminalUnitsByID bulk-loads terminal units without lineage.
func (s *SQLiteStore) TerminalUnitsByID(ctx context.Context, ids []int64) (map[int64]types.TerminalUnit, error) {
	return byID(ctx, s.db, "terminal_units", terminalColumns, ids, scanTerminal, func(u types.TerminalUnit) int64 { return u.ID })
}

// uniqueFields whitelists the columns UniqueValues may read, per kind.
var uniqueFields = map[types.Kind]struct {
	table  string
	fields map[string]bool
}{
	types.KindRecipe:       {"recipes", map[string]bool{"name": true, "category": true}},
	types.KindCulture:      {"cultures", map[string]bool{"name": true, "organism": true, "variant": true, "medium": true}},
	types.KindIntermediate: {"intermediate_units", map[string]bool{"name": true}},
	types.KindTerminal:     {"terminal_units", map[string]bool{"name": true}},
}

// UniqueValues returns the sorted distinct non-null values of field for kind,
// for use in selection lists.
func (s *SQLiteStore) UniqueValues(ctx context.Context, kind types.Kind, field string) ([]string, error) {
	src, ok := uniqueFields[kind]
	if !ok {
		return nil, fmt.Errorf("%w: kind %q", ErrUnsupported, kind)
	}
	if !src.fields[field] {
		allowed := make([]string, 0, len(src.fields))
		for f := range src.fields {
			allowed = append(allowed, f)
		}
		sort.Strings(allowed)
		return nil, validation.Errors{*validation.ValidateEnum("field", field, allowed)}
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT DISTINCT %[1]s FROM %[2]s WHERE %[1]s IS NOT NULL ORDER BY %[1]s`, field, src.table))
	if err != nil {
		return nil, fmt.Errorf("query unique %s.%s: %w", src.table, field, err)
	}
	defer rows.Close()

	values := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan unique value: %w", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
