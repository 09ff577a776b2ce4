package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hyperengineering/labbook/internal/types"
	"github.com/hyperengineering/labbook/internal/validation"
	"github.com/oklog/ulid/v2"
)

// Write validates items and commits them as one transaction: either every
// item is applied or none is. Items are applied in order, so a later item
// observes the effects of earlier ones.
func (s *SQLiteStore) Write(ctx context.Context, items ...types.Item) (*types.WriteResult, error) {
	if len(items) == 0 {
		return &types.WriteResult{}, nil
	}

	prepared := make([]types.Item, len(items))
	for i, item := range items {
		p, err := prepare(item)
		if err != nil {
			s.recorder.WriteFailed(failureReason(err))
			return nil, fmt.Errorf("item %d (%s): %w", i, describe(item), err)
		}
		prepared[i] = p
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		err = classifyConstraint(err, "")
		s.recorder.WriteFailed(failureReason(err))
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	w := &batchWriter{
		tx:         tx,
		today:      types.DateOf(s.now()),
		recordedAt: s.recordedAt(),
		result:     types.WriteResult{BatchID: ulid.Make().String()},
		observed:   make(map[types.Kind]int),
	}
	for i, item := range prepared {
		if err := w.apply(ctx, item); err != nil {
			if isBusy(err) && !errors.Is(err, ErrConcurrencyConflict) {
				err = fmt.Errorf("%w: %w", ErrConcurrencyConflict, err)
			}
			s.recorder.WriteFailed(failureReason(err))
			return nil, fmt.Errorf("item %d (%s): %w", i, describe(item), err)
		}
	}

	if err := tx.Commit(); err != nil {
		err = classifyConstraint(err, "")
		reason := "commit"
		if errors.Is(err, ErrConcurrencyConflict) {
			reason = failureReason(err)
		}
		s.recorder.WriteFailed(reason)
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	for _, ref := range w.result.Created {
		s.recorder.EntityCreated(ref.Kind)
	}
	for kind, n := range w.observed {
		for range n {
			s.recorder.ObservationRecorded(kind)
		}
	}
	slog.Debug("write committed",
		"batch_id", w.result.BatchID,
		"created", len(w.result.Created),
		"observations", w.result.Observations)

	return &w.result, nil
}

// prepare normalizes and validates one item before any write happens.
// Pointer items are accepted and returned in value form.
func prepare(item types.Item) (types.Item, error) {
	switch v := valueOf(item).(type) {
	case types.NewRecipe:
		return v, validation.ValidateNewRecipe(v)
	case types.NewCulture:
		return v, validation.ValidateNewCulture(v)
	case types.NewIntermediateUnit:
		return v, validation.ValidateNewIntermediateUnit(v)
	case types.NewTerminalUnit:
		return v, validation.ValidateNewTerminalUnit(v)
	case types.CultureObservation:
		v.Action = types.NormalizeAction(string(v.Action))
		return v, validateObservation(types.KindCulture, v.Observation, nil)
	case types.IntermediateObservation:
		v.Action = types.NormalizeAction(string(v.Action))
		return v, validateObservation(types.KindIntermediate, v.Observation, nil)
	case types.TerminalObservation:
		v.Action = types.NormalizeAction(string(v.Action))
		return v, validateObservation(types.KindTerminal, v.Observation, v.HarvestedYield)
	}
	return nil, fmt.Errorf("%w: item type %T", ErrUnsupported, item)
}

func validateObservation(kind types.Kind, o types.Observation, harvestedYield *float64) error {
	if verr := validation.ValidateAction(kind, o.Action); verr != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAction, validation.Errors{*verr})
	}
	return validation.ValidateObservation(kind, o, harvestedYield)
}

// valueOf dereferences pointer items. A nil pointer yields nil.
func valueOf(item types.Item) types.Item {
	switch v := item.(type) {
	case *types.NewRecipe:
		if v != nil {
			return *v
		}
	case *types.NewCulture:
		if v != nil {
			return *v
		}
	case *types.NewIntermediateUnit:
		if v != nil {
			return *v
		}
	case *types.NewTerminalUnit:
		if v != nil {
			return *v
		}
	case *types.CultureObservation:
		if v != nil {
			return *v
		}
	case *types.IntermediateObservation:
		if v != nil {
			return *v
		}
	case *types.TerminalObservation:
		if v != nil {
			return *v
		}
	default:
		return item
	}
	return nil
}

func describe(item types.Item) string {
	v := valueOf(item)
	if v == nil {
		return "nil"
	}
	return string(v.ItemKind())
}

// batchWriter applies prepared items inside one transaction.
type batchWriter struct {
	tx         *sql.Tx
	today      types.Date
	recordedAt string
	result     types.WriteResult
	observed   map[types.Kind]int
}

func (w *batchWriter) apply(ctx context.Context, item types.Item) error {
	switch v := item.(type) {
	case types.NewRecipe:
		return w.createRecipe(ctx, v)
	case types.NewCulture:
		return w.createCulture(ctx, v)
	case types.NewIntermediateUnit:
		return w.createIntermediate(ctx, v)
	case types.NewTerminalUnit:
		return w.createTerminal(ctx, v)
	case types.CultureObservation:
		return w.observe(ctx, types.KindCulture, v.Observation, nil)
	case types.IntermediateObservation:
		return w.observe(ctx, types.KindIntermediate, v.Observation, nil)
	case types.TerminalObservation:
		return w.observe(ctx, types.KindTerminal, v.Observation, v.HarvestedYield)
	}
	return fmt.Errorf("%w: item type %T", ErrUnsupported, item)
}

func (w *batchWriter) created(ctx context.Context, kind types.Kind, id int64, name string) error {
	w.result.Created = append(w.result.Created, types.CreatedRef{Kind: kind, ID: id, Name: name})
	return appendChangeLog(ctx, w.tx, types.ChangeLogEntry{
		BatchID:    w.result.BatchID,
		EntityKind: kind,
		EntityID:   id,
		Operation:  types.OperationCreate,
		RecordedAt: w.recordedAt,
	})
}

func (w *batchWriter) createRecipe(ctx context.Context, r types.NewRecipe) error {
	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = w.today
	}
	name := strings.TrimSpace(r.Name)

	res, err := w.tx.ExecContext(ctx, `
		INSERT INTO recipes (created_at, name, category, ingredients, instructions)
		VALUES (?, ?, ?, ?, ?)
	`, createdAt.String(), name, string(r.Category),
		strings.TrimSpace(r.Ingredients), strings.TrimSpace(r.Instructions))
	if err != nil {
		return fmt.Errorf("insert recipe %q: %w", name, classifyConstraint(err, types.KindRecipe))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	return w.created(ctx, types.KindRecipe, id, name)
}

func (w *batchWriter) createCulture(ctx context.Context, c types.NewCulture) error {
	day := c.CreatedAt.Date()
	seq, name, err := allocate(ctx, w.tx, types.KindCulture, day)
	if err != nil {
		return err
	}

	res, err := w.tx.ExecContext(ctx, `
		INSERT INTO cultures (created_at, created_on, seq, name, organism, variant, medium)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.CreatedAt.String(), day.String(), seq, name,
		trimmedOrNil(c.Organism), trimmedOrNil(c.Variant), trimmedOrNil(c.Medium))
	if err != nil {
		return fmt.Errorf("insert culture %s: %w", name, classifyConstraint(err, types.KindCulture))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	return w.created(ctx, types.KindCulture, id, name)
}

func (w *batchWriter) createIntermediate(ctx context.Context, u types.NewIntermediateUnit) error {
	culture, err := getCulture(ctx, w.tx, u.CultureID)
	if err != nil {
		return missingReference("culture_id", err)
	}
	day := u.CreatedAt.Date()
	if day.Before(culture.CreatedOn()) {
		return validation.Field("created_at", "precedes the creation date of culture "+culture.Name)
	}
	if err := w.requireRecipe(ctx, u.RecipeID, types.CategoryPropagationMedium); err != nil {
		return err
	}

	seq, name, err := allocate(ctx, w.tx, types.KindIntermediate, day)
	if err != nil {
		return err
	}
	res, err := w.tx.ExecContext(ctx, `
		INSERT INTO intermediate_units (created_at, created_on, seq, name, culture_id, recipe_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`, u.CreatedAt.String(), day.String(), seq, name, u.CultureID, u.RecipeID)
	if err != nil {
		return fmt.Errorf("insert intermediate unit %s: %w", name, classifyConstraint(err, types.KindIntermediate))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	return w.created(ctx, types.KindIntermediate, id, name)
}

func (w *batchWriter) createTerminal(ctx context.Context, u types.NewTerminalUnit) error {
	parent, err := getIntermediate(ctx, w.tx, u.IntermediateID)
	if err != nil {
		return missingReference("intermediate_id", err)
	}
	day := u.CreatedAt.Date()
	if day.Before(parent.CreatedOn()) {
		return validation.Field("created_at", "precedes the creation date of intermediate unit "+parent.Name)
	}
	if err := w.requireRecipe(ctx, u.RecipeID, types.CategoryProductionSubstrate); err != nil {
		return err
	}

	seq, name, err := allocate(ctx, w.tx, types.KindTerminal, day)
	if err != nil {
		return err
	}
	res, err := w.tx.ExecContext(ctx, `
		INSERT INTO terminal_units (created_at, created_on, seq, name, intermediate_id, recipe_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`, u.CreatedAt.String(), day.String(), seq, name, u.IntermediateID, u.RecipeID)
	if err != nil {
		return fmt.Errorf("insert terminal unit %s: %w", name, classifyConstraint(err, types.KindTerminal))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	return w.created(ctx, types.KindTerminal, id, name)
}

// requireRecipe checks that id names a recipe of the wanted category.
func (w *batchWriter) requireRecipe(ctx context.Context, id int64, want types.RecipeCategory) error {
	recipe, err := getRecipe(ctx, w.tx, id)
	if err != nil {
		return missingReference("recipe_id", err)
	}
	if recipe.Category != want {
		return validation.Field("recipe_id",
			fmt.Sprintf("must reference a %s recipe, %q is %s", want, recipe.Name, recipe.Category))
	}
	return nil
}

func (w *batchWriter) observe(ctx context.Context, kind types.Kind, o types.Observation, harvestedYield *float64) error {
	created, err := createdOn(ctx, w.tx, kind, o.EntityID)
	if err != nil {
		return missingReference("entity_id", err)
	}
	if o.ObservedAt.Before(created) {
		return validation.Field("observed_at", "precedes the entity's creation date "+created.String())
	}
	if err := upsertObservation(ctx, w.tx, kind, o, harvestedYield, w.recordedAt); err != nil {
		return err
	}

	w.result.Observations++
	w.observed[kind]++
	observedAt := o.ObservedAt
	return appendChangeLog(ctx, w.tx, types.ChangeLogEntry{
		BatchID:    w.result.BatchID,
		EntityKind: kind,
		EntityID:   o.EntityID,
		Operation:  types.OperationObserve,
		ObservedAt: &observedAt,
		RecordedAt: w.recordedAt,
	})
}

// missingReference reports an unresolved reference as an error matching both
// ErrValidation and ErrNotFound. Other lookup failures pass through.
func missingReference(field string, err error) error {
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %w", validation.Field(field, "must reference an existing record"), err)
}

// RecordObservations upserts a list of observations atomically. Items that
// are not observations fail with ErrUnsupported.
func (s *SQLiteStore) RecordObservations(ctx context.Context, observations ...types.Item) (*types.WriteResult, error) {
	for i, item := range observations {
		switch valueOf(item).(type) {
		case types.CultureObservation, types.IntermediateObservation, types.TerminalObservation:
		default:
			return nil, fmt.Errorf("item %d (%s): %w: not an observation", i, describe(item), ErrUnsupported)
		}
	}
	return s.Write(ctx, observations...)
}

// RecordObservation upserts a single observation.
func (s *SQLiteStore) RecordObservation(ctx context.Context, observation types.Item) error {
	_, err := s.RecordObservations(ctx, observation)
	return err
}

// CreateRecipe stores a new recipe. Names are unique: a second recipe with
// the same name fails with ErrDuplicateName.
func (s *SQLiteStore) CreateRecipe(ctx context.Context, r types.NewRecipe) (*types.Recipe, error) {
	res, err := s.Write(ctx, r)
	if err != nil {
		return nil, err
	}
	return s.GetRecipe(ctx, res.Created[0].ID)
}

// CreateCulture stores a new culture with the next sequence number for its
// creation date.
func (s *SQLiteStore) CreateCulture(ctx context.Context, c types.NewCulture) (*types.Culture, error) {
	res, err := s.Write(ctx, c)
	if err != nil {
		return nil, err
	}
	return s.GetCulture(ctx, res.Created[0].ID)
}

// CreateIntermediateUnit stores a new intermediate unit grown from an
// existing culture on a propagation-medium recipe.
func (s *SQLiteStore) CreateIntermediateUnit(ctx context.Context, u types.NewIntermediateUnit) (*types.IntermediateUnit, error) {
	res, err := s.Write(ctx, u)
	if err != nil {
		return nil, err
	}
	return s.GetIntermediateUnit(ctx, res.Created[0].ID)
}

// CreateTerminalUnit stores a new terminal unit inoculated from an existing
// intermediate unit on a production-substrate recipe.
func (s *SQLiteStore) CreateTerminalUnit(ctx context.Context, u types.NewTerminalUnit) (*types.TerminalUnit, error) {
	res, err := s.Write(ctx, u)
	if err != nil {
		return nil, err
	}
	return s.GetTerminalUnit(ctx, res.Created[0].ID)
}
