package store

import (
	"context"

	"github.com/hyperengineering/labbook/internal/types"
)

// Store is the lab book core consumed by the presentation layer.
type Store interface {
	CreateRecipe(ctx context.Context, r types.NewRecipe) (*types.Recipe, error)
	CreateCulture(ctx context.Context, c types.NewCulture) (*types.Culture, error)
	CreateIntermediateUnit(ctx context.Context, u types.NewIntermediateUnit) (*types.IntermediateUnit, error)
	CreateTerminalUnit(ctx context.Context, u types.NewTerminalUnit) (*types.TerminalUnit, error)
	RecordObservations(ctx context.Context, observations ...types.Item) (*types.WriteResult, error)
	Write(ctx context.Context, items ...types.Item) (*types.WriteResult, error)

	CurrentAsOf(ctx context.Context, kind types.Kind, asOf types.Date) ([]types.InventoryEntry, error)
	UniqueValues(ctx context.Context, kind types.Kind, field string) ([]string, error)
	CountCreatedOn(ctx context.Context, kind types.Kind, day types.Date) (int, error)
	NextSequence(ctx context.Context, kind types.Kind, day types.Date) (int, error)
	PreviewName(ctx context.Context, kind types.Kind, day types.Date) (string, error)

	GetRecipe(ctx context.Context, id int64) (*types.Recipe, error)
	GetCulture(ctx context.Context, id int64) (*types.Culture, error)
	GetIntermediateUnit(ctx context.Context, id int64) (*types.IntermediateUnit, error)
	GetTerminalUnit(ctx context.Context, id int64) (*types.TerminalUnit, error)
	RecipesByID(ctx context.Context, ids []int64) (map[int64]types.Recipe, error)
	CulturesByID(ctx context.Context, ids []int64) (map[int64]types.Culture, error)
	IntermediateUnitsByID(ctx context.Context, ids []int64) (map[int64]types.IntermediateUnit, error)
	TerminalUnitsByID(ctx context.Context, ids []int64) (map[int64]types.TerminalUnit, error)
	EnrichIntermediateUnits(ctx context.Context, units []types.IntermediateUnit) ([]types.IntermediateUnit, error)
	EnrichTerminalUnits(ctx context.Context, units []types.TerminalUnit) ([]types.TerminalUnit, error)
	ObservationsFor(ctx context.Context, kind types.Kind, id int64) ([]types.ObservationRecord, error)

	History(ctx context.Context, filter HistoryFilter) ([]types.ChangeLogEntry, error)
	GenerateSnapshot(ctx context.Context, destPath string) error
	Close() error
}

// Recorder receives counts of store activity. Implementations must be safe
// for concurrent use.
type Recorder interface {
	EntityCreated(kind types.Kind)
	ObservationRecorded(kind types.Kind)
	InventoryQueried(kind types.Kind)
	WriteFailed(reason string)
}

type nopRecorder struct{}

func (nopRecorder) EntityCreated(types.Kind)       {}
func (nopRecorder) ObservationRecorded(types.Kind) {}
func (nopRecorder) InventoryQueried(types.Kind)    {}
func (nopRecorder) WriteFailed(string)             {}
