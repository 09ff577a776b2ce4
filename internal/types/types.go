package types

// RecipeCategory classifies what a recipe is used to make.
type RecipeCategory string

const (
	CategoryGrowthMedium        RecipeCategory = "growth_medium"
	CategoryPropagationMedium   RecipeCategory = "propagation_medium"
	CategoryProductionSubstrate RecipeCategory = "production_substrate"
)

// RecipeCategories lists every valid recipe category.
var RecipeCategories = []string{
	string(CategoryGrowthMedium),
	string(CategoryPropagationMedium),
	string(CategoryProductionSubstrate),
}

// Recipe is a named preparation. Recipes are immutable once written.
type Recipe struct {
	ID           int64          `json:"id"`
	CreatedAt    Date           `json:"created_at"`
	Name         string         `json:"name"`
	Category     RecipeCategory `json:"category"`
	Ingredients  string         `json:"ingredients"`
	Instructions string         `json:"instructions"`
}

// Experiment is the creation record shared by cultures, intermediate units
// and terminal units.
type Experiment struct {
	ID        int64     `json:"id"`
	CreatedAt Timestamp `json:"created_at"`
	Sequence  int       `json:"sequence"`
	Name      string    `json:"name"`
}

// CreatedOn returns the calendar day of creation.
func (e Experiment) CreatedOn() Date {
	return e.CreatedAt.Date()
}

// Lineage carries descriptive attributes inherited from the ancestor culture.
// Both fields are nil when the ancestor or the attribute is missing.
type Lineage struct {
	Organism *string `json:"organism"`
	Variant  *string `json:"variant"`
}

// Culture is the root of a lineage.
type Culture struct {
	Experiment
	Organism *string `json:"organism"`
	Variant  *string `json:"variant"`
	Medium   *string `json:"medium"`
}

// IntermediateUnit is a propagation unit (grain spawn) grown from a culture.
type IntermediateUnit struct {
	Experiment
	CultureID int64 `json:"culture_id"`
	RecipeID  int64 `json:"recipe_id"`
	Lineage
}

// TerminalUnit is a production unit (bag) inoculated from an intermediate unit.
type TerminalUnit struct {
	Experiment
	IntermediateID int64 `json:"intermediate_id"`
	RecipeID       int64 `json:"recipe_id"`
	Lineage
}

// InventoryEntry is the enriched read model returned by point-in-time
// inventory queries, uniform across experiment kinds.
type InventoryEntry struct {
	Kind Kind `json:"kind"`
	Experiment
	Lineage
	Medium   *string `json:"medium,omitempty"`
	ParentID *int64  `json:"parent_id,omitempty"`
	RecipeID *int64  `json:"recipe_id,omitempty"`
}

// Observation is a dated status event. At most one exists per entity and day.
type Observation struct {
	EntityID   int64  `json:"entity_id"`
	ObservedAt Date   `json:"observed_at"`
	Passed     bool   `json:"passed"`
	Action     Action `json:"action,omitempty"`
}

// ObservationRecord is an observation as read back from the log.
type ObservationRecord struct {
	Kind Kind `json:"kind"`
	Observation
	HarvestedYield *float64 `json:"harvested_yield,omitempty"`
	RecordedAt     string   `json:"recorded_at"`
}

// ChangeLogEntry is one journaled write.
type ChangeLogEntry struct {
	Sequence   int64  `json:"sequence"`
	BatchID    string `json:"batch_id"`
	EntityKind Kind   `json:"entity_kind"`
	EntityID   int64  `json:"entity_id"`
	Operation  string `json:"operation"`
	ObservedAt *Date  `json:"observed_at,omitempty"`
	RecordedAt string `json:"recorded_at"`
}

// Journal operations.
const (
	OperationCreate  = "create"
	OperationObserve = "observe"
)
