package validation

import (
	"github.com/hyperengineering/labbook/internal/types"
)

const (
	// MaxNameLength bounds recipe names and culture descriptors.
	MaxNameLength = 200
	// MaxTextLength bounds recipe ingredient and instruction text.
	MaxTextLength = 20000
)

func validateText(c *Collector, field, value string, max int) {
	c.Add(ValidateUTF8(field, value))
	c.Add(ValidateNoNullBytes(field, value))
	c.Add(ValidateMaxLength(field, value, max))
}

func validateOptionalText(c *Collector, field string, value *string) {
	c.Add(ValidateOptional(field, value))
	if value != nil {
		validateText(c, field, *value, MaxNameLength)
	}
}

// ValidateNewRecipe checks the required text fields and the category.
func ValidateNewRecipe(r types.NewRecipe) error {
	var c Collector
	c.Add(ValidateRequired("name", r.Name))
	validateText(&c, "name", r.Name, MaxNameLength)
	c.Add(ValidateEnum("category", string(r.Category), types.RecipeCategories))
	c.Add(ValidateRequired("ingredients", r.Ingredients))
	validateText(&c, "ingredients", r.Ingredients, MaxTextLength)
	c.Add(ValidateRequired("instructions", r.Instructions))
	validateText(&c, "instructions", r.Instructions, MaxTextLength)
	return c.Err()
}

// ValidateNewCulture checks the creation date and that supplied attributes
// are not blank.
func ValidateNewCulture(n types.NewCulture) error {
	var c Collector
	c.Add(requireTimestamp("created_at", n.CreatedAt))
	validateOptionalText(&c, "organism", n.Organism)
	validateOptionalText(&c, "variant", n.Variant)
	validateOptionalText(&c, "medium", n.Medium)
	return c.Err()
}

// ValidateNewIntermediateUnit checks the creation date and references.
func ValidateNewIntermediateUnit(n types.NewIntermediateUnit) error {
	var c Collector
	c.Add(requireTimestamp("created_at", n.CreatedAt))
	c.Add(ValidateReference("culture_id", n.CultureID))
	c.Add(ValidateReference("recipe_id", n.RecipeID))
	return c.Err()
}

// ValidateNewTerminalUnit checks the creation date and references.
func ValidateNewTerminalUnit(n types.NewTerminalUnit) error {
	var c Collector
	c.Add(requireTimestamp("created_at", n.CreatedAt))
	c.Add(ValidateReference("intermediate_id", n.IntermediateID))
	c.Add(ValidateReference("recipe_id", n.RecipeID))
	return c.Err()
}

// ValidateAction returns an error if action is outside the vocabulary of kind.
// The action must already be normalized.
func ValidateAction(kind types.Kind, action types.Action) *ValidationError {
	set, ok := types.ActionsFor(kind)
	if !ok {
		return &ValidationError{Field: "kind", Message: "has no observations"}
	}
	if !set.Allows(action) {
		return ValidateEnum("action", string(action), set.AllowedStrings())
	}
	return nil
}

// ValidateObservation checks the identity, date and yield of an observation.
// Actions are checked separately by ValidateAction.
func ValidateObservation(kind types.Kind, o types.Observation, harvestedYield *float64) error {
	var c Collector
	c.Add(ValidateReference("entity_id", o.EntityID))
	if o.ObservedAt.IsZero() {
		c.Add(&ValidationError{Field: "observed_at", Message: "is required"})
	}
	if harvestedYield != nil {
		if kind != types.KindTerminal {
			c.Add(&ValidationError{Field: "harvested_yield", Message: "is only recorded for terminal units"})
		} else {
			c.Add(ValidateNonNegative("harvested_yield", *harvestedYield))
		}
	}
	return c.Err()
}

func requireTimestamp(field string, ts types.Timestamp) *ValidationError {
	if ts.IsZero() {
		return &ValidationError{Field: field, Message: "is required"}
	}
	return nil
}
