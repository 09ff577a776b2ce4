package main

import (
	"context"
	"fmt"

	"github.com/hyperengineering/labbook/internal/types"
	"github.com/spf13/cobra"
)

var (
	createDate         string
	recipeName         string
	recipeCategory     string
	recipeIngredients  string
	recipeInstructions string
	cultureOrganism    string
	cultureVariant     string
	cultureMedium      string
	parentID           int64
	unitRecipeID       int64
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create recipes, cultures, grain spawn and bags",
}

var createRecipeCmd = &cobra.Command{
	Use:   "recipe",
	Short: "Create a recipe",
	Long: `Create a named recipe. Categories are growth_medium, propagation_medium
and production_substrate. Recipe names are unique.`,
	Example: `  labbook create recipe --name "Rye Grain" --category propagation_medium \
    --ingredients "rye, water, gypsum" --instructions "soak, simmer, sterilize"`,
	Args: cobra.NoArgs,
	RunE: runCreateRecipe,
}

var createCultureCmd = &cobra.Command{
	Use:     "culture",
	Short:   "Create a culture",
	Example: `  labbook create culture --organism "Oyster" --variant "Blue" --medium "MEA" --date 2024-01-01`,
	Args:    cobra.NoArgs,
	RunE:    runCreateCulture,
}

var createSpawnCmd = &cobra.Command{
	Use:     "spawn",
	Aliases: []string{"intermediate"},
	Short:   "Create grain spawn from a culture",
	Example: `  labbook create spawn --culture 1 --recipe 2 --date 2024-01-05`,
	Args:    cobra.NoArgs,
	RunE:    runCreateSpawn,
}

var createBagCmd = &cobra.Command{
	Use:     "bag",
	Aliases: []string{"terminal"},
	Short:   "Create a bag from grain spawn",
	Example: `  labbook create bag --spawn 3 --recipe 4 --date 2024-01-12`,
	Args:    cobra.NoArgs,
	RunE:    runCreateBag,
}

func init() {
	for _, c := range []*cobra.Command{createRecipeCmd, createCultureCmd, createSpawnCmd, createBagCmd} {
		c.Flags().StringVar(&createDate, "date", "", "Creation date YYYY-MM-DD[ HH:MM:SS] (default now)")
		createCmd.AddCommand(c)
	}

	createRecipeCmd.Flags().StringVar(&recipeName, "name", "", "Recipe name (required)")
	createRecipeCmd.Flags().StringVar(&recipeCategory, "category", "", "Recipe category (required)")
	createRecipeCmd.Flags().StringVar(&recipeIngredients, "ingredients", "", "Ingredients (required)")
	createRecipeCmd.Flags().StringVar(&recipeInstructions, "instructions", "", "Instructions (required)")

	createCultureCmd.Flags().StringVar(&cultureOrganism, "organism", "", "Organism")
	createCultureCmd.Flags().StringVar(&cultureVariant, "variant", "", "Variant or strain")
	createCultureCmd.Flags().StringVar(&cultureMedium, "medium", "", "Growth medium")

	createSpawnCmd.Flags().Int64Var(&parentID, "culture", 0, "Parent culture ID (required)")
	createSpawnCmd.Flags().Int64Var(&unitRecipeID, "recipe", 0, "Propagation medium recipe ID (required)")

	createBagCmd.Flags().Int64Var(&parentID, "spawn", 0, "Parent grain spawn ID (required)")
	createBagCmd.Flags().Int64Var(&unitRecipeID, "recipe", 0, "Production substrate recipe ID (required)")
}

func runCreateRecipe(cmd *cobra.Command, args []string) error {
	in := types.NewRecipe{
		Name:         recipeName,
		Category:     types.RecipeCategory(recipeCategory),
		Ingredients:  recipeIngredients,
		Instructions: recipeInstructions,
	}
	if createDate != "" {
		d, err := types.ParseDate(createDate)
		if err != nil {
			return err
		}
		in.CreatedAt = d
	}

	return withSession(cmd, func(ctx context.Context, s *session) error {
		r, err := s.store.CreateRecipe(ctx, in)
		if err != nil {
			return fmt.Errorf("create recipe: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), r)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created recipe %d: %s (%s)\n", r.ID, r.Name, r.Category)
		return nil
	})
}

func runCreateCulture(cmd *cobra.Command, args []string) error {
	created, err := parseTimestampFlag(createDate)
	if err != nil {
		return err
	}
	in := types.NewCulture{
		CreatedAt: created,
		Organism:  optionalFlag(cultureOrganism),
		Variant:   optionalFlag(cultureVariant),
		Medium:    optionalFlag(cultureMedium),
	}

	return withSession(cmd, func(ctx context.Context, s *session) error {
		c, err := s.store.CreateCulture(ctx, in)
		if err != nil {
			return fmt.Errorf("create culture: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), c)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created culture %d: %s\n", c.ID, c.Name)
		return nil
	})
}

func runCreateSpawn(cmd *cobra.Command, args []string) error {
	created, err := parseTimestampFlag(createDate)
	if err != nil {
		return err
	}
	in := types.NewIntermediateUnit{CreatedAt: created, CultureID: parentID, RecipeID: unitRecipeID}

	return withSession(cmd, func(ctx context.Context, s *session) error {
		u, err := s.store.CreateIntermediateUnit(ctx, in)
		if err != nil {
			return fmt.Errorf("create grain spawn: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), u)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created grain spawn %d: %s (culture %d)\n", u.ID, u.Name, u.CultureID)
		return nil
	})
}

func runCreateBag(cmd *cobra.Command, args []string) error {
	created, err := parseTimestampFlag(createDate)
	if err != nil {
		return err
	}
	in := types.NewTerminalUnit{CreatedAt: created, IntermediateID: parentID, RecipeID: unitRecipeID}

	return withSession(cmd, func(ctx context.Context, s *session) error {
		u, err := s.store.CreateTerminalUnit(ctx, in)
		if err != nil {
			return fmt.Errorf("create bag: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), u)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created bag %d: %s (spawn %d)\n", u.ID, u.Name, u.IntermediateID)
		return nil
	})
}

// optionalFlag maps an empty flag value to an absent attribute.
func optionalFlag(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
