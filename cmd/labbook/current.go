package main

import (
	"context"
	"fmt"

	"github.com/hyperengineering/labbook/internal/store"
	"github.com/hyperengineering/labbook/internal/types"
	"github.com/spf13/cobra"
)

var currentDate string

var currentCmd = &cobra.Command{
	Use:   "current <kind>",
	Short: "List inventory as of a date",
	Long: `List the cultures, grain spawn or bags that existed on a date.

An entity is current when it was created on or before the date and has no
observation with a terminal action dated on or before it.`,
	Example: `  labbook current culture
  labbook current bag --date 2024-02-01 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runCurrent,
}

func init() {
	currentCmd.Flags().StringVar(&currentDate, "date", "", "Inventory date YYYY-MM-DD (default today)")
}

func runCurrent(cmd *cobra.Command, args []string) error {
	kind, err := parseKindArg(args[0], true)
	if err != nil {
		return err
	}
	asOf, err := parseDateFlag(currentDate)
	if err != nil {
		return err
	}

	return withSession(cmd, func(ctx context.Context, s *session) error {
		entries, err := s.store.CurrentAsOf(ctx, kind, asOf)
		if err != nil {
			return fmt.Errorf("query inventory: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), entries)
		}
		if len(entries) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No %s inventory on %s.\n", kind, asOf)
			return nil
		}

		labels, err := resolveLabels(ctx, s.store, kind, entries)
		if err != nil {
			return err
		}

		w := newTabWriter(cmd.OutOrStdout())
		if kind == types.KindCulture {
			fmt.Fprintln(w, "ID\tNAME\tCREATED\tORGANISM\tVARIANT\tMEDIUM")
			for _, e := range entries {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
					e.ID, e.Name, e.CreatedAt, orDash(e.Organism), orDash(e.Variant), orDash(e.Medium))
			}
		} else {
			fmt.Fprintln(w, "ID\tNAME\tCREATED\tORGANISM\tVARIANT\tPARENT\tRECIPE")
			for _, e := range entries {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
					e.ID, e.Name, e.CreatedAt, orDash(e.Organism), orDash(e.Variant),
					labels.parent(e.ParentID), labels.recipe(e.RecipeID))
			}
		}
		return w.Flush()
	})
}

// inventoryLabels maps parent and recipe IDs to display names.
type inventoryLabels struct {
	parents map[int64]string
	recipes map[int64]string
}

func (l inventoryLabels) parent(id *int64) string {
	return l.lookup(l.parents, id)
}

func (l inventoryLabels) recipe(id *int64) string {
	return l.lookup(l.recipes, id)
}

func (inventoryLabels) lookup(m map[int64]string, id *int64) string {
	if id == nil {
		return "-"
	}
	if name, ok := m[*id]; ok {
		return name
	}
	return fmt.Sprintf("#%d", *id)
}

// resolveLabels batch-loads the parents and recipes referenced by entries.
func resolveLabels(ctx context.Context, st store.Store, kind types.Kind, entries []types.InventoryEntry) (inventoryLabels, error) {
	labels := inventoryLabels{parents: map[int64]string{}, recipes: map[int64]string{}}
	if kind == types.KindCulture {
		return labels, nil
	}

	var parentIDs, recipeIDs []int64
	for _, e := range entries {
		if e.ParentID != nil {
			parentIDs = append(parentIDs, *e.ParentID)
		}
		if e.RecipeID != nil {
			recipeIDs = append(recipeIDs, *e.RecipeID)
		}
	}

	recipes, err := st.RecipesByID(ctx, recipeIDs)
	if err != nil {
		return labels, fmt.Errorf("load recipes: %w", err)
	}
	for id, r := range recipes {
		labels.recipes[id] = r.Name
	}

	switch kind {
	case types.KindIntermediate:
		cultures, err := st.CulturesByID(ctx, parentIDs)
		if err != nil {
			return labels, fmt.Errorf("load cultures: %w", err)
		}
		for id, c := range cultures {
			labels.parents[id] = c.Name
		}
	case types.KindTerminal:
		units, err := st.IntermediateUnitsByID(ctx, parentIDs)
		if err != nil {
			return labels, fmt.Errorf("load grain spawn: %w", err)
		}
		for id, u := range units {
			labels.parents[id] = u.Name
		}
	}
	return labels, nil
}
