package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/hyperengineering/labbook/internal/store"
	"github.com/hyperengineering/labbook/internal/types"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <kind> <id>",
	Short: "Show one record with its lineage and observations",
	Example: `  labbook show bag 4
  labbook show recipe 1 --json`,
	Args: cobra.ExactArgs(2),
	RunE: runShow,
}

type showResult struct {
	Kind         types.Kind                `json:"kind"`
	Entity       any                       `json:"entity"`
	Observations []types.ObservationRecord `json:"observations,omitempty"`
}

func runShow(cmd *cobra.Command, args []string) error {
	kind, err := parseKindArg(args[0], false)
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", args[1], err)
	}

	return withSession(cmd, func(ctx context.Context, s *session) error {
		res, err := loadShow(ctx, s.store, kind, id)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), res)
		}
		return printShow(cmd.OutOrStdout(), res)
	})
}

func loadShow(ctx context.Context, st store.Store, kind types.Kind, id int64) (*showResult, error) {
	res := &showResult{Kind: kind}
	var err error
	switch kind {
	case types.KindRecipe:
		res.Entity, err = st.GetRecipe(ctx, id)
	case types.KindCulture:
		res.Entity, err = st.GetCulture(ctx, id)
	case types.KindIntermediate:
		res.Entity, err = st.GetIntermediateUnit(ctx, id)
	case types.KindTerminal:
		res.Entity, err = st.GetTerminalUnit(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %d: %w", kind, id, err)
	}

	if kind.IsExperiment() {
		res.Observations, err = st.ObservationsFor(ctx, kind, id)
		if err != nil {
			return nil, fmt.Errorf("list observations: %w", err)
		}
	}
	return res, nil
}

func printShow(out io.Writer, res *showResult) error {
	w := newTabWriter(out)
	switch e := res.Entity.(type) {
	case *types.Recipe:
		fmt.Fprintf(w, "Recipe:\t%s\n", e.Name)
		fmt.Fprintf(w, "ID:\t%d\n", e.ID)
		fmt.Fprintf(w, "Created:\t%s\n", e.CreatedAt)
		fmt.Fprintf(w, "Category:\t%s\n", e.Category)
		fmt.Fprintf(w, "Ingredients:\t%s\n", e.Ingredients)
		fmt.Fprintf(w, "Instructions:\t%s\n", e.Instructions)
	case *types.Culture:
		fmt.Fprintf(w, "Culture:\t%s\n", e.Name)
		fmt.Fprintf(w, "ID:\t%d\n", e.ID)
		fmt.Fprintf(w, "Created:\t%s\n", e.CreatedAt)
		fmt.Fprintf(w, "Organism:\t%s\n", orDash(e.Organism))
		fmt.Fprintf(w, "Variant:\t%s\n", orDash(e.Variant))
		fmt.Fprintf(w, "Medium:\t%s\n", orDash(e.Medium))
	case *types.IntermediateUnit:
		fmt.Fprintf(w, "Grain spawn:\t%s\n", e.Name)
		fmt.Fprintf(w, "ID:\t%d\n", e.ID)
		fmt.Fprintf(w, "Created:\t%s\n", e.CreatedAt)
		fmt.Fprintf(w, "Culture:\t%d\n", e.CultureID)
		fmt.Fprintf(w, "Recipe:\t%d\n", e.RecipeID)
		fmt.Fprintf(w, "Organism:\t%s\n", orDash(e.Organism))
		fmt.Fprintf(w, "Variant:\t%s\n", orDash(e.Variant))
	case *types.TerminalUnit:
		fmt.Fprintf(w, "Bag:\t%s\n", e.Name)
		fmt.Fprintf(w, "ID:\t%d\n", e.ID)
		fmt.Fprintf(w, "Created:\t%s\n", e.CreatedAt)
		fmt.Fprintf(w, "Grain spawn:\t%d\n", e.IntermediateID)
		fmt.Fprintf(w, "Recipe:\t%d\n", e.RecipeID)
		fmt.Fprintf(w, "Organism:\t%s\n", orDash(e.Organism))
		fmt.Fprintf(w, "Variant:\t%s\n", orDash(e.Variant))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if !res.Kind.IsExperiment() {
		return nil
	}
	if len(res.Observations) == 0 {
		fmt.Fprintln(out, "\nNo observations.")
		return nil
	}

	fmt.Fprintln(out)
	w = newTabWriter(out)
	fmt.Fprintln(w, "DATE\tPASSED\tACTION\tYIELD")
	for _, o := range res.Observations {
		action := string(o.Action)
		if action == "" {
			action = "-"
		}
		yield := "-"
		if o.HarvestedYield != nil {
			yield = strconv.FormatFloat(*o.HarvestedYield, 'f', -1, 64)
		}
		fmt.Fprintf(w, "%s\t%t\t%s\t%s\n", o.ObservedAt, o.Passed, action, yield)
	}
	return w.Flush()
}
