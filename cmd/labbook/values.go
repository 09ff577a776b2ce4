package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var valuesCmd = &cobra.Command{
	Use:   "values <kind> <field>",
	Short: "List distinct values of a descriptive field",
	Long: `List the distinct non-empty values of a field, sorted. Useful for
auto-completion of organism, variant, medium or recipe names.`,
	Example: `  labbook values culture organism
  labbook values recipe name`,
	Args: cobra.ExactArgs(2),
	RunE: runValues,
}

func runValues(cmd *cobra.Command, args []string) error {
	kind, err := parseKindArg(args[0], false)
	if err != nil {
		return err
	}
	field := args[1]

	return withSession(cmd, func(ctx context.Context, s *session) error {
		values, err := s.store.UniqueValues(ctx, kind, field)
		if err != nil {
			return fmt.Errorf("list values: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), values)
		}
		for _, v := range values {
			fmt.Fprintln(cmd.OutOrStdout(), v)
		}
		return nil
	})
}
