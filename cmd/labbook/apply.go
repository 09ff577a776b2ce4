package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/hyperengineering/labbook/internal/types"
	"github.com/spf13/cobra"
)

var applyFile string

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a batch of creations and observations atomically",
	Long: `Apply a JSON array of tagged items in one transaction. Either every item
is written or none is. Items are applied in order, so an item may reference
an entity created earlier in the same batch.

Item kinds: recipe, culture, intermediate, terminal, culture_observation,
intermediate_observation, terminal_observation.`,
	Example: `  labbook apply -f batch.json
  cat batch.json | labbook apply -f -`,
	Args: cobra.NoArgs,
	RunE: runApply,
}

func init() {
	applyCmd.Flags().StringVarP(&applyFile, "file", "f", "", "Batch file, or - for stdin (required)")
	_ = applyCmd.MarkFlagRequired("file")
}

func runApply(cmd *cobra.Command, args []string) error {
	data, err := readBatch(cmd, applyFile)
	if err != nil {
		return err
	}
	items, err := types.DecodeItems(data)
	if err != nil {
		return err
	}

	return withSession(cmd, func(ctx context.Context, s *session) error {
		res, err := s.store.Write(ctx, items...)
		if err != nil {
			return fmt.Errorf("apply batch: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), res)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Batch %s: %d created, %d observations\n",
			res.BatchID, len(res.Created), res.Observations)
		for _, c := range res.Created {
			fmt.Fprintf(out, "  %s %d %s\n", c.Kind, c.ID, c.Name)
		}
		return nil
	})
}

func readBatch(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}
	return data, nil
}
