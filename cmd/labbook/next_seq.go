package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var nextSeqDate string

var nextSeqCmd = &cobra.Command{
	Use:   "next-seq <kind>",
	Short: "Preview the next sequence number and name for a day",
	Long: `Show the sequence number and display name the next creation of a kind
would receive on a day. The preview is advisory; the number is allocated
when the entity is written.`,
	Example: `  labbook next-seq spawn --date 2024-01-05`,
	Args:    cobra.ExactArgs(1),
	RunE:    runNextSeq,
}

func init() {
	nextSeqCmd.Flags().StringVar(&nextSeqDate, "date", "", "Creation date YYYY-MM-DD (default today)")
}

type nextSeqResult struct {
	Kind     string `json:"kind"`
	Date     string `json:"date"`
	Count    int    `json:"count"`
	Sequence int    `json:"sequence"`
	Name     string `json:"name"`
}

func runNextSeq(cmd *cobra.Command, args []string) error {
	kind, err := parseKindArg(args[0], true)
	if err != nil {
		return err
	}
	day, err := parseDateFlag(nextSeqDate)
	if err != nil {
		return err
	}

	return withSession(cmd, func(ctx context.Context, s *session) error {
		count, err := s.store.CountCreatedOn(ctx, kind, day)
		if err != nil {
			return fmt.Errorf("count created: %w", err)
		}
		name, err := s.store.PreviewName(ctx, kind, day)
		if err != nil {
			return fmt.Errorf("preview name: %w", err)
		}
		res := nextSeqResult{
			Kind:     string(kind),
			Date:     day.String(),
			Count:    count,
			Sequence: count + 1,
			Name:     name,
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), res)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (sequence %d, %d already created on %s)\n",
			res.Name, res.Sequence, res.Count, res.Date)
		return nil
	})
}
