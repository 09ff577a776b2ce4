package main

import (
	"context"
	"fmt"

	"github.com/hyperengineering/labbook/internal/store"
	"github.com/spf13/cobra"
)

var (
	historyAfter int64
	historyLimit int
	historyBatch string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the change log",
	Long: `Show journaled writes in sequence order. Use --after with the last
sequence seen to page through the log, or --batch to show one write batch.`,
	Example: `  labbook history --limit 20
  labbook history --batch 01HZX3Q8J4T2V9K7M5N6P0R1S2`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int64Var(&historyAfter, "after", 0, "Only entries after this sequence")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, fmt.Sprintf("Maximum entries (default %d)", store.DefaultHistoryLimit))
	historyCmd.Flags().StringVar(&historyBatch, "batch", "", "Only entries of this batch ID")
}

func runHistory(cmd *cobra.Command, args []string) error {
	filter := store.HistoryFilter{AfterSeq: historyAfter, Limit: historyLimit, BatchID: historyBatch}

	return withSession(cmd, func(ctx context.Context, s *session) error {
		entries, err := s.store.History(ctx, filter)
		if err != nil {
			return fmt.Errorf("read history: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), entries)
		}
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No history.")
			return nil
		}

		w := newTabWriter(cmd.OutOrStdout())
		fmt.Fprintln(w, "SEQ\tBATCH\tOPERATION\tKIND\tID\tOBSERVED\tRECORDED")
		for _, e := range entries {
			observed := "-"
			if e.ObservedAt != nil {
				observed = e.ObservedAt.String()
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\t%s\n",
				e.Sequence, e.BatchID, e.Operation, e.EntityKind, e.EntityID, observed, e.RecordedAt)
		}
		return w.Flush()
	})
}
