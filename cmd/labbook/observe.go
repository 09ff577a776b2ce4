package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hyperengineering/labbook/internal/types"
	"github.com/spf13/cobra"
)

var (
	observeDate   string
	observeAction string
	observeFailed bool
	observeYield  string
)

var observeCmd = &cobra.Command{
	Use:   "observe <kind> <id>",
	Short: "Record a dated observation",
	Long: `Record the status of a culture, grain spawn or bag on a given day.

One observation exists per entity and day; recording again on the same day
replaces the earlier observation. A terminal action (for example "destroyed"
or "harvested") removes the entity from inventory from its observed date on.

Actions: culture created|destroyed; spawn created|used|destroyed;
bag created|inspected|harvested|destroyed. Omit --action for a plain check.`,
	Example: `  labbook observe culture 1
  labbook observe bag 4 --date 2024-02-10 --action harvested --yield 412.5
  labbook observe spawn 2 --action destroyed --failed`,
	Args: cobra.ExactArgs(2),
	RunE: runObserve,
}

func init() {
	observeCmd.Flags().StringVar(&observeDate, "date", "", "Observation date YYYY-MM-DD (default today)")
	observeCmd.Flags().StringVar(&observeAction, "action", "", "Action label")
	observeCmd.Flags().BoolVar(&observeFailed, "failed", false, "Mark the observation as failed")
	observeCmd.Flags().StringVar(&observeYield, "yield", "", "Harvested yield (bags only)")
}

func runObserve(cmd *cobra.Command, args []string) error {
	kind, err := parseKindArg(args[0], true)
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", args[1], err)
	}
	day, err := parseDateFlag(observeDate)
	if err != nil {
		return err
	}

	var yield *float64
	if observeYield != "" {
		if kind != types.KindTerminal {
			return fmt.Errorf("--yield applies to bags only")
		}
		y, err := strconv.ParseFloat(observeYield, 64)
		if err != nil {
			return fmt.Errorf("invalid yield %q: %w", observeYield, err)
		}
		yield = &y
	}

	item, err := types.ObservationFor(kind, types.Observation{
		EntityID:   id,
		ObservedAt: day,
		Passed:     !observeFailed,
		Action:     types.Action(observeAction),
	}, yield)
	if err != nil {
		return err
	}

	return withSession(cmd, func(ctx context.Context, s *session) error {
		res, err := s.store.RecordObservations(ctx, item)
		if err != nil {
			return fmt.Errorf("record observation: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), res)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s %d on %s\n", kind, id, day)
		return nil
	})
}
