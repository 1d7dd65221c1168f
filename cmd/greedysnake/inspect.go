package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/brensch/greedysnake/store"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <archive.parquet>",
	Short: "Summarise an arena Parquet archive",
	Long: `Read an archive written by arena and print per-game turn counts and how
often each heuristic rule picked the move.

Examples:
  greedysnake inspect data/arena/arena_1700000000000000000.parquet`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	rows, err := store.ReadArchive(args[0])
	if err != nil {
		return err
	}

	type gameStats struct {
		turns  int32
		winner string
	}
	games := make(map[string]*gameStats)
	var order []string
	reasons := make(map[string]int)
	decisions := 0

	for _, row := range rows {
		g, ok := games[row.GameID]
		if !ok {
			g = &gameStats{}
			games[row.GameID] = g
			order = append(order, row.GameID)
		}
		g.turns = max(g.turns, row.Turn)
		for _, s := range row.Snakes {
			if s.Value == 1 {
				g.winner = s.ID
			}
			if s.Move < 0 {
				continue
			}
			decisions++
			reasons[s.Reason]++
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Rows: %d  Games: %d  Decisions: %d\n\n", len(rows), len(games), decisions)

	fmt.Fprintf(out, "  %-32s  %-5s  %s\n", "Game", "Turns", "Winner")
	for _, id := range order {
		g := games[id]
		winner := g.winner
		if winner == "" {
			winner = "draw"
		}
		fmt.Fprintf(out, "  %-32s  %-5d  %s\n", id, g.turns, winner)
	}

	keys := make([]string, 0, len(reasons))
	for k := range reasons {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %-10s  %s\n", "Reason", "Share")
	for _, k := range keys {
		fmt.Fprintf(out, "  %-10s  %5.1f%%\n", k, 100*float64(reasons[k])/float64(max(decisions, 1)))
	}
	return nil
}
