package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brensch/greedysnake/store"
)

var (
	flagResultsDB string
	flagLimit     int
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show the server's game book",
	Long: `Print win/loss/draw totals and the most recent games recorded by serve.

Examples:
  greedysnake results
  greedysnake results --db ./results.db --limit 20`,
	Args: cobra.NoArgs,
	RunE: runResults,
}

func init() {
	resultsCmd.Flags().StringVar(&flagResultsDB, "db", "", "Path to results database (default from config)")
	resultsCmd.Flags().IntVar(&flagLimit, "limit", 10, "Number of recent games to show")
}

func runResults(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}
	path := cfg.Storage.ResultsDB
	if flagResultsDB != "" {
		path = flagResultsDB
	}

	results, err := store.OpenResults(path)
	if err != nil {
		return err
	}
	defer results.Close()

	sum, err := results.Summary(cmd.Context())
	if err != nil {
		return err
	}
	recent, err := results.Recent(cmd.Context(), flagLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if sum.Total() == 0 {
		fmt.Fprintln(out, "No games recorded yet.")
		return nil
	}

	fmt.Fprintf(out, "Games: %d  Won: %d  Lost: %d  Draw: %d  Running: %d\n",
		sum.Total(), sum.Won, sum.Lost, sum.Draw, sum.Unfinished)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %-36s  %-10s  %-5s  %-7s  %s\n", "Game", "Ruleset", "Turns", "Outcome", "Started")
	fmt.Fprintf(out, "  %-36s  %-10s  %-5s  %-7s  %s\n", "----", "-------", "-----", "-------", "-------")
	for _, g := range recent {
		outcome := string(g.Outcome)
		if outcome == "" {
			outcome = "running"
		}
		fmt.Fprintf(out, "  %-36s  %-10s  %-5d  %-7s  %s\n",
			g.ID, g.Ruleset, g.Turns, outcome, g.StartedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
