package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/brensch/greedysnake/agent"
	"github.com/brensch/greedysnake/logging"
	"github.com/brensch/greedysnake/replay"
)

var flagRequestDelay time.Duration

var replayCmd = &cobra.Command{
	Use:   "replay <game-id>...",
	Short: "Compare the heuristic against played games",
	Long: `Download finished games from the Battlesnake engine and count how often
the greedy heuristic would have played the same move as each snake did.

Examples:
  greedysnake replay 1f2e3d4c-0000-4000-8000-000000000000
  greedysnake discover https://play.battlesnake.com/leaderboard/standard/someone/stats | xargs greedysnake replay`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().DurationVar(&flagRequestDelay, "request-delay", 500*time.Millisecond, "Pause between downloads")
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	rcfg := replay.FromConfig(cfg.Replay)
	rcfg.Logger = logger
	selector := newSelector(cfg, logging.Discard())

	var total replay.Report
	failed := 0
	for i, id := range args {
		if i > 0 && flagRequestDelay > 0 {
			select {
			case <-time.After(flagRequestDelay):
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			}
		}

		g, err := replay.Download(cmd.Context(), id, rcfg)
		if err != nil {
			logger.Error("download failed", "game", id, "err", err)
			failed++
			continue
		}
		rep := replay.Evaluate(g, selector)
		logger.Info("game evaluated", "game", id, "frames", len(g.Frames), "decisions", rep.Total, "agreement", fmt.Sprintf("%.1f%%", 100*rep.Rate()))
		total.Merge(rep)
	}

	printReport(cmd, total, len(args)-failed)
	if failed == len(args) {
		return fmt.Errorf("no games could be downloaded")
	}
	return nil
}

func printReport(cmd *cobra.Command, rep replay.Report, games int) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Games: %d  Decisions: %d  Agreed: %d (%.1f%%)  No move: %d\n",
		games, rep.Total, rep.Agreed, 100*rep.Rate(), rep.NoMove)

	reasons := make([]agent.Reason, 0, len(rep.ByReason))
	for r := range rep.ByReason {
		reasons = append(reasons, r)
	}
	sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })

	fmt.Fprintf(out, "  %-10s  %8s  %8s\n", "Reason", "Total", "Agreed")
	for _, r := range reasons {
		t := rep.ByReason[r]
		fmt.Fprintf(out, "  %-10s  %8d  %7.1f%%\n", r, t.Total, 100*t.Rate())
	}
}
