package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/brensch/greedysnake/replay"
)

var discoverCmd = &cobra.Command{
	Use:   "discover <stats-url>...",
	Short: "List game ids linked from Battlesnake stats pages",
	Long: `Fetch each page and print the distinct game ids it links to, one per line.

Examples:
  greedysnake discover https://play.battlesnake.com/leaderboard/standard/someone/stats`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDiscover,
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 30 * time.Second}
	seen := make(map[string]bool)
	for _, url := range args {
		ids, err := replay.DiscoverGames(cmd.Context(), client, url, cfg.Replay.UserAgent)
		if err != nil {
			logger.Error("discover failed", "url", url, "err", err)
			continue
		}
		logger.Info("page scanned", "url", url, "games", len(ids))
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
	}
	return nil
}
