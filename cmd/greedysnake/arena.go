package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/brensch/greedysnake/arena"
	"github.com/brensch/greedysnake/logging"
	"github.com/brensch/greedysnake/store"
	"github.com/brensch/greedysnake/tui"
)

var (
	flagGames    int
	flagSnakes   int
	flagOutDir   string
	flagNoWrite  bool
	flagWatch    bool
	flagDelay    time.Duration
	flagVerbose  bool
	flagMaxTurns int
)

var arenaCmd = &cobra.Command{
	Use:   "arena",
	Short: "Play local games between greedy snakes",
	Long: `Play games where every snake uses the greedy heuristic, then write the
turns to a Parquet archive.

Examples:
  greedysnake arena --games 50
  greedysnake arena --snakes 2 --seed 7 --verbose
  greedysnake arena --watch --delay 150ms`,
	Args: cobra.NoArgs,
	RunE: runArena,
}

func init() {
	arenaCmd.Flags().IntVar(&flagGames, "games", 0, "Number of games (default from config)")
	arenaCmd.Flags().IntVar(&flagSnakes, "snakes", 0, "Snakes per game (default from config)")
	arenaCmd.Flags().IntVar(&flagMaxTurns, "max-turns", 0, "Turn limit per game (default from config)")
	arenaCmd.Flags().StringVar(&flagOutDir, "out-dir", "", "Archive directory (default from config)")
	arenaCmd.Flags().BoolVar(&flagNoWrite, "no-write", false, "Do not write a Parquet archive")
	arenaCmd.Flags().BoolVar(&flagWatch, "watch", false, "Watch games in a terminal dashboard")
	arenaCmd.Flags().DurationVar(&flagDelay, "delay", 100*time.Millisecond, "Pause between turns in --watch mode")
	arenaCmd.Flags().BoolVar(&flagVerbose, "verbose", false, "Log every decision and print the final board of each game")
}

func runArena(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	if flagGames > 0 {
		cfg.Arena.Games = flagGames
	}
	if flagSnakes > 0 {
		cfg.Arena.Snakes = flagSnakes
	}
	if flagMaxTurns > 0 {
		cfg.Arena.MaxTurns = flagMaxTurns
	}
	if flagOutDir != "" {
		cfg.Arena.OutDir = flagOutDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Decision traces are only useful when following single games.
	selectorLogger := logging.Discard()
	if flagVerbose && !flagWatch {
		selectorLogger = logger
	}
	selector := newSelector(cfg, selectorLogger)
	arenaCfg := arena.FromConfig(cfg.Arena, cfg.Agent.Seed)

	var writer *store.ArchiveWriter
	if !flagNoWrite {
		writer, err = store.NewArchiveWriter(cfg.Arena.OutDir)
		if err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var runErr error
	if flagWatch {
		runErr = tui.Watch(ctx, arenaCfg, cfg.Arena.Games, selector, writer, flagDelay)
	} else {
		var onGame func(arena.Result)
		if flagVerbose {
			onGame = func(r arena.Result) { fmt.Fprint(cmd.OutOrStdout(), arena.RenderBoard(r.Final)) }
		}
		var sum arena.Summary
		sum, runErr = arena.Run(ctx, arenaCfg, cfg.Arena.Games, selector, writer, logger, onGame)
		printArenaSummary(cmd, sum)
	}

	if writer != nil {
		path, err := writer.Finalize()
		if err != nil {
			return err
		}
		if path != "" {
			logger.Info("archive written", "path", path, "games", writer.Games(), "rows", writer.Rows())
		}
	}
	return runErr
}

func printArenaSummary(cmd *cobra.Command, sum arena.Summary) {
	out := cmd.OutOrStdout()
	if sum.Games == 0 {
		fmt.Fprintln(out, "No games played.")
		return
	}
	fmt.Fprintf(out, "Games: %d  Draws: %d  Avg turns: %.1f\n", sum.Games, sum.Draws, float64(sum.Turns)/float64(sum.Games))
	fmt.Fprintf(out, "  %-10s  %s\n", "Snake", "Wins")
	for _, id := range sum.SortedWins() {
		fmt.Fprintf(out, "  %-10s  %d\n", id, sum.Wins[id])
	}
}
