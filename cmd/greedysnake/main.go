// greedysnake is a Battlesnake driven by a one-step greedy heuristic.
//
// Usage:
//
//	greedysnake serve              - Serve the Battlesnake HTTP API
//	greedysnake arena              - Play local games between greedy snakes
//	greedysnake replay <id>...     - Compare the heuristic against played games
//	greedysnake discover <url>     - List game ids linked from a stats page
//	greedysnake results            - Show the server's game book
//	greedysnake inspect <file>     - Summarise an arena Parquet archive
//
// Global flags:
//
//	--config <path>      - YAML config file
//	--log-format <fmt>   - text or json
//	--log-level <level>  - debug, info, warn or error
//	--seed <value>       - Seed for the random fallback (0 = time based)
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/brensch/greedysnake/agent"
	"github.com/brensch/greedysnake/config"
	"github.com/brensch/greedysnake/logging"
)

var (
	flagConfig    string
	flagLogFormat string
	flagLogLevel  string
	flagSeed      int64
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "greedysnake",
	Short: "A greedy Battlesnake",
	Long: `greedysnake picks each move from the current board alone: avoid walls
and bodies, head for food within a few squares, otherwise keep going
straight, otherwise pick any safe move.

Examples:
  greedysnake serve --listen :8080
  greedysnake arena --games 20 --snakes 4
  greedysnake arena --watch
  greedysnake replay 1f2e3d4c-0000-4000-8000-000000000000
  greedysnake results`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Log format: text or json")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(arenaCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(inspectCmd)
}

// setup loads config with flag overrides and builds the logger.
func setup(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-format") {
		cfg.Logging.Format = flagLogFormat
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = flagLogLevel
	}
	if flags.Changed("seed") {
		cfg.Agent.Seed = flagSeed
	}

	logger, err := logging.New(os.Stderr, logging.Options{
		Format: cfg.Logging.Format,
		Level:  cfg.Logging.Level,
		Prefix: "greedysnake",
	})
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logger, nil
}

// newSelector builds the greedy selector. Per-move trace records go to
// logger under the "agent" component.
func newSelector(cfg config.Config, logger *slog.Logger) *agent.Selector {
	return agent.New(agent.Options{
		FoodRadius: cfg.Agent.FoodRadius,
		Chooser:    agent.NewLockedRand(cfg.Agent.Seed),
		Logger:     logger.With("component", "agent"),
	})
}
