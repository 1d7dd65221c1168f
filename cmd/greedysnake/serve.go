package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/brensch/greedysnake/battlesnake"
	"github.com/brensch/greedysnake/store"
)

var (
	flagListen  string
	flagServeDB string
	flagNoDB    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the Battlesnake HTTP API",
	Long: `Serve GET /, POST /start, POST /move and POST /end.

Game starts and outcomes are recorded in a SQLite database unless --no-db
is given.

Examples:
  greedysnake serve
  greedysnake serve --listen :9000 --db ./results.db`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagListen, "listen", "", "HTTP listen address (default from config)")
	serveCmd.Flags().StringVar(&flagServeDB, "db", "", "Path to results database (default from config)")
	serveCmd.Flags().BoolVar(&flagNoDB, "no-db", false, "Do not record results")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	if flagListen != "" {
		cfg.Server.Listen = flagListen
	}
	if flagServeDB != "" {
		cfg.Storage.ResultsDB = flagServeDB
	}

	var recorder battlesnake.ResultRecorder
	if !flagNoDB && cfg.Storage.ResultsDB != "" {
		results, err := store.OpenResults(cfg.Storage.ResultsDB)
		if err != nil {
			return err
		}
		defer results.Close()
		recorder = results
		logger.Info("recording results", "db", cfg.Storage.ResultsDB)
	}

	selector := newSelector(cfg, logger)
	server := battlesnake.NewServer(cfg.Snake, selector, recorder, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.ListenAndServe(ctx, cfg.Server); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
