package battlesnake

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/brensch/greedysnake/agent"
	"github.com/brensch/greedysnake/config"
	"github.com/brensch/greedysnake/game"
	"github.com/brensch/greedysnake/store"
)

// NoMoveShout accompanies the placeholder move sent when every direction is
// blocked.
const NoMoveShout = "no legal move"

// Decider is satisfied by *agent.Selector.
type Decider interface {
	Decide(state *game.GameState) agent.Decision
}

// ResultRecorder keeps the game book. *store.Results satisfies it.
type ResultRecorder interface {
	RecordStart(ctx context.Context, rec store.GameRecord) error
	RecordEnd(ctx context.Context, id string, turns int, outcome store.Outcome) error
}

// Server answers the four Battlesnake endpoints.
type Server struct {
	info     InfoResponse
	selector Decider
	results  ResultRecorder
	logger   *slog.Logger
}

// NewServer builds a Server. results may be nil to disable bookkeeping.
func NewServer(info config.SnakeConfig, selector Decider, results ResultRecorder, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		info: InfoResponse{
			APIVersion: info.APIVersion,
			Author:     info.Author,
			Color:      info.Color,
			Head:       info.Head,
			Tail:       info.Tail,
			Version:    info.Version,
		},
		selector: selector,
		results:  results,
		logger:   logger,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /start", s.handleStart)
	mux.HandleFunc("POST /move", s.handleMove)
	mux.HandleFunc("POST /end", s.handleEnd)
	return mux
}

// ListenAndServe runs until ctx is cancelled, then drains in-flight requests
// for up to cfg.ShutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("battlesnake server listening", "addr", cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.info)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}

	s.logger.Info("game started", "game", req.Game.ID, "turn", req.Turn, "you", req.You.Name, "ruleset", req.Game.Ruleset.Name)

	if s.results != nil {
		rec := store.GameRecord{
			ID:        req.Game.ID,
			Ruleset:   req.Game.Ruleset.Name,
			Map:       req.Game.Map,
			SnakeID:   req.You.ID,
			StartedAt: time.Now(),
		}
		if err := s.results.RecordStart(r.Context(), rec); err != nil {
			s.logger.Error("record start failed", "game", req.Game.ID, "err", err)
		}
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}

	state := ToGameState(req)
	dec := s.selector.Decide(state)

	resp := MoveResponse{Move: dec.Move.String()}
	if !dec.OK {
		// The API requires some move; the snake dies either way.
		resp = MoveResponse{Move: game.Up.String(), Shout: NoMoveShout}
	}

	s.logger.Debug("move served",
		"game", req.Game.ID,
		"turn", req.Turn,
		"move", resp.Move,
		"reason", string(dec.Reason),
		"elapsed", time.Since(startTime),
	)

	writeJSON(w, resp)
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}

	outcome := Classify(req)
	s.logger.Info("game ended", "game", req.Game.ID, "turn", req.Turn, "result", string(outcome))

	if s.results != nil {
		if err := s.results.RecordEnd(r.Context(), req.Game.ID, req.Turn, outcome); err != nil {
			s.logger.Error("record end failed", "game", req.Game.ID, "err", err)
		}
	}
	w.WriteHeader(http.StatusOK)
}

// Classify reads the final board: won if we are still on it, draw if nobody
// is, lost otherwise.
func Classify(req *GameRequest) store.Outcome {
	for _, snake := range req.Board.Snakes {
		if snake.ID == req.You.ID {
			return store.OutcomeWon
		}
	}
	if len(req.Board.Snakes) == 0 {
		return store.OutcomeDraw
	}
	return store.OutcomeLost
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (*GameRequest, bool) {
	var req GameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return &req, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
