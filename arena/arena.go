// Package arena plays local games where every snake is driven by the greedy
// selector, and archives them.
package arena

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/brensch/greedysnake/agent"
	"github.com/brensch/greedysnake/config"
	"github.com/brensch/greedysnake/game"
	"github.com/brensch/greedysnake/rules"
	"github.com/brensch/greedysnake/store"
)

const source = "arena"

// Decider is satisfied by *agent.Selector.
type Decider interface {
	Decide(state *game.GameState) agent.Decision
}

type Config struct {
	Width    int32
	Height   int32
	Snakes   int
	MaxTurns int
	Food     rules.FoodSettings
	// Seed drives start positions and food. 0 picks a time-based seed.
	Seed int64
}

// FromConfig maps the file/env settings onto an arena Config.
func FromConfig(c config.ArenaConfig, seed int64) Config {
	return Config{
		Width:    int32(c.Width),
		Height:   int32(c.Height),
		Snakes:   c.Snakes,
		MaxTurns: c.MaxTurns,
		Food:     c.Food,
		Seed:     seed,
	}
}

// Turn is reported to observers before the moves are applied.
type Turn struct {
	GameID  string
	State   *game.GameState
	Moves   map[string]game.Direction
	Reasons map[string]agent.Reason
}

type Result struct {
	GameID string
	// Winner is empty on a draw or when MaxTurns was reached with several
	// snakes alive.
	Winner string
	Turns  int
	Final  *game.GameState
	Rows   []store.ArchiveTurnRow
}

// Play runs one game to completion. Every living snake decides with the same
// selector from its own perspective; a snake without a legal move plays up.
// On cancellation the partial result is returned with ctx.Err().
func Play(ctx context.Context, cfg Config, selector Decider, onTurn func(Turn)) (Result, error) {
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	state, err := initialState(cfg, rng)
	if err != nil {
		return Result{}, err
	}
	gameID := fmt.Sprintf("arena_%d", cfg.Seed)
	startedWith := len(state.Snakes)
	rows := make([]store.ArchiveTurnRow, 0, 128)

	for {
		if err := ctx.Err(); err != nil {
			return Result{GameID: gameID, Turns: int(state.Turn), Final: state, Rows: rows}, err
		}
		if rules.IsGameOver(state, startedWith) || (cfg.MaxTurns > 0 && int(state.Turn) >= cfg.MaxTurns) {
			break
		}

		moves := make(map[string]game.Direction, len(state.Snakes))
		reasons := make(map[string]agent.Reason, len(state.Snakes))
		for _, s := range state.Snakes {
			dec := selector.Decide(state.WithYou(s.Id))
			move := dec.Move
			if !dec.OK {
				move = game.Up
			}
			moves[s.Id] = move
			reasons[s.Id] = dec.Reason
		}

		rows = append(rows, store.NewArchiveRow(gameID, source, state, moves, reasonLabels(reasons)))
		if onTurn != nil {
			onTurn(Turn{GameID: gameID, State: state, Moves: moves, Reasons: reasons})
		}

		state = rules.NextState(state, moves, rng, cfg.Food)
	}

	// Terminal position as a final row with no moves.
	rows = append(rows, store.NewArchiveRow(gameID, source, state, nil, nil))

	winner := ""
	if rules.IsGameOver(state, startedWith) {
		winner = rules.Winner(state)
	}
	assignValues(rows, winner)

	return Result{GameID: gameID, Winner: winner, Turns: int(state.Turn), Final: state, Rows: rows}, nil
}

func reasonLabels(reasons map[string]agent.Reason) map[string]string {
	out := make(map[string]string, len(reasons))
	for id, r := range reasons {
		out[id] = string(r)
	}
	return out
}

// assignValues sets the outcome on every row once the winner is known:
// 1 for the winner, -1 for the rest, 0 for everyone on a draw.
func assignValues(rows []store.ArchiveTurnRow, winner string) {
	for i := range rows {
		for j := range rows[i].Snakes {
			switch {
			case winner == "":
				rows[i].Snakes[j].Value = 0
			case rows[i].Snakes[j].ID == winner:
				rows[i].Snakes[j].Value = 1
			default:
				rows[i].Snakes[j].Value = -1
			}
		}
	}
}

// initialState places snakes stacked three deep on the standard start
// points (corners first, then edge midpoints) and seeds the minimum food.
func initialState(cfg Config, rng *rand.Rand) (*game.GameState, error) {
	if cfg.Width < 2 || cfg.Height < 2 {
		return nil, fmt.Errorf("board %dx%d too small", cfg.Width, cfg.Height)
	}
	if cfg.Snakes < 1 {
		return nil, errors.New("need at least one snake")
	}

	starts := startPoints(cfg.Width, cfg.Height, rng)
	if len(starts) < cfg.Snakes {
		return nil, fmt.Errorf("board %dx%d has room for %d snakes, want %d", cfg.Width, cfg.Height, len(starts), cfg.Snakes)
	}

	state := &game.GameState{
		Width:  cfg.Width,
		Height: cfg.Height,
		Snakes: make([]game.Snake, 0, cfg.Snakes),
	}
	for i := 0; i < cfg.Snakes; i++ {
		p := starts[i]
		id := fmt.Sprintf("snake%d", i+1)
		state.Snakes = append(state.Snakes, game.Snake{
			Id:     id,
			Health: rules.MaxHealth,
			Body:   []game.Point{p, p, p},
		})
	}
	state.YouId = state.Snakes[0].Id

	rules.ApplyFoodSettings(state, rng, rules.FoodSettings{MinimumFood: cfg.Food.MinimumFood, FoodSpawnChance: 0})
	return state, nil
}

func startPoints(width, height int32, rng *rand.Rand) []game.Point {
	lo, hx, hy := int32(1), width-2, height-2
	mx, my := (width-1)/2, (height-1)/2
	if hx < lo {
		hx = lo
	}
	if hy < lo {
		hy = lo
	}

	corners := []game.Point{{X: lo, Y: lo}, {X: lo, Y: hy}, {X: hx, Y: lo}, {X: hx, Y: hy}}
	edges := []game.Point{{X: mx, Y: lo}, {X: lo, Y: my}, {X: hx, Y: my}, {X: mx, Y: hy}}
	rng.Shuffle(len(corners), func(i, j int) { corners[i], corners[j] = corners[j], corners[i] })
	rng.Shuffle(len(edges), func(i, j int) { edges[i], edges[j] = edges[j], edges[i] })

	seen := make(map[game.Point]bool, 8)
	out := make([]game.Point, 0, 8)
	for _, p := range append(corners, edges...) {
		if seen[p] || p.X >= width || p.Y >= height {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// Summary aggregates a batch of games.
type Summary struct {
	Games int
	Draws int
	Turns int
	Wins  map[string]int
}

// Run plays games sequentially, seeding game i with cfg.Seed+i, and appends
// every game to writer when it is non-nil. The writer is not finalized.
func Run(ctx context.Context, cfg Config, games int, selector Decider, writer *store.ArchiveWriter, logger *slog.Logger, onGame func(Result)) (Summary, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	sum := Summary{Wins: make(map[string]int)}
	for i := 0; i < games; i++ {
		gameCfg := cfg
		gameCfg.Seed = cfg.Seed + int64(i)

		res, err := Play(ctx, gameCfg, selector, nil)
		if err != nil {
			return sum, err
		}

		sum.Games++
		sum.Turns += res.Turns
		if res.Winner == "" {
			sum.Draws++
		} else {
			sum.Wins[res.Winner]++
		}

		if writer != nil {
			if err := writer.WriteGame(res.Rows); err != nil {
				return sum, fmt.Errorf("archive game %s: %w", res.GameID, err)
			}
		}

		logger.Info("game finished", "game", res.GameID, "winner", winnerLabel(res.Winner), "turns", res.Turns)
		if onGame != nil {
			onGame(res)
		}
	}
	return sum, nil
}

func winnerLabel(w string) string {
	if w == "" {
		return "draw"
	}
	return w
}

// SortedWins returns the winners ordered by win count, then id.
func (s Summary) SortedWins() []string {
	ids := make([]string, 0, len(s.Wins))
	for id := range s.Wins {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if s.Wins[ids[i]] != s.Wins[ids[j]] {
			return s.Wins[ids[i]] > s.Wins[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids
}
