// Package agent implements the greedy move selector.
//
// The selector looks at a single snapshot and nothing else: it filters the
// four moves against walls and snake bodies, then prefers nearby food, then
// continuing straight, then a random survivor. It keeps no state between
// calls apart from the injected random source.
package agent

import (
	"log/slog"

	"github.com/brensch/greedysnake/game"
)

// DefaultFoodRadius is the half-width of the square food search box.
const DefaultFoodRadius = 3

// Reason records which rule of the cascade produced a decision.
type Reason string

const (
	ReasonFood     Reason = "food"
	ReasonStraight Reason = "straight"
	ReasonRandom   Reason = "random"
	ReasonOnly     Reason = "only"
	ReasonNone     Reason = "none"
)

// Chooser picks the random fallback. *rand.Rand satisfies it.
type Chooser interface {
	Intn(n int) int
}

// Options configures a Selector. The zero value is usable.
type Options struct {
	// FoodRadius bounds food search on each axis independently.
	// Values <= 0 use DefaultFoodRadius.
	FoodRadius int
	// Chooser drives the random fallback. Nil uses a time-seeded LockedRand.
	Chooser Chooser
	// Logger receives one trace record per decision. Nil discards.
	Logger *slog.Logger
}

// Selector picks one move per snapshot.
// It is safe for concurrent use when its Chooser is.
type Selector struct {
	radius  int32
	chooser Chooser
	logger  *slog.Logger
}

func New(opts Options) *Selector {
	radius := opts.FoodRadius
	if radius <= 0 {
		radius = DefaultFoodRadius
	}
	chooser := opts.Chooser
	if chooser == nil {
		chooser = NewLockedRand(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Selector{
		radius:  int32(radius),
		chooser: chooser,
		logger:  logger,
	}
}

// Decision is the full outcome of one selection, including the surviving
// candidates and the preferences that were considered.
type Decision struct {
	Move       game.Direction
	OK         bool
	Reason     Reason
	Candidates []game.Direction

	LastMove   game.Direction
	HasLast    bool
	FoodMove   game.Direction
	HasFood    bool
	TargetFood game.Point
}

// SelectMove returns the chosen direction, or ok=false when every move is
// blocked or the ego snake is missing from the board.
func (s *Selector) SelectMove(state *game.GameState) (game.Direction, bool) {
	d := s.Decide(state)
	return d.Move, d.OK
}

// Decide runs the heuristic and reports how it got there.
func (s *Selector) Decide(state *game.GameState) Decision {
	var dec Decision
	you := state.You()
	if you == nil || len(you.Body) == 0 {
		dec.Reason = ReasonNone
		s.logger.Warn("ego snake not on board", "turn", state.Turn, "you", state.YouId)
		return dec
	}
	head := you.Body[0]

	if len(you.Body) > 1 {
		dec.LastMove, dec.HasLast = game.DirectionBetween(head, you.Body[1])
	}

	moves := allMoves()
	moves = avoidWalls(moves, head, state.Width, state.Height)
	for i := range state.Snakes {
		moves = avoidBody(moves, head, state.Snakes[i].Body)
	}
	dec.Candidates = moves

	if food, ok := nearestFood(head, state.Food, s.radius); ok {
		dec.TargetFood = food
		dec.FoodMove, dec.HasFood = game.DirectionBetween(food, head)
	}

	switch {
	case dec.HasFood && moves.has(dec.FoodMove):
		dec.Move, dec.OK, dec.Reason = dec.FoodMove, true, ReasonFood
	case dec.HasLast && moves.has(dec.LastMove):
		dec.Move, dec.OK, dec.Reason = dec.LastMove, true, ReasonStraight
	case len(moves) == 1:
		dec.Move, dec.OK, dec.Reason = moves[0], true, ReasonOnly
	case len(moves) > 1:
		dec.Move, dec.OK, dec.Reason = moves[s.chooser.Intn(len(moves))], true, ReasonRandom
	default:
		dec.Reason = ReasonNone
	}

	s.logger.Info("move",
		"turn", state.Turn,
		"you", state.YouId,
		"move", moveLabel(dec),
		"reason", string(dec.Reason),
		"candidates", moves.labels(),
	)
	return dec
}

func moveLabel(d Decision) string {
	if !d.OK {
		return "none"
	}
	return d.Move.String()
}
