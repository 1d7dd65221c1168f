// Package rules implements standard Battlesnake turn resolution used by the
// local arena: simultaneous moves, feeding, starvation, collisions and food
// spawning.
package rules

import (
	"math/rand"

	"github.com/brensch/greedysnake/game"
)

// MaxHealth is the health a snake is restored to after eating.
const MaxHealth = 100

// LegalMoves returns the moves for the snake identified by YouId that stay on
// the board and off every current body segment.
func LegalMoves(state *game.GameState) []game.Direction {
	you := state.You()
	if you == nil || !you.Alive() {
		return nil
	}

	head := you.Body[0]
	moves := make([]game.Direction, 0, 4)
	for _, d := range game.AllDirections {
		if isSafe(state, head.Add(d)) {
			moves = append(moves, d)
		}
	}
	return moves
}

func isSafe(state *game.GameState, p game.Point) bool {
	if !state.InBounds(p) {
		return false
	}
	// Conservative: tails count as occupied even though they usually move.
	for _, s := range state.Snakes {
		for _, bp := range s.Body {
			if bp == p {
				return false
			}
		}
	}
	return true
}

// NextState advances the game one turn with a move per living snake.
// A living snake without an entry in moves is eliminated.
// rng drives food spawning; nil uses a deterministic seed derived from the state.
func NextState(state *game.GameState, moves map[string]game.Direction, rng *rand.Rand, settings FoodSettings) *game.GameState {
	next := state.Clone()
	next.Turn++

	// 1. Move heads and drop tails.
	eliminated := make(map[string]bool)
	for i := range next.Snakes {
		s := &next.Snakes[i]
		if !s.Alive() {
			eliminated[s.Id] = true
			continue
		}
		move, ok := moves[s.Id]
		if !ok {
			eliminated[s.Id] = true
			continue
		}
		newHead := s.Body[0].Add(move)
		body := make([]game.Point, 0, len(s.Body)+1)
		body = append(body, newHead)
		body = append(body, s.Body[:len(s.Body)-1]...)
		s.Body = body
		s.Health--
	}

	// 2. Feed: a snake whose head lands on food eats it and grows by
	// duplicating its new tail. Several snakes may share one food.
	eaten := make(map[game.Point]bool)
	for i := range next.Snakes {
		s := &next.Snakes[i]
		if eliminated[s.Id] {
			continue
		}
		for _, f := range next.Food {
			if f == s.Body[0] {
				eaten[f] = true
				s.Health = MaxHealth
				s.Body = append(s.Body, s.Body[len(s.Body)-1])
				break
			}
		}
	}
	if len(eaten) > 0 {
		remaining := make([]game.Point, 0, len(next.Food))
		for _, f := range next.Food {
			if !eaten[f] {
				remaining = append(remaining, f)
			}
		}
		next.Food = remaining
	}

	// 3. Starvation and walls first; collisions are then resolved
	// simultaneously among the snakes still standing.
	for i := range next.Snakes {
		s := &next.Snakes[i]
		if eliminated[s.Id] {
			continue
		}
		if s.Health <= 0 || !next.InBounds(s.Body[0]) {
			eliminated[s.Id] = true
		}
	}

	collided := make(map[string]bool)
	for i := range next.Snakes {
		s := &next.Snakes[i]
		if eliminated[s.Id] {
			continue
		}
		head := s.Body[0]
		for j := range next.Snakes {
			other := &next.Snakes[j]
			if eliminated[other.Id] {
				continue
			}
			if hitsBody(head, other.Body) {
				collided[s.Id] = true
				break
			}
			if i != j && head == other.Body[0] && len(s.Body) <= len(other.Body) {
				collided[s.Id] = true
				break
			}
		}
	}
	for id := range collided {
		eliminated[id] = true
	}

	survivors := make([]game.Snake, 0, len(next.Snakes))
	for _, s := range next.Snakes {
		if eliminated[s.Id] {
			continue
		}
		survivors = append(survivors, s)
	}
	next.Snakes = survivors

	applyFoodRules(next, rng, settings, 0x4E455854) // "NEXT"
	return next
}

// hitsBody reports whether p lands on a non-head segment of body.
func hitsBody(p game.Point, body []game.Point) bool {
	for _, bp := range body[1:] {
		if bp == p {
			return true
		}
	}
	return false
}

// IsGameOver returns true when at most one snake is left on a multi-snake
// board, or no snake is left at all.
func IsGameOver(state *game.GameState, startedWith int) bool {
	living := 0
	for _, s := range state.Snakes {
		if s.Alive() {
			living++
		}
	}
	if startedWith <= 1 {
		return living == 0
	}
	return living <= 1
}

// Winner returns the id of the single surviving snake, or "" for a draw or an
// unfinished game.
func Winner(state *game.GameState) string {
	winner := ""
	living := 0
	for _, s := range state.Snakes {
		if s.Alive() {
			living++
			winner = s.Id
		}
	}
	if living != 1 {
		return ""
	}
	return winner
}
