package agent

import (
	"math/rand"
	"sync"
	"time"

	"github.com/brensch/greedysnake/game"
)

// moveSet is the ordered candidate set. Order is up, down, left, right and is
// preserved by removals, so the random index maps to the same move for a
// given chooser.
type moveSet []game.Direction

func allMoves() moveSet {
	return moveSet{game.Up, game.Down, game.Left, game.Right}
}

func (m moveSet) has(d game.Direction) bool {
	for _, x := range m {
		if x == d {
			return true
		}
	}
	return false
}

func (m moveSet) remove(d game.Direction) moveSet {
	for i, x := range m {
		if x == d {
			return append(m[:i:i], m[i+1:]...)
		}
	}
	return m
}

func (m moveSet) labels() []string {
	out := make([]string, len(m))
	for i, d := range m {
		out[i] = d.String()
	}
	return out
}

func avoidWalls(moves moveSet, head game.Point, width, height int32) moveSet {
	if head.X == 0 {
		moves = moves.remove(game.Left)
	}
	if head.X == width-1 {
		moves = moves.remove(game.Right)
	}
	if head.Y == 0 {
		moves = moves.remove(game.Down)
	}
	if head.Y == height-1 {
		moves = moves.remove(game.Up)
	}
	return moves
}

// bodyCheckOrder is the per-segment priority: at most one move is dropped per
// segment, the first one still present whose target is that segment.
var bodyCheckOrder = [4]game.Direction{game.Left, game.Right, game.Down, game.Up}

func avoidBody(moves moveSet, head game.Point, body []game.Point) moveSet {
	for _, seg := range body {
		for _, d := range bodyCheckOrder {
			if moves.has(d) && head.Add(d) == seg {
				moves = moves.remove(d)
				break
			}
		}
	}
	return moves
}

// nearestFood returns the closest food inside the square box of the given
// radius around head. Ties keep the earliest food in input order.
func nearestFood(head game.Point, food []game.Point, radius int32) (game.Point, bool) {
	var best game.Point
	bestDist := int64(-1)
	for _, f := range food {
		if !inBox(head, f, radius) {
			continue
		}
		d := distSq(head, f)
		if bestDist < 0 || d < bestDist {
			best, bestDist = f, d
		}
	}
	return best, bestDist >= 0
}

func inBox(center, p game.Point, radius int32) bool {
	return p.X >= center.X-radius && p.X <= center.X+radius &&
		p.Y >= center.Y-radius && p.Y <= center.Y+radius
}

// distSq is the squared Euclidean distance; it ranks the same as the distance.
func distSq(a, b game.Point) int64 {
	dx := int64(a.X - b.X)
	dy := int64(a.Y - b.Y)
	return dx*dx + dy*dy
}

// LockedRand is a mutex-guarded *rand.Rand usable as a shared Chooser.
type LockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewLockedRand seeds a new source. A zero seed uses the current time.
func NewLockedRand(seed int64) *LockedRand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &LockedRand{r: rand.New(rand.NewSource(seed))}
}

func (l *LockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}
