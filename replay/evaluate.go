package replay

import (
	"github.com/brensch/greedysnake/agent"
	"github.com/brensch/greedysnake/game"
)

// Decider is satisfied by *agent.Selector.
type Decider interface {
	Decide(state *game.GameState) agent.Decision
}

// Tally counts decisions and how many matched the played move.
type Tally struct {
	Total  int
	Agreed int
}

func (t Tally) Rate() float64 {
	if t.Total == 0 {
		return 0
	}
	return float64(t.Agreed) / float64(t.Total)
}

func (t *Tally) add(agreed bool) {
	t.Total++
	if agreed {
		t.Agreed++
	}
}

// Report is the agreement between the selector and a replayed game.
type Report struct {
	GameID string
	Tally
	// NoMove counts positions where the selector found no candidate.
	NoMove   int
	ByReason map[agent.Reason]Tally
	BySnake  map[string]Tally
}

// Evaluate replays every turn from every living snake's perspective. The
// played move is inferred from the head position in the following frame;
// turns where it cannot be inferred are skipped.
func Evaluate(g *Game, selector Decider) Report {
	rep := Report{
		GameID:   g.ID,
		ByReason: make(map[agent.Reason]Tally),
		BySnake:  make(map[string]Tally),
	}

	for i := 0; i+1 < len(g.Frames); i++ {
		next := headsByID(g.Frames[i+1])
		for _, s := range g.Frames[i].Snakes {
			if !s.Alive() {
				continue
			}
			nextHead, ok := next[s.ID]
			if !ok {
				continue
			}
			played, ok := game.DirectionBetween(nextHead, s.Body[0].Point())
			if !ok {
				continue
			}

			dec := selector.Decide(g.State(i, s.ID))
			agreed := dec.OK && dec.Move == played
			if !dec.OK {
				rep.NoMove++
			}

			rep.Tally.add(agreed)

			r := rep.ByReason[dec.Reason]
			r.add(agreed)
			rep.ByReason[dec.Reason] = r

			sn := rep.BySnake[s.ID]
			sn.add(agreed)
			rep.BySnake[s.ID] = sn
		}
	}
	return rep
}

func headsByID(f Frame) map[string]game.Point {
	out := make(map[string]game.Point, len(f.Snakes))
	for _, s := range f.Snakes {
		if len(s.Body) > 0 {
			out[s.ID] = s.Body[0].Point()
		}
	}
	return out
}

// Merge folds other into r. The game id is kept.
func (r *Report) Merge(other Report) {
	r.Total += other.Total
	r.Agreed += other.Agreed
	r.NoMove += other.NoMove
	if r.ByReason == nil {
		r.ByReason = make(map[agent.Reason]Tally)
	}
	if r.BySnake == nil {
		r.BySnake = make(map[string]Tally)
	}
	for k, v := range other.ByReason {
		t := r.ByReason[k]
		t.Total += v.Total
		t.Agreed += v.Agreed
		r.ByReason[k] = t
	}
	for k, v := range other.BySnake {
		t := r.BySnake[k]
		t.Total += v.Total
		t.Agreed += v.Agreed
		r.BySnake[k] = t
	}
}
