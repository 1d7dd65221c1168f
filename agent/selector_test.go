package agent

import (
	"bytes"
	"log/slog"
	"math/rand"
	"strings"
	"testing"

	"github.com/brensch/greedysnake/game"
)

// fixedChooser always returns the same index (mod n).
type fixedChooser int

func (f fixedChooser) Intn(n int) int { return int(f) % n }

// failChooser fails the test if the random fallback is consulted.
type failChooser struct{ t *testing.T }

func (f failChooser) Intn(n int) int {
	f.t.Helper()
	f.t.Fatalf("random fallback consulted with %d candidates", n)
	return 0
}

func board(w, h int32, you []game.Point, food []game.Point, others ...[]game.Point) *game.GameState {
	s := &game.GameState{
		Width:  w,
		Height: h,
		YouId:  "me",
		Food:   food,
		Snakes: []game.Snake{{Id: "me", Health: 100, Body: you}},
	}
	for i, body := range others {
		s.Snakes = append(s.Snakes, game.Snake{Id: string(rune('a' + i)), Health: 100, Body: body})
	}
	return s
}

func TestSelectMove_ContinuesStraightOnOpenBoard(t *testing.T) {
	state := board(11, 11, []game.Point{{X: 5, Y: 5}, {X: 5, Y: 4}}, nil)
	sel := New(Options{Chooser: failChooser{t}})

	dec := sel.Decide(state)
	if !dec.OK || dec.Move != game.Up {
		t.Fatalf("got=%s ok=%v want=up", dec.Move, dec.OK)
	}
	if dec.Reason != ReasonStraight {
		t.Fatalf("reason=%s want=%s", dec.Reason, ReasonStraight)
	}
	// Only the neck cell is blocked.
	want := []game.Direction{game.Up, game.Left, game.Right}
	if len(dec.Candidates) != len(want) {
		t.Fatalf("candidates=%v want=%v", dec.Candidates, want)
	}
	for i := range want {
		if dec.Candidates[i] != want[i] {
			t.Fatalf("candidates=%v want=%v", dec.Candidates, want)
		}
	}
}

func TestSelectMove_NeverLeftAtLeftWall(t *testing.T) {
	// Heading left into the wall: straight is gone, so the choice is random.
	state := board(11, 11, []game.Point{{X: 0, Y: 5}, {X: 1, Y: 5}, {X: 2, Y: 5}}, nil)
	for seed := int64(1); seed <= 200; seed++ {
		sel := New(Options{Chooser: rand.New(rand.NewSource(seed))})
		move, ok := sel.SelectMove(state)
		if !ok {
			t.Fatalf("seed %d: no move", seed)
		}
		if move == game.Left || move == game.Right {
			t.Fatalf("seed %d: got %s", seed, move)
		}
	}
}

func TestSelectMove_FoodBeatsStraight(t *testing.T) {
	state := board(11, 11, []game.Point{{X: 5, Y: 5}, {X: 5, Y: 4}}, []game.Point{{X: 3, Y: 5}})
	dec := New(Options{Chooser: failChooser{t}}).Decide(state)
	if dec.Move != game.Left || dec.Reason != ReasonFood {
		t.Fatalf("got=%s reason=%s want=left/food", dec.Move, dec.Reason)
	}
	if dec.TargetFood != (game.Point{X: 3, Y: 5}) {
		t.Fatalf("target=%v", dec.TargetFood)
	}
}

func TestSelectMove_FoodBoxRadius(t *testing.T) {
	cases := []struct {
		name   string
		food   game.Point
		want   game.Direction
		reason Reason
	}{
		// x is compared before y, so the diagonal corner resolves to right.
		{"corner +3,+3 included", game.Point{X: 8, Y: 8}, game.Right, ReasonFood},
		{"corner -3,-3 included", game.Point{X: 2, Y: 2}, game.Left, ReasonFood},
		{"+4,0 excluded", game.Point{X: 9, Y: 5}, game.Up, ReasonStraight},
		{"0,-4 excluded", game.Point{X: 5, Y: 1}, game.Up, ReasonStraight},
		{"+2,+4 excluded", game.Point{X: 7, Y: 9}, game.Up, ReasonStraight},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			state := board(11, 11, []game.Point{{X: 5, Y: 5}, {X: 5, Y: 4}}, []game.Point{tc.food})
			dec := New(Options{Chooser: failChooser{t}}).Decide(state)
			if dec.Move != tc.want || dec.Reason != tc.reason {
				t.Fatalf("got=%s/%s want=%s/%s", dec.Move, dec.Reason, tc.want, tc.reason)
			}
		})
	}
}

func TestSelectMove_FoodTieKeepsInputOrder(t *testing.T) {
	left := game.Point{X: 3, Y: 5}
	up := game.Point{X: 5, Y: 7}
	body := []game.Point{{X: 5, Y: 5}, {X: 5, Y: 4}}

	got, _ := New(Options{}).SelectMove(board(11, 11, body, []game.Point{left, up}))
	if got != game.Left {
		t.Fatalf("left first: got=%s want=left", got)
	}
	got, _ = New(Options{}).SelectMove(board(11, 11, body, []game.Point{up, left}))
	if got != game.Up {
		t.Fatalf("up first: got=%s want=up", got)
	}
}

func TestSelectMove_NearestFoodWins(t *testing.T) {
	far := game.Point{X: 8, Y: 5}
	near := game.Point{X: 4, Y: 5}
	state := board(11, 11, []game.Point{{X: 5, Y: 5}, {X: 5, Y: 4}}, []game.Point{far, near})
	if got, _ := New(Options{}).SelectMove(state); got != game.Left {
		t.Fatalf("got=%s want=left", got)
	}
}

func TestSelectMove_BlockedFoodFallsBackToStraight(t *testing.T) {
	// Food is to the left but another snake sits in the way.
	state := board(11, 11,
		[]game.Point{{X: 5, Y: 5}, {X: 5, Y: 4}},
		[]game.Point{{X: 3, Y: 5}},
		[]game.Point{{X: 4, Y: 6}, {X: 4, Y: 5}, {X: 4, Y: 4}},
	)
	dec := New(Options{Chooser: failChooser{t}}).Decide(state)
	if dec.Move != game.Up || dec.Reason != ReasonStraight {
		t.Fatalf("got=%s/%s want=up/straight", dec.Move, dec.Reason)
	}
	if dec.Candidates[0] != game.Up || len(dec.Candidates) != 2 {
		t.Fatalf("candidates=%v want=[up right]", dec.Candidates)
	}
}

func TestSelectMove_FoodOnHeadIsNoPreference(t *testing.T) {
	state := board(11, 11, []game.Point{{X: 5, Y: 5}, {X: 5, Y: 4}}, []game.Point{{X: 5, Y: 5}})
	dec := New(Options{Chooser: failChooser{t}}).Decide(state)
	if dec.HasFood {
		t.Fatalf("food on head should give no direction")
	}
	if dec.Move != game.Up || dec.Reason != ReasonStraight {
		t.Fatalf("got=%s/%s want=up/straight", dec.Move, dec.Reason)
	}
}

func TestSelectMove_SingleSurvivorSkipsRandom(t *testing.T) {
	// Bottom-left corner heading down: only right remains.
	state := board(11, 11, []game.Point{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 0, Y: 2}}, nil)
	dec := New(Options{Chooser: failChooser{t}}).Decide(state)
	if !dec.OK || dec.Move != game.Right {
		t.Fatalf("got=%s ok=%v want=right", dec.Move, dec.OK)
	}
	if dec.Reason != ReasonOnly {
		t.Fatalf("reason=%s want=%s", dec.Reason, ReasonOnly)
	}
}

func TestSelectMove_NoLegalMove(t *testing.T) {
	state := board(11, 11,
		[]game.Point{{X: 0, Y: 0}, {X: 0, Y: 1}},
		nil,
		[]game.Point{{X: 1, Y: 0}, {X: 2, Y: 0}},
	)
	dec := New(Options{Chooser: failChooser{t}}).Decide(state)
	if dec.OK {
		t.Fatalf("expected no legal move, got %s", dec.Move)
	}
	if dec.Reason != ReasonNone || len(dec.Candidates) != 0 {
		t.Fatalf("reason=%s candidates=%v", dec.Reason, dec.Candidates)
	}
}

func TestSelectMove_MissingEgoSnake(t *testing.T) {
	state := board(11, 11, []game.Point{{X: 5, Y: 5}, {X: 5, Y: 4}}, nil)
	state.YouId = "ghost"
	if _, ok := New(Options{}).SelectMove(state); ok {
		t.Fatalf("expected no move for missing ego snake")
	}
}

func TestSelectMove_LengthOneHasNoLastMove(t *testing.T) {
	state := board(11, 11, []game.Point{{X: 5, Y: 5}}, nil)
	dec := New(Options{Chooser: fixedChooser(2)}).Decide(state)
	if dec.HasLast {
		t.Fatalf("single segment snake should have no last move")
	}
	if dec.Move != game.Left || dec.Reason != ReasonRandom {
		t.Fatalf("got=%s/%s want=left/random", dec.Move, dec.Reason)
	}
}

func TestSelectMove_StackedStartHasNoLastMove(t *testing.T) {
	// Turn 0: all segments share the spawn cell.
	state := board(11, 11, []game.Point{{X: 1, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 1}}, nil)
	dec := New(Options{Chooser: fixedChooser(0)}).Decide(state)
	if dec.HasLast || dec.Reason != ReasonRandom || dec.Move != game.Up {
		t.Fatalf("got=%s/%s hasLast=%v", dec.Move, dec.Reason, dec.HasLast)
	}
}

func TestSelectMove_Deterministic(t *testing.T) {
	state := board(11, 11,
		[]game.Point{{X: 5, Y: 5}, {X: 4, Y: 5}, {X: 3, Y: 5}},
		[]game.Point{{X: 7, Y: 3}, {X: 0, Y: 10}},
		[]game.Point{{X: 6, Y: 6}, {X: 6, Y: 7}},
	)
	sel := New(Options{Chooser: failChooser{t}})
	first, ok := sel.SelectMove(state)
	if !ok {
		t.Fatalf("no move")
	}
	for i := 0; i < 20; i++ {
		if got, _ := sel.SelectMove(state); got != first {
			t.Fatalf("call %d: got=%s want=%s", i, got, first)
		}
	}
}

func TestSelectMove_CustomRadius(t *testing.T) {
	state := board(11, 11, []game.Point{{X: 5, Y: 5}, {X: 5, Y: 4}}, []game.Point{{X: 10, Y: 5}})
	if got, _ := New(Options{FoodRadius: 5}).SelectMove(state); got != game.Right {
		t.Fatalf("radius 5: got=%s want=right", got)
	}
	if got, _ := New(Options{FoodRadius: -1}).SelectMove(state); got != game.Up {
		t.Fatalf("default radius: got=%s want=up", got)
	}
}

func TestAvoidBody_OneRemovalPerSegmentInPriorityOrder(t *testing.T) {
	head := game.Point{X: 5, Y: 5}
	body := []game.Point{{X: 4, Y: 5}, {X: 5, Y: 4}, {X: 5, Y: 6}}
	got := avoidBody(allMoves(), head, body)
	if len(got) != 1 || got[0] != game.Right {
		t.Fatalf("got=%v want=[right]", got)
	}
	// Removing from a copy must not disturb the original set.
	orig := allMoves()
	_ = orig.remove(game.Down)
	if len(orig) != 4 || orig[1] != game.Down {
		t.Fatalf("remove mutated receiver: %v", orig)
	}
}

func TestSelectMove_TraceRecord(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	state := board(11, 11, []game.Point{{X: 5, Y: 5}, {X: 5, Y: 4}}, nil)
	state.Turn = 42

	New(Options{Logger: logger}).SelectMove(state)

	out := buf.String()
	for _, want := range []string{"turn=42", "move=up", "reason=straight", "candidates=\"[up left right]\""} {
		if !strings.Contains(out, want) {
			t.Fatalf("trace %q missing %q", out, want)
		}
	}
}

// Randomised boards: whatever is chosen must stay on the board and off every body.
func TestSelectMove_NeverHitsWallOrBody(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 2000; iter++ {
		w := int32(3 + rng.Intn(12))
		h := int32(3 + rng.Intn(12))
		state := &game.GameState{Width: w, Height: h, YouId: "s0", Turn: int32(iter)}
		nSnakes := 1 + rng.Intn(4)
		for i := 0; i < nSnakes; i++ {
			state.Snakes = append(state.Snakes, game.Snake{
				Id:     string(rune('s')) + string(rune('0'+i)),
				Health: 100,
				Body:   randomWalk(rng, w, h, 2+rng.Intn(8)),
			})
		}
		for i := rng.Intn(5); i > 0; i-- {
			state.Food = append(state.Food, game.Point{X: int32(rng.Intn(int(w))), Y: int32(rng.Intn(int(h)))})
		}

		sel := New(Options{Chooser: rng})
		move, ok := sel.SelectMove(state)
		if !ok {
			continue
		}
		next := state.Snakes[0].Body[0].Add(move)
		if !state.InBounds(next) {
			t.Fatalf("iter %d: %s leaves the board from %v (%dx%d)", iter, move, state.Snakes[0].Body[0], w, h)
		}
		for _, s := range state.Snakes {
			for _, p := range s.Body {
				if p == next {
					t.Fatalf("iter %d: %s runs into %s at %v", iter, move, s.Id, p)
				}
			}
		}
	}
}

func randomWalk(rng *rand.Rand, w, h int32, n int) []game.Point {
	p := game.Point{X: int32(rng.Intn(int(w))), Y: int32(rng.Intn(int(h)))}
	body := []game.Point{p}
	for len(body) < n {
		d := game.AllDirections[rng.Intn(4)]
		q := body[len(body)-1].Add(d)
		if q.X < 0 || q.X >= w || q.Y < 0 || q.Y >= h {
			continue
		}
		body = append(body, q)
	}
	return body
}
