package arena

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/brensch/greedysnake/agent"
	"github.com/brensch/greedysnake/game"
	"github.com/brensch/greedysnake/rules"
	"github.com/brensch/greedysnake/store"
)

func testConfig(seed int64) Config {
	return Config{
		Width:    11,
		Height:   11,
		Snakes:   4,
		MaxTurns: 300,
		Food:     rules.DefaultFoodSettings,
		Seed:     seed,
	}
}

func seededSelector(seed int64) *agent.Selector {
	return agent.New(agent.Options{Chooser: rand.New(rand.NewSource(seed))})
}

func TestPlay_CompletesAndArchives(t *testing.T) {
	cfg := testConfig(7)
	var turns int
	res, err := Play(context.Background(), cfg, seededSelector(1), func(tr Turn) {
		turns++
		if len(tr.Moves) != len(tr.State.Snakes) {
			t.Fatalf("turn %d: %d moves for %d snakes", tr.State.Turn, len(tr.Moves), len(tr.State.Snakes))
		}
	})
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	t.Logf("final after %d turns, winner=%q\n%s", res.Turns, res.Winner, RenderBoard(res.Final))

	if res.GameID != "arena_7" {
		t.Fatalf("game id=%s", res.GameID)
	}
	if turns != res.Turns {
		t.Fatalf("observer saw %d turns, result says %d", turns, res.Turns)
	}
	if len(res.Rows) != res.Turns+1 {
		t.Fatalf("rows=%d want turns+1=%d", len(res.Rows), res.Turns+1)
	}
	if res.Turns < cfg.MaxTurns && !rules.IsGameOver(res.Final, cfg.Snakes) {
		t.Fatalf("stopped early without game over")
	}

	last := res.Rows[len(res.Rows)-1]
	for _, s := range last.Snakes {
		if s.Move != -1 {
			t.Fatalf("terminal row should carry no moves: %+v", s)
		}
	}
	for _, s := range res.Rows[0].Snakes {
		if s.Move < 0 || s.Reason == "" {
			t.Fatalf("first row should carry a move and reason: %+v", s)
		}
		want := float32(0)
		if res.Winner != "" {
			want = -1
			if s.ID == res.Winner {
				want = 1
			}
		}
		if s.Value != want {
			t.Fatalf("value for %s=%v want=%v", s.ID, s.Value, want)
		}
	}
}

func TestPlay_DeterministicForSeed(t *testing.T) {
	a, err := Play(context.Background(), testConfig(42), seededSelector(3), nil)
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	b, err := Play(context.Background(), testConfig(42), seededSelector(3), nil)
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	if a.Turns != b.Turns || a.Winner != b.Winner || RenderBoard(a.Final) != RenderBoard(b.Final) {
		t.Fatalf("same seed diverged: %d/%q vs %d/%q", a.Turns, a.Winner, b.Turns, b.Winner)
	}
}

func TestPlay_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Play(ctx, testConfig(1), seededSelector(1), nil)
	if err == nil {
		t.Fatalf("expected context error")
	}
	if res.Turns != 0 || len(res.Rows) != 0 {
		t.Fatalf("cancelled game progressed: %+v", res)
	}
}

func TestPlay_SingleSnakeRunsUntilDeathOrLimit(t *testing.T) {
	cfg := testConfig(5)
	cfg.Snakes = 1
	cfg.MaxTurns = 50
	res, err := Play(context.Background(), cfg, seededSelector(5), nil)
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	if res.Turns > 50 {
		t.Fatalf("turns=%d exceeds limit", res.Turns)
	}
	if len(res.Final.Snakes) == 1 && res.Turns != 50 {
		t.Fatalf("solo snake alive but game stopped at %d", res.Turns)
	}
}

func TestInitialState(t *testing.T) {
	cfg := testConfig(9)
	cfg.Snakes = 8
	state, err := initialState(cfg, rand.New(rand.NewSource(9)))
	if err != nil {
		t.Fatalf("initialState: %v", err)
	}
	t.Logf("\n%s", RenderBoard(state))

	seen := map[game.Point]bool{}
	for _, s := range state.Snakes {
		if len(s.Body) != 3 || s.Body[0] != s.Body[1] || s.Body[1] != s.Body[2] {
			t.Fatalf("snake %s not stacked: %v", s.Id, s.Body)
		}
		if seen[s.Body[0]] {
			t.Fatalf("two snakes start on %v", s.Body[0])
		}
		seen[s.Body[0]] = true
	}
	if len(state.Food) < cfg.Food.MinimumFood {
		t.Fatalf("food=%d want >= %d", len(state.Food), cfg.Food.MinimumFood)
	}

	cfg.Snakes = 9
	if _, err := initialState(cfg, rand.New(rand.NewSource(9))); err == nil {
		t.Fatalf("expected error for 9 snakes")
	}
	cfg.Snakes = 2
	cfg.Width = 1
	if _, err := initialState(cfg, rand.New(rand.NewSource(9))); err == nil {
		t.Fatalf("expected error for 1-wide board")
	}
}

func TestRun_WritesArchive(t *testing.T) {
	dir := t.TempDir()
	w, err := store.NewArchiveWriter(dir)
	if err != nil {
		t.Fatalf("NewArchiveWriter: %v", err)
	}

	cfg := testConfig(100)
	cfg.Snakes = 2
	var seen []string
	sum, err := Run(context.Background(), cfg, 3, seededSelector(2), w, nil, func(r Result) { seen = append(seen, r.GameID) })
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Games != 3 || len(seen) != 3 || seen[0] != "arena_100" || seen[2] != "arena_102" {
		t.Fatalf("summary=%+v seen=%v", sum, seen)
	}
	wins := 0
	for _, id := range sum.SortedWins() {
		wins += sum.Wins[id]
	}
	if wins+sum.Draws != 3 {
		t.Fatalf("wins=%d draws=%d", wins, sum.Draws)
	}

	path, err := w.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	rows, err := store.ReadArchive(path)
	if err != nil {
		t.Fatalf("ReadArchive: %v", err)
	}
	if len(rows) != w.Rows() {
		t.Fatalf("read %d rows, wrote %d", len(rows), w.Rows())
	}
	if w.Games() != 3 {
		t.Fatalf("games=%d", w.Games())
	}
}

func TestRenderBoard(t *testing.T) {
	state := &game.GameState{
		Width: 4, Height: 3, Turn: 2,
		Food: []game.Point{{X: 3, Y: 2}},
		Snakes: []game.Snake{
			{Id: "one", Health: 90, Body: []game.Point{{X: 0, Y: 0}, {X: 1, Y: 0}}},
			{Id: "two", Health: 80, Body: []game.Point{{X: 2, Y: 2}, {X: 2, Y: 1}}},
		},
	}
	got := RenderBoard(state)
	want := strings.Join([]string{
		"turn 2",
		". . B *",
		". . b .",
		"A a . .",
		"A one len=2 hp=90",
		"B two len=2 hp=80",
		"",
	}, "\n")
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}
