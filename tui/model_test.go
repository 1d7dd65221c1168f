package tui

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/brensch/greedysnake/agent"
	"github.com/brensch/greedysnake/arena"
	"github.com/brensch/greedysnake/game"
	"github.com/brensch/greedysnake/rules"
)

func sampleState() *game.GameState {
	return &game.GameState{
		Width: 5, Height: 5, Turn: 3,
		Food: []game.Point{{X: 4, Y: 4}},
		Snakes: []game.Snake{
			{Id: "snake1", Health: 97, Body: []game.Point{{X: 1, Y: 1}, {X: 1, Y: 0}}},
			{Id: "snake2", Health: 88, Body: []game.Point{{X: 3, Y: 3}, {X: 3, Y: 2}}},
		},
	}
}

func TestModel_TurnAndGameDone(t *testing.T) {
	updates := make(chan tea.Msg)
	m := NewModel(updates)

	if v := m.View(); !strings.Contains(v, "waiting for first turn") {
		t.Fatalf("initial view:\n%s", v)
	}

	next, cmd := m.Update(TurnMsg{
		GameID:  "arena_1",
		State:   sampleState(),
		Moves:   map[string]game.Direction{"snake1": game.Up, "snake2": game.Left},
		Reasons: map[string]agent.Reason{"snake1": agent.ReasonStraight, "snake2": agent.ReasonFood},
	})
	if cmd == nil {
		t.Fatalf("turn should wait for the next update")
	}
	m = next.(Model)
	v := m.View()
	t.Logf("\n%s", v)
	for _, want := range []string{"arena_1", "snake1", "snake2", "(straight)", "(food)", "hp=88"} {
		if !strings.Contains(v, want) {
			t.Fatalf("view missing %q:\n%s", want, v)
		}
	}

	next, _ = m.Update(GameDoneMsg{GameID: "arena_1", Winner: "snake2", Turns: 40, Final: sampleState()})
	m = next.(Model)
	next, _ = m.Update(GameDoneMsg{GameID: "arena_2", Turns: 12, Final: sampleState()})
	m = next.(Model)
	if m.games != 2 || m.draws != 1 || m.wins["snake2"] != 1 {
		t.Fatalf("games=%d draws=%d wins=%v", m.games, m.draws, m.wins)
	}
	if len(m.recent) != 2 || !strings.HasPrefix(m.recent[0], "arena_2: draw") {
		t.Fatalf("recent=%v", m.recent)
	}

	next, cmd = m.Update(DoneMsg{Err: errors.New("boom")})
	m = next.(Model)
	if cmd != nil || !m.done {
		t.Fatalf("done should stop listening")
	}
	if v := m.View(); !strings.Contains(v, "stopped: boom") {
		t.Fatalf("view missing error:\n%s", v)
	}
}

func TestModel_Quit(t *testing.T) {
	m := NewModel(nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestWaitForUpdate_ClosedChannel(t *testing.T) {
	ch := make(chan tea.Msg)
	close(ch)
	if _, ok := waitForUpdate(ch)().(DoneMsg); !ok {
		t.Fatalf("closed channel should yield DoneMsg")
	}
}

func TestProduce(t *testing.T) {
	cfg := arena.Config{Width: 7, Height: 7, Snakes: 2, MaxTurns: 30, Food: rules.DefaultFoodSettings, Seed: 11}
	sel := agent.New(agent.Options{Chooser: rand.New(rand.NewSource(11))})

	out := make(chan tea.Msg, 16)
	errCh := make(chan error, 1)
	go func() { errCh <- Produce(context.Background(), cfg, 2, sel, nil, 0, out) }()

	var turns, done int
	for msg := range out {
		switch msg.(type) {
		case TurnMsg:
			turns++
		case GameDoneMsg:
			done++
		}
	}
	if err := <-errCh; err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if done != 2 || turns == 0 {
		t.Fatalf("turns=%d done=%d", turns, done)
	}
}

func TestProduce_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := arena.Config{Width: 11, Height: 11, Snakes: 2, MaxTurns: 500, Food: rules.DefaultFoodSettings, Seed: 3}
	sel := agent.New(agent.Options{Chooser: rand.New(rand.NewSource(3))})

	out := make(chan tea.Msg)
	errCh := make(chan error, 1)
	go func() { errCh <- Produce(ctx, cfg, 5, sel, nil, 0, out) }()

	<-out
	cancel()
	for range out {
	}
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v want context.Canceled", err)
	}
}
