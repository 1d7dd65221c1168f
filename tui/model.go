// Package tui is a terminal dashboard for watching arena games live.
package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/brensch/greedysnake/arena"
	"github.com/brensch/greedysnake/game"
)

// TurnMsg carries the position about to be played.
type TurnMsg arena.Turn

// GameDoneMsg is sent once per finished game.
type GameDoneMsg arena.Result

// DoneMsg is sent when the producer stops, with its error if any.
type DoneMsg struct{ Err error }

const maxRecent = 8

var (
	snakeColors = []lipgloss.Color{"2", "4", "5", "3", "6", "208", "13", "9"}
	foodStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	emptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	titleStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	boardStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func snakeStyle(i int) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(snakeColors[i%len(snakeColors)])
}

type Model struct {
	updates <-chan tea.Msg

	gameID  string
	state   *game.GameState
	moves   map[string]game.Direction
	reasons map[string]string

	games  int
	draws  int
	wins   map[string]int
	recent []string

	startTime time.Time
	done      bool
	err       error
}

func NewModel(updates <-chan tea.Msg) Model {
	return Model{
		updates:   updates,
		wins:      make(map[string]int),
		startTime: time.Now(),
	}
}

func (m Model) Init() tea.Cmd {
	return waitForUpdate(m.updates)
}

// waitForUpdate turns the next channel value into a message. A closed
// channel reports DoneMsg.
func waitForUpdate(updates <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-updates
		if !ok {
			return DoneMsg{}
		}
		return msg
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case TurnMsg:
		m.gameID = msg.GameID
		m.state = msg.State
		m.moves = msg.Moves
		m.reasons = make(map[string]string, len(msg.Reasons))
		for id, r := range msg.Reasons {
			m.reasons[id] = string(r)
		}
		return m, waitForUpdate(m.updates)
	case GameDoneMsg:
		m.games++
		winner := msg.Winner
		if winner == "" {
			m.draws++
			winner = "draw"
		} else {
			m.wins[winner]++
		}
		m.state = msg.Final
		m.moves, m.reasons = nil, nil
		line := fmt.Sprintf("%s: %s after %d turns", msg.GameID, winner, msg.Turns)
		m.recent = append([]string{line}, m.recent...)
		if len(m.recent) > maxRecent {
			m.recent = m.recent[:maxRecent]
		}
		return m, waitForUpdate(m.updates)
	case DoneMsg:
		m.done = true
		m.err = msg.Err
	}
	return m, nil
}

func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("greedysnake arena"))
	if m.gameID != "" {
		sb.WriteString(mutedStyle.Render("  " + m.gameID))
	}
	sb.WriteString("\n")

	if m.state != nil {
		sb.WriteString(boardStyle.Render(renderBoard(m.state)))
		sb.WriteString("\n")
		sb.WriteString(m.snakeLines())
	} else {
		sb.WriteString(mutedStyle.Render("waiting for first turn..."))
		sb.WriteString("\n")
	}

	elapsed := time.Since(m.startTime).Round(time.Second)
	fmt.Fprintf(&sb, "\nGames: %d  Draws: %d  Elapsed: %s\n", m.games, m.draws, elapsed)
	for _, id := range sortedWinners(m.wins) {
		fmt.Fprintf(&sb, "  %s: %d\n", id, m.wins[id])
	}

	if len(m.recent) > 0 {
		sb.WriteString("\nRecent games:\n")
		for _, line := range m.recent {
			sb.WriteString("  " + line + "\n")
		}
	}

	switch {
	case m.err != nil:
		fmt.Fprintf(&sb, "\nstopped: %v\n", m.err)
	case m.done:
		sb.WriteString("\nall games finished.\n")
	}
	sb.WriteString(mutedStyle.Render("\nPress q to quit."))
	sb.WriteString("\n")
	return sb.String()
}

func (m Model) snakeLines() string {
	var sb strings.Builder
	for i, s := range m.state.Snakes {
		glyph := string(arena.Glyph(arena.Cell{Kind: arena.CellHead, Snake: i}))
		line := fmt.Sprintf("%s %-8s len=%-3d hp=%-3d", glyph, s.Id, len(s.Body), s.Health)
		if mv, ok := m.moves[s.Id]; ok {
			line += fmt.Sprintf(" %-5s (%s)", mv, m.reasons[s.Id])
		}
		sb.WriteString(snakeStyle(i).Render(line))
		sb.WriteString("\n")
	}
	return sb.String()
}

func renderBoard(state *game.GameState) string {
	grid := arena.Grid(state)
	lines := make([]string, 0, state.Height)
	for y := int(state.Height) - 1; y >= 0; y-- {
		cells := make([]string, 0, state.Width)
		for x := 0; x < int(state.Width); x++ {
			c := grid[y][x]
			g := string(arena.Glyph(c))
			switch c.Kind {
			case arena.CellFood:
				g = foodStyle.Render(g)
			case arena.CellHead:
				g = snakeStyle(c.Snake).Bold(true).Render(g)
			case arena.CellBody:
				g = snakeStyle(c.Snake).Render(g)
			default:
				g = emptyStyle.Render(g)
			}
			cells = append(cells, g)
		}
		lines = append(lines, strings.Join(cells, " "))
	}
	return strings.Join(lines, "\n")
}

func sortedWinners(wins map[string]int) []string {
	ids := make([]string, 0, len(wins))
	for id := range wins {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if wins[ids[i]] != wins[ids[j]] {
			return wins[ids[i]] > wins[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids
}
