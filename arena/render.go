package arena

import (
	"fmt"
	"strings"

	"github.com/brensch/greedysnake/game"
)

// CellKind classifies one board square.
type CellKind uint8

const (
	CellEmpty CellKind = iota
	CellFood
	CellHead
	CellBody
)

// Cell is one square of a rendered board. Snake is the index into
// state.Snakes for head and body cells.
type Cell struct {
	Kind  CellKind
	Snake int
}

// Grid lays the state out row-major with y=0 at index 0.
// Later snakes overwrite earlier ones; heads overwrite bodies.
func Grid(state *game.GameState) [][]Cell {
	grid := make([][]Cell, state.Height)
	for y := range grid {
		grid[y] = make([]Cell, state.Width)
	}

	for _, f := range state.Food {
		if state.InBounds(f) {
			grid[f.Y][f.X] = Cell{Kind: CellFood}
		}
	}
	for i, s := range state.Snakes {
		for j := len(s.Body) - 1; j >= 0; j-- {
			p := s.Body[j]
			if !state.InBounds(p) {
				continue
			}
			kind := CellBody
			if j == 0 {
				kind = CellHead
			}
			grid[p.Y][p.X] = Cell{Kind: kind, Snake: i}
		}
	}
	return grid
}

// Glyph is the ASCII character for a cell: '.' empty, '*' food, an upper
// case letter per snake head and the lower case letter for its body.
func Glyph(c Cell) byte {
	switch c.Kind {
	case CellFood:
		return '*'
	case CellHead:
		return byte('A' + c.Snake%26)
	case CellBody:
		return byte('a' + c.Snake%26)
	default:
		return '.'
	}
}

// RenderBoard draws the board with the top row first, followed by a legend.
func RenderBoard(state *game.GameState) string {
	grid := Grid(state)

	var sb strings.Builder
	fmt.Fprintf(&sb, "turn %d\n", state.Turn)
	for y := int(state.Height) - 1; y >= 0; y-- {
		for x := 0; x < int(state.Width); x++ {
			sb.WriteByte(Glyph(grid[y][x]))
			if x < int(state.Width)-1 {
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('\n')
	}
	for i, s := range state.Snakes {
		fmt.Fprintf(&sb, "%c %s len=%d hp=%d\n", Glyph(Cell{Kind: CellHead, Snake: i}), s.Id, len(s.Body), s.Health)
	}
	return sb.String()
}
