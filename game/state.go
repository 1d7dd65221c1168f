// Package game defines the board snapshot types shared by the move selector,
// the rules engine and the API layer.
//
// A GameState is one turn of a Battlesnake game seen from the snake named by
// YouId. It is plain data: everything that consumes it treats it as read-only
// and uses Clone when it needs to advance a copy.
package game

// Point is a board coordinate.
// Coordinates follow Battlesnake conventions: (0,0) is bottom-left.
type Point struct {
	X int32
	Y int32
}

// Add returns p moved one cell in direction d.
func (p Point) Add(d Direction) Point {
	dx, dy := d.Delta()
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Snake bodies are head-first: Body[0] is the head, Body[1] the neck.
type Snake struct {
	Id     string
	Health int32
	Body   []Point
}

// Head returns the first body segment. ok is false for an empty body.
func (s *Snake) Head() (Point, bool) {
	if len(s.Body) == 0 {
		return Point{}, false
	}
	return s.Body[0], true
}

// Alive reports whether the snake is still on the board.
func (s *Snake) Alive() bool {
	return s.Health > 0 && len(s.Body) > 0
}

// GameState is the complete snapshot for one turn.
// YouId selects the snake the decision is being made for.
type GameState struct {
	Width  int32
	Height int32
	Snakes []Snake
	Food   []Point
	YouId  string
	Turn   int32
}

// You returns the snake identified by YouId, or nil when it is not on the board.
func (s *GameState) You() *Snake {
	if s == nil {
		return nil
	}
	for i := range s.Snakes {
		if s.Snakes[i].Id == s.YouId {
			return &s.Snakes[i]
		}
	}
	return nil
}

// InBounds reports whether p lies on the board.
func (s *GameState) InBounds(p Point) bool {
	return p.X >= 0 && p.X < s.Width && p.Y >= 0 && p.Y < s.Height
}

// Clone performs a deep copy of the game state.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}

	out := &GameState{
		Width:  s.Width,
		Height: s.Height,
		YouId:  s.YouId,
		Turn:   s.Turn,
	}

	if len(s.Food) > 0 {
		out.Food = make([]Point, len(s.Food))
		copy(out.Food, s.Food)
	}

	if len(s.Snakes) > 0 {
		out.Snakes = make([]Snake, len(s.Snakes))
		for i := range s.Snakes {
			out.Snakes[i] = Snake{Id: s.Snakes[i].Id, Health: s.Snakes[i].Health}
			if len(s.Snakes[i].Body) > 0 {
				out.Snakes[i].Body = make([]Point, len(s.Snakes[i].Body))
				copy(out.Snakes[i].Body, s.Snakes[i].Body)
			}
		}
	}

	return out
}

// WithYou returns a shallow copy of the state viewed from another snake.
// Slices are shared, so the result must be treated as read-only.
func (s *GameState) WithYou(id string) *GameState {
	out := *s
	out.YouId = id
	return &out
}
