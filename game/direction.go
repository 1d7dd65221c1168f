package game

import "fmt"

// Direction is one of the four cardinal moves.
type Direction uint8

const (
	Up Direction = iota
	Down
	Left
	Right
)

// AllDirections lists every move in canonical order.
var AllDirections = [4]Direction{Up, Down, Left, Right}

var directionNames = [4]string{"up", "down", "left", "right"}

// String returns the Battlesnake wire label.
func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return fmt.Sprintf("Direction(%d)", uint8(d))
}

// Delta returns the grid offset for d. y grows upward.
func (d Direction) Delta() (dx, dy int32) {
	switch d {
	case Up:
		return 0, 1
	case Down:
		return 0, -1
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	}
	return 0, 0
}

// Opposite returns the reverse move.
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	default:
		return Left
	}
}

// ParseDirection maps a wire label back to a Direction.
func ParseDirection(s string) (Direction, error) {
	for i, name := range directionNames {
		if name == s {
			return Direction(i), nil
		}
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// DirectionBetween returns the direction of travel from `from` to `to`.
// The x axis is compared first, then y. ok is false when the points coincide.
func DirectionBetween(to, from Point) (d Direction, ok bool) {
	switch {
	case to.X > from.X:
		return Right, true
	case to.X < from.X:
		return Left, true
	case to.Y > from.Y:
		return Up, true
	case to.Y < from.Y:
		return Down, true
	}
	return 0, false
}
