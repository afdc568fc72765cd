package vessel

import (
	"fmt"
	"strings"
)

// Direction is one of the ten movement directions.
type Direction int

const (
	North Direction = iota
	East
	South
	West
	Up
	Down
	Northwest
	Northeast
	Southeast
	Southwest
)

// NumDirections is the number of valid directions.
const NumDirections = 10

// Directions lists every direction in scan order.
var Directions = []Direction{North, East, South, West, Up, Down, Northwest, Northeast, Southeast, Southwest}

var directionNames = [...]string{"north", "east", "south", "west", "up", "down", "northwest", "northeast", "southeast", "southwest"}

var directionAbbrev = map[string]Direction{
	"n": North, "e": East, "s": South, "w": West, "u": Up, "d": Down,
	"nw": Northwest, "ne": Northeast, "se": Southeast, "sw": Southwest,
}

var opposite = [...]Direction{
	North: South, East: West, South: North, West: East, Up: Down, Down: Up,
	Northwest: Southeast, Northeast: Southwest, Southeast: Northwest, Southwest: Northeast,
}

func (d Direction) String() string {
	if d < 0 || d >= NumDirections {
		return "nowhere"
	}
	return directionNames[d]
}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	return opposite[d]
}

// Delta returns the planar grid step for the direction. Up and down do not
// move on the grid.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case North:
		return 0, 1
	case South:
		return 0, -1
	case East:
		return 1, 0
	case West:
		return -1, 0
	case Northeast:
		return 1, 1
	case Northwest:
		return -1, 1
	case Southeast:
		return 1, -1
	case Southwest:
		return -1, -1
	}
	return 0, 0
}

// ParseDirection accepts full names and the usual abbreviations.
func ParseDirection(s string) (Direction, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if d, ok := directionAbbrev[key]; ok {
		return d, nil
	}
	for i, name := range directionNames {
		if name == key {
			return Direction(i), nil
		}
	}
	return North, fmt.Errorf("'%s' is not a valid direction", s)
}
