// Package galaxy holds the game-world value types shared by the discovery activity:
// coordinates, resources, owned celestials, fleets and slot usage.
package galaxy

import (
	"fmt"
	"strconv"
	"strings"
)

// PositionsPerSystem is the number of planet positions in every solar system.
const PositionsPerSystem = 15

// Coordinate addresses a single position in the universe.
// It is a comparable value and is used directly as a map key.
type Coordinate struct {
	Galaxy   int `json:"galaxy"`
	System   int `json:"system"`
	Position int `json:"position"`
}

// String renders the coordinate as [g:s:p].
func (c Coordinate) String() string {
	return fmt.Sprintf("[%d:%d:%d]", c.Galaxy, c.System, c.Position)
}

// Valid reports whether all components are positive.
func (c Coordinate) Valid() bool {
	return c.Galaxy > 0 && c.System > 0 && c.Position > 0
}

// ParseCoordinate parses "g:s:p", with or without surrounding brackets.
func ParseCoordinate(s string) (Coordinate, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")

	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return Coordinate{}, fmt.Errorf("invalid coordinate %q: want g:s:p", s)
	}

	var vals [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Coordinate{}, fmt.Errorf("invalid coordinate %q: %w", s, err)
		}
		vals[i] = n
	}

	c := Coordinate{Galaxy: vals[0], System: vals[1], Position: vals[2]}
	if !c.Valid() {
		return Coordinate{}, fmt.Errorf("invalid coordinate %q: components must be positive", s)
	}
	return c, nil
}
