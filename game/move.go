package game

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMove is returned by ParseMove for anything but the four tokens.
var ErrUnknownMove = errors.New("unknown move")

// Move is one of the four cardinal directions.
type Move int

const (
	MoveUp Move = iota
	MoveDown
	MoveLeft
	MoveRight
)

// AllMoves lists the moves in their canonical order.
var AllMoves = [4]Move{MoveUp, MoveDown, MoveLeft, MoveRight}

var moveNames = [4]string{"up", "down", "left", "right"}

var moveOffsets = [4]Point{
	MoveUp:    {X: 0, Y: 1},
	MoveDown:  {X: 0, Y: -1},
	MoveLeft:  {X: -1, Y: 0},
	MoveRight: {X: 1, Y: 0},
}

// Candidates returns a fresh slice of all four moves.
func Candidates() []Move {
	out := make([]Move, len(AllMoves))
	copy(out, AllMoves[:])
	return out
}

func (m Move) Valid() bool {
	return m >= MoveUp && m <= MoveRight
}

func (m Move) String() string {
	if !m.Valid() {
		return fmt.Sprintf("move(%d)", int(m))
	}
	return moveNames[m]
}

// Offset is the unit (dx, dy) step for m.
func (m Move) Offset() Point {
	if !m.Valid() {
		return Point{}
	}
	return moveOffsets[m]
}

// MarshalText renders m as its wire token, so JSON and logs show "up" not 0.
func (m Move) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMove, int(m))
	}
	return []byte(moveNames[m]), nil
}

func (m *Move) UnmarshalText(b []byte) error {
	parsed, err := ParseMove(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMove maps "up", "down", "left" or "right" (any case) to a Move.
func ParseMove(s string) (Move, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range moveNames {
		if name == s {
			return Move(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMove, s)
}

// MoveBetween returns the move that steps from a to the orthogonally adjacent b.
func MoveBetween(a, b Point) (Move, bool) {
	d := Point{X: b.X - a.X, Y: b.Y - a.Y}
	for _, m := range AllMoves {
		if moveOffsets[m] == d {
			return m, true
		}
	}
	return 0, false
}

// MoveNames renders moves as their wire tokens.
func MoveNames(moves []Move) []string {
	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = m.String()
	}
	return out
}
