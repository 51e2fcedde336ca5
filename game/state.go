// Package game defines the core board state types for the survival search.
//
// A GameState is a single mutable snapshot. The search never shares one
// between sibling branches: every branch point works on its own Clone.
package game

import (
	"errors"
	"fmt"
)

// ErrSnakeNotFound is returned when a snake id is not among the live snakes.
var ErrSnakeNotFound = errors.New("snake not found")

// Ruleset names understood by the simulator.
const (
	RulesetStandard = "standard"
	RulesetWrapped  = "wrapped"
)

// Point is a board coordinate.
// Coordinates follow Battlesnake conventions: (0,0) is bottom-left.
type Point struct {
	X int32
	Y int32
}

// Add returns p translated by d.
func (p Point) Add(d Point) Point {
	return Point{X: p.X + d.X, Y: p.Y + d.Y}
}

type Snake struct {
	Id     string
	Health int32
	Body   []Point
}

// Head returns Body[0]. Callers must not ask for the head of an empty body.
func (s *Snake) Head() Point {
	return s.Body[0]
}

func (s *Snake) Length() int {
	return len(s.Body)
}

// GameState is everything the search needs for one turn.
// YouId names the snake the search is deciding for ("self").
// Turn counts self moves and is advanced only when self moves.
type GameState struct {
	Width   int32
	Height  int32
	Snakes  []Snake
	Food    []Point
	Hazards []Point
	Ruleset string
	YouId   string
	Turn    int32
}

// Wrapped reports whether the board has no walls.
func (s *GameState) Wrapped() bool {
	return s.Ruleset == RulesetWrapped
}

// InBounds reports whether p lies on the board.
func (s *GameState) InBounds(p Point) bool {
	return p.X >= 0 && p.X < s.Width && p.Y >= 0 && p.Y < s.Height
}

// Wrap folds p back onto the board for wrapped rulesets.
func (s *GameState) Wrap(p Point) Point {
	if s.Width > 0 {
		p.X = ((p.X % s.Width) + s.Width) % s.Width
	}
	if s.Height > 0 {
		p.Y = ((p.Y % s.Height) + s.Height) % s.Height
	}
	return p
}

// SnakeIndex returns the index of the snake with the given id, or -1.
func (s *GameState) SnakeIndex(id string) int {
	for i := range s.Snakes {
		if s.Snakes[i].Id == id {
			return i
		}
	}
	return -1
}

// FindSnake returns a pointer into s.Snakes for id.
// The pointer is invalidated by any change to the Snakes slice.
func (s *GameState) FindSnake(id string) (*Snake, error) {
	i := s.SnakeIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrSnakeNotFound, id)
	}
	return &s.Snakes[i], nil
}

// You returns the self snake, or nil if it has been eliminated.
func (s *GameState) You() *Snake {
	if i := s.SnakeIndex(s.YouId); i >= 0 {
		return &s.Snakes[i]
	}
	return nil
}

// RemoveSnake drops the snake with the given id, reporting whether it was present.
func (s *GameState) RemoveSnake(id string) bool {
	i := s.SnakeIndex(id)
	if i < 0 {
		return false
	}
	s.Snakes = append(s.Snakes[:i], s.Snakes[i+1:]...)
	return true
}

// HasFood reports whether p holds food.
func (s *GameState) HasFood(p Point) bool {
	for _, f := range s.Food {
		if f == p {
			return true
		}
	}
	return false
}

// Clone performs a deep copy of the game state.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}

	out := &GameState{
		Width:   s.Width,
		Height:  s.Height,
		Ruleset: s.Ruleset,
		YouId:   s.YouId,
		Turn:    s.Turn,
	}

	if len(s.Food) > 0 {
		out.Food = make([]Point, len(s.Food))
		copy(out.Food, s.Food)
	}
	if len(s.Hazards) > 0 {
		out.Hazards = make([]Point, len(s.Hazards))
		copy(out.Hazards, s.Hazards)
	}

	if len(s.Snakes) > 0 {
		out.Snakes = make([]Snake, len(s.Snakes))
		for i := range s.Snakes {
			out.Snakes[i] = Snake{Id: s.Snakes[i].Id, Health: s.Snakes[i].Health}
			if len(s.Snakes[i].Body) > 0 {
				// One spare slot so a growing move does not reallocate.
				out.Snakes[i].Body = make([]Point, len(s.Snakes[i].Body), len(s.Snakes[i].Body)+1)
				copy(out.Snakes[i].Body, s.Snakes[i].Body)
			}
		}
	}

	return out
}
