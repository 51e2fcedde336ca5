// Package agent turns a board into exactly one move: legal-move filtering,
// the survival search, then a food-seeking tie-break among survivors.
package agent

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/brensch/snekguard/game"
	"github.com/brensch/snekguard/rules"
	"github.com/brensch/snekguard/search"
)

// ErrShortBody is returned when self has no neck to avoid.
var ErrShortBody = errors.New("self body needs at least two segments")

// Decision is the move plus what the search learned on the way.
type Decision struct {
	Move       game.Move
	Candidates []game.Move
	Survivors  []game.Move
	Depth      int
	Fallback   bool
	Nodes      int64
	Elapsed    time.Duration
}

// Decide picks a move for state.YouId, spending at most until deadline on
// the search. The only errors are a missing self or a body too short to
// have a neck.
func Decide(state *game.GameState, deadline time.Time, cfg Config) (Decision, error) {
	start := time.Now()

	you, err := state.FindSnake(state.YouId)
	if err != nil {
		return Decision{}, fmt.Errorf("decide: %w", err)
	}
	if len(you.Body) < 2 {
		return Decision{}, fmt.Errorf("decide %q: %w", you.Id, ErrShortBody)
	}
	head := you.Head()

	d := Decision{Candidates: rules.LegalMoves(head, state, game.AllMoves[:])}

	res, err := search.FilterSurvivable(state, d.Candidates, deadline, cfg.searchConfig())
	if err != nil {
		return Decision{}, fmt.Errorf("decide: %w", err)
	}
	d.Survivors = res.Survivors
	d.Depth = res.Depth
	d.Fallback = res.Fallback
	d.Nodes = res.Nodes

	switch len(d.Survivors) {
	case 0:
		// Nothing is legal; any token will do.
		d.Move = game.MoveUp
	case 1:
		d.Move = d.Survivors[0]
	default:
		d.Move = tieBreak(state, head, d.Survivors, cfg)
	}

	d.Elapsed = time.Since(start)
	return d, nil
}

// tieBreak heads for the closest food, else away from a wall, else random.
func tieBreak(state *game.GameState, head game.Point, moves []game.Move, cfg Config) game.Move {
	if food, ok := cfg.Metric.Closest(head, state.Food); ok {
		if m, ok := towards(head, food, moves); ok {
			return m
		}
	}
	if m, ok := awayFromWall(state, head, moves); ok {
		return m
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	return moves[rng.Intn(len(moves))]
}

// towards prefers the axis with the larger gap.
func towards(head, goal game.Point, moves []game.Move) (game.Move, bool) {
	dx, dy := absInt32(head.X-goal.X), absInt32(head.Y-goal.Y)

	var want game.Move
	switch {
	case dx >= dy && head.X < goal.X:
		want = game.MoveRight
	case dx >= dy && head.X > goal.X:
		want = game.MoveLeft
	case dx < dy && head.Y < goal.Y:
		want = game.MoveUp
	case dx < dy && head.Y > goal.Y:
		want = game.MoveDown
	default:
		return 0, false
	}
	return want, contains(moves, want)
}

func awayFromWall(state *game.GameState, head game.Point, moves []game.Move) (game.Move, bool) {
	switch {
	case head.X == 0 && contains(moves, game.MoveRight):
		return game.MoveRight, true
	case head.X+1 == state.Width && contains(moves, game.MoveLeft):
		return game.MoveLeft, true
	case head.Y == 0 && contains(moves, game.MoveUp):
		return game.MoveUp, true
	case head.Y+1 == state.Height && contains(moves, game.MoveDown):
		return game.MoveDown, true
	}
	return 0, false
}

func contains(moves []game.Move, m game.Move) bool {
	for _, x := range moves {
		if x == m {
			return true
		}
	}
	return false
}

func absInt32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
