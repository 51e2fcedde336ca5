// Package rules implements the per-turn mechanics the survival search runs on:
// the legal-move filter, the single-snake simulator, the opponent branch
// enumerator and a full simultaneous referee for local games.
package rules

import (
	"github.com/brensch/snekguard/game"
)

// LegalMoves returns the candidates whose destination from head is not a wall
// (standard rulesets only), any stored body cell of any snake, or a hazard.
//
// Occupancy is taken from the board as it is now, tails included, so a snake
// never steps onto a tail that is about to move. An empty result is valid and
// means no safe step exists. candidates is not modified.
func LegalMoves(head game.Point, state *game.GameState, candidates []game.Move) []game.Move {
	out := make([]game.Move, 0, len(candidates))
	for _, m := range candidates {
		if isLegal(state, head, m, -1) {
			out = append(out, m)
		}
	}
	return out
}

// SnakeLegalMoves runs LegalMoves over all four moves for the snake with id.
func SnakeLegalMoves(state *game.GameState, id string) ([]game.Move, error) {
	s, err := state.FindSnake(id)
	if err != nil {
		return nil, err
	}
	if len(s.Body) == 0 {
		return nil, nil
	}
	return LegalMoves(s.Head(), state, game.AllMoves[:]), nil
}

// isLegal checks one destination. The head of state.Snakes[contested], if
// contested >= 0, does not block: a head arriving there is a head-to-head.
func isLegal(state *game.GameState, head game.Point, m game.Move, contested int) bool {
	p := head.Add(m.Offset())

	// 1. Walls
	if state.Wrapped() {
		p = state.Wrap(p)
	} else if !state.InBounds(p) {
		return false
	}

	// 2. Bodies, including the mover's own neck and tail.
	for i := range state.Snakes {
		for j, bp := range state.Snakes[i].Body {
			if i == contested && j == 0 {
				continue
			}
			if bp == p {
				return false
			}
		}
	}

	// 3. Hazards
	for _, h := range state.Hazards {
		if h == p {
			return false
		}
	}

	return true
}
