package rules

import (
	"github.com/brensch/snekguard/game"
)

// BranchOptions bounds the opponent fan-out of SimulateTurn.
type BranchOptions struct {
	// Radius skips opponents whose head is farther than this from self's head.
	// Skipped opponents keep their current position for the ply. Zero disables.
	Radius float64
	Metric game.Metric
	// Adversarial collapses the result to a single self-eliminated state as
	// soon as any reply combination kills self. Without it, lethal
	// combinations are dropped and only an all-lethal turn reads as lethal.
	Adversarial bool
}

type branchSnake struct {
	id    string
	moves []game.Move
}

// SimulateTurn applies move for moverID to a copy of state and then expands
// every combination of legal replies by the remaining snakes.
//
// Each returned state is independently owned. States where self was
// eliminated are dropped; if that drops all of them the result is the single
// post-mover state with self removed, so the set is never empty and still
// reads as lethal to the search. See BranchOptions.Adversarial for the
// stricter variant.
func SimulateTurn(state *game.GameState, move game.Move, moverID string, opts BranchOptions) ([]*game.GameState, error) {
	next := state.Clone()
	if err := ApplyMove(next, move, moverID); err != nil {
		return nil, err
	}

	moverIdx := next.SnakeIndex(moverID)

	var anchor game.Point
	hasAnchor := false
	if you := next.You(); you != nil && len(you.Body) > 0 {
		anchor, hasAnchor = you.Head(), true
	} else if moverIdx >= 0 && len(next.Snakes[moverIdx].Body) > 0 {
		anchor, hasAnchor = next.Snakes[moverIdx].Head(), true
	}

	branching := make([]branchSnake, 0, len(next.Snakes))
	for i := range next.Snakes {
		s := &next.Snakes[i]
		if i == moverIdx || len(s.Body) == 0 {
			continue
		}
		if opts.Radius > 0 && hasAnchor && opts.Metric.Distance(anchor, s.Head()) > opts.Radius {
			continue
		}
		moves := make([]game.Move, 0, 4)
		for _, m := range game.AllMoves {
			if isLegal(next, s.Head(), m, moverIdx) {
				moves = append(moves, m)
			}
		}
		// No legal move: the snake stays where it is for collision purposes.
		if len(moves) == 0 {
			continue
		}
		branching = append(branching, branchSnake{id: s.Id, moves: moves})
	}

	if len(branching) == 0 {
		return []*game.GameState{next}, nil
	}

	total := 1
	for _, b := range branching {
		total *= len(b.moves)
	}
	out := make([]*game.GameState, 0, total)

	idx := make([]int, len(branching))
	for {
		s := next.Clone()
		for k, b := range branching {
			if err := ApplyMove(s, b.moves[idx[k]], b.id); err != nil {
				return nil, err
			}
		}
		resolveHeadToHead(s)
		if s.You() != nil {
			out = append(out, s)
		} else if opts.Adversarial {
			return []*game.GameState{s}, nil
		}

		// Odometer over the move lists.
		k := len(idx) - 1
		for ; k >= 0; k-- {
			idx[k]++
			if idx[k] < len(branching[k].moves) {
				break
			}
			idx[k] = 0
		}
		if k < 0 {
			break
		}
	}

	if len(out) == 0 {
		next.RemoveSnake(next.YouId)
		return []*game.GameState{next}, nil
	}
	return out, nil
}

// resolveHeadToHead removes snakes whose heads share a cell. The lower health
// snake of each pair dies; equal health kills both.
func resolveHeadToHead(state *game.GameState) {
	dead := make(map[string]bool)
	for i := 0; i < len(state.Snakes); i++ {
		a := &state.Snakes[i]
		if len(a.Body) == 0 {
			continue
		}
		for j := i + 1; j < len(state.Snakes); j++ {
			b := &state.Snakes[j]
			if len(b.Body) == 0 || a.Head() != b.Head() {
				continue
			}
			switch {
			case a.Health < b.Health:
				dead[a.Id] = true
			case b.Health < a.Health:
				dead[b.Id] = true
			default:
				dead[a.Id] = true
				dead[b.Id] = true
			}
		}
	}
	if len(dead) == 0 {
		return
	}

	alive := state.Snakes[:0]
	for _, s := range state.Snakes {
		if !dead[s.Id] {
			alive = append(alive, s)
		}
	}
	state.Snakes = alive
}
