// Package search proves moves non-lethal against worst-case opponents.
//
// The search is an AND/OR tree: self picks any move (OR), every opponent
// reply combination produced by rules.SimulateTurn must be survived (AND).
// The only cancellation point is an absolute wall-clock deadline that every
// frame polls; past it, a frame answers "safe" so that only eliminations
// proven before the deadline are ever trusted.
package search

import (
	"sync/atomic"
	"time"

	"github.com/brensch/snekguard/game"
	"github.com/brensch/snekguard/rules"
)

// DefaultMaxDepth caps iterative deepening when Config.MaxDepth is zero.
const DefaultMaxDepth = 32

type Config struct {
	Branch rules.BranchOptions
	// MaxDepth is the hard ceiling on search depth.
	MaxDepth int
	// Parallel evaluates top-level candidates concurrently within a depth.
	// Results are identical to the sequential order.
	Parallel bool
}

func (c Config) maxDepth() int {
	if c.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return c.MaxDepth
}

// Survives reports whether self can pick moves for maxDepth-depth more plies
// such that it is alive at the horizon whatever the opponents do.
// It returns true as soon as deadline has passed.
func Survives(state *game.GameState, depth, maxDepth int, deadline time.Time, cfg Config) bool {
	s := &searcher{cfg: cfg, deadline: deadline}
	return s.survives(state, depth, maxDepth)
}

// searcher carries the per-decision deadline and node counter. Nothing in
// it is shared between decisions.
type searcher struct {
	cfg      Config
	deadline time.Time
	nodes    atomic.Int64
}

func (s *searcher) expired() bool {
	return !time.Now().Before(s.deadline)
}

func (s *searcher) survives(state *game.GameState, depth, maxDepth int) bool {
	s.nodes.Add(1)
	if s.expired() {
		return true
	}

	you := state.You()
	if you == nil || len(you.Body) == 0 {
		return false
	}
	moves := rules.LegalMoves(you.Head(), state, game.AllMoves[:])
	if len(moves) == 0 {
		return false
	}
	if depth >= maxDepth {
		return true
	}

	for _, m := range moves {
		branches, err := rules.SimulateTurn(state, m, state.YouId, s.cfg.Branch)
		if err != nil {
			// Self was found above; SimulateTurn cannot lose it.
			continue
		}
		safe := true
		for _, b := range branches {
			if !s.survives(b, depth+1, maxDepth) {
				safe = false
				break
			}
		}
		if safe {
			return true
		}
	}
	return false
}
