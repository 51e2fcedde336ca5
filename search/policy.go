package search

import (
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/brensch/snekguard/game"
	"github.com/brensch/snekguard/rules"
)

// Result is the outcome of FilterSurvivable.
type Result struct {
	// Survivors is never empty when candidates was not.
	Survivors []game.Move
	// Depth is the deepest level completed before the deadline.
	Depth int
	// DeathDepth records the depth at which each eliminated move was proven lethal.
	DeathDepth map[game.Move]int
	// Fallback is set when every candidate was eliminated and Survivors holds
	// the ones that lasted longest.
	Fallback bool
	Nodes    int64
}

type candidate struct {
	move     game.Move
	branches []*game.GameState
}

// FilterSurvivable iteratively deepens the survival search over each
// candidate for self, removing certain deaths, until the deadline, the depth
// ceiling, or a single candidate is left.
//
// The only error is an identity failure: self missing from state.
func FilterSurvivable(state *game.GameState, candidates []game.Move, deadline time.Time, cfg Config) (Result, error) {
	res := Result{DeathDepth: make(map[game.Move]int)}
	if len(candidates) == 0 {
		return res, nil
	}
	if _, err := state.FindSnake(state.YouId); err != nil {
		return res, err
	}

	s := &searcher{cfg: cfg, deadline: deadline}

	alive := make([]candidate, 0, len(candidates))
	for _, m := range candidates {
		branches, err := rules.SimulateTurn(state, m, state.YouId, cfg.Branch)
		if err != nil {
			return res, err
		}
		alive = append(alive, candidate{move: m, branches: branches})
	}

	// One candidate left means the answer can no longer change: if it dies
	// later it is still the deepest survivor.
	for l := 1; l <= cfg.maxDepth() && len(alive) > 1 && !s.expired(); l++ {
		dies := s.certainDeaths(alive, l)

		kept := alive[:0]
		for i, c := range alive {
			if dies[i] {
				res.DeathDepth[c.move] = l
				continue
			}
			kept = append(kept, c)
		}
		alive = kept

		if !s.expired() {
			res.Depth = l
		}
	}

	if len(alive) > 0 {
		res.Survivors = make([]game.Move, len(alive))
		for i, c := range alive {
			res.Survivors[i] = c.move
		}
	} else {
		res.Fallback = true
		res.Survivors = deepest(candidates, res.DeathDepth)
	}
	res.Nodes = s.nodes.Load()
	return res, nil
}

// certainDeaths evaluates every live candidate at depth l.
func (s *searcher) certainDeaths(alive []candidate, l int) []bool {
	dies := make([]bool, len(alive))
	if !s.cfg.Parallel || len(alive) < 2 {
		for i := range alive {
			dies[i] = s.certainDeath(alive[i], l)
		}
		return dies
	}

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range alive {
		g.Go(func() error {
			dies[i] = s.certainDeath(alive[i], l)
			return nil
		})
	}
	_ = g.Wait()
	return dies
}

func (s *searcher) certainDeath(c candidate, l int) bool {
	if s.expired() {
		return false
	}
	for _, b := range c.branches {
		if !s.survives(b, 1, l) {
			return true
		}
	}
	return false
}

func deepest(candidates []game.Move, deathDepth map[game.Move]int) []game.Move {
	best := 0
	for _, m := range candidates {
		best = max(best, deathDepth[m])
	}
	out := make([]game.Move, 0, len(candidates))
	for _, m := range candidates {
		if deathDepth[m] == best {
			out = append(out, m)
		}
	}
	return out
}
