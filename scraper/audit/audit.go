// Package audit replays downloaded games through the survival search and
// records, per snake and turn, what the search would have done next to what
// actually happened.
package audit

import (
	"time"

	"github.com/brensch/snekguard/agent"
	"github.com/brensch/snekguard/game"
	"github.com/brensch/snekguard/scraper/downloader"
	"github.com/brensch/snekguard/store"
)

// Source tags audit rows in the decision store.
const Source = "replay"

// Stats summarises one audited game.
type Stats struct {
	Decisions int
	// Deaths counts snakes eliminated on the turn after a decision, and
	// Predicted those the search had already seen no way out for.
	Deaths    int
	Predicted int
	// Disagreements counts turns where a snake that survived made a move
	// the search had ruled out.
	Disagreements int
}

// Game audits every (frame, live snake) pair except the final frame, which
// has no outcome. Each search gets budget of wall-clock time.
func Game(g *downloader.Game, cfg agent.Config, budget time.Duration) ([]store.DecisionRow, Stats, error) {
	var (
		rows  []store.DecisionRow
		stats Stats
	)
	for i := 0; i+1 < len(g.Frames); i++ {
		for _, s := range g.Frames[i].Snakes {
			if !s.Alive() || len(s.Body) < 2 {
				continue
			}
			state, err := g.State(i, s.ID)
			if err != nil {
				return nil, stats, err
			}
			d, err := agent.Decide(state, time.Now().Add(budget), cfg)
			if err != nil {
				return nil, stats, err
			}
			row, err := store.NewDecisionRow(g.ID, Source, state, d)
			if err != nil {
				return nil, stats, err
			}

			next := g.Snake(i+1, s.ID)
			if next != nil && len(next.Body) > 0 {
				if m, ok := actualMove(state, next); ok {
					row.Actual = m.String()
				}
				row.DiedNext = !next.Alive()
			}

			stats.Decisions++
			if row.DiedNext {
				stats.Deaths++
				if d.Fallback || len(d.Candidates) == 0 {
					stats.Predicted++
				}
			} else if row.Actual != "" && !contains(row.Survivors, row.Actual) {
				stats.Disagreements++
			}
			rows = append(rows, row)
		}
	}
	return rows, stats, nil
}

// actualMove recovers the move from the next frame's head, undoing the wrap
// when the ruleset wraps.
func actualMove(state *game.GameState, next *downloader.Snake) (game.Move, bool) {
	you := state.You()
	if you == nil {
		return 0, false
	}
	head := you.Head()
	to := game.Point{X: int32(next.Body[0].X), Y: int32(next.Body[0].Y)}
	for _, m := range game.AllMoves {
		dest := head.Add(m.Offset())
		if state.Wrapped() {
			dest = state.Wrap(dest)
		}
		if dest == to {
			return m, true
		}
	}
	return 0, false
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
