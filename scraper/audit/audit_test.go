package audit

import (
	"testing"
	"time"

	"github.com/brensch/snekguard/agent"
	"github.com/brensch/snekguard/game"
	"github.com/brensch/snekguard/scraper/downloader"
)

func coords(ps ...[2]int) []downloader.Coord {
	out := make([]downloader.Coord, len(ps))
	for i, p := range ps {
		out[i] = downloader.Coord{X: p[0], Y: p[1]}
	}
	return out
}

// trappedGame has "a" coiled in the bottom-left corner with no legal move
// and "b" free in the middle. "a" dies on turn 1; "b" moves up.
func trappedGame() *downloader.Game {
	return &downloader.Game{
		ID:     "g1",
		Width:  5,
		Height: 5,
		Frames: []downloader.Frame{
			{
				Turn: 0,
				Snakes: []downloader.Snake{
					{ID: "a", Health: 90, Body: coords([2]int{0, 0}, [2]int{0, 1}, [2]int{1, 1}, [2]int{1, 0})},
					{ID: "b", Health: 90, Body: coords([2]int{3, 3}, [2]int{3, 2}, [2]int{3, 1})},
				},
			},
			{
				Turn: 1,
				Snakes: []downloader.Snake{
					{ID: "a", Health: 89, Body: coords([2]int{1, 0}, [2]int{0, 0}, [2]int{0, 1}, [2]int{1, 1}),
						Death: &downloader.Death{Cause: "snake-self-collision", Turn: 1}},
					{ID: "b", Health: 89, Body: coords([2]int{3, 4}, [2]int{3, 3}, [2]int{3, 2})},
				},
			},
		},
	}
}

func testConfig() agent.Config {
	cfg := agent.DefaultConfig()
	cfg.MaxDepth = 4
	cfg.Seed = 1
	return cfg
}

func TestGame(t *testing.T) {
	rows, stats, err := Game(trappedGame(), testConfig(), 100*time.Millisecond)
	if err != nil {
		t.Fatalf("Game: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2 (final frame is not audited)", len(rows))
	}
	if stats.Decisions != 2 || stats.Deaths != 1 || stats.Predicted != 1 || stats.Disagreements != 0 {
		t.Fatalf("stats = %+v", stats)
	}

	a, b := rows[0], rows[1]
	if a.YouID != "a" || !a.DiedNext || len(a.Candidates) != 0 || a.Actual != "right" {
		t.Fatalf("row a = %+v", a)
	}
	if b.YouID != "b" || b.DiedNext || b.Actual != "up" || b.Source != Source {
		t.Fatalf("row b = %+v", b)
	}
}

func TestActualMoveWrapped(t *testing.T) {
	state := &game.GameState{
		Width:   5,
		Height:  5,
		Ruleset: game.RulesetWrapped,
		YouId:   "a",
		Snakes: []game.Snake{
			{Id: "a", Health: 50, Body: []game.Point{{X: 4, Y: 2}, {X: 3, Y: 2}}},
		},
	}
	next := &downloader.Snake{ID: "a", Body: coords([2]int{0, 2}, [2]int{4, 2})}

	m, ok := actualMove(state, next)
	if !ok || m != game.MoveRight {
		t.Fatalf("actualMove = %s, %v; want right", m, ok)
	}

	state.Ruleset = game.RulesetStandard
	if _, ok := actualMove(state, next); ok {
		t.Fatal("non-adjacent head accepted without wrapping")
	}
}
