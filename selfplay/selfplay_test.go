package selfplay

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/brensch/snekguard/game"
)

func fastConfig(players int) Config {
	cfg := DefaultConfig()
	cfg.Players = players
	cfg.MaxTurns = 40
	cfg.Agent.Budget = 5 * time.Millisecond
	cfg.Agent.MaxDepth = 3
	cfg.Agent.Seed = 7
	return cfg
}

func TestNewGame(t *testing.T) {
	cfg := fastConfig(4)
	state, err := NewGame(rand.New(rand.NewSource(1)), cfg)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	t.Logf("\n%s", Render(state))

	if len(state.Snakes) != 4 || len(state.Food) < 1 {
		t.Fatalf("snakes=%d food=%d", len(state.Snakes), len(state.Food))
	}
	heads := map[game.Point]bool{}
	for _, s := range state.Snakes {
		if len(s.Body) != 3 || s.Health != 100 {
			t.Fatalf("bad snake %+v", s)
		}
		if heads[s.Head()] {
			t.Fatalf("two snakes start on %v", s.Head())
		}
		heads[s.Head()] = true
		if state.HasFood(s.Head()) {
			t.Fatalf("food spawned under %s", s.Id)
		}
	}

	cfg.Players = 9
	if _, err := NewGame(rand.New(rand.NewSource(1)), cfg); err == nil {
		t.Fatal("expected error for 9 players")
	}
}

func TestPlayGame(t *testing.T) {
	cfg := fastConfig(2)

	turns := 0
	res, rows, err := PlayGame(context.Background(), "g1", 42, cfg, func(Turn) { turns++ })
	if err != nil {
		t.Fatalf("PlayGame: %v", err)
	}
	if res.Turns == 0 || res.Turns != turns {
		t.Fatalf("result turns=%d, callbacks=%d", res.Turns, turns)
	}
	if res.Turns > cfg.MaxTurns {
		t.Fatalf("ran %d turns past the cap", res.Turns)
	}
	if len(rows) < res.Turns {
		t.Fatalf("rows=%d for %d turns", len(rows), res.Turns)
	}
	for _, r := range rows {
		if r.GameID != "g1" || r.Source != Source || r.Actual != r.Move {
			t.Fatalf("bad row %+v", r)
		}
	}
}

func TestPlayGameCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := PlayGame(ctx, "g1", 1, fastConfig(2), nil); err == nil {
		t.Fatal("expected context error")
	}
}

func TestRender(t *testing.T) {
	state := &game.GameState{
		Width:   3,
		Height:  2,
		Food:    []game.Point{{X: 2, Y: 1}},
		Hazards: []game.Point{{X: 2, Y: 0}},
		Snakes: []game.Snake{
			{Id: "s", Body: []game.Point{{X: 0, Y: 1}, {X: 0, Y: 0}, {X: 1, Y: 0}}},
		},
	}
	want := "A . F\na a x\n"
	if got := Render(state); got != want {
		t.Fatalf("Render =\n%s\nwant\n%s", got, want)
	}
}
