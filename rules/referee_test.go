package rules

import (
	"testing"

	"github.com/brensch/snekguard/game"
)

var noFood = Settings{Food: FoodSettings{MinimumFood: 0, FoodSpawnChance: 0}}

func TestStep_HeadToHeadByLength(t *testing.T) {
	before := &game.GameState{
		Width:  7,
		Height: 7,
		Snakes: []game.Snake{
			{Id: "a", Health: 100, Body: []game.Point{{X: 2, Y: 3}, {X: 1, Y: 3}}},
			{Id: "b", Health: 10, Body: []game.Point{{X: 4, Y: 3}, {X: 5, Y: 3}, {X: 6, Y: 3}}},
		},
	}
	moves := map[string]game.Move{"a": game.MoveRight, "b": game.MoveLeft}
	after := Step(before, moves, nil, noFood)
	t.Logf("Before:\n%sAfter:\n%s", dumpState(before), dumpState(after))

	if len(after.Snakes) != 1 || after.Snakes[0].Id != "b" {
		t.Fatalf("longer snake should win the referee head-to-head")
	}
	if Winner(after) != "b" || !IsGameOver(after) {
		t.Fatalf("winner=%q over=%v", Winner(after), IsGameOver(after))
	}
}

func TestStep_WallAndBody(t *testing.T) {
	before := &game.GameState{
		Width:  7,
		Height: 7,
		Snakes: []game.Snake{
			{Id: "wall", Health: 100, Body: []game.Point{{X: 0, Y: 0}, {X: 1, Y: 0}}},
			{Id: "body", Health: 100, Body: []game.Point{{X: 3, Y: 2}, {X: 3, Y: 1}}},
			{Id: "block", Health: 100, Body: []game.Point{{X: 4, Y: 4}, {X: 3, Y: 4}, {X: 3, Y: 3}, {X: 2, Y: 3}}},
		},
	}
	moves := map[string]game.Move{"wall": game.MoveLeft, "body": game.MoveUp, "block": game.MoveRight}
	after := Step(before, moves, nil, noFood)
	t.Logf("After:\n%s", dumpState(after))

	if after.SnakeIndex("wall") >= 0 {
		t.Fatalf("snake leaving the board should be eliminated")
	}
	if after.SnakeIndex("body") >= 0 {
		t.Fatalf("snake hitting a body should be eliminated")
	}
	if after.SnakeIndex("block") < 0 {
		t.Fatalf("block should survive")
	}
	if after.Turn != 1 {
		t.Fatalf("turn=%d want=1", after.Turn)
	}
}

func TestStep_EatGrowsByDuplicatingTail(t *testing.T) {
	before := &game.GameState{
		Width:  7,
		Height: 7,
		Snakes: []game.Snake{
			{Id: "a", Health: 10, Body: []game.Point{{X: 1, Y: 1}, {X: 1, Y: 0}}},
		},
		Food: []game.Point{{X: 1, Y: 2}},
	}
	after := Step(before, map[string]game.Move{"a": game.MoveUp}, nil, noFood)

	a := after.Snakes[0]
	want := []game.Point{{X: 1, Y: 2}, {X: 1, Y: 1}, {X: 1, Y: 1}}
	if len(a.Body) != len(want) {
		t.Fatalf("len=%d want=%d", len(a.Body), len(want))
	}
	for i := range want {
		if a.Body[i] != want[i] {
			t.Fatalf("body[%d]=%v want=%v", i, a.Body[i], want[i])
		}
	}
	if a.Health != MaxHealth || len(after.Food) != 0 {
		t.Fatalf("health=%d food=%v", a.Health, after.Food)
	}
}

func TestStep_HazardDamage(t *testing.T) {
	before := &game.GameState{
		Width:   7,
		Height:  7,
		Snakes:  []game.Snake{{Id: "a", Health: 15, Body: []game.Point{{X: 1, Y: 1}, {X: 1, Y: 0}}}},
		Hazards: []game.Point{{X: 1, Y: 2}},
	}
	after := Step(before, map[string]game.Move{"a": game.MoveUp}, nil, Settings{HazardDamage: 14})
	if len(after.Snakes) != 0 {
		t.Fatalf("15 - 1 - 14 should starve the snake:\n%s", dumpState(after))
	}
}

func TestStep_MissingMoveKeepsHeading(t *testing.T) {
	before := &game.GameState{
		Width:  7,
		Height: 7,
		Snakes: []game.Snake{{Id: "a", Health: 50, Body: []game.Point{{X: 3, Y: 3}, {X: 2, Y: 3}}}},
	}
	after := Step(before, nil, nil, noFood)
	if after.Snakes[0].Head() != (game.Point{X: 4, Y: 3}) {
		t.Fatalf("head=%v want (4,3)", after.Snakes[0].Head())
	}
}

func TestFood_MinimumFoodIsEnforced(t *testing.T) {
	state := &game.GameState{
		Width:   5,
		Height:  5,
		Snakes:  []game.Snake{{Id: "me", Health: 100, Body: []game.Point{{X: 2, Y: 2}, {X: 2, Y: 1}, {X: 2, Y: 0}}}},
		Hazards: []game.Point{{X: 0, Y: 0}},
	}
	ApplyFoodSettings(state, nil, FoodSettings{MinimumFood: 3, FoodSpawnChance: 0})
	t.Logf("\n%s", dumpState(state))

	if len(state.Food) != 3 {
		t.Fatalf("food len=%d want=3", len(state.Food))
	}
	blocked := map[game.Point]bool{{X: 0, Y: 0}: true}
	for _, p := range state.Snakes[0].Body {
		blocked[p] = true
	}
	seen := map[game.Point]bool{}
	for _, f := range state.Food {
		if blocked[f] {
			t.Fatalf("food spawned on a snake or hazard at %v", f)
		}
		if seen[f] {
			t.Fatalf("food stacked at %v", f)
		}
		seen[f] = true
	}
}

func TestFood_SpawnChanceCanAddExtra(t *testing.T) {
	state := &game.GameState{
		Width:  5,
		Height: 5,
		Snakes: []game.Snake{{Id: "me", Health: 100, Body: []game.Point{{X: 2, Y: 2}, {X: 2, Y: 1}}}},
		Food:   []game.Point{{X: 0, Y: 0}},
	}
	ApplyFoodSettings(state, nil, FoodSettings{MinimumFood: 0, FoodSpawnChance: 100})
	if len(state.Food) != 2 {
		t.Fatalf("food len=%d want=2", len(state.Food))
	}
}

func TestFood_DeterministicWithoutRNG(t *testing.T) {
	mk := func() *game.GameState {
		return &game.GameState{
			Width:  11,
			Height: 11,
			Turn:   17,
			Snakes: []game.Snake{{Id: "me", Health: 100, Body: []game.Point{{X: 5, Y: 5}, {X: 5, Y: 4}}}},
		}
	}
	a, b := mk(), mk()
	ApplyFoodSettings(a, nil, FoodSettings{MinimumFood: 2})
	ApplyFoodSettings(b, nil, FoodSettings{MinimumFood: 2})
	if len(a.Food) != 2 || a.Food[0] != b.Food[0] || a.Food[1] != b.Food[1] {
		t.Fatalf("spawn not deterministic: %v vs %v", a.Food, b.Food)
	}
}
