package rules

import (
	"math/rand"

	"github.com/brensch/snekguard/game"
)

// Settings are the referee knobs for local games.
type Settings struct {
	Food         FoodSettings
	HazardDamage int32
}

// DefaultSettings matches the standard Battlesnake server.
var DefaultSettings = Settings{Food: DefaultFoodSettings, HazardDamage: 14}

// Step advances a local game with one move per live snake, using the official
// elimination rules: out of bounds, starvation, body collisions, and
// head-to-head by length. Snakes without an entry in moves keep moving in
// the direction of their neck, or up.
//
// This is the ground truth the arena plays on. It is deliberately separate
// from SimulateTurn, which is the search's worst-case model.
func Step(state *game.GameState, moves map[string]game.Move, rng *rand.Rand, settings Settings) *game.GameState {
	next := state.Clone()
	next.Turn++

	// 1. Move heads and bodies
	eaten := make(map[game.Point]bool)
	for i := range next.Snakes {
		s := &next.Snakes[i]
		if len(s.Body) == 0 {
			continue
		}
		move, ok := moves[s.Id]
		if !ok {
			move = defaultMove(s)
		}
		newHead := s.Head().Add(move.Offset())
		if next.Wrapped() {
			newHead = next.Wrap(newHead)
		}
		body := make([]game.Point, 0, len(s.Body)+1)
		body = append(body, newHead)
		body = append(body, s.Body[:len(s.Body)-1]...)
		s.Body = body
		s.Health--
	}

	// 2. Hazard damage
	if settings.HazardDamage > 0 {
		for i := range next.Snakes {
			s := &next.Snakes[i]
			for _, h := range next.Hazards {
				if h == s.Head() {
					s.Health -= settings.HazardDamage
					break
				}
			}
		}
	}

	// 3. Feed. Several snakes may share one food.
	for i := range next.Snakes {
		s := &next.Snakes[i]
		if next.HasFood(s.Head()) {
			s.Health = MaxHealth
			s.Body = append(s.Body, s.Body[len(s.Body)-1])
			eaten[s.Head()] = true
		}
	}
	if len(eaten) > 0 {
		remaining := make([]game.Point, 0, len(next.Food))
		for _, f := range next.Food {
			if !eaten[f] {
				remaining = append(remaining, f)
			}
		}
		next.Food = remaining
	}

	// 4. Eliminations, all judged against the post-move board.
	dead := make(map[string]bool)
	for i := range next.Snakes {
		s := &next.Snakes[i]
		head := s.Head()
		if s.Health <= 0 || !next.InBounds(head) {
			dead[s.Id] = true
			continue
		}
		for j := range next.Snakes {
			other := &next.Snakes[j]
			for k, p := range other.Body {
				if k == 0 {
					continue // heads are handled below
				}
				if p == head {
					dead[s.Id] = true
				}
			}
		}
	}
	for i := 0; i < len(next.Snakes); i++ {
		a := &next.Snakes[i]
		for j := i + 1; j < len(next.Snakes); j++ {
			b := &next.Snakes[j]
			if a.Head() != b.Head() {
				continue
			}
			switch {
			case len(a.Body) > len(b.Body):
				dead[b.Id] = true
			case len(b.Body) > len(a.Body):
				dead[a.Id] = true
			default:
				dead[a.Id] = true
				dead[b.Id] = true
			}
		}
	}

	alive := make([]game.Snake, 0, len(next.Snakes))
	for _, s := range next.Snakes {
		if !dead[s.Id] {
			alive = append(alive, s)
		}
	}
	next.Snakes = alive

	applyFoodRules(next, rng, settings.Food, 0x53544550) // "STEP"
	return next
}

func defaultMove(s *game.Snake) game.Move {
	if len(s.Body) > 1 {
		if m, ok := game.MoveBetween(s.Body[1], s.Body[0]); ok {
			return m
		}
	}
	return game.MoveUp
}

// IsGameOver reports whether at most one snake is left.
func IsGameOver(state *game.GameState) bool {
	return len(state.Snakes) <= 1
}

// Winner returns the id of the last snake standing, or "" for a draw or a
// game still in progress.
func Winner(state *game.GameState) string {
	if len(state.Snakes) == 1 {
		return state.Snakes[0].Id
	}
	return ""
}
