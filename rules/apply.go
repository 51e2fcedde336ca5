package rules

import (
	"github.com/brensch/snekguard/game"
)

// MaxHealth is the health a snake is restored to when it eats.
const MaxHealth = 100

// ApplyMove moves one snake in place: translate the head, grow on food,
// decay health, and advance the turn counter when the mover is self.
//
// A snake whose health reaches zero is removed before ApplyMove returns.
// Callers that need isolation must Clone first.
func ApplyMove(state *game.GameState, move game.Move, id string) error {
	idx := state.SnakeIndex(id)
	if idx < 0 {
		_, err := state.FindSnake(id)
		return err
	}
	s := &state.Snakes[idx]
	if len(s.Body) == 0 {
		return nil
	}

	newHead := s.Head().Add(move.Offset())
	if state.Wrapped() {
		newHead = state.Wrap(newHead)
	}

	ate := false
	for i, f := range state.Food {
		if f == newHead {
			ate = true
			state.Food = append(state.Food[:i:i], state.Food[i+1:]...)
			break
		}
	}

	// Always a fresh backing array; the previous body slice is never rewritten.
	keep := len(s.Body)
	if !ate {
		keep--
	}
	body := make([]game.Point, 0, keep+2)
	body = append(body, newHead)
	body = append(body, s.Body[:keep]...)
	s.Body = body

	s.Health--
	if ate {
		s.Health = MaxHealth
	}

	if id == state.YouId {
		state.Turn++
	}

	if s.Health <= 0 {
		state.Snakes = append(state.Snakes[:idx], state.Snakes[idx+1:]...)
	}
	return nil
}
