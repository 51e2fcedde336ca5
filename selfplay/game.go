// Package selfplay runs local games between survival-search agents on the
// rules referee.
package selfplay

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/brensch/snekguard/agent"
	"github.com/brensch/snekguard/game"
	"github.com/brensch/snekguard/rules"
	"github.com/brensch/snekguard/store"
)

// Source tags self-play rows in the decision store.
const Source = "arena"

type Config struct {
	Players  int
	Width    int32
	Height   int32
	Ruleset  string
	MaxTurns int
	Agent    agent.Config
	Settings rules.Settings
}

func DefaultConfig() Config {
	cfg := agent.DefaultConfig()
	cfg.Budget = 50 * time.Millisecond
	return Config{
		Players:  4,
		Width:    11,
		Height:   11,
		Ruleset:  game.RulesetStandard,
		MaxTurns: 500,
		Agent:    cfg,
		Settings: rules.DefaultSettings,
	}
}

type GameResult struct {
	GameID   string
	WinnerId string
	Turns    int
	// Fallbacks counts decisions where every candidate was proven lethal.
	Fallbacks int
	// Surprises counts eliminations of a snake whose decision had not
	// fallen back, i.e. deaths the search did not see coming.
	Surprises int
}

// Turn is reported after every referee step.
type Turn struct {
	GameID    string
	State     *game.GameState
	Decisions map[string]agent.Decision
}

// NewGame places players on the standard start points with three stacked
// body segments and spawns the minimum food.
func NewGame(rng *rand.Rand, cfg Config) (*game.GameState, error) {
	starts := startPoints(cfg.Width, cfg.Height)
	if cfg.Players < 1 || cfg.Players > len(starts) {
		return nil, fmt.Errorf("players must be between 1 and %d, got %d", len(starts), cfg.Players)
	}
	rng.Shuffle(len(starts), func(i, j int) { starts[i], starts[j] = starts[j], starts[i] })

	state := &game.GameState{
		Width:   cfg.Width,
		Height:  cfg.Height,
		Ruleset: cfg.Ruleset,
	}
	for i := 0; i < cfg.Players; i++ {
		p := starts[i]
		state.Snakes = append(state.Snakes, game.Snake{
			Id:     fmt.Sprintf("snake%d", i+1),
			Health: rules.MaxHealth,
			Body:   []game.Point{p, p, p},
		})
	}
	state.YouId = state.Snakes[0].Id

	rules.ApplyFoodSettings(state, rng, rules.FoodSettings{MinimumFood: cfg.Settings.Food.MinimumFood})
	return state, nil
}

// startPoints are the corner and edge-midpoint cells one step in from the wall.
func startPoints(w, h int32) []game.Point {
	lo, hx, hy := int32(1), w-2, h-2
	mx, my := (w-1)/2, (h-1)/2
	return []game.Point{
		{X: lo, Y: lo}, {X: hx, Y: hy}, {X: lo, Y: hy}, {X: hx, Y: lo},
		{X: mx, Y: lo}, {X: mx, Y: hy}, {X: lo, Y: my}, {X: hx, Y: my},
	}
}

// PlayGame runs one game until a single snake is left, MaxTurns is reached,
// or ctx is done. Every snake decides concurrently on the same board. The
// returned rows are one per decision, with DiedNext filled in from the
// referee's outcome.
func PlayGame(ctx context.Context, gameID string, seed int64, cfg Config, onTurn func(Turn)) (GameResult, []store.DecisionRow, error) {
	rng := rand.New(rand.NewSource(seed))
	state, err := NewGame(rng, cfg)
	if err != nil {
		return GameResult{}, nil, err
	}

	res := GameResult{GameID: gameID}
	var rows []store.DecisionRow

	// A solo game runs until the snake dies; otherwise until one is left.
	over := func(s *game.GameState) bool {
		if cfg.Players == 1 {
			return len(s.Snakes) == 0
		}
		return rules.IsGameOver(s)
	}

	for !over(state) && (cfg.MaxTurns <= 0 || int(state.Turn) < cfg.MaxTurns) {
		if err := ctx.Err(); err != nil {
			return res, rows, err
		}

		decisions, err := decideAll(ctx, state, cfg.Agent)
		if err != nil {
			return res, rows, err
		}

		moves := make(map[string]game.Move, len(decisions))
		turnRows := make([]store.DecisionRow, 0, len(decisions))
		for _, s := range state.Snakes {
			d := decisions[s.Id]
			moves[s.Id] = d.Move

			view := state.Clone()
			view.YouId = s.Id
			row, err := store.NewDecisionRow(gameID, Source, view, d)
			if err != nil {
				return res, rows, err
			}
			turnRows = append(turnRows, row)
		}

		next := rules.Step(state, moves, rng, cfg.Settings)

		for i := range turnRows {
			row := &turnRows[i]
			row.Actual = row.Move
			if next.SnakeIndex(row.YouID) < 0 {
				row.DiedNext = true
				if !row.Fallback && len(row.Candidates) > 0 {
					res.Surprises++
				}
			}
			if row.Fallback {
				res.Fallbacks++
			}
		}
		rows = append(rows, turnRows...)

		state = next
		if onTurn != nil {
			onTurn(Turn{GameID: gameID, State: state, Decisions: decisions})
		}
	}

	res.Turns = int(state.Turn)
	res.WinnerId = rules.Winner(state)
	return res, rows, nil
}

// decideAll runs Decide for every live snake in parallel.
func decideAll(ctx context.Context, state *game.GameState, cfg agent.Config) (map[string]agent.Decision, error) {
	var (
		mu  sync.Mutex
		out = make(map[string]agent.Decision, len(state.Snakes))
	)
	deadline := time.Now().Add(cfg.Budget)

	g, _ := errgroup.WithContext(ctx)
	for _, s := range state.Snakes {
		view := state.Clone()
		view.YouId = s.Id
		g.Go(func() error {
			d, err := agent.Decide(view, deadline, cfg)
			if err != nil {
				return fmt.Errorf("snake %s: %w", view.YouId, err)
			}
			mu.Lock()
			out[view.YouId] = d
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
