package agent

import (
	"fmt"
	"time"

	"github.com/brensch/snekguard/game"
	"github.com/brensch/snekguard/rules"
	"github.com/brensch/snekguard/search"
)

// Config is everything a decision needs besides the board.
type Config struct {
	// Budget is the wall-clock time a decision may use.
	Budget time.Duration
	// Metric is used for food seeking and the opponent branch radius.
	Metric game.Metric
	// BranchRadius skips opponents farther than this from self. Zero disables.
	BranchRadius float64
	// WorstCase treats a move as lethal if any opponent reply kills self.
	WorstCase bool
	MaxDepth  int
	Parallel  bool
	// Seed feeds the final random tie-break. Zero picks a time-based seed.
	Seed int64
}

func DefaultConfig() Config {
	return Config{
		Budget:       300 * time.Millisecond,
		Metric:       game.Manhattan,
		BranchRadius: 6,
		WorstCase:    true,
		MaxDepth:     search.DefaultMaxDepth,
	}
}

// Validate rejects settings that must never reach the search.
func (c Config) Validate() error {
	if c.Budget <= 0 {
		return fmt.Errorf("budget must be positive, got %s", c.Budget)
	}
	if _, err := game.ParseMetric(c.Metric.String()); err != nil {
		return err
	}
	if c.BranchRadius < 0 {
		return fmt.Errorf("branch radius must not be negative, got %v", c.BranchRadius)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max depth must not be negative, got %d", c.MaxDepth)
	}
	return nil
}

func (c Config) searchConfig() search.Config {
	return search.Config{
		Branch:   rules.BranchOptions{Radius: c.BranchRadius, Metric: c.Metric, Adversarial: c.WorstCase},
		MaxDepth: c.MaxDepth,
		Parallel: c.Parallel,
	}
}
