package game

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrUnknownMetric is a configuration error; it is raised before any search starts.
var ErrUnknownMetric = errors.New("unknown distance metric")

// Metric measures the distance between two cells.
type Metric int

const (
	Manhattan Metric = iota
	Euclidean
	Chebyshev
)

var metricNames = map[Metric]string{
	Manhattan: "manhattan",
	Euclidean: "euclidean",
	Chebyshev: "chebyshev",
}

func (m Metric) String() string {
	if name, ok := metricNames[m]; ok {
		return name
	}
	return fmt.Sprintf("metric(%d)", int(m))
}

// ParseMetric accepts "manhattan", "euclidean" or "chebyshev".
func ParseMetric(s string) (Metric, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for m, name := range metricNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, s)
}

// Distance returns the distance between a and b under m.
func (m Metric) Distance(a, b Point) float64 {
	dx := math.Abs(float64(a.X - b.X))
	dy := math.Abs(float64(a.Y - b.Y))
	switch m {
	case Euclidean:
		return math.Hypot(dx, dy)
	case Chebyshev:
		return math.Max(dx, dy)
	default:
		return dx + dy
	}
}

// Closest returns the target nearest to from, first one wins on ties.
// ok is false when targets is empty.
func (m Metric) Closest(from Point, targets []Point) (Point, bool) {
	if len(targets) == 0 {
		return Point{}, false
	}
	best := targets[0]
	bestD := m.Distance(from, best)
	for _, t := range targets[1:] {
		if d := m.Distance(from, t); d < bestD {
			best, bestD = t, d
		}
	}
	return best, true
}
