package selfplay

import (
	"strings"

	"github.com/brensch/snekguard/game"
)

// Cell kinds for Board.
const (
	CellEmpty  = '.'
	CellFood   = 'F'
	CellHazard = 'x'
)

// Board lays state out as rows of cells, top row first. Snake cells hold the
// snake's index: 'A'+i for a head, 'a'+i for the body.
func Board(state *game.GameState) [][]rune {
	grid := make([][]rune, state.Height)
	for y := range grid {
		grid[y] = []rune(strings.Repeat(string(CellEmpty), int(state.Width)))
	}
	set := func(p game.Point, r rune) {
		if state.InBounds(p) {
			grid[state.Height-1-p.Y][p.X] = r
		}
	}

	for _, h := range state.Hazards {
		set(h, CellHazard)
	}
	for _, f := range state.Food {
		set(f, CellFood)
	}
	for i, s := range state.Snakes {
		// Tail first so the head wins on stacked segments.
		for j := len(s.Body) - 1; j >= 0; j-- {
			r := rune('a' + i)
			if j == 0 {
				r = rune('A' + i)
			}
			set(s.Body[j], r)
		}
	}
	return grid
}

// Render is Board as plain text.
func Render(state *game.GameState) string {
	var sb strings.Builder
	for _, row := range Board(state) {
		for x, r := range row {
			if x > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteRune(r)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
