// Package store persists move decisions as Parquet batches and keeps an
// append-only log of processed game ids.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/brensch/snekguard/agent"
	"github.com/brensch/snekguard/game"
)

const decisionSchema = "decision_row_v1"

// DecisionRow is one move decision for one snake on one turn.
//
// Moves are stored as their wire tokens. State is the RawGameState JSON the
// decision was made on, so any row can be replayed through the search.
type DecisionRow struct {
	GameID     string   `parquet:"game_id,dict"`
	Turn       int32    `parquet:"turn"`
	YouID      string   `parquet:"you_id,dict"`
	Source     string   `parquet:"source,dict"`
	Ruleset    string   `parquet:"ruleset,dict"`
	Width      int32    `parquet:"width"`
	Height     int32    `parquet:"height"`
	Move       string   `parquet:"move,dict"`
	Candidates []string `parquet:"candidates"`
	Survivors  []string `parquet:"survivors"`
	Depth      int32    `parquet:"depth"`
	Fallback   bool     `parquet:"fallback"`
	Nodes      int64    `parquet:"nodes"`
	ElapsedUs  int64    `parquet:"elapsed_us"`
	// Actual is the move the snake really made, when known (replays).
	Actual string `parquet:"actual,optional,dict"`
	// DiedNext is set when the snake was eliminated on the following turn.
	DiedNext  bool   `parquet:"died_next"`
	State     []byte `parquet:"state,zstd"`
	CreatedNs int64  `parquet:"created_ns"`
}

// RawGameState is the JSON snapshot stored in DecisionRow.State.
// Coordinates follow Battlesnake conventions: (0,0) is bottom-left.
type RawGameState struct {
	Width   int32   `json:"width"`
	Height  int32   `json:"height"`
	Turn    int32   `json:"turn"`
	Ruleset string  `json:"ruleset,omitempty"`
	YouID   string  `json:"you_id"`
	Food    []Point `json:"food"`
	Hazards []Point `json:"hazards,omitempty"`
	Snakes  []Snake `json:"snakes"`
}

type Point struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

type Snake struct {
	ID     string  `json:"id"`
	Health int32   `json:"health"`
	Body   []Point `json:"body"`
}

func toPoints(ps []game.Point) []Point {
	out := make([]Point, len(ps))
	for i, p := range ps {
		out[i] = Point{X: p.X, Y: p.Y}
	}
	return out
}

func fromPoints(ps []Point) []game.Point {
	out := make([]game.Point, len(ps))
	for i, p := range ps {
		out[i] = game.Point{X: p.X, Y: p.Y}
	}
	return out
}

// EncodeState snapshots state as RawGameState JSON.
func EncodeState(state *game.GameState) ([]byte, error) {
	if state.Width <= 0 || state.Height <= 0 {
		return nil, fmt.Errorf("invalid state dimensions: %dx%d", state.Width, state.Height)
	}
	raw := RawGameState{
		Width:   state.Width,
		Height:  state.Height,
		Turn:    state.Turn,
		Ruleset: state.Ruleset,
		YouID:   state.YouId,
		Food:    toPoints(state.Food),
		Hazards: toPoints(state.Hazards),
		Snakes:  make([]Snake, len(state.Snakes)),
	}
	for i, s := range state.Snakes {
		raw.Snakes[i] = Snake{ID: s.Id, Health: s.Health, Body: toPoints(s.Body)}
	}
	return json.Marshal(raw)
}

// DecodeState is the inverse of EncodeState.
func DecodeState(b []byte) (*game.GameState, error) {
	var raw RawGameState
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	state := &game.GameState{
		Width:   raw.Width,
		Height:  raw.Height,
		Turn:    raw.Turn,
		Ruleset: raw.Ruleset,
		YouId:   raw.YouID,
		Food:    fromPoints(raw.Food),
		Hazards: fromPoints(raw.Hazards),
		Snakes:  make([]game.Snake, len(raw.Snakes)),
	}
	for i, s := range raw.Snakes {
		state.Snakes[i] = game.Snake{Id: s.ID, Health: s.Health, Body: fromPoints(s.Body)}
	}
	return state, nil
}

// NewDecisionRow flattens a decision made on state.
func NewDecisionRow(gameID, source string, state *game.GameState, d agent.Decision) (DecisionRow, error) {
	raw, err := EncodeState(state)
	if err != nil {
		return DecisionRow{}, err
	}
	return DecisionRow{
		GameID:     gameID,
		Turn:       state.Turn,
		YouID:      state.YouId,
		Source:     source,
		Ruleset:    state.Ruleset,
		Width:      state.Width,
		Height:     state.Height,
		Move:       d.Move.String(),
		Candidates: game.MoveNames(d.Candidates),
		Survivors:  game.MoveNames(d.Survivors),
		Depth:      int32(d.Depth),
		Fallback:   d.Fallback,
		Nodes:      d.Nodes,
		ElapsedUs:  d.Elapsed.Microseconds(),
		State:      raw,
		CreatedNs:  time.Now().UnixNano(),
	}, nil
}

// WriteBatchParquetAtomic writes rows into outDir/tmp and renames the file
// into outDir, so readers globbing outDir never see a partial file.
func WriteBatchParquetAtomic(outDir string, rows []DecisionRow) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	tmpDir := filepath.Join(outDir, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("create tmp dir: %w", err)
	}

	name := fmt.Sprintf("batch_%d.parquet", time.Now().UnixNano())
	finalPath := filepath.Join(outDir, name)
	tmpPath := filepath.Join(tmpDir, name+".tmp")
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.SkipPageBounds("state"),
		parquet.KeyValueMetadata("schema", decisionSchema),
	); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename parquet: %w", err)
	}
	return finalPath, nil
}

// ReadDecisions loads every row of one batch file.
func ReadDecisions(path string) ([]DecisionRow, error) {
	rows, err := parquet.ReadFile[DecisionRow](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	return rows, nil
}
