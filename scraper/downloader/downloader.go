// Package downloader reads a finished game's event stream from the engine
// websocket and converts its frames into boards.
package downloader

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/brensch/snekguard/game"
)

type Config struct {
	// EngineURL is a websocket URL template taking the game ID.
	EngineURL      string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

func DefaultConfig() Config {
	return Config{
		EngineURL:      "wss://engine.battlesnake.com/games/%s/events",
		ConnectTimeout: 10 * time.Second,
		ReadTimeout:    30 * time.Second,
	}
}

// GameEvent is one message of the engine stream.
type GameEvent struct {
	Type string          `json:"Type"`
	Data json.RawMessage `json:"Data"`
}

type GameInfo struct {
	ID      string      `json:"ID"`
	Width   int         `json:"Width"`
	Height  int         `json:"Height"`
	Ruleset RulesetInfo `json:"Ruleset"`
}

type RulesetInfo struct {
	Name string `json:"name"`
}

type Frame struct {
	Turn    int     `json:"Turn"`
	Snakes  []Snake `json:"Snakes"`
	Food    []Coord `json:"Food"`
	Hazards []Coord `json:"Hazards"`
}

type Snake struct {
	ID     string  `json:"ID"`
	Name   string  `json:"Name"`
	Health int     `json:"Health"`
	Body   []Coord `json:"Body"`
	Death  *Death  `json:"Death"`
}

type Coord struct {
	X int `json:"X"`
	Y int `json:"Y"`
}

type Death struct {
	Cause string `json:"Cause"`
	Turn  int    `json:"Turn"`
}

// Alive reports whether the snake is still on the board in its frame.
func (s *Snake) Alive() bool {
	return s.Death == nil && s.Health > 0 && len(s.Body) > 0
}

// Game is a downloaded game: its header plus frames in turn order.
type Game struct {
	ID      string
	Width   int32
	Height  int32
	Ruleset string
	Frames  []Frame
}

// Snake returns the snake with id in frame i, or nil.
func (g *Game) Snake(i int, id string) *Snake {
	if i < 0 || i >= len(g.Frames) {
		return nil
	}
	for j := range g.Frames[i].Snakes {
		if g.Frames[i].Snakes[j].ID == id {
			return &g.Frames[i].Snakes[j]
		}
	}
	return nil
}

func toPoints(cs []Coord) []game.Point {
	out := make([]game.Point, len(cs))
	for i, c := range cs {
		out[i] = game.Point{X: int32(c.X), Y: int32(c.Y)}
	}
	return out
}

// State builds the board of frame i as seen by youID. Only snakes alive in
// that frame are included.
func (g *Game) State(i int, youID string) (*game.GameState, error) {
	if i < 0 || i >= len(g.Frames) {
		return nil, fmt.Errorf("frame %d out of range (%d frames)", i, len(g.Frames))
	}
	f := &g.Frames[i]

	ruleset := game.RulesetStandard
	if g.Ruleset == game.RulesetWrapped {
		ruleset = game.RulesetWrapped
	}
	state := &game.GameState{
		Width:   g.Width,
		Height:  g.Height,
		Turn:    int32(f.Turn),
		Ruleset: ruleset,
		YouId:   youID,
		Food:    toPoints(f.Food),
		Hazards: toPoints(f.Hazards),
	}
	for _, s := range f.Snakes {
		if !s.Alive() {
			continue
		}
		state.Snakes = append(state.Snakes, game.Snake{
			Id:     s.ID,
			Health: int32(s.Health),
			Body:   toPoints(s.Body),
		})
	}
	if _, err := state.FindSnake(youID); err != nil {
		return nil, fmt.Errorf("frame %d: %w", i, err)
	}
	return state, nil
}

// DownloadGame streams every event of gameID. A stream that ends without a
// clean close still returns the frames read so far, if any.
func DownloadGame(ctx context.Context, gameID string, cfg Config) (*Game, error) {
	dialer := websocket.Dialer{HandshakeTimeout: cfg.ConnectTimeout}
	conn, _, err := dialer.DialContext(ctx, fmt.Sprintf(cfg.EngineURL, gameID), nil)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	g := &Game{ID: gameID}
	for {
		_ = conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || len(g.Frames) > 0 {
				break
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("read: %w", err)
		}

		var ev GameEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			continue
		}
		done, err := g.apply(ev)
		if err != nil {
			return nil, fmt.Errorf("game %s: %w", gameID, err)
		}
		if done {
			break
		}
	}

	if g.Width == 0 || g.Height == 0 {
		g.Width, g.Height = 11, 11
	}
	return g, nil
}

// apply folds one event into g and reports whether the stream is over.
func (g *Game) apply(ev GameEvent) (bool, error) {
	switch ev.Type {
	case "game_info":
		var info GameInfo
		if err := json.Unmarshal(ev.Data, &info); err != nil {
			return false, fmt.Errorf("parse game_info: %w", err)
		}
		g.Width = int32(info.Width)
		g.Height = int32(info.Height)
		g.Ruleset = info.Ruleset.Name
	case "frame":
		var f Frame
		if err := json.Unmarshal(ev.Data, &f); err != nil {
			return false, fmt.Errorf("parse frame: %w", err)
		}
		g.Frames = append(g.Frames, f)
	case "game_end":
		return true, nil
	}
	return false, nil
}
