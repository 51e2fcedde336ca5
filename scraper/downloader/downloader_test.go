package downloader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/brensch/snekguard/game"
)

var testEvents = []string{
	`{"Type":"game_info","Data":{"ID":"g1","Width":7,"Height":5,"Ruleset":{"name":"wrapped"}}}`,
	`{"Type":"frame","Data":{"Turn":0,"Food":[{"X":3,"Y":3}],"Hazards":[{"X":0,"Y":0}],"Snakes":[` +
		`{"ID":"a","Health":100,"Body":[{"X":1,"Y":1},{"X":1,"Y":1},{"X":1,"Y":1}]},` +
		`{"ID":"b","Health":100,"Body":[{"X":5,"Y":3},{"X":5,"Y":3},{"X":5,"Y":3}]}]}}`,
	`{"Type":"frame","Data":{"Turn":1,"Food":[{"X":3,"Y":3}],"Snakes":[` +
		`{"ID":"a","Health":99,"Body":[{"X":2,"Y":1},{"X":1,"Y":1},{"X":1,"Y":1}]},` +
		`{"ID":"b","Health":99,"Body":[{"X":5,"Y":4},{"X":5,"Y":3},{"X":5,"Y":3}],"Death":{"Cause":"snake-collision","Turn":1}}]}}`,
	`{"Type":"game_end","Data":{}}`,
}

func engine(t *testing.T, events []string) Config {
	t.Helper()
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/games/g1/events" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, ev := range events {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(ev)); err != nil {
				return
			}
		}
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}))
	t.Cleanup(ts.Close)

	return Config{
		EngineURL:      "ws" + strings.TrimPrefix(ts.URL, "http") + "/games/%s/events",
		ConnectTimeout: time.Second,
		ReadTimeout:    time.Second,
	}
}

func TestDownloadGame(t *testing.T) {
	cfg := engine(t, testEvents)
	g, err := DownloadGame(context.Background(), "g1", cfg)
	if err != nil {
		t.Fatalf("DownloadGame: %v", err)
	}
	if g.Width != 7 || g.Height != 5 || g.Ruleset != "wrapped" {
		t.Fatalf("header = %+v", g)
	}
	if len(g.Frames) != 2 {
		t.Fatalf("frames = %d, want 2", len(g.Frames))
	}
	if b := g.Snake(1, "b"); b == nil || b.Alive() {
		t.Fatalf("b should be dead in frame 1: %+v", b)
	}
}

func TestDownloadGameUnknown(t *testing.T) {
	cfg := engine(t, testEvents)
	if _, err := DownloadGame(context.Background(), "nope", cfg); err == nil {
		t.Fatal("expected dial error for unknown game")
	}
}

func TestState(t *testing.T) {
	g, err := DownloadGame(context.Background(), "g1", engine(t, testEvents))
	if err != nil {
		t.Fatal(err)
	}

	s, err := g.State(0, "a")
	if err != nil {
		t.Fatalf("State(0): %v", err)
	}
	if !s.Wrapped() || s.Width != 7 || len(s.Snakes) != 2 || len(s.Hazards) != 1 {
		t.Fatalf("frame 0 state = %+v", s)
	}

	s, err = g.State(1, "a")
	if err != nil {
		t.Fatalf("State(1): %v", err)
	}
	if len(s.Snakes) != 1 || s.Snakes[0].Head() != (game.Point{X: 2, Y: 1}) {
		t.Fatalf("dead snake kept or head wrong: %+v", s.Snakes)
	}

	if _, err := g.State(1, "b"); !errors.Is(err, game.ErrSnakeNotFound) {
		t.Fatalf("State for dead snake: err = %v", err)
	}
	if _, err := g.State(5, "a"); err == nil {
		t.Fatal("expected out of range error")
	}
}
