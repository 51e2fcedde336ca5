package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/brensch/snekguard/game"
)

func TestPrettyJSONHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewPrettyJSONHandler(&buf, nil)).With("game", "g1").WithGroup("decision")

	logger.Info("move chosen",
		"move", game.MoveLeft,
		"survivors", []game.Move{game.MoveUp, game.MoveLeft},
		"err", errors.New("boom"),
	)
	logger.Debug("hidden")

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not a single JSON object: %v\n%s", err, buf.String())
	}
	if got["msg"] != "move chosen" || got["level"] != "INFO" {
		t.Fatalf("header fields wrong: %v", got)
	}
	dec, ok := got["decision"].(map[string]any)
	if !ok {
		t.Fatalf("missing decision group: %v", got)
	}
	if dec["game"] != "g1" {
		t.Fatalf("handler attrs not nested: %v", dec)
	}
	if dec["move"] != "left" {
		t.Fatalf("move=%v want \"left\"", dec["move"])
	}
	if s, ok := dec["survivors"].([]any); !ok || len(s) != 2 || s[0] != "up" {
		t.Fatalf("survivors=%v", dec["survivors"])
	}
	if dec["err"] != "boom" {
		t.Fatalf("err=%v want boom", dec["err"])
	}
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	for _, format := range []string{"pretty", "json", "text"} {
		if _, err := New(&buf, format, "debug"); err != nil {
			t.Fatalf("New(%q): %v", format, err)
		}
	}
	if _, err := New(&buf, "xml", "info"); err == nil {
		t.Fatalf("unknown format should fail")
	}
	if _, err := New(&buf, "json", "loud"); err == nil {
		t.Fatalf("unknown level should fail")
	}
}
