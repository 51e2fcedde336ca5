package discovery

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/leaderboard/standard", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<a href="/leaderboard/standard/alice/stats">alice</a>
			<a href="/leaderboard/standard/alice/stats">alice again</a>
			<a href="/leaderboard/standard/bob/stats">bob</a>
			<a href="/leaderboard/standard">self</a>
		</body></html>`)
	})
	mux.HandleFunc("/leaderboard/standard/alice/stats", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<a href="/game/aaa-111">g</a><a href="/game/bbb-222">g</a><a href="/game/aaa-111">dup</a>`)
	})
	mux.HandleFunc("/leaderboard/standard/bob/stats", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<a href="/game/bbb-222">g</a><a href="/game/ccc-333">g</a>`)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestDiscover(t *testing.T) {
	ts := testSite(t)
	c := NewCrawler(Config{BaseURL: ts.URL, Arenas: []string{"standard", "missing"}}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	out := make(chan string, 10)
	known := func(id string) bool { return id == "ccc-333" }
	if err := c.Discover(context.Background(), known, out); err != nil {
		t.Fatalf("Discover: %v", err)
	}
	close(out)

	var got []string
	for id := range out {
		got = append(got, id)
	}
	want := []string{"aaa-111", "bbb-222"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestDiscoverMaxPlayers(t *testing.T) {
	ts := testSite(t)
	c := NewCrawler(Config{BaseURL: ts.URL, Arenas: []string{"standard"}, MaxPlayers: 1}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	out := make(chan string, 10)
	if err := c.Discover(context.Background(), func(string) bool { return false }, out); err != nil {
		t.Fatalf("Discover: %v", err)
	}
	close(out)
	n := 0
	for range out {
		n++
	}
	if n != 2 {
		t.Fatalf("got %d games from alice only, want 2", n)
	}
}

func TestDiscoverCancelled(t *testing.T) {
	ts := testSite(t)
	c := NewCrawler(Config{BaseURL: ts.URL, Arenas: []string{"standard"}}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Unbuffered and never read: only cancellation can unblock the send.
	err := c.Discover(ctx, func(string) bool { return false }, make(chan string))
	if err == nil {
		t.Fatal("expected context error")
	}
}
