package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/brensch/snekguard/store"
)

func writeRows(t *testing.T, dir string, rows []store.DecisionRow) {
	t.Helper()
	if _, err := store.WriteBatchParquetAtomic(dir, rows); err != nil {
		t.Fatalf("write batch: %v", err)
	}
}

func TestEmptyRoot(t *testing.T) {
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	counts, err := db.MoveCounts(context.Background(), "")
	if err != nil {
		t.Fatalf("MoveCounts: %v", err)
	}
	if len(counts) != 0 {
		t.Fatalf("expected no counts, got %v", counts)
	}
	s, err := db.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if s.Decisions != 0 || s.FallbackRate() != 0 {
		t.Fatalf("unexpected summary: %+v", s)
	}
}

func TestQueries(t *testing.T) {
	root := t.TempDir()
	writeRows(t, filepath.Join(root, "live"), []store.DecisionRow{
		{GameID: "g1", Turn: 0, YouID: "me", Source: "live", Move: "up", Survivors: []string{"up", "left"}, Depth: 5, Nodes: 10},
		{GameID: "g1", Turn: 1, YouID: "me", Source: "live", Move: "up", Survivors: []string{"up"}, Depth: 7, Nodes: 30},
		{GameID: "g1", Turn: 2, YouID: "me", Source: "live", Move: "left", Depth: 3, Fallback: true, DiedNext: true},
	})
	writeRows(t, filepath.Join(root, "replay"), []store.DecisionRow{
		{GameID: "g2", Turn: 0, YouID: "a", Source: "replay", Move: "down", Actual: "down", Depth: 4},
	})
	// Unpublished files must be ignored.
	tmp := filepath.Join(root, "live", "tmp")
	if err := os.MkdirAll(tmp, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmp, "partial.parquet"), []byte("junk"), 0o644); err != nil {
		t.Fatal(err)
	}

	db, err := Open(root)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	counts, err := db.MoveCounts(ctx, "")
	if err != nil {
		t.Fatalf("MoveCounts: %v", err)
	}
	if len(counts) != 3 || counts[0] != (MoveCount{Move: "up", Count: 2}) {
		t.Fatalf("MoveCounts = %+v", counts)
	}

	live, err := db.MoveCounts(ctx, "replay")
	if err != nil {
		t.Fatalf("MoveCounts(replay): %v", err)
	}
	if len(live) != 1 || live[0].Move != "down" {
		t.Fatalf("MoveCounts(replay) = %+v", live)
	}

	decs, err := db.GameDecisions(ctx, "g1")
	if err != nil {
		t.Fatalf("GameDecisions: %v", err)
	}
	if len(decs) != 3 {
		t.Fatalf("got %d decisions, want 3", len(decs))
	}
	if len(decs[0].Survivors) != 2 || decs[0].Survivors[1] != "left" {
		t.Fatalf("turn 0 survivors = %v", decs[0].Survivors)
	}
	if !decs[2].Fallback || !decs[2].DiedNext || decs[2].Survivors != nil {
		t.Fatalf("turn 2 = %+v", decs[2])
	}

	s, err := db.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if s.Decisions != 4 || s.Games != 2 || s.Fallbacks != 1 || s.DeathsFlagged != 1 {
		t.Fatalf("Summary = %+v", s)
	}
	if s.FallbackRate() != 0.25 {
		t.Fatalf("FallbackRate = %v", s.FallbackRate())
	}
}
