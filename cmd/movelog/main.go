package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brensch/snekguard/agent"
	"github.com/brensch/snekguard/history"
	"github.com/brensch/snekguard/store"
)

func main() {
	dataDir := flag.String("data", filepath.Join("data", "decisions"), "Comma-separated roots holding decision parquet files")
	gameID := flag.String("game", "", "Print every decision of this game")
	source := flag.String("source", "", "Restrict the move histogram to one source (live, replay, arena)")
	replay := flag.String("replay", "", "Re-run the search on a stored row: <file.parquet>:<game_id>:<turn>:<you_id>")
	budget := flag.Duration("budget", time.Second, "Search budget for -replay")
	flag.Parse()

	if *replay != "" {
		if err := replayRow(*replay, *budget); err != nil {
			log.Fatalf("replay: %v", err)
		}
		return
	}

	db, err := history.Open(strings.Split(*dataDir, ",")...)
	if err != nil {
		log.Fatalf("Failed to open history: %v", err)
	}
	defer db.Close()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if *gameID != "" {
		decs, err := db.GameDecisions(ctx, *gameID)
		if err != nil {
			log.Fatalf("Failed to load game: %v", err)
		}
		fmt.Printf("%-5s %-12s %-6s %-18s %-5s %-8s %-6s %s\n", "turn", "snake", "move", "survivors", "depth", "fallback", "actual", "died")
		for _, d := range decs {
			fmt.Printf("%-5d %-12.12s %-6s %-18s %-5d %-8t %-6s %t\n",
				d.Turn, d.YouID, d.Move, strings.Join(d.Survivors, ","), d.Depth, d.Fallback, d.Actual, d.DiedNext)
		}
		return
	}

	counts, err := db.MoveCounts(ctx, *source)
	if err != nil {
		log.Fatalf("Failed to count moves: %v", err)
	}
	summary, err := db.Summary(ctx)
	if err != nil {
		log.Fatalf("Failed to summarise: %v", err)
	}

	fmt.Printf("decisions=%d games=%d avg_depth=%.1f avg_nodes=%.0f fallback_rate=%.2f%%\n",
		summary.Decisions, summary.Games, summary.AvgDepth, summary.AvgNodes, 100*summary.FallbackRate())
	fmt.Printf("deaths=%d (fallback beforehand: %d)\n", summary.Deaths, summary.DeathsFlagged)
	for _, c := range counts {
		fmt.Printf("  %-6s %d\n", c.Move, c.Count)
	}
}

func replayRow(target string, budget time.Duration) error {
	parts := strings.Split(target, ":")
	if len(parts) != 4 {
		return fmt.Errorf("want <file>:<game>:<turn>:<you>, got %q", target)
	}
	var turn int32
	if _, err := fmt.Sscanf(parts[2], "%d", &turn); err != nil {
		return fmt.Errorf("bad turn %q: %w", parts[2], err)
	}

	rows, err := store.ReadDecisions(parts[0])
	if err != nil {
		return err
	}
	for _, row := range rows {
		if row.GameID != parts[1] || row.Turn != turn || row.YouID != parts[3] {
			continue
		}
		state, err := store.DecodeState(row.State)
		if err != nil {
			return err
		}
		cfg := agent.DefaultConfig()
		cfg.Budget = budget
		d, err := agent.Decide(state, time.Now().Add(budget), cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "stored: move=%s survivors=%v depth=%d fallback=%t\n",
			row.Move, row.Survivors, row.Depth, row.Fallback)
		fmt.Fprintf(os.Stdout, "rerun:  move=%s survivors=%v depth=%d fallback=%t nodes=%d in %s\n",
			d.Move, d.Survivors, d.Depth, d.Fallback, d.Nodes, d.Elapsed)
		return nil
	}
	return fmt.Errorf("no row for game %s turn %d snake %s in %s", parts[1], turn, parts[3], parts[0])
}
