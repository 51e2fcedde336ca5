// Command scraper audits the survival search against real games: it discovers
// recent game IDs on the leaderboard, downloads each game's frames, replays
// every snake's decision through the search and writes the results as
// decision parquet.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/brensch/snekguard/agent"
	"github.com/brensch/snekguard/logging"
	"github.com/brensch/snekguard/scraper/audit"
	"github.com/brensch/snekguard/scraper/discovery"
	"github.com/brensch/snekguard/scraper/downloader"
	"github.com/brensch/snekguard/store"
)

func main() {
	outDir := flag.String("out-dir", getEnvOrDefault("OUT_DIR", "data/replay"), "Directory to write decision .parquet batches")
	logPath := flag.String("log-path", getEnvOrDefault("WRITTEN_LOG", "data/replay_games.log"), "Append-only log of game IDs already audited")
	arenas := flag.String("arenas", getEnvOrDefault("ARENAS", "standard,standard-duels"), "Comma-separated leaderboards to crawl")
	maxPlayers := flag.Int("max-players", getEnvIntOrDefault("MAX_PLAYERS", 50), "Maximum number of players to check per leaderboard")
	requestDelay := flag.Duration("delay", getEnvDurationOrDefault("DELAY", 500*time.Millisecond), "Delay between HTTP requests")
	budget := flag.Duration("budget", getEnvDurationOrDefault("BUDGET", 100*time.Millisecond), "Search budget per replayed decision")
	flushGames := flag.Int("flush-games", getEnvIntOrDefault("FLUSH_GAMES", 200), "Flush when this many games are buffered")
	logFormat := flag.String("log-format", getEnvOrDefault("LOG_FORMAT", "pretty"), "Log format: pretty, json or text")
	logLevel := flag.String("log-level", getEnvOrDefault("LOG_LEVEL", "info"), "Log level")
	flag.Parse()

	logger, err := logging.New(os.Stderr, *logFormat, *logLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	written, err := store.OpenWrittenLog(*logPath)
	if err != nil {
		log.Fatalf("Failed to open written log: %v", err)
	}
	defer written.Close()

	cfg := agent.DefaultConfig()
	cfg.Budget = *budget

	discCfg := discovery.DefaultConfig()
	discCfg.Arenas = strings.Split(*arenas, ",")
	discCfg.MaxPlayers = *maxPlayers
	discCfg.RequestDelay = *requestDelay

	logger.Info("starting replay audit",
		"out_dir", *outDir,
		"written_log", *logPath,
		"already_audited", written.Count(),
		"arenas", discCfg.Arenas,
		"budget", *budget,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ids := make(chan string, 1000)
	go func() {
		defer close(ids)
		if err := discovery.NewCrawler(discCfg, logger).Discover(ctx, written.Has, ids); err != nil {
			logger.Warn("discovery stopped", "err", err)
		}
	}()

	var (
		rowsBuf  []store.DecisionRow
		gamesBuf []string
		total    audit.Stats
		failed   int
	)

	flush := func(reason string) {
		if len(gamesBuf) == 0 {
			return
		}
		path, err := store.WriteBatchParquetAtomic(*outDir, rowsBuf)
		if err != nil {
			logger.Error("flush failed", "reason", reason, "err", err)
			return
		}
		if err := written.Add(gamesBuf...); err != nil {
			// Parquet is already published; a duplicate audit later is harmless.
			logger.Warn("written log append failed", "err", err)
		}
		logger.Info("flushed batch", "reason", reason, "games", len(gamesBuf), "rows", len(rowsBuf), "path", path)
		rowsBuf = rowsBuf[:0]
		gamesBuf = gamesBuf[:0]
	}

	dlCfg := downloader.DefaultConfig()
	for id := range ids {
		if ctx.Err() != nil {
			break
		}
		g, err := downloader.DownloadGame(ctx, id, dlCfg)
		if err != nil || len(g.Frames) < 2 {
			failed++
			logger.Debug("download failed", "game_id", id, "err", err)
			continue
		}

		rows, stats, err := audit.Game(g, cfg, *budget)
		if err != nil {
			failed++
			logger.Warn("audit failed", "game_id", id, "err", err)
			continue
		}
		total.Decisions += stats.Decisions
		total.Deaths += stats.Deaths
		total.Predicted += stats.Predicted
		total.Disagreements += stats.Disagreements

		logger.Info("audited game",
			"game_id", id,
			"ruleset", g.Ruleset,
			"turns", len(g.Frames),
			"deaths", stats.Deaths,
			"predicted", stats.Predicted,
			"disagreements", stats.Disagreements,
		)

		rowsBuf = append(rowsBuf, rows...)
		gamesBuf = append(gamesBuf, id)
		if len(gamesBuf) >= *flushGames {
			flush("count")
		}
	}
	flush("final")

	log.Printf("Audit complete: decisions=%d deaths=%d predicted=%d disagreements=%d failed=%d",
		total.Decisions, total.Deaths, total.Predicted, total.Disagreements, failed)
}

// Environment variable helpers

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		var i int
		if _, err := fmt.Sscanf(val, "%d", &i); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
